// Package signature computes and verifies the HMAC-SHA256 signatures the
// hosted checkout gateway puts on request and callback payloads.
//
// A payload is signed over its canonical string: the signed fields rendered
// as name=value and joined with commas, in the order the payload declares in
// its signed_field_names field. The digest is base64 encoded.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var ErrFieldMissing = errors.New("signed field missing")

type Field struct {
	Name  string
	Value string
}

func Canonical(fields []Field) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.Name)
		b.WriteByte('=')
		b.WriteString(f.Value)
	}
	return b.String()
}

// Sign returns the base64 HMAC-SHA256 digest of the canonical string.
func Sign(fields []Field, secretKey string) (string, error) {
	for i, f := range fields {
		if f.Name == "" {
			return "", fmt.Errorf("%w: field %d has no name", ErrFieldMissing, i)
		}
	}

	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(Canonical(fields)))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Verify recomputes the signature and compares it in constant time.
func Verify(fields []Field, secretKey, candidate string) (bool, error) {
	expected, err := Sign(fields, secretKey)
	if err != nil {
		return false, err
	}

	return hmac.Equal([]byte(expected), []byte(candidate)), nil
}

// SplitNames parses a signed_field_names value. Names are kept byte for
// byte, so a padded name matches no field.
func SplitNames(list string) []string {
	if list == "" {
		return nil
	}
	return strings.Split(list, ",")
}

// FieldsFromMap picks the named fields out of values, in the order given.
// values is only read.
func FieldsFromMap(names []string, values map[string]string) ([]Field, error) {
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		v, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrFieldMissing, name)
		}
		fields = append(fields, Field{Name: name, Value: v})
	}
	return fields, nil
}
