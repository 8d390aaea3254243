package gatewayapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	headerMerchantID = "v-c-merchant-id"
	headerDigest     = "Digest"
	headerSignature  = "Signature"
	signedHeaders    = "host date (request-target) digest v-c-merchant-id"
)

// requestSigner produces the gateway's HTTP signature headers. The shared
// secret is distributed base64 encoded.
type requestSigner struct {
	merchantID string
	keyID      string
	secret     []byte
	host       string
	now        func() time.Time
}

func newRequestSigner(merchantID, keyID, sharedSecret, host string) (*requestSigner, error) {
	secret, err := base64.StdEncoding.DecodeString(sharedSecret)
	if err != nil {
		return nil, fmt.Errorf("decode gateway shared secret: %w", err)
	}

	return &requestSigner{
		merchantID: merchantID,
		keyID:      keyID,
		secret:     secret,
		host:       host,
		now:        time.Now,
	}, nil
}

func digest(body []byte) string {
	sum := sha256.Sum256(body)
	return "SHA-256=" + base64.StdEncoding.EncodeToString(sum[:])
}

// headers returns the signed headers and the Signature header. Host is
// signed but set by the transport from the request URL.
func (s *requestSigner) headers(method, target string, body []byte) map[string]string {
	date := s.now().UTC().Format(http.TimeFormat)
	bodyDigest := digest(body)

	signingString := strings.Join([]string{
		"host: " + s.host,
		"date: " + date,
		"(request-target): " + strings.ToLower(method) + " " + target,
		"digest: " + bodyDigest,
		headerMerchantID + ": " + s.merchantID,
	}, "\n")

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(signingString))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return map[string]string{
		"Date":           date,
		headerDigest:     bodyDigest,
		headerMerchantID: s.merchantID,
		headerSignature: fmt.Sprintf(`keyid="%s", algorithm="HmacSHA256", headers="%s", signature="%s"`,
			s.keyID, signedHeaders, sig),
	}
}
