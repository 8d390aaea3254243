package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HashReference authenticates a checkout link: the hex HMAC-SHA256 of the
// merchant reference under the portal's hash key.
func HashReference(reference, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(reference))
	return hex.EncodeToString(mac.Sum(nil))
}

func ReferenceHashMatches(reference, key, candidate string) bool {
	return hmac.Equal([]byte(HashReference(reference, key)), []byte(candidate))
}
