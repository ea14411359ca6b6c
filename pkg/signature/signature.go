package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the lowercase hex HMAC-SHA256 digest of payload under secret.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a declared digest against one computed over the raw payload
// bytes. The payload must be the exact bytes received on the wire; a
// re-serialized form of the parsed JSON is a different signature base.
func Verify(payload []byte, declared, secret string) bool {
	return hmac.Equal([]byte(Sign(payload, secret)), []byte(declared))
}
