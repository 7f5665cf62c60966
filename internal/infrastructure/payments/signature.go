package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"strings"
)

// SignatureVerifier proves a webhook body originated from Flutterwave before
// its contents are trusted. The provider sends hex(HMAC-SHA256(secret, body))
// in the `verif-hash` header.
//
// Verification runs over the exact raw request bytes captured before any JSON
// parsing; re-serializing a parsed body is not guaranteed to match what the
// provider signed.
type SignatureVerifier struct {
	secret []byte
}

func NewSignatureVerifier(sharedSecret string) *SignatureVerifier {
	if strings.TrimSpace(sharedSecret) == "" {
		// Fail closed: a misconfigured deployment must reject everything,
		// never verify everything.
		log.Printf("[webhook][verifier] shared secret not configured, all webhooks will be rejected")
		return &SignatureVerifier{}
	}
	return &SignatureVerifier{secret: []byte(sharedSecret)}
}

// Verify reports whether signatureHeader matches the HMAC of rawBody.
// Malformed input of any kind is simply "not verified"; it never panics.
func (v *SignatureVerifier) Verify(rawBody []byte, signatureHeader string) bool {
	if len(v.secret) == 0 || signatureHeader == "" {
		return false
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(rawBody)
	expected := mac.Sum(nil)

	provided, err := hex.DecodeString(strings.TrimSpace(signatureHeader))
	if err != nil {
		return false
	}
	return hmac.Equal(expected, provided)
}
