package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestSignatureVerifier_Verify(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"event":"charge.completed","data":{"tx_ref":"yangu_p1_1"}}`)

	t.Run("valid signature", func(t *testing.T) {
		v := NewSignatureVerifier(secret)
		if !v.Verify(body, signBody(secret, body)) {
			t.Fatalf("expected valid signature to verify")
		}
	})

	t.Run("surrounding whitespace in header", func(t *testing.T) {
		v := NewSignatureVerifier(secret)
		if !v.Verify(body, "  "+signBody(secret, body)+"\n") {
			t.Fatalf("expected trimmed header to verify")
		}
	})

	t.Run("tampered body", func(t *testing.T) {
		v := NewSignatureVerifier(secret)
		sig := signBody(secret, body)
		tampered := []byte(`{"event":"charge.completed","data":{"tx_ref":"yangu_p2_1"}}`)
		if v.Verify(tampered, sig) {
			t.Fatalf("tampered body must not verify")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		v := NewSignatureVerifier(secret)
		if v.Verify(body, signBody("other-secret", body)) {
			t.Fatalf("signature from a different secret must not verify")
		}
	})

	t.Run("empty header", func(t *testing.T) {
		v := NewSignatureVerifier(secret)
		if v.Verify(body, "") {
			t.Fatalf("empty header must not verify")
		}
	})

	t.Run("malformed hex", func(t *testing.T) {
		v := NewSignatureVerifier(secret)
		if v.Verify(body, "not-hex-at-all") {
			t.Fatalf("malformed hex must not verify")
		}
	})

	t.Run("missing secret rejects everything", func(t *testing.T) {
		v := NewSignatureVerifier("   ")
		if v.Verify(body, signBody("", body)) {
			t.Fatalf("verifier without a secret must reject")
		}
	})
}
