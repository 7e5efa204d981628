package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SignatureVerifier checks webhook authenticity. The provider signs the
// concatenation "{orderID}|{paymentID}" with HMAC-SHA256 over a shared secret.
type SignatureVerifier interface {
	Verify(orderID, paymentID, signature string) bool
}

type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

// Sign computes the hex-encoded signature for the given ids.
func (v *HMACVerifier) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(fmt.Sprintf("%s|%s", orderID, paymentID)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares in constant time so the check leaks no timing information.
func (v *HMACVerifier) Verify(orderID, paymentID, signature string) bool {
	expected := v.Sign(orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
