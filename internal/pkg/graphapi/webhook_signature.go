package graphapi

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strings"
)

// VerifyWebhookSignature checks the X-Hub-Signature-256 header of a Graph
// webhook delivery (hex HMAC of the raw body with the app secret, prefixed
// with the algorithm name).
func VerifyWebhookSignature(payload []byte, signatureHeader, appSecret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(appSecret)
	if sig == "" || secret == "" {
		return false
	}

	hashFunc := sha256.New
	switch {
	case strings.HasPrefix(sig, "sha256="):
		sig = strings.TrimPrefix(sig, "sha256=")
	case strings.HasPrefix(sig, "sha1="):
		// Legacy X-Hub-Signature deliveries
		sig = strings.TrimPrefix(sig, "sha1=")
		hashFunc = sha1.New
	}

	decodedSig, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	return verifyHMAC(payload, decodedSig, []byte(secret), hashFunc)
}

func verifyHMAC(payload, expectedSig, secret []byte, hashFunc func() hash.Hash) bool {
	mac := hmac.New(hashFunc, secret)
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expectedSig)
}
