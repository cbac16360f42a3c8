package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSignatureMissing and ErrSignatureFormat mean the notification cannot
	// be verified at all. Callers acknowledge and drop it instead of failing,
	// otherwise the sender retries a request that can never parse.
	ErrSignatureMissing = errors.New("signature header missing")
	ErrSignatureFormat  = errors.New("signature header malformed")

	ErrSignatureMismatch = errors.New("signature hash mismatch")
)

type Signature struct {
	Timestamp string
	Hash      string
}

// VerifySignature validates a Mercado Pago x-signature header. The header is
// a comma-separated list of key=value pairs carrying a timestamp (ts) and an
// HMAC-SHA256 hex digest (v1) over the canonical manifest
// "id:{resourceID};request-id:{requestID};ts:{ts};".
func VerifySignature(header, requestID, resourceID, secret string) (Signature, error) {
	if header == "" {
		return Signature{}, ErrSignatureMissing
	}

	var sig Signature
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			sig.Timestamp = strings.TrimSpace(value)
		case "v1":
			sig.Hash = strings.TrimSpace(value)
		}
	}

	if sig.Timestamp == "" || sig.Hash == "" {
		return Signature{}, ErrSignatureFormat
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", resourceID, requestID, sig.Timestamp)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	computed := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(computed), []byte(sig.Hash)) {
		return sig, ErrSignatureMismatch
	}
	return sig, nil
}
