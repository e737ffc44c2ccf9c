package verification

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/atelierhq/chipverify/internal/server/config"
	"github.com/atelierhq/chipverify/internal/server/models"
)

// signatureMessage builds the payload a chip signs: the tag id and the raw
// counter string joined by a fixed separator. The counter is signed as
// presented, so signature verification happens before the counter is parsed.
func signatureMessage(tagID, counter string) []byte {
	return []byte(tagID + ":" + counter)
}

// Verifier checks a caller-supplied authentication code against a chip's
// pre-shared secret. Implementations are resolved once at startup from the
// configured verifier mode and never switched at runtime.
type Verifier interface {
	Verify(chip *models.Chip, tagID, counter, signature string) bool
}

// NewVerifier resolves the verifier for the configured mode.
func NewVerifier(mode, bypassCode string) (Verifier, error) {
	switch mode {
	case config.VerifierModeProduction:
		return HMACVerifier{}, nil
	case config.VerifierModeDevelopment:
		return DevVerifier{bypass: bypassCode}, nil
	default:
		return nil, fmt.Errorf("unknown verifier mode %q", mode)
	}
}

// HMACVerifier is the production verifier: HMAC-SHA256 over the signature
// message with the chip's secret as key, compared in constant time. Chips
// without a secret always fail.
type HMACVerifier struct{}

func (HMACVerifier) Verify(chip *models.Chip, tagID, counter, signature string) bool {
	if chip.Secret == "" {
		return false
	}

	// lenient about case, fails closed on malformed hex
	supplied, err := hex.DecodeString(strings.ToLower(signature))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(chip.Secret))
	mac.Write(signatureMessage(tagID, counter))

	return subtle.ConstantTimeCompare(mac.Sum(nil), supplied) == 1
}

// DevVerifier lets secret-less unit chips pass with an exact match against
// the operator-configured bypass code. Chips that do have a secret are still
// verified with HMAC. This verifier exists for development and unit chips
// only; it is unreachable when the server runs in production mode.
type DevVerifier struct {
	hmac   HMACVerifier
	bypass string
}

func (v DevVerifier) Verify(chip *models.Chip, tagID, counter, signature string) bool {
	if chip.Secret == "" {
		return v.bypass != "" && signature == v.bypass
	}
	return v.hmac.Verify(chip, tagID, counter, signature)
}
