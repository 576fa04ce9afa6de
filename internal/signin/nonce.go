package signin

import (
	"fmt"
	"time"

	"github.com/save2win/save2win-front/internal/crypto"
)

// Nonce is the single-use anti-forgery value sent to the identity provider
// as the state parameter.
type Nonce struct {
	Value     string
	CreatedAt time.Time
}

// GenerateNonce draws 256 bits from the system CSPRNG. A failure means the
// entropy source is unusable and the request cannot proceed.
func GenerateNonce() (Nonce, error) {
	value, err := crypto.GenerateSecureToken()
	if err != nil {
		return Nonce{}, fmt.Errorf("generating nonce: %w", err)
	}
	return Nonce{Value: value, CreatedAt: time.Now()}, nil
}
