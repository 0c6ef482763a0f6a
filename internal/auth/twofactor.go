package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/promptforge/backend/internal/models"
)

// TwoFactorTTL is how long an emailed login code stays valid.
const TwoFactorTTL = 10 * time.Minute

var (
	ErrCodeMismatch = errors.New("invalid 2fa code")
	ErrCodeExpired  = errors.New("2fa code expired")
)

// GenerateCode returns a random 6-digit one-time code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate 2fa code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// VerifyCode checks a submitted code against the pending challenge on the
// user row. A wrong or expired code leaves the challenge in place; the user
// stays pending until a correct code arrives or the code goes stale.
func VerifyCode(u *models.User, code string, now time.Time) error {
	if u.TwoFactorCode == nil || *u.TwoFactorCode != code {
		return ErrCodeMismatch
	}
	if u.TwoFactorExpiry == nil || now.After(*u.TwoFactorExpiry) {
		return ErrCodeExpired
	}
	return nil
}
