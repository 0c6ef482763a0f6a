package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/promptforge/backend/internal/models"
)

func TestGenerateCode_SixDigits(t *testing.T) {
	t.Parallel()

	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, c := range code {
			require.True(t, c >= '0' && c <= '9', "code %q contains non-digit", code)
		}
	}
}

func pendingUser(code string, expiry time.Time) *models.User {
	return &models.User{
		ID:              "u1",
		TwoFactorCode:   &code,
		TwoFactorExpiry: &expiry,
	}
}

func TestVerifyCode_Valid(t *testing.T) {
	t.Parallel()

	now := time.Now()
	u := pendingUser("123456", now.Add(TwoFactorTTL))
	require.NoError(t, VerifyCode(u, "123456", now))
}

func TestVerifyCode_Mismatch(t *testing.T) {
	t.Parallel()

	now := time.Now()
	u := pendingUser("123456", now.Add(TwoFactorTTL))
	require.ErrorIs(t, VerifyCode(u, "654321", now), ErrCodeMismatch)
}

func TestVerifyCode_Expired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	u := pendingUser("123456", now.Add(-time.Second))
	require.ErrorIs(t, VerifyCode(u, "123456", now), ErrCodeExpired)
}

func TestVerifyCode_NoChallenge(t *testing.T) {
	t.Parallel()

	u := &models.User{ID: "u1"}
	require.ErrorIs(t, VerifyCode(u, "123456", time.Now()), ErrCodeMismatch)
}
