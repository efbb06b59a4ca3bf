package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverrideTokenRedeemableOnce(t *testing.T) {
	issuer := NewOverrideIssuer("secret", time.Minute)
	tok, err := issuer.Issue("sess-1", "mentor-1")
	require.NoError(t, err)

	require.NoError(t, issuer.Redeem(tok, "sess-1", "mentor-1"))
	err = issuer.Redeem(tok, "sess-1", "mentor-1")
	require.ErrorIs(t, err, ErrOverrideInvalid)
}

func TestOverrideTokenRejectsWrongSession(t *testing.T) {
	issuer := NewOverrideIssuer("secret", time.Minute)
	tok, err := issuer.Issue("sess-1", "mentor-1")
	require.NoError(t, err)

	err = issuer.Redeem(tok, "sess-2", "mentor-1")
	require.ErrorIs(t, err, ErrOverrideInvalid)
}

func TestOverrideTokenRejectsBadSignature(t *testing.T) {
	issuer := NewOverrideIssuer("secret", time.Minute)
	tok, err := issuer.Issue("sess-1", "mentor-1")
	require.NoError(t, err)

	other := NewOverrideIssuer("different-secret", time.Minute)
	err = other.Redeem(tok, "sess-1", "mentor-1")
	require.ErrorIs(t, err, ErrOverrideInvalid)
}

func TestOverrideTokenExpires(t *testing.T) {
	issuer := NewOverrideIssuer("secret", -time.Second) // already expired
	tok, err := issuer.Issue("sess-1", "mentor-1")
	require.NoError(t, err)

	err = issuer.Redeem(tok, "sess-1", "mentor-1")
	require.ErrorIs(t, err, ErrOverrideInvalid)
	assert.Contains(t, err.Error(), "expired")
}
