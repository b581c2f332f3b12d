package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

func TestTokenServiceIssueAndValidate(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "attendance-tracker"}, nil)

	issued, err := svc.Issue("local")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)

	claims, err := svc.Validate(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "local", claims.Subject)
}

func TestTokenServiceRejectsForeignAndExpiredTokens(t *testing.T) {
	issuer := NewTokenService(TokenConfig{Secret: "other", Expiry: time.Hour, Issuer: "attendance-tracker"}, nil)
	issued, err := issuer.Issue("local")
	require.NoError(t, err)

	svc := NewTokenService(TokenConfig{Secret: "secret", Expiry: time.Hour, Issuer: "attendance-tracker"}, nil)
	_, err = svc.Validate(issued.Token)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))

	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := svc.Issue("local")
	require.NoError(t, err)
	svc.now = time.Now
	_, err = svc.Validate(old.Token)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))

	_, err = svc.Validate("not-a-token")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))
}

func TestTokenServiceIssueRequiresSubject(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Expiry: time.Hour}, nil)
	_, err := svc.Issue("")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}
