package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sensus-admin/sensus-console/internal/shared"
	"github.com/sensus-admin/sensus-console/internal/upstream"
)

func TestBootstrapOperatorLogin(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("darurat-1"), bcrypt.DefaultCost)
	require.NoError(t, err)

	// Upstream deliberately unreachable: bootstrap must still work.
	client := upstream.NewClient("http://127.0.0.1:1", time.Second)
	svc := NewService(client, BootstrapOperator{
		Email:        "ops@sensus.id",
		PasswordHash: string(hashed),
		RoleID:       "role-super",
	})

	profile, err := svc.Authenticate(context.Background(), "OPS@sensus.id", "darurat-1")
	require.NoError(t, err)
	assert.Equal(t, "bootstrap", profile.UserID)
	assert.Equal(t, "role-super", profile.RoleID)

	_, err = svc.Authenticate(context.Background(), "ops@sensus.id", "salah")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestUpstreamUnreachableIsNotCredentialError(t *testing.T) {
	client := upstream.NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	svc := NewService(client, BootstrapOperator{})

	_, err := svc.Authenticate(context.Background(), "siti@sensus.id", "rahasia1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrInvalidCredentials)
}
