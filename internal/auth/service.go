package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/sensus-admin/sensus-console/internal/shared"
	"github.com/sensus-admin/sensus-console/internal/upstream"
)

// BootstrapOperator is an emergency local account for when the sensus
// API is unreachable or no staff account exists yet. Disabled unless
// both fields are configured.
type BootstrapOperator struct {
	Email        string
	PasswordHash string
	RoleID       string
}

func (b BootstrapOperator) enabled() bool {
	return b.Email != "" && b.PasswordHash != ""
}

// Service wraps authentication against the sensus API.
type Service struct {
	client    *upstream.Client
	bootstrap BootstrapOperator
}

// NewService constructs a new Service.
func NewService(client *upstream.Client, bootstrap BootstrapOperator) *Service {
	return &Service{client: client, bootstrap: bootstrap}
}

// Authenticate validates credentials and returns the session profile.
// The bootstrap operator is checked first so it keeps working while the
// upstream API is down.
func (s *Service) Authenticate(ctx context.Context, email, password string) (shared.Profile, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	if s.bootstrap.enabled() && email == strings.ToLower(s.bootstrap.Email) {
		if err := bcrypt.CompareHashAndPassword([]byte(s.bootstrap.PasswordHash), []byte(password)); err != nil {
			return shared.Profile{}, shared.ErrInvalidCredentials
		}
		return shared.Profile{
			UserID: "bootstrap",
			Name:   "Operator",
			RoleID: s.bootstrap.RoleID,
		}, nil
	}

	payload, err := s.client.Login(ctx, email, password)
	if err != nil {
		var nf *upstream.NotFoundError
		if errors.As(err, &nf) {
			return shared.Profile{}, shared.ErrInvalidCredentials
		}
		var herr *upstream.HTTPError
		if errors.As(err, &herr) && herr.Status == 401 {
			return shared.Profile{}, shared.ErrInvalidCredentials
		}
		return shared.Profile{}, err
	}

	return shared.Profile{
		UserID: payload.User.ID,
		Name:   payload.User.Name,
		RoleID: payload.User.RoleID,
		Token:  payload.Token,
		Scope: shared.AccessScope{
			Daerah:   payload.User.AksesDaerah,
			Desa:     payload.User.AksesDesa,
			Kelompok: payload.User.AksesKelompok,
		},
	}, nil
}
