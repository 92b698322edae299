package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// AccountProfile is the staff account block the login endpoint returns.
type AccountProfile struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	RoleID        string `json:"role_id"`
	AksesDaerah   string `json:"akses_daerah"`
	AksesDesa     string `json:"akses_desa"`
	AksesKelompok string `json:"akses_kelompok"`
}

// LoginPayload carries the API token and profile issued at login.
type LoginPayload struct {
	Token string         `json:"token"`
	User  AccountProfile `json:"user"`
}

// Login exchanges credentials for an API token and staff profile.
// A success:false body is reported as NotFoundError with the server
// message, which callers surface as invalid credentials.
func (c *Client) Login(ctx context.Context, email, password string) (LoginPayload, error) {
	var zero LoginPayload
	body := map[string]string{"email": email, "password": password}
	data, err := json.Marshal(body)
	if err != nil {
		return zero, err
	}
	resp, err := c.do(ctx, "", http.MethodPost, "auth/login", nil, bytes.NewReader(data))
	if err != nil {
		return zero, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var envelope struct {
		Success bool         `json:"success"`
		Data    LoginPayload `json:"data"`
		Message string       `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return zero, fmt.Errorf("upstream: decode login envelope: %w", err)
	}
	if !envelope.Success {
		return zero, &NotFoundError{Message: envelope.Message}
	}
	return envelope.Data, nil
}
