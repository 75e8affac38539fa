package client

import (
	"context"
	"net/http"

	"github.com/starford/folio/internal/apperr"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

type verifyResponse struct {
	Valid    bool   `json:"valid"`
	Username string `json:"username"`
}

// Authenticate exchanges credentials for a bearer token without storing it; use Login
// for that. Like every call, a 401 clears the session it ran under.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", apperr.Validation("login", "username and password are required")
	}
	var out loginResponse
	err := c.doJSON(ctx, request{
		op:     "login",
		method: http.MethodPost,
		path:   "/api/auth/login",
		route:  "/api/auth/login",
	}, loginRequest{Username: username, Password: password}, &out)
	if err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", apperr.New(apperr.ErrServer, "login", "server returned no token")
	}
	return out.Token, nil
}

// Login authenticates and stores the token in the session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	_, err := c.session.Login(ctx, c, username, password)
	return err
}

// Verify checks the stored token with the server and returns the username it belongs to.
// A rejected token tears the session down like any other 401.
func (c *Client) Verify(ctx context.Context) (string, error) {
	token := c.session.Token()
	var out verifyResponse
	err := c.doJSON(ctx, request{
		op:     "verify session",
		method: http.MethodPost,
		path:   "/api/auth/verify",
		route:  "/api/auth/verify",
		admin:  true,
	}, nil, &out)
	if err != nil {
		return "", err
	}
	if !out.Valid {
		c.session.ClearToken(token)
		return "", apperr.New(apperr.ErrUnauthenticated, "verify session", "session is no longer valid")
	}
	return out.Username, nil
}
