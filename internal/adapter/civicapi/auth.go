package civicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/heartmarshall/civic-client/internal/domain"
	"github.com/heartmarshall/civic-client/internal/gateway"
)

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, cred domain.Credentials) (*domain.Session, error) {
	var (
		body        io.Reader
		contentType string
	)
	if c.loginForm {
		form := url.Values{"username": {cred.Username}, "password": {cred.Password}}
		body = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	} else {
		payload, err := json.Marshal(cred)
		if err != nil {
			return nil, fmt.Errorf("civicapi.Login: encode: %w", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	resp, err := c.gw.Send(ctx, gateway.Request{
		Method:      http.MethodPost,
		Path:        c.authPrefix + "/login",
		Route:       "auth.login",
		ContentType: contentType,
		Body:        body,
		Fallback:    fallbackLogin,
	})
	if err != nil {
		return nil, err
	}

	sess, err := decode[domain.Session](resp, "login response")
	if err != nil {
		return nil, err
	}
	if sess.AccessToken == "" {
		return nil, domain.NewMalformedResponseError("The server did not return a session token.", nil)
	}
	return &sess, nil
}

// Register creates an account. The backend may log the user in directly.
func (c *Client) Register(ctx context.Context, cred domain.Credentials) (*domain.Session, error) {
	payload, err := json.Marshal(cred)
	if err != nil {
		return nil, fmt.Errorf("civicapi.Register: encode: %w", err)
	}

	resp, err := c.gw.Send(ctx, gateway.Request{
		Method:      http.MethodPost,
		Path:        c.authPrefix + "/register",
		Route:       "auth.register",
		ContentType: "application/json",
		Body:        bytes.NewReader(payload),
		Fallback:    fallbackSignup,
	})
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return &domain.Session{}, nil
	}
	sess, err := decode[domain.Session](resp, "registration response")
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Me returns the account the stored credential belongs to.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	resp, err := c.gw.Send(ctx, gateway.Request{
		Method: http.MethodGet,
		Path:   c.authPrefix + "/me",
		Route:  "auth.me",
	})
	if err != nil {
		return nil, err
	}

	user, err := decode[domain.User](resp, "user")
	if err != nil {
		return nil, err
	}
	return &user, nil
}
