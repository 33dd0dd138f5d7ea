package authbackend

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"log/slog"

	httpclient "github.com/astro-web3/mobile-access-gate/pkg/http"
	"github.com/astro-web3/mobile-access-gate/pkg/logger"
)

type loginRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
	Platform   string `json:"platform"`
}

type registerRequest struct {
	Identifier         string `json:"identifier"`
	Secret             string `json:"secret"`
	SecretConfirmation string `json:"secret_confirmation"`
}

type client struct {
	baseURL string

	mu    sync.Mutex
	token string
}

// NewClient builds an HTTP-backed session store against the external
// authentication backend. The issued token is held in memory only.
func NewClient(baseURL string) Store {
	return &client{baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (c *client) Login(ctx context.Context, identifier, secret, platformTag string) (*LoginResult, error) {
	var result LoginResult
	resp, err := httpclient.Post(
		ctx,
		c.baseURL+"/v1/accounts/login",
		httpclient.WithBody(loginRequest{
			Identifier: identifier,
			Secret:     secret,
			Platform:   platformTag,
		}),
		httpclient.WithResult(&result),
	)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}

	// 401 is a credential failure, not a transport error.
	if resp.StatusCode() == http.StatusUnauthorized {
		result.Success = false
		return &result, nil
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf(
			"login failed with status %d: %s", resp.StatusCode(), string(resp.Body()),
		)
	}

	if result.Success {
		c.mu.Lock()
		c.token = result.Token
		c.mu.Unlock()
	}

	return &result, nil
}

func (c *client) Register(ctx context.Context, identifier, secret, secretConfirmation string) (*RegisterResult, error) {
	var result RegisterResult
	resp, err := httpclient.Post(
		ctx,
		c.baseURL+"/v1/accounts/register",
		httpclient.WithBody(registerRequest{
			Identifier:         identifier,
			Secret:             secret,
			SecretConfirmation: secretConfirmation,
		}),
		httpclient.WithResult(&result),
	)
	if err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}

	if resp.StatusCode() == http.StatusConflict || resp.StatusCode() == http.StatusBadRequest {
		result.Success = false
		return &result, nil
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf(
			"register failed with status %d: %s", resp.StatusCode(), string(resp.Body()),
		)
	}

	return &result, nil
}

// Logout revokes the session remotely and always clears the local token,
// even when the remote call fails.
func (c *client) Logout(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.token = ""
	c.mu.Unlock()

	if token == "" {
		return nil
	}

	resp, err := httpclient.Post(
		ctx,
		c.baseURL+"/v1/accounts/logout",
		httpclient.WithAuthToken(token),
	)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		logger.WarnContext(ctx, "remote logout rejected, local session cleared anyway",
			slog.Int("status", resp.StatusCode()),
		)
	}

	return nil
}

func (c *client) CurrentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}
