package authbackend

import "context"

// Store is the external session store consumed by the workflow: credential
// submission, registration, revocation, and the current bearer token.
type Store interface {
	Login(ctx context.Context, identifier, secret, platformTag string) (*LoginResult, error)
	Register(ctx context.Context, identifier, secret, secretConfirmation string) (*RegisterResult, error)
	Logout(ctx context.Context) error
	CurrentToken() string
}

type LoginResult struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Message string `json:"message,omitempty"`
}

type RegisterResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
