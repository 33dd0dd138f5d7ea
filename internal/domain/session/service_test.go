package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/astro-web3/mobile-access-gate/internal/domain/access"
	"github.com/astro-web3/mobile-access-gate/internal/domain/session"
	"github.com/astro-web3/mobile-access-gate/internal/infra/authbackend"
	"github.com/astro-web3/mobile-access-gate/internal/infra/revocation"
	"github.com/golang-jwt/jwt/v4"
)

type mockStore struct {
	mu          sync.Mutex
	loginCalls  int
	logoutCalls int

	loginFunc func(ctx context.Context, identifier, secret, platformTag string) (*authbackend.LoginResult, error)
	logoutErr error
	token     string
}

func (m *mockStore) Login(ctx context.Context, identifier, secret, platformTag string) (*authbackend.LoginResult, error) {
	m.mu.Lock()
	m.loginCalls++
	m.mu.Unlock()
	if m.loginFunc != nil {
		return m.loginFunc(ctx, identifier, secret, platformTag)
	}
	return &authbackend.LoginResult{Success: true, Token: m.token}, nil
}

func (m *mockStore) Register(_ context.Context, _, _, _ string) (*authbackend.RegisterResult, error) {
	return &authbackend.RegisterResult{Success: true}, nil
}

func (m *mockStore) Logout(_ context.Context) error {
	m.mu.Lock()
	m.logoutCalls++
	m.mu.Unlock()
	return m.logoutErr
}

func (m *mockStore) CurrentToken() string {
	return m.token
}

func (m *mockStore) calls() (login, logout int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginCalls, m.logoutCalls
}

type mockRegistry struct {
	mu      sync.Mutex
	revoked map[string]bool
	err     error
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{revoked: make(map[string]bool)}
}

func (m *mockRegistry) Revoke(_ context.Context, tokenHash string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.revoked[tokenHash] = true
	return nil
}

func (m *mockRegistry) IsRevoked(_ context.Context, tokenHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	return m.revoked[tokenHash], nil
}

func (m *mockRegistry) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.revoked)
}

func signToken(t *testing.T, payload jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func newWorkflow(store *mockStore, registry *mockRegistry) session.Service {
	var reg revocation.Registry
	if registry != nil {
		reg = registry
	}
	return session.NewService(store, access.NewGate("Admin"), reg, time.Hour, "mobile")
}

func TestSubmitLogin_PrivilegedRoleDeniedAndRevoked(t *testing.T) {
	store := &mockStore{token: signToken(t, jwt.MapClaims{"role": "Admin"})}
	registry := newMockRegistry()
	wf := newWorkflow(store, registry)

	outcome, err := wf.SubmitLogin(context.Background(), "root@example.com", "secret-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Kind != session.OutcomeForbidden {
		t.Fatalf("expected forbidden outcome, got %v", outcome.Kind)
	}
	if _, logoutCalls := store.calls(); logoutCalls != 1 {
		t.Errorf("expected exactly one revocation call, got %d", logoutCalls)
	}
	if registry.count() != 1 {
		t.Errorf("expected the denied token hash to be registered, got %d entries", registry.count())
	}
	if wf.State() != session.StateDeniedRevoked {
		t.Errorf("expected state denied_revoked, got %v", wf.State())
	}
}

func TestSubmitLogin_UnprivilegedProceeds(t *testing.T) {
	store := &mockStore{token: signToken(t, jwt.MapClaims{
		"sub":   "user-1",
		"email": "jane.doe@example.com",
	})}
	wf := newWorkflow(store, nil)

	outcome, err := wf.SubmitLogin(context.Background(), "jane.doe@example.com", "secret-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Kind != session.OutcomeProceed {
		t.Fatalf("expected proceed outcome, got %v (%s)", outcome.Kind, outcome.Message)
	}
	if outcome.Profile.DisplayName != "Jane.doe" {
		t.Errorf("expected derived display name, got %q", outcome.Profile.DisplayName)
	}
	if _, logoutCalls := store.calls(); logoutCalls != 0 {
		t.Errorf("expected no revocation on an allowed login, got %d calls", logoutCalls)
	}
	if wf.State() != session.StateAllowedActive {
		t.Errorf("expected state allowed_active, got %v", wf.State())
	}
}

func TestSubmitLogin_EmptyTokenProceedsAsUnknown(t *testing.T) {
	store := &mockStore{token: ""}
	wf := newWorkflow(store, nil)

	outcome, err := wf.SubmitLogin(context.Background(), "someone", "secret-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Kind != session.OutcomeProceed {
		t.Fatalf("expected proceed outcome, got %v", outcome.Kind)
	}
	if outcome.Profile.DisplayName != "Unknown User" || outcome.Profile.Initials != "U" {
		t.Errorf("expected the unknown-user profile, got %+v", outcome.Profile)
	}
}

func TestSubmitLogin_MalformedTokenFailsOpen(t *testing.T) {
	store := &mockStore{token: "not.a-real.token!"}
	wf := newWorkflow(store, nil)

	outcome, err := wf.SubmitLogin(context.Background(), "someone", "secret-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Kind != session.OutcomeProceed {
		t.Fatalf("expected fail-open proceed outcome, got %v", outcome.Kind)
	}
	if outcome.Result.Decision != access.AllowWithWarning {
		t.Errorf("expected AllowWithWarning, got %v", outcome.Result.Decision)
	}
}

func TestSubmitLogin_CredentialFailure(t *testing.T) {
	store := &mockStore{
		loginFunc: func(_ context.Context, _, _, _ string) (*authbackend.LoginResult, error) {
			return &authbackend.LoginResult{Success: false, Message: "bad credentials"}, nil
		},
	}
	wf := newWorkflow(store, nil)

	outcome, err := wf.SubmitLogin(context.Background(), "someone", "wrong-pass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.Kind != session.OutcomeCredentialFailure {
		t.Fatalf("expected credential-failure outcome, got %v", outcome.Kind)
	}
	if wf.State() != session.StateIdle {
		t.Errorf("expected workflow back at idle, got %v", wf.State())
	}
}

func TestSubmitLogin_TransportErrorResetsToIdle(t *testing.T) {
	store := &mockStore{
		loginFunc: func(_ context.Context, _, _, _ string) (*authbackend.LoginResult, error) {
			return nil, errors.New("connection refused")
		},
	}
	wf := newWorkflow(store, nil)

	_, err := wf.SubmitLogin(context.Background(), "someone", "secret-1")
	if err == nil {
		t.Fatal("expected a transport error to surface")
	}
	if wf.State() != session.StateIdle {
		t.Errorf("expected workflow back at idle, got %v", wf.State())
	}
}

func TestSubmitLogin_SingleFlight(t *testing.T) {
	release := make(chan struct{})
	inFlight := make(chan struct{})
	store := &mockStore{
		loginFunc: func(_ context.Context, _, _, _ string) (*authbackend.LoginResult, error) {
			close(inFlight)
			<-release
			return &authbackend.LoginResult{Success: true, Token: ""}, nil
		},
	}
	wf := newWorkflow(store, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := wf.SubmitLogin(context.Background(), "someone", "secret-1"); err != nil {
			t.Errorf("unexpected error from first submission: %v", err)
		}
	}()

	<-inFlight

	_, err := wf.SubmitLogin(context.Background(), "someone", "secret-1")
	if !errors.Is(err, session.ErrSubmissionInFlight) {
		t.Errorf("expected ErrSubmissionInFlight, got %v", err)
	}

	close(release)
	<-done

	if loginCalls, _ := store.calls(); loginCalls != 1 {
		t.Errorf("expected exactly one login call, got %d", loginCalls)
	}
}

func TestSubmitLogin_CanceledCallerIsNotActedUpon(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := &mockStore{
		loginFunc: func(_ context.Context, _, _, _ string) (*authbackend.LoginResult, error) {
			cancel()
			return &authbackend.LoginResult{
				Success: true,
				Token:   "header.payload.sig",
			}, nil
		},
	}
	wf := newWorkflow(store, nil)

	_, err := wf.SubmitLogin(ctx, "someone", "secret-1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if wf.State() != session.StateIdle {
		t.Errorf("expected workflow back at idle, got %v", wf.State())
	}
	if _, logoutCalls := store.calls(); logoutCalls != 0 {
		t.Errorf("expected no side effects after cancellation, got %d logout calls", logoutCalls)
	}
}

func TestSubmitLogin_PreviouslyRevokedTokenDeniedFast(t *testing.T) {
	// Token carries no privileged role at all; only the registry entry
	// triggers the deny.
	token := signToken(t, jwt.MapClaims{"role": "User"})
	store := &mockStore{token: token}
	registry := newMockRegistry()
	wf := newWorkflow(store, registry)

	outcome, err := wf.SubmitLogin(context.Background(), "someone", "secret-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != session.OutcomeProceed {
		t.Fatalf("expected the first login to proceed, got %v", outcome.Kind)
	}

	// Simulate an earlier deny of this exact token.
	adminStore := &mockStore{token: token}
	if err := registry.Revoke(context.Background(), revocation.HashToken(token), time.Hour); err != nil {
		t.Fatalf("failed to seed registry: %v", err)
	}

	wf2 := newWorkflow(adminStore, registry)
	outcome, err = wf2.SubmitLogin(context.Background(), "someone", "secret-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != session.OutcomeForbidden {
		t.Fatalf("expected the revoked token to be refused, got %v", outcome.Kind)
	}
}

func TestLogout_AlwaysResetsToIdle(t *testing.T) {
	store := &mockStore{token: signToken(t, jwt.MapClaims{"role": "User"})}
	wf := newWorkflow(store, nil)

	if _, err := wf.SubmitLogin(context.Background(), "someone", "secret-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wf.State() != session.StateAllowedActive {
		t.Fatalf("expected allowed_active before logout, got %v", wf.State())
	}

	if err := wf.Logout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wf.State() != session.StateIdle {
		t.Errorf("expected idle after logout, got %v", wf.State())
	}
	if got := wf.Profile(); got.DisplayName != "" {
		t.Errorf("expected cleared profile, got %+v", got)
	}
}

func TestRegister_SurfacesRejection(t *testing.T) {
	store := &mockStore{}
	wf := newWorkflow(store, nil)

	outcome, err := wf.Register(context.Background(), "someone", "secret-1", "secret-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != session.OutcomeProceed {
		t.Errorf("expected registration to succeed, got %v", outcome.Kind)
	}
	if wf.State() != session.StateIdle {
		t.Errorf("expected idle after registration, got %v", wf.State())
	}
}
