package account

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	loginErr   error
	signupErr  error
	otp        string
	resetCalls []string
	resetErr   error
}

func (g *stubGateway) Signup(ctx context.Context, name, email, password string) (Response, error) {
	if g.signupErr != nil {
		return Response{}, g.signupErr
	}
	return Response{Result: resultSuccess, Message: "account created"}, nil
}

func (g *stubGateway) Login(ctx context.Context, email, password string) (Response, error) {
	if g.loginErr != nil {
		return Response{}, g.loginErr
	}
	return Response{Result: resultSuccess, Name: "Ada"}, nil
}

func (g *stubGateway) SendOTP(ctx context.Context, email string) (Response, error) {
	return Response{Result: resultSuccess, Message: "code sent", OTP: g.otp}, nil
}

func (g *stubGateway) ResetPassword(ctx context.Context, email, otp, password string) (Response, error) {
	g.resetCalls = append(g.resetCalls, email+"|"+otp+"|"+password)
	if g.resetErr != nil {
		return Response{}, g.resetErr
	}
	return Response{Result: resultSuccess, Message: "password updated"}, nil
}

type stubSessions struct {
	opened  []string
	revoked []string
}

func (s *stubSessions) Open(ctx context.Context, email string) (string, error) {
	s.opened = append(s.opened, email)
	return "sess-1", nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

type stubCarts struct{ dropped []string }

func (c *stubCarts) Drop(ctx context.Context, sessionID string) {
	c.dropped = append(c.dropped, sessionID)
}

type memoryTickets struct {
	mu       sync.Mutex
	data     map[string]string
	counters map[string]int64
}

func newMemoryTickets() *memoryTickets {
	return &memoryTickets{data: map[string]string{}, counters: map[string]int64{}}
}

func (m *memoryTickets) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memoryTickets) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key]++
	return m.counters[key], nil
}

func (m *memoryTickets) Decr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key]--
	return m.counters[key], nil
}

func (m *memoryTickets) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value.(string)
	return nil
}

func (m *memoryTickets) Lookup(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryTickets) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryTickets) RecoveryKey(ticketID string) string {
	return "recovery:" + ticketID
}

func (m *memoryTickets) RecoveryAttemptsKey(ticketID string) string {
	return "recovery:" + ticketID + ":attempts"
}

func (m *memoryTickets) raw() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var b strings.Builder
	for _, v := range m.data {
		b.WriteString(v)
	}
	return b.String()
}

type harness struct {
	svc      Service
	gateway  *stubGateway
	sessions *stubSessions
	carts    *stubCarts
	tickets  *memoryTickets
	now      *time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	now := time.Now()
	h := &harness{
		gateway:  &stubGateway{otp: "482913"},
		sessions: &stubSessions{},
		carts:    &stubCarts{},
		tickets:  newMemoryTickets(),
		now:      &now,
	}
	svc, err := NewService(ServiceParams{
		Gateway:  h.gateway,
		Sessions: h.sessions,
		Tickets:  h.tickets,
		Carts:    h.carts,
		JWT:      testJWTConfig(),
		Hash:     config.HashConfig{ArgonMemoryKB: 64, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 8, ArgonKeyLen: 16},
		Recovery: config.RecoveryConfig{TicketTTL: 10 * time.Minute, MaxAttempts: 3},
		Logger:   logger.Nop(),
		Clock:    func() time.Time { return *h.now },
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "storefront", ExpirationMinutes: 60}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestLoginMintsTokenBoundToSession(t *testing.T) {
	h := newHarness(t)

	result, err := h.svc.Login(context.Background(), "  Ada@Example.com ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, "ada@example.com", result.Email)
	assert.Equal(t, []string{"ada@example.com"}, h.sessions.opened)

	claims, err := auth.ParseAccessToken(testJWTConfig(), result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID())
	assert.Equal(t, "Ada", claims.Name)
}

func TestLoginRejectionIsUnauthorizedWithUpstreamMessage(t *testing.T) {
	h := newHarness(t)
	h.gateway.loginErr = &RejectedError{Mode: enums.AccountModeLogin, Message: "Invalid credentials"}

	_, err := h.svc.Login(context.Background(), "ada@example.com", "bad")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "got %v", err)
	assert.Equal(t, "Invalid credentials", pkgerrors.As(err).Message())
	assert.Empty(t, h.sessions.opened)
}

func TestSignupRejectionIsConflict(t *testing.T) {
	h := newHarness(t)
	h.gateway.signupErr = &RejectedError{Mode: enums.AccountModeSignup, Message: "Email already registered"}

	_, err := h.svc.Signup(context.Background(), SignupInput{Name: "Ada", Email: "ada@example.com", Password: "pw"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestSignupTransportFailureStaysDependency(t *testing.T) {
	h := newHarness(t)
	h.gateway.signupErr = errors.New("dial tcp: refused")

	_, err := h.svc.Signup(context.Background(), SignupInput{Name: "Ada", Email: "ada@example.com", Password: "pw"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestSignupRequiresFields(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Signup(context.Background(), SignupInput{Email: "ada@example.com"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestLogoutRevokesSessionAndDropsCart(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.svc.Logout(context.Background(), "sess-1"))
	assert.Equal(t, []string{"sess-1"}, h.sessions.revoked)
	assert.Equal(t, []string{"sess-1"}, h.carts.dropped)

	err := h.svc.Logout(context.Background(), " ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRecoveryHappyPath(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ticket, err := h.svc.SendOTP(ctx, "Ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, enums.RecoveryStageOTPSent, ticket.Stage)
	assert.Equal(t, 3, ticket.AttemptsRemaining)
	assert.NotContains(t, h.tickets.raw(), "482913", "code must only be stored hashed")

	verified, err := h.svc.VerifyOTP(ctx, ticket.ID, "482913")
	require.NoError(t, err)
	assert.Equal(t, enums.RecoveryStageVerified, verified.Stage)
	assert.Equal(t, 3, verified.AttemptsRemaining, "a matching code does not use up an attempt")

	msg, err := h.svc.ResetPassword(ctx, ticket.ID, "482913", "new-secret")
	require.NoError(t, err)
	assert.Equal(t, "password updated", msg)
	assert.Equal(t, []string{"ada@example.com|482913|new-secret"}, h.gateway.resetCalls)

	_, err = h.svc.VerifyOTP(ctx, ticket.ID, "482913")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "ticket should be consumed")
}

func TestResetBeforeVerifyIsStateConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ticket, err := h.svc.SendOTP(ctx, "ada@example.com")
	require.NoError(t, err)

	_, err = h.svc.ResetPassword(ctx, ticket.ID, "482913", "new-secret")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Empty(t, h.gateway.resetCalls)
}

func TestVerifyTwiceIsStateConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ticket, err := h.svc.SendOTP(ctx, "ada@example.com")
	require.NoError(t, err)
	_, err = h.svc.VerifyOTP(ctx, ticket.ID, "482913")
	require.NoError(t, err)

	_, err = h.svc.VerifyOTP(ctx, ticket.ID, "482913")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestWrongCodesExhaustAttempts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ticket, err := h.svc.SendOTP(ctx, "ada@example.com")
	require.NoError(t, err)

	_, err = h.svc.VerifyOTP(ctx, ticket.ID, "000000")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, 2, pkgerrors.As(err).Details().(map[string]any)["attempts_remaining"])

	_, err = h.svc.VerifyOTP(ctx, ticket.ID, "000001")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = h.svc.VerifyOTP(ctx, ticket.ID, "000002")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRateLimit))

	_, err = h.svc.VerifyOTP(ctx, ticket.ID, "482913")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestConcurrentWrongCodesStayWithinAttemptCap(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ticket, err := h.svc.SendOTP(ctx, "ada@example.com")
	require.NoError(t, err)

	const guesses = 20
	errs := make([]error, guesses)
	var wg sync.WaitGroup
	for i := 0; i < guesses; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.VerifyOTP(ctx, ticket.ID, "000000")
		}(i)
	}
	wg.Wait()

	invalid := 0
	for _, err := range errs {
		switch {
		case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
			invalid++
		case pkgerrors.IsCode(err, pkgerrors.CodeRateLimit), pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		default:
			t.Fatalf("unexpected result for wrong code: %v", err)
		}
	}
	assert.Equal(t, 2, invalid, "only MaxAttempts-1 misses may be answered with a retry")

	_, err = h.svc.VerifyOTP(ctx, ticket.ID, "482913")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "ticket must be gone after the cap, got %v", err)
}

func TestMissAfterVerifyKeepsVerifiedStage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ticket, err := h.svc.SendOTP(ctx, "ada@example.com")
	require.NoError(t, err)
	_, err = h.svc.VerifyOTP(ctx, ticket.ID, "482913")
	require.NoError(t, err)

	_, err = h.svc.ResetPassword(ctx, ticket.ID, "000000", "new-secret")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	msg, err := h.svc.ResetPassword(ctx, ticket.ID, "482913", "new-secret")
	require.NoError(t, err, "a miss must leave the verified stage in place")
	assert.Equal(t, "password updated", msg)
}

func TestExpiredTicketIsNotFound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ticket, err := h.svc.SendOTP(ctx, "ada@example.com")
	require.NoError(t, err)

	*h.now = h.now.Add(11 * time.Minute)
	_, err = h.svc.VerifyOTP(ctx, ticket.ID, "482913")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestSendOTPWithoutIssuedCodeIsDependency(t *testing.T) {
	h := newHarness(t)
	h.gateway.otp = ""

	_, err := h.svc.SendOTP(context.Background(), "ada@example.com")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}
