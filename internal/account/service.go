package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type accountGateway interface {
	Signup(ctx context.Context, name, email, password string) (Response, error)
	Login(ctx context.Context, email, password string) (Response, error)
	SendOTP(ctx context.Context, email string) (Response, error)
	ResetPassword(ctx context.Context, email, otp, password string) (Response, error)
}

type sessionManager interface {
	Open(ctx context.Context, email string) (string, error)
	Revoke(ctx context.Context, accessID string) error
}

type cartDropper interface {
	Drop(ctx context.Context, sessionID string)
}

// SignupInput is the new account request.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Email       string    `json:"email"`
	Name        string    `json:"name,omitempty"`
}

// Service covers signup, login/logout and password recovery.
type Service interface {
	Signup(ctx context.Context, input SignupInput) (string, error)
	Login(ctx context.Context, email, password string) (LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	SendOTP(ctx context.Context, email string) (RecoveryTicket, error)
	VerifyOTP(ctx context.Context, ticketID, otp string) (RecoveryTicket, error)
	ResetPassword(ctx context.Context, ticketID, otp, newPassword string) (string, error)
}

// ServiceParams groups dependencies for the account service.
type ServiceParams struct {
	Gateway  accountGateway
	Sessions sessionManager
	Tickets  ticketStore
	Carts    cartDropper
	JWT      config.JWTConfig
	Hash     config.HashConfig
	Recovery config.RecoveryConfig
	Logger   *logger.Logger
	Clock    func() time.Time
}

type service struct {
	gateway  accountGateway
	sessions sessionManager
	tickets  ticketStore
	carts    cartDropper
	jwtCfg   config.JWTConfig
	hashCfg  config.HashConfig
	recovery config.RecoveryConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the account service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account gateway is required")
	}
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session manager is required")
	}
	if params.Tickets == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recovery ticket store is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	if params.Recovery.TicketTTL <= 0 || params.Recovery.MaxAttempts <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recovery ticket ttl and max attempts must be positive")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		gateway:  params.Gateway,
		sessions: params.Sessions,
		tickets:  params.Tickets,
		carts:    params.Carts,
		jwtCfg:   params.JWT,
		hashCfg:  params.Hash,
		recovery: params.Recovery,
		logg:     params.Logger,
		now:      clock,
	}, nil
}

func (s *service) Signup(ctx context.Context, input SignupInput) (string, error) {
	email := normalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	if name == "" || email == "" || input.Password == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "name, email and password are required")
	}
	resp, err := s.gateway.Signup(ctx, name, email, input.Password)
	if err != nil {
		return "", mapGatewayError(err, pkgerrors.CodeConflict)
	}
	s.logg.Info(s.logg.WithEmail(ctx, email), "account.signed_up")
	return resp.Message, nil
}

// Login checks credentials with the account endpoint, opens a session and
// mints an access token whose jti is the session id.
func (s *service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}
	resp, err := s.gateway.Login(ctx, email, password)
	if err != nil {
		return LoginResult{}, mapGatewayError(err, pkgerrors.CodeUnauthorized)
	}

	accessID, err := s.sessions.Open(ctx, email)
	if err != nil {
		return LoginResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open session")
	}
	now := s.now()
	token, err := auth.MintAccessToken(s.jwtCfg, now, auth.AccessTokenPayload{
		Email: email,
		Name:  resp.Name,
		JTI:   accessID,
	})
	if err != nil {
		_ = s.sessions.Revoke(ctx, accessID)
		return LoginResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	s.logg.Info(s.logg.WithSessionID(s.logg.WithEmail(ctx, email), accessID), "account.logged_in")
	return LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   now.Add(s.jwtCfg.TTL()).UTC(),
		Email:       email,
		Name:        resp.Name,
	}, nil
}

// Logout revokes the session and discards its cart.
func (s *service) Logout(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session is required")
	}
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	if s.carts != nil {
		s.carts.Drop(ctx, sessionID)
	}
	s.logg.Info(s.logg.WithSessionID(ctx, sessionID), "account.logged_out")
	return nil
}

// mapGatewayError turns a rejected reply into rejectedCode carrying the
// endpoint's message; transport failures keep their own code.
func mapGatewayError(err error, rejectedCode pkgerrors.Code) error {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		msg := rejected.Message
		if msg == "" {
			msg = rejected.Error()
		}
		return pkgerrors.Wrap(rejectedCode, err, msg)
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "account service unavailable")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
