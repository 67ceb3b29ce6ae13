package account

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/security"
	"github.com/google/uuid"
)

// Recovery runs email -> code -> new password. The code the account endpoint
// returns is hashed into a server-side ticket and never handed to the
// browser; the shopper only ever holds the ticket id.

type ticketStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Lookup(ctx context.Context, key string) (string, bool, error)
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Decr(ctx context.Context, key string) (int64, error)
	Del(ctx context.Context, keys ...string) error
	RecoveryKey(ticketID string) string
	RecoveryAttemptsKey(ticketID string) string
}

// RecoveryTicket is the shopper-facing view of a recovery in progress.
type RecoveryTicket struct {
	ID                string              `json:"ticket_id"`
	Stage             enums.RecoveryStage `json:"stage"`
	ExpiresAt         time.Time           `json:"expires_at"`
	AttemptsRemaining int                 `json:"attempts_remaining"`
	Message           string              `json:"message,omitempty"`
}

type recoveryRecord struct {
	Email     string              `json:"email"`
	OTPHash   string              `json:"otp_hash"`
	Stage     enums.RecoveryStage `json:"stage"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// SendOTP asks the account endpoint to mail a code and opens a ticket that
// holds only the code's hash.
func (s *service) SendOTP(ctx context.Context, email string) (RecoveryTicket, error) {
	email = normalizeEmail(email)
	if email == "" {
		return RecoveryTicket{}, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	resp, err := s.gateway.SendOTP(ctx, email)
	if err != nil {
		return RecoveryTicket{}, mapGatewayError(err, pkgerrors.CodeValidation)
	}
	otp := strings.TrimSpace(resp.OTP)
	if otp == "" {
		return RecoveryTicket{}, pkgerrors.New(pkgerrors.CodeDependency, "account service did not issue a code")
	}
	hash, err := security.HashSecret(otp, s.hashCfg)
	if err != nil {
		return RecoveryTicket{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash recovery code")
	}

	id := uuid.NewString()
	record := recoveryRecord{
		Email:     email,
		OTPHash:   hash,
		Stage:     enums.RecoveryStageOTPSent,
		ExpiresAt: s.now().Add(s.recovery.TicketTTL).UTC(),
	}
	if err := s.createTicket(ctx, id, record); err != nil {
		return RecoveryTicket{}, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"email": email, "ticket_id": id}), "account.recovery_started")
	ticket := s.view(id, record, 0)
	ticket.Message = resp.Message
	return ticket, nil
}

// VerifyOTP checks the code against the ticket. Each miss burns an attempt;
// the ticket is destroyed once attempts run out. Misses never rewrite the
// ticket itself, only its counter.
func (s *service) VerifyOTP(ctx context.Context, ticketID, otp string) (RecoveryTicket, error) {
	record, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return RecoveryTicket{}, err
	}
	if record.Stage != enums.RecoveryStageOTPSent {
		return RecoveryTicket{}, pkgerrors.New(pkgerrors.CodeStateConflict, "recovery code already verified").
			WithDetails(map[string]any{"stage": record.Stage})
	}
	used, err := s.checkCode(ctx, ticketID, record, otp)
	if err != nil {
		return RecoveryTicket{}, err
	}

	record.Stage = enums.RecoveryStageVerified
	if err := s.saveTicket(ctx, ticketID, record); err != nil {
		return RecoveryTicket{}, err
	}
	ticket := s.view(ticketID, record, used)
	ticket.Message = "code verified, choose a new password"
	return ticket, nil
}

// ResetPassword needs a verified ticket and the same code again, since the
// account endpoint demands the code and only its hash is kept.
func (s *service) ResetPassword(ctx context.Context, ticketID, otp, newPassword string) (string, error) {
	if newPassword == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "new password is required")
	}
	record, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return "", err
	}
	if record.Stage != enums.RecoveryStageVerified {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "recovery code has not been verified").
			WithDetails(map[string]any{"stage": record.Stage})
	}
	if _, err := s.checkCode(ctx, ticketID, record, otp); err != nil {
		return "", err
	}

	resp, err := s.gateway.ResetPassword(ctx, record.Email, strings.TrimSpace(otp), newPassword)
	if err != nil {
		return "", mapGatewayError(err, pkgerrors.CodeValidation)
	}
	s.discardTicket(ctx, ticketID)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"email": record.Email, "ticket_id": ticketID}), "account.password_reset")
	return resp.Message, nil
}

// checkCode reserves an attempt on the shared counter before comparing, so
// concurrent guesses can never evaluate more than MaxAttempts codes. A match
// hands the attempt back and returns how many remain in use.
func (s *service) checkCode(ctx context.Context, ticketID string, record recoveryRecord, otp string) (int, error) {
	otp = strings.TrimSpace(otp)
	if otp == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	ttl := record.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "recovery ticket not found or expired")
	}

	attemptsKey := s.tickets.RecoveryAttemptsKey(ticketID)
	count, err := s.tickets.IncrWithTTL(ctx, attemptsKey, ttl)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count recovery attempt")
	}
	if count > int64(s.recovery.MaxAttempts) {
		s.discardTicket(ctx, ticketID)
		return 0, attemptsExhausted()
	}

	ok, err := security.VerifySecret(otp, record.OTPHash)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify recovery code")
	}
	if ok {
		used, err := s.tickets.Decr(ctx, attemptsKey)
		if err != nil {
			s.logg.Error(ctx, "account.recovery_attempt_refund_failed", err)
			used = count
		}
		return int(used), nil
	}

	remaining := s.recovery.MaxAttempts - int(count)
	if remaining <= 0 {
		s.discardTicket(ctx, ticketID)
		s.logg.Warn(s.logg.WithField(ctx, "ticket_id", ticketID), "account.recovery_attempts_exhausted")
		return 0, attemptsExhausted()
	}
	return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid code").
		WithDetails(map[string]any{"attempts_remaining": remaining})
}

func attemptsExhausted() error {
	return pkgerrors.New(pkgerrors.CodeRateLimit, "too many invalid codes, start recovery again")
}

// discardTicket removes the ticket but leaves its attempt counter to expire on
// its own, so a guess already past loadTicket still counts against the cap.
func (s *service) discardTicket(ctx context.Context, ticketID string) {
	if err := s.tickets.Del(ctx, s.tickets.RecoveryKey(ticketID)); err != nil {
		s.logg.Error(ctx, "account.recovery_ticket_cleanup_failed", err)
	}
}

func (s *service) loadTicket(ctx context.Context, ticketID string) (recoveryRecord, error) {
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return recoveryRecord{}, pkgerrors.New(pkgerrors.CodeValidation, "ticket id is required")
	}
	raw, ok, err := s.tickets.Lookup(ctx, s.tickets.RecoveryKey(ticketID))
	if err != nil {
		return recoveryRecord{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recovery ticket")
	}
	if !ok {
		return recoveryRecord{}, pkgerrors.New(pkgerrors.CodeNotFound, "recovery ticket not found or expired")
	}
	var record recoveryRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return recoveryRecord{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode recovery ticket")
	}
	if !s.now().Before(record.ExpiresAt) {
		return recoveryRecord{}, pkgerrors.New(pkgerrors.CodeNotFound, "recovery ticket not found or expired")
	}
	return record, nil
}

// createTicket writes a brand new ticket; an existing key is never replaced.
func (s *service) createTicket(ctx context.Context, ticketID string, record recoveryRecord) error {
	payload, ttl, err := s.encodeTicket(record)
	if err != nil {
		return err
	}
	created, err := s.tickets.SetNX(ctx, s.tickets.RecoveryKey(ticketID), payload, ttl)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("store recovery ticket %s", ticketID))
	}
	if !created {
		return pkgerrors.New(pkgerrors.CodeInternal, "recovery ticket id already in use")
	}
	return nil
}

func (s *service) saveTicket(ctx context.Context, ticketID string, record recoveryRecord) error {
	payload, ttl, err := s.encodeTicket(record)
	if err != nil {
		return err
	}
	if err := s.tickets.Set(ctx, s.tickets.RecoveryKey(ticketID), payload, ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("store recovery ticket %s", ticketID))
	}
	return nil
}

func (s *service) encodeTicket(record recoveryRecord) (string, time.Duration, error) {
	ttl := record.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return "", 0, pkgerrors.New(pkgerrors.CodeNotFound, "recovery ticket not found or expired")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return "", 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode recovery ticket")
	}
	return string(payload), ttl, nil
}

func (s *service) view(id string, record recoveryRecord, used int) RecoveryTicket {
	return RecoveryTicket{
		ID:                id,
		Stage:             record.Stage,
		ExpiresAt:         record.ExpiresAt,
		AttemptsRemaining: s.recovery.MaxAttempts - used,
	}
}
