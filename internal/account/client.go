package account

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/sethvargo/go-retry"
)

const (
	resultSuccess           = "success"
	responseBodyLimit int64 = 64 << 10
	errorBodyLimit          = 512
	defaultRetryDelay       = 250 * time.Millisecond
)

// RejectedError is a well-formed reply from the account endpoint whose
// result is anything other than success.
type RejectedError struct {
	Mode    enums.AccountMode
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("account %s rejected", e.Mode)
	}
	return fmt.Sprintf("account %s rejected: %s", e.Mode, e.Message)
}

// Response is the account endpoint reply envelope.
type Response struct {
	Result  string `json:"result"`
	Message string `json:"message"`
	OTP     string `json:"otp,omitempty"`
	Name    string `json:"name,omitempty"`
}

// Client posts mode-tagged requests to the spreadsheet-backed account endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	maxRetries uint64
	baseDelay  time.Duration
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryDelay overrides the base backoff delay.
func WithRetryDelay(delay time.Duration) Option {
	return func(c *Client) {
		if delay > 0 {
			c.baseDelay = delay
		}
	}
}

func NewClient(cfg config.AccountConfig, opts ...Option) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.EndpointURL)
	if endpoint == "" {
		return nil, errors.New("account endpoint url is required")
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		maxRetries: cfg.MaxRetries,
		baseDelay:  defaultRetryDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

func (c *Client) Signup(ctx context.Context, name, email, password string) (Response, error) {
	return c.call(ctx, enums.AccountModeSignup, map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
}

func (c *Client) Login(ctx context.Context, email, password string) (Response, error) {
	return c.call(ctx, enums.AccountModeLogin, map[string]string{
		"email":    email,
		"password": password,
	})
}

// SendOTP asks the endpoint to mail a one-time code. The reply carries the
// same code; callers must never pass it on to the shopper.
func (c *Client) SendOTP(ctx context.Context, email string) (Response, error) {
	return c.call(ctx, enums.AccountModeSendOTP, map[string]string{
		"email": email,
	})
}

func (c *Client) ResetPassword(ctx context.Context, email, otp, password string) (Response, error) {
	return c.call(ctx, enums.AccountModeResetPassword, map[string]string{
		"email":    email,
		"otp":      otp,
		"password": password,
	})
}

func (c *Client) call(ctx context.Context, mode enums.AccountMode, fields map[string]string) (Response, error) {
	payload := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["mode"] = mode.String()
	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode account request")
	}

	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.baseDelay))
	var raw []byte
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
			upstreamErr := &pkgerrors.UpstreamError{Status: resp.StatusCode, URL: c.endpoint, Body: strings.TrimSpace(string(msg))}
			if resp.StatusCode >= http.StatusInternalServerError {
				return retry.RetryableError(upstreamErr)
			}
			return upstreamErr
		}
		raw, err = io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return Response{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("account %s request failed", mode))
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return Response{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode account %s response", mode))
	}
	if out.Result != resultSuccess {
		return out, &RejectedError{Mode: mode, Message: out.Message}
	}
	return out, nil
}
