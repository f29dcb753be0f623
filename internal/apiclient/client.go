// Package apiclient talks to the remote auth service: register, verify-otp and
// login, each a JSON POST.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Goofygiraffe06/janseva/internal/logging"
	"github.com/Goofygiraffe06/janseva/internal/models"
	"github.com/Goofygiraffe06/janseva/internal/utils"
)

const maxResponseBytes = 1 << 20

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.http.Timeout = d } }

// New returns a client for endpoints below baseURL, e.g. https://host/api/auth.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register asks the service to create the account and mail an OTP.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (models.MessageResponse, error) {
	var out models.MessageResponse
	_, err := c.post(ctx, "register", req.Email, req, &out)
	return out, err
}

// VerifyOTP activates the account registered under req.Email.
func (c *Client) VerifyOTP(ctx context.Context, req models.VerifyOTPRequest) (models.MessageResponse, error) {
	var out models.MessageResponse
	_, err := c.post(ctx, "verify-otp", req.Email, req, &out)
	return out, err
}

// Login exchanges credentials for a bearer token. A 2xx response without a
// token is reported as a rejection.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (models.TokenResponse, error) {
	var out models.TokenResponse
	status, err := c.post(ctx, "login", req.Email, req, &out)
	if err != nil {
		return out, err
	}
	if out.Token == "" {
		return out, &RejectedError{Op: "login", Status: status}
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, op, email string, in, out any) (int, error) {
	start := time.Now()
	emailHash := utils.HashEmail(email)

	body, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("%s: encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+op, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logging.WarnLog("Auth request %s failed [%s]: %v", op, emailHash, err)
		return 0, &ConnectivityError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		logging.WarnLog("Auth request %s: reading response failed [%s]: %v", op, emailHash, err)
		return resp.StatusCode, &ConnectivityError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var rej models.ErrorResponse
		// A rejection body that isn't JSON still counts as a rejection.
		_ = json.Unmarshal(raw, &rej)
		logging.InfoLog("Auth request %s rejected [%s] status=%d %v", op, emailHash, resp.StatusCode, time.Since(start))
		return resp.StatusCode, &RejectedError{Op: op, Status: resp.StatusCode, Message: rej.Reason()}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		logging.WarnLog("Auth request %s: undecodable response [%s]: %v", op, emailHash, err)
		return resp.StatusCode, &ConnectivityError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	logging.InfoLog("Auth request %s success [%s] %v", op, emailHash, time.Since(start))
	return resp.StatusCode, nil
}
