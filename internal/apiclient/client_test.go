package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Goofygiraffe06/janseva/internal/apiclient"
	"github.com/Goofygiraffe06/janseva/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	path        string
	contentType string
	body        map[string]string
}

func newServer(t *testing.T, status int, reply string, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			got.path = r.URL.Path
			got.contentType = r.Header.Get("Content-Type")
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &got.body)
		}
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRegisterPostsJSON(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusOK, `{"message":"OTP sent"}`, &got)
	c := apiclient.New(srv.URL + "/api/auth/")

	resp, err := c.Register(context.Background(), models.RegisterRequest{
		Username: "Ravi Kumar", Email: "ravi@example.in", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "OTP sent", resp.Message)
	assert.Equal(t, "/api/auth/register", got.path)
	assert.Equal(t, "application/json", got.contentType)
	assert.Equal(t, map[string]string{"username": "Ravi Kumar", "email": "ravi@example.in", "password": "secret1"}, got.body)
}

func TestVerifyOTPPath(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusOK, `{"message":"verified"}`, &got)
	c := apiclient.New(srv.URL)

	_, err := c.VerifyOTP(context.Background(), models.VerifyOTPRequest{Email: "a@b.in", OTP: "123456"})
	require.NoError(t, err)
	assert.Equal(t, "/verify-otp", got.path)
	assert.Equal(t, "123456", got.body["otp"])
}

func TestLoginReturnsToken(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"token":"abc123","message":"ok"}`, nil)
	c := apiclient.New(srv.URL)

	resp, err := c.Login(context.Background(), models.LoginRequest{Email: "a@b.in", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "abc123", resp.Token)
}

func TestLoginWithoutTokenIsRejected(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"message":"welcome"}`, nil)
	c := apiclient.New(srv.URL)

	_, err := c.Login(context.Background(), models.LoginRequest{Email: "a@b.in", Password: "pw"})
	var rej *apiclient.RejectedError
	require.ErrorAs(t, err, &rej)
	assert.Empty(t, rej.Message)
}

func TestRejectionCarriesServerMessage(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		reply   string
		message string
	}{
		{"message field", http.StatusConflict, `{"message":"User already exists"}`, "User already exists"},
		{"error field", http.StatusBadRequest, `{"error":"Invalid JSON"}`, "Invalid JSON"},
		{"empty body", http.StatusInternalServerError, ``, ""},
		{"html body", http.StatusBadGateway, `<html>bad gateway</html>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.status, tt.reply, nil)
			c := apiclient.New(srv.URL)

			_, err := c.Register(context.Background(), models.RegisterRequest{Email: "a@b.in"})
			var rej *apiclient.RejectedError
			require.ErrorAs(t, err, &rej)
			assert.Equal(t, tt.status, rej.Status)
			assert.Equal(t, tt.message, rej.Message)
		})
	}
}

func TestUnreachableServerIsConnectivityError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := apiclient.New(url, apiclient.WithTimeout(2*time.Second))
	_, err := c.Login(context.Background(), models.LoginRequest{Email: "a@b.in", Password: "pw"})

	var conn *apiclient.ConnectivityError
	require.ErrorAs(t, err, &conn)
	assert.Equal(t, "login", conn.Op)
}

func TestUndecodableSuccessIsConnectivityError(t *testing.T) {
	srv := newServer(t, http.StatusOK, `not json`, nil)
	c := apiclient.New(srv.URL)

	_, err := c.VerifyOTP(context.Background(), models.VerifyOTPRequest{Email: "a@b.in", OTP: "123456"})
	var conn *apiclient.ConnectivityError
	require.ErrorAs(t, err, &conn)
}

func TestCancelledContext(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{}`, nil)
	c := apiclient.New(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Register(ctx, models.RegisterRequest{Email: "a@b.in"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
