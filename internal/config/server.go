package config

import (
	"strconv"
	"strings"
	"time"
)

// ServerPort is the dev server HTTP listen port.
func ServerPort() string {
	return GetEnv("PORT", "8080")
}

// DevServerDBPath is the SQLite file holding dev server users.
func DevServerDBPath() string {
	return GetEnv("DEVSERVER_DB", "janseva-dev.db")
}

// CORSAllowedOrigins lists origins allowed to call the dev server from a browser.
func CORSAllowedOrigins() []string {
	return parseListEnv("CORS_ALLOWED_ORIGINS", "*")
}

// ServerReadTimeout returns the maximum duration for reading the entire request, including the body.
func ServerReadTimeout() time.Duration {
	return MustParseDuration("SERVER_READ_TIMEOUT", "10s")
}

// ServerReadHeaderTimeout returns the amount of time allowed to read request headers.
func ServerReadHeaderTimeout() time.Duration {
	return MustParseDuration("SERVER_READ_HEADER_TIMEOUT", "5s")
}

// ServerWriteTimeout returns the maximum duration before timing out writes of the response.
func ServerWriteTimeout() time.Duration {
	return MustParseDuration("SERVER_WRITE_TIMEOUT", "15s")
}

// ServerIdleTimeout returns the maximum amount of time to wait for the next request when keep-alives are enabled.
func ServerIdleTimeout() time.Duration {
	return MustParseDuration("SERVER_IDLE_TIMEOUT", "60s")
}

// MaxRequestBodyBytes returns the maximum allowed size of incoming request bodies.
// Supports raw integers (bytes) or human-friendly values like "2MB", "512KB".
func MaxRequestBodyBytes() int64 {
	val := GetEnv("MAX_REQUEST_BODY_BYTES", "64KB")
	n, err := parseBytes(val)
	if err != nil || n <= 0 {
		return 64 << 10
	}
	return n
}

// JWTIssuer is the issuer claim of session tokens minted by the dev server.
func JWTIssuer() string {
	return GetEnv("JWT_ISSUER", "janseva-dev")
}

// JWTExpiresIn is the lifetime of dev server session tokens.
func JWTExpiresIn() time.Duration {
	return MustParseDuration("JWT_EXPIRES_IN", "1h")
}

// OTPTTL is how long a mailed OTP stays valid.
func OTPTTL() time.Duration {
	return MustParseDuration("OTP_TTL", "10m")
}

// HashWorkerCount controls the number of password hashing workers.
func HashWorkerCount() int {
	return parseIntEnv("HASH_WORKER_COUNT", 4)
}

// MailWorkerCount controls the number of OTP mail workers.
func MailWorkerCount() int {
	return parseIntEnv("MAIL_WORKER_COUNT", 2)
}

// WorkerQueueSize controls the queue size for each worker pool.
func WorkerQueueSize() int {
	return parseIntEnv("WORKER_QUEUE_SIZE", 1024)
}

func parseBytes(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	// If plain number, treat as bytes
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	mult := int64(1)
	switch {
	case strings.HasSuffix(s, "KB"):
		mult = 1 << 10
		s = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "MB"):
		mult = 1 << 20
		s = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "GB"):
		mult = 1 << 30
		s = strings.TrimSuffix(s, "GB")
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	return int64(n * float64(mult)), nil
}
