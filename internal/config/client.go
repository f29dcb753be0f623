package config

import "time"

// DefaultAPIURL is the hosted auth service the portal talks to.
const DefaultAPIURL = "https://demo-reg.onrender.com/api/auth"

// APIURL is the base URL of the remote auth endpoints.
func APIURL() string {
	return GetEnv("JANSEVA_API_URL", DefaultAPIURL)
}

// HTTPTimeout bounds a single auth request.
func HTTPTimeout() time.Duration {
	return MustParseDuration("JANSEVA_HTTP_TIMEOUT", "15s")
}

// TransitionDelay is how long a success message stays up before the flow moves on.
func TransitionDelay() time.Duration {
	return MustParseDuration("JANSEVA_TRANSITION_DELAY", "1500ms")
}

// TokenStoreKind selects the session token backend: memory, sqlite or redis.
func TokenStoreKind() string {
	return GetEnv("JANSEVA_TOKEN_STORE", "sqlite")
}

// TokenDBPath is the SQLite file used by the sqlite token backend.
func TokenDBPath() string {
	return GetEnv("JANSEVA_TOKEN_DB", "janseva-session.db")
}

// RedisURL is the connection URL for the redis token backend.
func RedisURL() string {
	return GetEnv("REDIS_URL", "")
}

// RedisKeyPrefix namespaces the token key in Redis.
func RedisKeyPrefix() string {
	return GetEnv("REDIS_KEY_PREFIX", "janseva")
}

// LogFile is where both binaries write their JSON logs.
func LogFile() string {
	return GetEnv("LOG_FILE", "janseva.log")
}
