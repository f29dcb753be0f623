package api

import (
	"net/http"
	"strings"

	"github.com/Goofygiraffe06/janseva/internal/auth"
	"github.com/Goofygiraffe06/janseva/internal/logging"
	"github.com/Goofygiraffe06/janseva/internal/models"
	"github.com/Goofygiraffe06/janseva/internal/utils"
	"github.com/Goofygiraffe06/janseva/store"
)

// MeHandler returns the profile behind a bearer session token.
func MeHandler(userStore *store.SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const bearerPrefix = "Bearer "
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			respondError(w, http.StatusUnauthorized, "Missing session token")
			return
		}

		claims, err := auth.ParseSessionToken(strings.TrimSpace(token))
		if err != nil {
			logging.WarnLog("Profile lookup failed: invalid token")
			respondError(w, http.StatusUnauthorized, "Invalid or expired session")
			return
		}

		user, found := userStore.GetUser(r.Context(), claims.Email)
		if !found || user.ID != claims.Subject {
			logging.WarnLog("Profile lookup failed: account gone [%s]", utils.HashEmail(claims.Email))
			respondError(w, http.StatusUnauthorized, "Invalid or expired session")
			return
		}

		respondJSON(w, http.StatusOK, models.ProfileResponse{
			ID:       user.ID,
			Email:    user.Email,
			Username: user.Username,
		})
	}
}
