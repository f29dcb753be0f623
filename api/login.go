package api

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/Goofygiraffe06/janseva/internal/auth"
	"github.com/Goofygiraffe06/janseva/internal/logging"
	"github.com/Goofygiraffe06/janseva/internal/manager"
	"github.com/Goofygiraffe06/janseva/internal/models"
	"github.com/Goofygiraffe06/janseva/internal/utils"
	"github.com/Goofygiraffe06/janseva/store"
)

// decoyHash is compared against when the account does not exist so that
// unknown emails cost as much as wrong passwords.
var decoyHash = sync.OnceValues(func() (string, error) {
	return auth.HashPassword("janseva-decoy-password")
})

func LoginHandler(userStore *store.SQLiteStore, mgr *manager.WorkManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			logging.WarnLog("Login failed: invalid JSON")
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		req.Email = normalizeEmail(req.Email)
		emailHash := utils.HashEmail(req.Email)

		if err := validate.Struct(req); err != nil {
			logging.WarnLog("Login failed: validation error [%s]", emailHash)
			respondError(w, http.StatusBadRequest, validationMessage(err))
			return
		}

		user, found := userStore.GetUser(r.Context(), req.Email)
		hash := user.PasswordHash
		if !found {
			var err error
			if hash, err = decoyHash(); err != nil {
				logging.ErrorLog("Login failed: decoy hash: %v", err)
				respondError(w, http.StatusInternalServerError, "Login failed")
				return
			}
		}

		err := mgr.RunHash(r.Context(), func(context.Context) error {
			return auth.CheckPassword(hash, req.Password)
		})
		switch {
		case errors.Is(err, auth.ErrPasswordMismatch) || (err == nil && !found):
			logging.WarnLog("Login failed: bad credentials [%s]", emailHash)
			respondError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		case err != nil:
			logging.ErrorLog("Login failed: password check [%s]: %v", emailHash, err)
			respondError(w, http.StatusServiceUnavailable, "Server busy, please try again")
			return
		}

		if !user.Verified {
			logging.WarnLog("Login failed: not verified [%s]", emailHash)
			respondError(w, http.StatusForbidden, "Please verify your email before logging in")
			return
		}

		token, err := auth.IssueSessionToken(user)
		if err != nil {
			logging.ErrorLog("Login failed: token issue [%s]: %v", emailHash, err)
			respondError(w, http.StatusInternalServerError, "Login failed")
			return
		}

		logging.InfoLog("Login success [%s]", emailHash)
		respondJSON(w, http.StatusOK, models.TokenResponse{Token: token, Message: "Login successful"})
	}
}
