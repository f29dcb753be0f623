package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Goofygiraffe06/janseva/internal/auth"
	"github.com/Goofygiraffe06/janseva/internal/config"
	"github.com/Goofygiraffe06/janseva/internal/logging"
	"github.com/Goofygiraffe06/janseva/internal/mailer"
	"github.com/Goofygiraffe06/janseva/internal/manager"
	"github.com/Goofygiraffe06/janseva/internal/models"
	"github.com/Goofygiraffe06/janseva/internal/utils"
	"github.com/Goofygiraffe06/janseva/store"
	"github.com/Goofygiraffe06/janseva/store/ephemeral"
)

// RegisterHandler creates (or refreshes) an unverified account and mails it
// a fresh OTP. Registering again before verifying is how an OTP is resent.
func RegisterHandler(userStore *store.SQLiteStore, otpStore *ephemeral.OTPStore, mgr *manager.WorkManager, sender mailer.Sender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req models.RegisterRequest
		if err := decodeJSON(r, &req); err != nil {
			logging.WarnLog("Registration failed: invalid JSON")
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		req.Email = normalizeEmail(req.Email)
		req.Username = strings.TrimSpace(req.Username)
		emailHash := utils.HashEmail(req.Email)
		usernameHash := utils.HashUsername(req.Username)

		if err := validate.Struct(req); err != nil {
			logging.WarnLog("Registration failed: validation error [%s][%s]", emailHash, usernameHash)
			respondError(w, http.StatusBadRequest, validationMessage(err))
			return
		}

		if existing, ok := userStore.GetUser(r.Context(), req.Email); ok && existing.Verified {
			logging.WarnLog("Registration failed: user exists [%s]", emailHash)
			respondError(w, http.StatusConflict, "User already exists")
			return
		}

		hashStart := time.Now()
		var hash string
		err := mgr.RunHash(r.Context(), func(context.Context) error {
			var err error
			hash, err = auth.HashPassword(req.Password)
			return err
		})
		if err != nil {
			logging.ErrorLog("Registration failed: password hashing [%s]: %v", emailHash, err)
			respondError(w, http.StatusServiceUnavailable, "Server busy, please try again")
			return
		}
		hashDuration := time.Since(hashStart)

		err = userStore.UpsertPending(r.Context(), models.User{
			Email:        req.Email,
			Username:     req.Username,
			PasswordHash: hash,
		})
		if errors.Is(err, store.ErrUserExists) {
			logging.WarnLog("Registration failed: user verified meanwhile [%s]", emailHash)
			respondError(w, http.StatusConflict, "User already exists")
			return
		}
		if err != nil {
			logging.ErrorLog("Registration failed: database error [%s][%s]: %v", emailHash, usernameHash, err)
			respondError(w, http.StatusInternalServerError, "Registration failed")
			return
		}

		otp, err := auth.GenerateOTP()
		if err != nil {
			logging.ErrorLog("Registration failed: OTP generation [%s]: %v", emailHash, err)
			respondError(w, http.StatusInternalServerError, "Registration failed")
			return
		}
		if err := otpStore.Set(req.Email, otp, config.OTPTTL()); err != nil {
			logging.ErrorLog("Registration failed: OTP store [%s]: %v", emailHash, err)
			respondError(w, http.StatusServiceUnavailable, "Server busy, please try again")
			return
		}

		to, name := req.Email, req.Username
		if err := mgr.SubmitMail(func(ctx context.Context) {
			if err := sender.SendOTP(ctx, to, name, otp); err != nil {
				logging.ErrorLog("OTP dispatch failed [%s]: %v", emailHash, err)
			}
		}); err != nil {
			otpStore.Delete(req.Email)
			logging.ErrorLog("Registration failed: mail queue [%s]: %v", emailHash, err)
			respondError(w, http.StatusServiceUnavailable, "Server busy, please try again")
			return
		}

		logging.InfoLog("Registration pending verification [%s][%s] %v (hash: %v)",
			emailHash, usernameHash, time.Since(start), hashDuration)
		respondJSON(w, http.StatusOK, models.MessageResponse{Message: "OTP sent to your email"})
	}
}
