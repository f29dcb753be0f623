package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Goofygiraffe06/janseva/internal/logging"
	"github.com/Goofygiraffe06/janseva/internal/models"
	"github.com/Goofygiraffe06/janseva/internal/utils"
	"github.com/Goofygiraffe06/janseva/store"
	"github.com/Goofygiraffe06/janseva/store/ephemeral"
)

func VerifyOTPHandler(userStore *store.SQLiteStore, otpStore *ephemeral.OTPStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.VerifyOTPRequest
		if err := decodeJSON(r, &req); err != nil {
			logging.WarnLog("OTP verification failed: invalid JSON")
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		req.Email = normalizeEmail(req.Email)
		req.OTP = strings.TrimSpace(req.OTP)
		emailHash := utils.HashEmail(req.Email)

		if err := validate.Struct(req); err != nil {
			logging.WarnLog("OTP verification failed: validation error [%s]", emailHash)
			respondError(w, http.StatusBadRequest, validationMessage(err))
			return
		}

		if !otpStore.Consume(req.Email, req.OTP) {
			logging.WarnLog("OTP verification failed: invalid or expired [%s]", emailHash)
			respondError(w, http.StatusBadRequest, "Invalid or expired OTP")
			return
		}

		err := userStore.MarkVerified(r.Context(), req.Email)
		if errors.Is(err, store.ErrUserNotFound) {
			logging.WarnLog("OTP verification failed: no account [%s]", emailHash)
			respondError(w, http.StatusBadRequest, "Invalid or expired OTP")
			return
		}
		if err != nil {
			logging.ErrorLog("OTP verification failed: database error [%s]: %v", emailHash, err)
			respondError(w, http.StatusInternalServerError, "Verification failed")
			return
		}

		logging.InfoLog("OTP verification success [%s]", emailHash)
		respondJSON(w, http.StatusOK, models.MessageResponse{Message: "Email verified successfully"})
	}
}
