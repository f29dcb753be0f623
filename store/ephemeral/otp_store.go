package ephemeral

import (
	"time"

	"github.com/Goofygiraffe06/janseva/internal/logging"
	"github.com/Goofygiraffe06/janseva/internal/utils"
)

// OTPStore holds the code mailed to each pending email. Codes are single use.
type OTPStore struct {
	core *coreStore
}

func NewOTPStore() *OTPStore {
	return &OTPStore{core: newCoreStore()}
}

// Set replaces any earlier code for email.
func (s *OTPStore) Set(email, otp string, ttl time.Duration) error {
	err := s.core.set(email, otp, ttl)
	if err != nil {
		logging.WarnLog("OTP store set failed [%s]: %v", utils.HashEmail(email), err)
	}
	return err
}

// Consume reports whether otp is the live code for email and, if so, removes it.
func (s *OTPStore) Consume(email, otp string) bool {
	ok := s.core.takeIf(email, func(stored string) bool {
		return ConstantTimeEquals(stored, otp)
	})
	if ok {
		logging.DebugLog("OTP store consumed [%s]", utils.HashEmail(email))
	}
	return ok
}

// Pending reports whether a live code exists for email.
func (s *OTPStore) Pending(email string) bool {
	_, ok := s.core.get(email)
	return ok
}

func (s *OTPStore) Delete(email string) {
	s.core.delete(email)
}

// Close stops the background sweeper.
func (s *OTPStore) Close() {
	s.core.close()
}
