package config

import (
	"fmt"
	"strings"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// OTPResendKey returns the sliding-window key throttling OTP resends for one invitee.
func (r *CacheKeyStruct) OTPResendKey(quizID, email string) string {
	return fmt.Sprintf("otp-resend:%s:%s", quizID, strings.ToLower(email))
}

var CacheKey = NewCacheKeyStruct()
