package utils

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
)

// GenerateOTP returns a random six digit code in [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// OTPSender delivers a code to a mobile number.
type OTPSender interface {
	SendOTP(ctx context.Context, mobile, otp string) error
}

// LogSender is the SMS stub: it only logs the code and never fails.
type LogSender struct{}

func (LogSender) SendOTP(_ context.Context, mobile, otp string) error {
	log.Printf("Sending OTP %s to %s", otp, MaskMobile(mobile))
	return nil
}
