package utils

import (
	"regexp"
	"strings"
)

var (
	nonDigits      = regexp.MustCompile(`\D`)
	indianMobile   = regexp.MustCompile(`^[6-9]\d{9}$`)
	aadhaarPattern = regexp.MustCompile(`^\d{12}$`)
)

// NormalizeMobile reduces a phone number to +91XXXXXXXXXX. It returns "" when
// the input is not a valid Indian mobile number.
func NormalizeMobile(mobile string) string {
	digits := nonDigits.ReplaceAllString(mobile, "")
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		digits = digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}
	if !indianMobile.MatchString(digits) {
		return ""
	}
	return "+91" + digits
}

func ValidAadhaar(aadhaar string) bool {
	return aadhaarPattern.MatchString(aadhaar)
}

// MaskMobile hides all but the last four digits for logging.
func MaskMobile(mobile string) string {
	if len(mobile) <= 4 {
		return mobile
	}
	return strings.Repeat("*", len(mobile)-4) + mobile[len(mobile)-4:]
}
