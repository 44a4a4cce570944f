package controllers

import (
	"net/http"

	"github.com/dcode-github/property_dealer/backend/models"
	"github.com/dcode-github/property_dealer/backend/services"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Mobile   string `json:"mobile" validate:"required,mobile"`
	Aadhaar  string `json:"aadhaar" validate:"omitempty,aadhaar"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

type mobileRequest struct {
	Mobile string `json:"mobile" validate:"required,mobile"`
}

type passwordLoginRequest struct {
	Mobile   string `json:"mobile" validate:"required,mobile"`
	Password string `json:"password" validate:"required"`
}

type verifyOTPRequest struct {
	UserID string `json:"userId" validate:"required"`
	OTP    string `json:"otp" validate:"required,len=6,numeric"`
}

type phoneTokenRequest struct {
	IDToken string `json:"idToken" validate:"required"`
	Name    string `json:"name" validate:"omitempty,min=2,max=100"`
	Aadhaar string `json:"aadhaar" validate:"omitempty,aadhaar"`
}

type otpIssued struct {
	UserID string `json:"userId"`
}

type authMethod struct {
	Exists      bool `json:"exists"`
	HasPassword bool `json:"hasPassword"`
}

type sessionPayload struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func RegisterUser(auth *services.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		user, err := auth.Register(r.Context(), services.RegisterInput{
			Name:     req.Name,
			Mobile:   req.Mobile,
			Aadhaar:  req.Aadhaar,
			Password: req.Password,
		})
		if err != nil {
			writeServiceError(w, err, "Failed to register user")
			return
		}
		respond(w, http.StatusCreated, "OTP sent to mobile number", otpIssued{UserID: user.ID.Hex()})
	}
}

// LoginUser starts an OTP login for an existing mobile number.
func LoginUser(auth *services.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req mobileRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		user, err := auth.RequestOTP(r.Context(), req.Mobile)
		if err != nil {
			writeServiceError(w, err, "Failed to send OTP")
			return
		}
		respond(w, http.StatusOK, "OTP sent to mobile number", otpIssued{UserID: user.ID.Hex()})
	}
}

func LoginWithPassword(auth *services.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req passwordLoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		sess, err := auth.LoginWithPassword(r.Context(), req.Mobile, req.Password)
		if err != nil {
			writeServiceError(w, err, "Failed to log in")
			return
		}
		respond(w, http.StatusOK, "Login successful", sessionPayload{Token: sess.Token, User: sess.User})
	}
}

func VerifyOTP(auth *services.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyOTPRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		sess, err := auth.VerifyOTP(r.Context(), req.UserID, req.OTP)
		if err != nil {
			writeServiceError(w, err, "Failed to verify OTP")
			return
		}
		respond(w, http.StatusOK, "Login successful", sessionPayload{Token: sess.Token, User: sess.User})
	}
}

func PhoneLogin(auth *services.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req phoneTokenRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		sess, created, err := auth.LoginWithPhoneToken(r.Context(), req.IDToken, req.Name, req.Aadhaar)
		if err != nil {
			writeServiceError(w, err, "Phone authentication failed")
			return
		}
		status, message := http.StatusOK, "Login successful"
		if created {
			status, message = http.StatusCreated, "User registered successfully"
		}
		respond(w, status, message, sessionPayload{Token: sess.Token, User: sess.User})
	}
}

func CheckAuthMethod(auth *services.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req mobileRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		exists, hasPassword, err := auth.CheckAuthMethod(r.Context(), req.Mobile)
		if err != nil {
			writeServiceError(w, err, "Failed to check auth method")
			return
		}
		respond(w, http.StatusOK, "", authMethod{Exists: exists, HasPassword: hasPassword})
	}
}
