package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/dcode-github/property_dealer/backend/models"
	"github.com/dcode-github/property_dealer/backend/services"
	"github.com/dcode-github/property_dealer/backend/store"
	"github.com/dcode-github/property_dealer/backend/utils"
)

type ContextKey string

const (
	UserIDKey = ContextKey("userID")
	RoleKey   = ContextKey("role")
)

// maxBodyBytes bounds JSON request bodies; image uploads go through multipart.
const maxBodyBytes = 1 << 20

func currentUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok || userID == "" {
		log.Println("User ID missing in context")
		utils.WriteError(w, http.StatusUnauthorized, "User ID missing in context")
		return "", false
	}
	return userID, true
}

// decodeJSON reads and validates a request body, answering 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		log.Printf("Invalid request body: %v", err)
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := utils.Validate(dst); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func respond(w http.ResponseWriter, status int, message string, data interface{}) {
	utils.WriteJSON(w, status, models.APIResponse{Success: true, Message: message, Data: data})
}

func respondList(w http.ResponseWriter, message string, data interface{}, count int) {
	utils.WriteJSON(w, http.StatusOK, models.APIResponse{Success: true, Message: message, Count: &count, Data: data})
}

// writeServiceError maps domain errors to status codes. Anything unknown is
// logged and reported as a 500 with the generic message.
func writeServiceError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUserExists):
		utils.WriteError(w, http.StatusBadRequest, "User already exists")
	case errors.Is(err, services.ErrAadhaarExists):
		utils.WriteError(w, http.StatusBadRequest, "Aadhaar already registered")
	case errors.Is(err, services.ErrInvalidOTP):
		utils.WriteError(w, http.StatusBadRequest, "Invalid or expired OTP")
	case errors.Is(err, services.ErrNoPassword):
		utils.WriteError(w, http.StatusBadRequest, "Password login not enabled for this account")
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, services.ErrInvalidToken):
		utils.WriteError(w, http.StatusUnauthorized, "Phone authentication failed: Invalid token")
	case errors.Is(err, services.ErrAccountLocked):
		utils.WriteError(w, http.StatusForbidden, "Account locked due to too many failed login attempts. Try again later")
	case errors.Is(err, services.ErrUserNotFound):
		utils.WriteError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, store.ErrInvalidID):
		utils.WriteError(w, http.StatusBadRequest, "Invalid ID format")
	case errors.Is(err, store.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, "Resource not found")
	default:
		log.Printf("%s: %v", message, err)
		utils.WriteError(w, http.StatusInternalServerError, message)
	}
}
