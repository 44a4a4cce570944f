package controllers

import (
	"net/http"

	"github.com/dcode-github/property_dealer/backend/services"
)

type profileRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=100"`
	Aadhaar  *string `json:"aadhaar"`
	Password *string `json:"password" validate:"omitempty,min=6"`
}

func GetProfile(auth *services.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}

		user, err := auth.Profile(r.Context(), userID)
		if err != nil {
			writeServiceError(w, err, "Failed to fetch profile")
			return
		}
		respond(w, http.StatusOK, "", user)
	}
}

func UpdateProfile(auth *services.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}

		var req profileRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		user, err := auth.UpdateProfile(r.Context(), userID, services.ProfileUpdate{
			Name:     req.Name,
			Aadhaar:  req.Aadhaar,
			Password: req.Password,
		})
		if err != nil {
			writeServiceError(w, err, "Failed to update profile")
			return
		}
		respond(w, http.StatusOK, "Profile updated", user)
	}
}
