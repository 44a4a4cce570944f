package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/dcode-github/property_dealer/backend/controllers"
	"github.com/dcode-github/property_dealer/backend/models"
	"github.com/dcode-github/property_dealer/backend/store"
	"github.com/dcode-github/property_dealer/backend/utils"
)

// AuthMiddleware requires a valid bearer token for a user that still exists and
// stores the caller's id and stored role in the request context.
func AuthMiddleware(users store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return authenticate(users, next)
	}
}

func authenticate(users store.UserStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenHeader := r.Header.Get("Authorization")
		if tokenHeader == "" {
			log.Printf("Missing Authorization header from request %s %s", r.Method, r.URL)
			utils.WriteError(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}

		tokenParts := strings.Split(tokenHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			log.Printf("Invalid Authorization header format from request %s %s", r.Method, r.URL)
			utils.WriteError(w, http.StatusUnauthorized, "Invalid Authorization header format")
			return
		}

		claims, err := utils.ValidateJWT(tokenParts[1])
		if err != nil {
			log.Printf("Invalid or expired token: %v", err)
			utils.WriteError(w, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}

		user, err := users.FindByID(r.Context(), claims.UserID)
		switch {
		case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrInvalidID):
			log.Printf("Token for unknown user %s", claims.UserID)
			utils.WriteError(w, http.StatusUnauthorized, "Not authorized, user not found")
			return
		case err != nil:
			log.Printf("Error loading user %s: %v", claims.UserID, err)
			utils.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		ctx := context.WithValue(r.Context(), controllers.UserIDKey, user.ID.Hex())
		ctx = context.WithValue(ctx, controllers.RoleKey, user.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly must run after AuthMiddleware.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, _ := r.Context().Value(controllers.RoleKey).(string)
		if role != models.RoleAdmin {
			log.Printf("Non-admin access to %s %s", r.Method, r.URL.Path)
			utils.WriteError(w, http.StatusForbidden, "Not authorized as an admin")
			return
		}
		next.ServeHTTP(w, r)
	})
}
