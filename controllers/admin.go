package controllers

import (
	"context"
	"log"
	"net/http"

	"github.com/dcode-github/property_dealer/backend/cache"
	"github.com/dcode-github/property_dealer/backend/models"
	"github.com/dcode-github/property_dealer/backend/store"
	"github.com/dcode-github/property_dealer/backend/utils"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func AdminListUsers(users store.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := users.List(r.Context())
		if err != nil {
			log.Printf("Error listing users: %v", err)
			utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch users")
			return
		}
		respondList(w, "", list, len(list))
	}
}

type ownerSummary struct {
	ID     primitive.ObjectID `json:"_id"`
	Name   string             `json:"name,omitempty"`
	Mobile string             `json:"mobile,omitempty"`
}

// adminProperty replaces the owner id with the owner's name and mobile.
type adminProperty struct {
	models.Property
	User ownerSummary `json:"user"`
}

func withOwners(ctx context.Context, users store.UserStore, list []models.Property) ([]adminProperty, error) {
	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, p := range list {
		if !seen[p.User] {
			seen[p.User] = true
			ids = append(ids, p.User)
		}
	}
	owners, err := users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.User, len(owners))
	for _, u := range owners {
		byID[u.ID] = u
	}

	out := make([]adminProperty, 0, len(list))
	for _, p := range list {
		owner := byID[p.User]
		out = append(out, adminProperty{
			Property: p,
			User:     ownerSummary{ID: p.User, Name: owner.Name, Mobile: owner.Mobile},
		})
	}
	return out, nil
}

// AdminListProperties lists every listing with its owner, optionally narrowed
// by ?status=.
func AdminListProperties(props store.PropertyStore, users store.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")
		switch status {
		case "", models.StatusPending, models.StatusApproved, models.StatusRejected:
		default:
			utils.WriteError(w, http.StatusBadRequest, "status must be one of: pending approved rejected")
			return
		}

		list, err := props.Find(r.Context(), models.PropertyFilter{Status: status, NewestFirst: true})
		if err != nil {
			log.Printf("Error listing properties for admin: %v", err)
			utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch properties")
			return
		}
		out, err := withOwners(r.Context(), users, list)
		if err != nil {
			log.Printf("Error loading property owners: %v", err)
			utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch properties")
			return
		}
		respondList(w, "", out, len(out))
	}
}

func setPropertyStatus(props store.PropertyStore, pc *cache.PropertyCache, status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		property, err := props.FindByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writePropertyLookupError(w, err)
			return
		}

		property.Status = status
		if err := props.Update(r.Context(), property); err != nil {
			log.Printf("Error setting status %s on %s: %v", status, property.ID.Hex(), err)
			utils.WriteError(w, http.StatusInternalServerError, "Failed to update property status")
			return
		}
		pc.InvalidateAsync()

		respond(w, http.StatusOK, "Property "+status, property)
	}
}

type featureRequest struct {
	Featured *bool `json:"featured" validate:"required"`
}

// FeatureProperty sets or clears the featured flag used by ?featured=true.
func FeatureProperty(props store.PropertyStore, pc *cache.PropertyCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req featureRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		property, err := props.FindByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writePropertyLookupError(w, err)
			return
		}

		property.IsFeatured = *req.Featured
		if err := props.Update(r.Context(), property); err != nil {
			log.Printf("Error setting featured on %s: %v", property.ID.Hex(), err)
			utils.WriteError(w, http.StatusInternalServerError, "Failed to update property")
			return
		}
		pc.InvalidateAsync()

		respond(w, http.StatusOK, "Property updated", property)
	}
}

func ApproveProperty(props store.PropertyStore, pc *cache.PropertyCache) http.HandlerFunc {
	return setPropertyStatus(props, pc, models.StatusApproved)
}

func RejectProperty(props store.PropertyStore, pc *cache.PropertyCache) http.HandlerFunc {
	return setPropertyStatus(props, pc, models.StatusRejected)
}
