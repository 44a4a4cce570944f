package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/dcode-github/property_dealer/backend/models"
	"github.com/dcode-github/property_dealer/backend/store"
	"github.com/dcode-github/property_dealer/backend/utils"
	"github.com/gorilla/mux"
)

// favoriteProperties resolves the caller's favorites. Listings deleted since
// they were favorited are dropped.
func favoriteProperties(r *http.Request, favs store.FavoriteStore, props store.PropertyStore, userID string) ([]models.Property, error) {
	ids, err := favs.PropertyIDs(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	found, err := props.FindByIDs(r.Context(), ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Property, len(found))
	for _, p := range found {
		byID[p.ID.Hex()] = p
	}
	properties := make([]models.Property, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id.Hex()]; ok {
			p.IsFavorite = true
			properties = append(properties, p)
		}
	}
	return properties, nil
}

func writeFavorites(w http.ResponseWriter, r *http.Request, favs store.FavoriteStore, props store.PropertyStore, userID string, status int, message string) {
	properties, err := favoriteProperties(r, favs, props, userID)
	if err != nil {
		log.Println("Failed to fetch favorite properties ", err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch favorite properties")
		return
	}
	count := len(properties)
	utils.WriteJSON(w, status, models.APIResponse{Success: true, Message: message, Count: &count, Data: properties})
}

func GetFavorites(favs store.FavoriteStore, props store.PropertyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}
		writeFavorites(w, r, favs, props, userID, http.StatusOK, "Fetched favorite properties")
	}
}

func AddFavorite(favs store.FavoriteStore, props store.PropertyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}

		propertyID := mux.Vars(r)["id"]
		if _, err := props.FindByID(r.Context(), propertyID); err != nil {
			writePropertyLookupError(w, err)
			return
		}

		if err := favs.Add(r.Context(), userID, propertyID); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				utils.WriteError(w, http.StatusBadRequest, "Property is already in favorites")
				return
			}
			log.Println("Failed to add property to favorites ", err)
			utils.WriteError(w, http.StatusInternalServerError, "Failed to add property to favorites")
			return
		}
		writeFavorites(w, r, favs, props, userID, http.StatusCreated, "Property added to favorites")
	}
}

func RemoveFavorite(favs store.FavoriteStore, props store.PropertyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}

		propertyID := mux.Vars(r)["id"]
		if _, err := store.ParseID(propertyID); err != nil {
			utils.WriteError(w, http.StatusBadRequest, "Invalid property ID format")
			return
		}

		if err := favs.Remove(r.Context(), userID, propertyID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				utils.WriteError(w, http.StatusNotFound, "Property not in favorites")
				return
			}
			log.Println("Failed to remove property from favorites ", err)
			utils.WriteError(w, http.StatusInternalServerError, "Failed to remove property from favorites")
			return
		}
		writeFavorites(w, r, favs, props, userID, http.StatusOK, "Property removed from favorites")
	}
}
