package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/dcode-github/property_dealer/backend/cache"
	"github.com/dcode-github/property_dealer/backend/images"
	"github.com/dcode-github/property_dealer/backend/models"
	"github.com/dcode-github/property_dealer/backend/store"
	"github.com/dcode-github/property_dealer/backend/utils"
	"github.com/gorilla/mux"
)

const (
	maxUploadBytes  = 50 << 20
	maxMemoryUpload = 32 << 20
)

// propertyPatch carries the client-editable listing fields. Owner, status and
// timestamps are not part of it, so clients cannot set them.
type propertyPatch struct {
	Title        *string  `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string  `json:"description" validate:"omitempty,max=5000"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	Address      *string  `json:"address" validate:"omitempty,min=1,max=500"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	PropertyType *string  `json:"propertyType" validate:"omitempty,oneof=apartment house land commercial"`
	Bedrooms     *int     `json:"bedrooms" validate:"omitempty,gte=0"`
	Bathrooms    *int     `json:"bathrooms" validate:"omitempty,gte=0"`
	Area         *float64 `json:"area" validate:"omitempty,gte=0"`
	Amenities    []string `json:"amenities"`
	Images       []string `json:"images" validate:"omitempty,max=10"`
}

func (p *propertyPatch) missing() []string {
	var fields []string
	if p.Title == nil || *p.Title == "" {
		fields = append(fields, "title")
	}
	if p.Description == nil || *p.Description == "" {
		fields = append(fields, "description")
	}
	if p.Price == nil {
		fields = append(fields, "price")
	}
	if p.Address == nil || *p.Address == "" {
		fields = append(fields, "address")
	}
	if p.PropertyType == nil || *p.PropertyType == "" {
		fields = append(fields, "propertyType")
	}
	return fields
}

func (p *propertyPatch) apply(prop *models.Property) {
	if p.Title != nil {
		prop.Title = *p.Title
	}
	if p.Description != nil {
		prop.Description = *p.Description
	}
	if p.Price != nil {
		prop.Price = *p.Price
	}
	if p.Address != nil {
		prop.Address = *p.Address
	}
	if p.Latitude != nil {
		prop.Latitude = p.Latitude
	}
	if p.Longitude != nil {
		prop.Longitude = p.Longitude
	}
	if p.PropertyType != nil {
		prop.PropertyType = *p.PropertyType
	}
	if p.Bedrooms != nil {
		prop.Bedrooms = *p.Bedrooms
	}
	if p.Bathrooms != nil {
		prop.Bathrooms = *p.Bathrooms
	}
	if p.Area != nil {
		prop.Area = *p.Area
	}
	if p.Amenities != nil {
		prop.Amenities = p.Amenities
	}
	if p.Images != nil {
		prop.Images = p.Images
	}
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// parseMultipart answers 400 itself when the form cannot be read.
func parseMultipart(w http.ResponseWriter, r *http.Request) (*multipart.Form, []*images.Upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxMemoryUpload); err != nil {
		log.Printf("Invalid multipart form: %v", err)
		utils.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return nil, nil, false
	}
	uploads, err := images.ReadUploads(r.MultipartForm.File["images"])
	if err != nil {
		log.Printf("Error reading uploaded files: %v", err)
		utils.WriteError(w, http.StatusBadRequest, "Failed to read uploaded files")
		return nil, nil, false
	}
	return r.MultipartForm, uploads, true
}

// decodePropertyRequest accepts either a JSON body or a multipart form with
// the same field names plus "images" file parts.
func decodePropertyRequest(w http.ResponseWriter, r *http.Request) (*propertyPatch, []*images.Upload, bool) {
	if !isMultipart(r) {
		var patch propertyPatch
		if !decodeJSON(w, r, &patch) {
			return nil, nil, false
		}
		return &patch, nil, true
	}

	form, uploads, ok := parseMultipart(w, r)
	if !ok {
		return nil, nil, false
	}
	patch, err := patchFromForm(form.Value)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}
	if err := utils.Validate(patch); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}
	return patch, uploads, true
}

func patchFromForm(values map[string][]string) (*propertyPatch, error) {
	get := func(key string) (string, bool) {
		v, ok := values[key]
		if !ok || len(v) == 0 {
			return "", false
		}
		return strings.TrimSpace(v[0]), true
	}
	str := func(key string) *string {
		if v, ok := get(key); ok {
			return &v
		}
		return nil
	}
	num := func(key string) (*float64, error) {
		v, ok := get(key)
		if !ok || v == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", key)
		}
		return &f, nil
	}
	integer := func(key string) (*int, error) {
		v, ok := get(key)
		if !ok || v == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s must be an integer", key)
		}
		return &n, nil
	}

	p := &propertyPatch{
		Title:        str("title"),
		Description:  str("description"),
		Address:      str("address"),
		PropertyType: str("propertyType"),
	}
	var err error
	if p.Price, err = num("price"); err != nil {
		return nil, err
	}
	if p.Latitude, err = num("latitude"); err != nil {
		return nil, err
	}
	if p.Longitude, err = num("longitude"); err != nil {
		return nil, err
	}
	if p.Area, err = num("area"); err != nil {
		return nil, err
	}
	if p.Bedrooms, err = integer("bedrooms"); err != nil {
		return nil, err
	}
	if p.Bathrooms, err = integer("bathrooms"); err != nil {
		return nil, err
	}

	if raw, ok := values["amenities"]; ok {
		p.Amenities = []string{}
		for _, v := range raw {
			v = strings.TrimSpace(v)
			if strings.HasPrefix(v, "[") {
				var list []string
				if err := json.Unmarshal([]byte(v), &list); err != nil {
					return nil, errors.New("amenities must be a list")
				}
				p.Amenities = append(p.Amenities, list...)
				continue
			}
			for _, a := range strings.Split(v, ",") {
				if a = strings.TrimSpace(a); a != "" {
					p.Amenities = append(p.Amenities, a)
				}
			}
		}
	}
	return p, nil
}

func writePropertyLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidID):
		utils.WriteError(w, http.StatusBadRequest, "Invalid property ID format")
	case errors.Is(err, store.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, "Property not found")
	default:
		log.Printf("Error fetching property: %v", err)
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch property")
	}
}

// loadOwnedProperty fetches the {id} listing and checks the caller owns it.
func loadOwnedProperty(w http.ResponseWriter, r *http.Request, props store.PropertyStore, action string) (*models.Property, bool) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return nil, false
	}
	property, err := props.FindByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writePropertyLookupError(w, err)
		return nil, false
	}
	if !property.OwnedBy(userID) {
		log.Printf("User %s not authorized to %s property %s", userID, action, property.ID.Hex())
		utils.WriteError(w, http.StatusForbidden, fmt.Sprintf("Not authorized to %s this property", action))
		return nil, false
	}
	return property, true
}

func storeImages(ctx context.Context, proc *images.Processor, property *models.Property, uploads []*images.Upload) []images.Processed {
	if len(uploads) == 0 {
		return nil
	}
	processed := proc.ProcessImages(ctx, uploads)
	for _, img := range processed {
		property.Images = append(property.Images, img.Data)
	}
	return processed
}

func tooManyImages(w http.ResponseWriter, property *models.Property) bool {
	if len(property.Images) > models.MaxImagesPerProperty {
		utils.WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("A property can have at most %d images", models.MaxImagesPerProperty))
		return true
	}
	return false
}

func listProperties(props store.PropertyStore, pc *cache.PropertyCache, scope string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		filter, err := parsePropertyFilter(query)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}

		body, hit, err := pc.Fetch(r.Context(), cache.Key(scope, query), func(ctx context.Context) ([]byte, error) {
			properties, err := props.Find(ctx, filter)
			if err != nil {
				return nil, err
			}
			count := len(properties)
			return json.Marshal(models.APIResponse{Success: true, Count: &count, Data: properties})
		})
		if err != nil {
			log.Printf("Error fetching properties: %v", err)
			utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch properties")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if hit {
			w.Header().Set("X-Cache", "HIT")
		}
		w.Write(body)
	}
}

func GetAllProperties(props store.PropertyStore, pc *cache.PropertyCache) http.HandlerFunc {
	return listProperties(props, pc, "list")
}

// SearchProperties matches keyword against title, description and address,
// combined with the same filters as the listing endpoint.
func SearchProperties(props store.PropertyStore, pc *cache.PropertyCache) http.HandlerFunc {
	return listProperties(props, pc, "search")
}

func GetPropertyByID(props store.PropertyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		property, err := props.FindByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writePropertyLookupError(w, err)
			return
		}
		respond(w, http.StatusOK, "", property)
	}
}

func GetMyProperties(props store.PropertyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}

		properties, err := props.Find(r.Context(), models.PropertyFilter{Owner: userID, NewestFirst: true})
		if err != nil {
			log.Printf("Error fetching properties of %s: %v", userID, err)
			utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch properties")
			return
		}
		respondList(w, "", properties, len(properties))
	}
}

func CreateProperty(props store.PropertyStore, pc *cache.PropertyCache, proc *images.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r)
		if !ok {
			return
		}
		owner, err := store.ParseID(userID)
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, "Invalid user in token")
			return
		}

		patch, uploads, ok := decodePropertyRequest(w, r)
		if !ok {
			return
		}
		if missing := patch.missing(); len(missing) > 0 {
			utils.WriteError(w, http.StatusBadRequest, strings.Join(missing, ", ")+" required")
			return
		}

		property := &models.Property{User: owner, Status: models.StatusPending}
		patch.apply(property)
		storeImages(r.Context(), proc, property, uploads)
		if tooManyImages(w, property) {
			return
		}

		if err := props.Create(r.Context(), property); err != nil {
			log.Printf("Insert failed: %v", err)
			utils.WriteError(w, http.StatusInternalServerError, "Failed to create property")
			return
		}
		pc.InvalidateAsync()

		respond(w, http.StatusCreated, "Property created", property)
	}
}

func UpdateProperty(props store.PropertyStore, pc *cache.PropertyCache, proc *images.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		property, ok := loadOwnedProperty(w, r, props, "update")
		if !ok {
			return
		}

		patch, uploads, ok := decodePropertyRequest(w, r)
		if !ok {
			return
		}
		patch.apply(property)
		storeImages(r.Context(), proc, property, uploads)
		if tooManyImages(w, property) {
			return
		}

		if err := props.Update(r.Context(), property); err != nil {
			log.Printf("Update failed for %s: %v", property.ID.Hex(), err)
			utils.WriteError(w, http.StatusInternalServerError, "Failed to update property")
			return
		}
		pc.InvalidateAsync()

		respond(w, http.StatusOK, "Property updated", property)
	}
}

func DeleteProperty(props store.PropertyStore, pc *cache.PropertyCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		property, ok := loadOwnedProperty(w, r, props, "delete")
		if !ok {
			return
		}

		if err := props.Delete(r.Context(), property.ID.Hex()); err != nil {
			writePropertyLookupError(w, err)
			return
		}
		pc.InvalidateAsync()

		respond(w, http.StatusOK, "Property removed", nil)
	}
}

func UploadPropertyImages(props store.PropertyStore, pc *cache.PropertyCache, proc *images.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		property, ok := loadOwnedProperty(w, r, props, "update")
		if !ok {
			return
		}

		_, uploads, ok := parseMultipart(w, r)
		if !ok {
			return
		}
		if len(uploads) == 0 {
			utils.WriteError(w, http.StatusBadRequest, "No images uploaded")
			return
		}
		if len(storeImages(r.Context(), proc, property, uploads)) == 0 {
			utils.WriteError(w, http.StatusBadRequest, "No valid images uploaded")
			return
		}
		if tooManyImages(w, property) {
			return
		}

		if err := props.Update(r.Context(), property); err != nil {
			log.Printf("Error saving images for %s: %v", property.ID.Hex(), err)
			utils.WriteError(w, http.StatusInternalServerError, "Failed to save images")
			return
		}
		pc.InvalidateAsync()

		respond(w, http.StatusOK, "Images uploaded", property)
	}
}

func DeletePropertyImage(props store.PropertyStore, pc *cache.PropertyCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		property, ok := loadOwnedProperty(w, r, props, "update")
		if !ok {
			return
		}

		index, err := strconv.Atoi(mux.Vars(r)["imageIndex"])
		if err != nil || index < 0 || index >= len(property.Images) {
			utils.WriteError(w, http.StatusBadRequest, "Invalid image index")
			return
		}
		property.Images = append(property.Images[:index], property.Images[index+1:]...)

		if err := props.Update(r.Context(), property); err != nil {
			log.Printf("Error removing image %d of %s: %v", index, property.ID.Hex(), err)
			utils.WriteError(w, http.StatusInternalServerError, "Failed to delete image")
			return
		}
		pc.InvalidateAsync()

		respond(w, http.StatusOK, "Image deleted", property)
	}
}
