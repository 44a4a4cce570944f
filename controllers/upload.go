package controllers

import (
	"net/http"

	"github.com/dcode-github/property_dealer/backend/images"
	"github.com/dcode-github/property_dealer/backend/utils"
)

// UploadImages compresses the "images" parts and returns them without
// attaching them to a listing.
func UploadImages(proc *images.Processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentUserID(w, r); !ok {
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

		processed := proc.ProcessImages(r.Context(), uploads)
		if len(processed) == 0 {
			utils.WriteError(w, http.StatusBadRequest, "No valid images uploaded")
			return
		}
		respondList(w, "Images processed", processed, len(processed))
	}
}
