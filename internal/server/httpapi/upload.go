package httpapi

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/dmitrijs2005/listings/internal/apperr"
	"github.com/dmitrijs2005/listings/internal/logging"
	"github.com/dmitrijs2005/listings/internal/server/imagestore"
	"github.com/dmitrijs2005/listings/internal/server/metrics"
	"golang.org/x/sync/errgroup"
)

const (
	imagesField      = "images"
	uploadMaxMemory  = 32 << 20
	uploadParallel   = 4
	uploadMaxRequest = 64 << 20
)

type uploadResponse struct {
	Error bool     `json:"error"`
	Body  []string `json:"body"`
}

// UploadHandler stores the images of a multipart batch concurrently and
// answers once every file has finished. Files with a type other than PNG or
// JPEG are skipped, and a file that fails to store is logged and left out of
// the response.
type UploadHandler struct {
	store imagestore.Store
	log   logging.Logger
}

// NewUploadHandler saves uploaded images to store.
func NewUploadHandler(store imagestore.Store, log logging.Logger) *UploadHandler {
	return &UploadHandler{store: store, log: log.With("module", "upload")}
}

func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, uploadMaxRequest)
	if err := r.ParseMultipartForm(uploadMaxMemory); err != nil {
		h.log.Debug(r.Context(), "bad upload form", "error", err)
		writeError(w, apperr.New("Invalid multipart form.", http.StatusBadRequest))
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File[imagesField]
	accepted := make([]*multipart.FileHeader, 0, len(files))
	for _, fh := range files {
		if imagestore.AllowedImageType(fh.Header.Get("Content-Type")) {
			accepted = append(accepted, fh)
		}
	}
	metrics.IncrementImages("rejected", len(files)-len(accepted))

	if len(accepted) == 0 {
		writeError(w, apperr.New("No valid images provided.", http.StatusUnprocessableEntity))
		return
	}

	locations := h.saveAll(r.Context(), accepted)
	metrics.IncrementImages("stored", len(locations))
	metrics.IncrementImages("failed", len(accepted)-len(locations))

	if len(locations) == 0 {
		writeError(w, apperr.New("Failed to upload images.", http.StatusInternalServerError))
		return
	}

	writeJSON(w, http.StatusAccepted, uploadResponse{Error: false, Body: locations})
}

// saveAll returns the locations of the stored files in upload order.
func (h *UploadHandler) saveAll(ctx context.Context, files []*multipart.FileHeader) []string {
	results := make([]string, len(files))

	var g errgroup.Group
	g.SetLimit(uploadParallel)

	for i, fh := range files {
		i, fh := i, fh
		g.Go(func() error {
			loc, err := h.save(ctx, fh)
			if err != nil {
				h.log.Error(ctx, "image upload failed", "file", fh.Filename, "error", err)
				return nil
			}
			results[i] = loc
			return nil
		})
	}
	_ = g.Wait()

	locations := make([]string, 0, len(results))
	for _, loc := range results {
		if loc != "" {
			locations = append(locations, loc)
		}
	}
	return locations
}

func (h *UploadHandler) save(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	return h.store.Save(ctx, fh.Filename, fh.Header.Get("Content-Type"), f, fh.Size)
}
