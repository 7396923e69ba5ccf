// Package submission orchestrates the server side of the photo pipeline:
// validate against the performance catalog, normalize the image, place it
// in durable storage.
package submission

import (
	"context"
	"log/slog"

	"github.com/opencurtain/photodrop/internal/catalog"
	"github.com/opencurtain/photodrop/internal/storage"
)

// MaxPhotoBytes caps a single uploaded photo at 10 MiB.
const MaxPhotoBytes = 10 * 1024 * 1024

var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// Normalizer produces the canonical 480x640 JPEG from raw upload bytes.
type Normalizer interface {
	Normalize(raw []byte) ([]byte, error)
}

// Placer persists a normalized image for a performance.
type Placer interface {
	Place(ctx context.Context, image []byte, perf catalog.Performance) (storage.StoredSubmission, error)
}

type Service struct {
	catalog   *catalog.Catalog
	processor Normalizer
	placer    Placer
}

func NewService(cat *catalog.Catalog, processor Normalizer, placer Placer) *Service {
	return &Service{
		catalog:   cat,
		processor: processor,
		placer:    placer,
	}
}

// Submit validates one photo submission, re-normalizes the image server-side
// and stores it. Validation fails fast with a distinct Failure per cause.
// Failed submissions are never retried here; the caller may resubmit.
func (s *Service) Submit(ctx context.Context, photo []byte, mimeType, performanceID string) (storage.StoredSubmission, error) {
	if len(photo) == 0 {
		return storage.StoredSubmission{}, newFailure(KindMissingPhoto, "No photo uploaded")
	}
	if performanceID == "" {
		return storage.StoredSubmission{}, newFailure(KindMissingPerformance, "No performance selected")
	}
	perf, err := s.catalog.Validate(performanceID)
	if err != nil {
		return storage.StoredSubmission{}, newFailure(KindInvalidPerformance, "Invalid performance selected")
	}
	if !allowedMimeTypes[mimeType] {
		return storage.StoredSubmission{}, newFailure(KindUnsupportedMedia, "Only image files (JPEG, PNG, WEBP) are allowed")
	}
	if len(photo) > MaxPhotoBytes {
		return storage.StoredSubmission{}, newFailure(KindUnsupportedMedia, "File is too large. Maximum size is 10MB")
	}

	slog.Info("Received photo upload", "performance", perf.Display, "bytes", len(photo))

	// The client's crop is preview only; the stored image is always
	// re-derived here from the uploaded bytes.
	normalized, err := s.processor.Normalize(photo)
	if err != nil {
		slog.Error("Image processing failed", "err", err)
		return storage.StoredSubmission{}, newFailureDetail(KindProcessing, "Upload failed", err)
	}

	stored, err := s.placer.Place(ctx, normalized, perf)
	if err != nil {
		slog.Error("Storage placement failed", "err", err)
		return storage.StoredSubmission{}, newFailureDetail(KindStorage, "Upload failed", err)
	}
	return stored, nil
}
