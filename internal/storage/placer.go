package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/opencurtain/photodrop/internal/catalog"
)

// DefaultBaseFolder is used when no DROPBOX_FOLDER is configured.
const DefaultBaseFolder = "/My Joy is Heavy Photos"

// Placer builds a unique storage path per submission and delegates the
// durable write to the Provider. Path uniqueness is probabilistic
// (millisecond timestamp plus random suffix); the provider autorenames on
// any residual collision.
type Placer struct {
	provider   Provider
	baseFolder string
	now        func() time.Time
}

func NewPlacer(provider Provider, baseFolder string) *Placer {
	if baseFolder == "" {
		baseFolder = DefaultBaseFolder
	}
	return &Placer{
		provider:   provider,
		baseFolder: baseFolder,
		now:        time.Now,
	}
}

// Place persists a normalized image for the given performance and returns
// the stored result. No uniqueness verification beyond path generation.
func (p *Placer) Place(ctx context.Context, image []byte, perf catalog.Performance) (StoredSubmission, error) {
	suffix := uuid.NewString()[:6]
	filename := fmt.Sprintf("photo_%d_%s.jpg", p.now().UnixMilli(), suffix)
	path := fmt.Sprintf("%s/%s/%s", p.baseFolder, perf.ID, filename)

	slog.Info("Uploading photo", "path", path, "bytes", len(image))

	storedName, err := p.provider.Upload(ctx, path, image)
	if err != nil {
		return StoredSubmission{}, fmt.Errorf("failed to store photo: %w", err)
	}

	slog.Info("Upload successful", "name", storedName)

	return StoredSubmission{
		Path:               path,
		StoredName:         storedName,
		PerformanceDisplay: perf.Display,
	}, nil
}
