// Package workflow is the client-side finite-state controller for one photo
// submission: pick a performance, consent, choose a file, crop, preview,
// submit. It owns the single active draft and drives UI visibility through
// a narrow port; rendering and transport are injected.
//
// The workflow is single-threaded and event-driven, matching the browser
// runtime it models. Callers invoke it from one goroutine.
package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/opencurtain/photodrop/internal/crop"
	"github.com/opencurtain/photodrop/internal/submission"
)

// Stage is the workflow position. Exactly one stage panel is visible at a
// time; StageDone is terminal until NewSubmission resets.
type Stage int

const (
	StageSelecting Stage = iota
	StageCropping
	StagePreviewing
	StageSubmitting
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageSelecting:
		return "selecting"
	case StageCropping:
		return "cropping"
	case StagePreviewing:
		return "previewing"
	case StageSubmitting:
		return "submitting"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

var (
	// ErrInvalidTransition is returned when a step is requested from a
	// stage whose guards do not allow it.
	ErrInvalidTransition = errors.New("invalid workflow transition")
	// ErrBusy is returned when a step is requested while a render or
	// submit is already in flight.
	ErrBusy = errors.New("operation already in progress")
)

// SourceImage is the user-chosen file.
type SourceImage struct {
	Name string
	MIME string
	Size int64
	Data []byte
}

// Draft is the ephemeral state of the in-progress submission. It is
// replaced wholesale on cancel, completion or new-photo, never reset
// field by field.
type Draft struct {
	PerformanceID string
	Consent       bool
	Source        *SourceImage
	CropRect      crop.Rect
	Cropped       []byte
}

// UI receives visibility side effects. Implementations toggle panels and
// controls only; they never drive transitions themselves.
type UI interface {
	ShowStage(Stage)
	ShowError(stage Stage, message string)
	SetBusy(busy bool)
}

// Renderer produces the 480x640 preview raster from the source bytes and
// the current crop region.
type Renderer interface {
	RenderCrop(source []byte, r crop.Rect) ([]byte, error)
}

// Result is the server's answer to a successful submission.
type Result struct {
	Filename    string
	Performance string
}

// Submitter delivers the cropped raster and performance id to the server.
type Submitter interface {
	Submit(ctx context.Context, photo []byte, filename, performanceID string) (Result, error)
}

type Workflow struct {
	ui        UI
	renderer  Renderer
	submitter Submitter

	stage Stage
	draft Draft
	busy  bool
}

func New(ui UI, renderer Renderer, submitter Submitter) *Workflow {
	w := &Workflow{
		ui:        ui,
		renderer:  renderer,
		submitter: submitter,
		stage:     StageSelecting,
	}
	ui.ShowStage(StageSelecting)
	return w
}

func (w *Workflow) Stage() Stage {
	return w.stage
}

// Draft returns a copy of the active draft.
func (w *Workflow) Draft() Draft {
	return w.draft
}

// SelectPerformance records the chosen performance id. Only meaningful in
// StageSelecting; an empty id clears the selection.
func (w *Workflow) SelectPerformance(id string) error {
	if w.stage != StageSelecting {
		return ErrInvalidTransition
	}
	w.draft.PerformanceID = id
	return nil
}

// SetConsent records the terms checkbox.
func (w *Workflow) SetConsent(ok bool) error {
	if w.stage != StageSelecting {
		return ErrInvalidTransition
	}
	w.draft.Consent = ok
	return nil
}

// ChooseFile validates the picked file and, when the selection and consent
// guards hold, advances to StageCropping with the default centered crop.
// A rejected file leaves the stage unchanged with the error shown.
func (w *Workflow) ChooseFile(f SourceImage) error {
	if w.stage != StageSelecting {
		return ErrInvalidTransition
	}
	if w.draft.PerformanceID == "" || !w.draft.Consent {
		return fmt.Errorf("%w: performance and consent required before choosing a photo", ErrInvalidTransition)
	}
	if !isImageMIME(f.MIME) {
		w.ui.ShowError(StageSelecting, "Please select an image file")
		return fmt.Errorf("unsupported file type %q", f.MIME)
	}
	if f.Size > submission.MaxPhotoBytes || int64(len(f.Data)) > submission.MaxPhotoBytes {
		w.ui.ShowError(StageSelecting, "File is too large. Maximum size is 10MB")
		return fmt.Errorf("file too large: %d bytes", f.Size)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(f.Data))
	if err != nil {
		w.ui.ShowError(StageSelecting, "Please select an image file")
		return fmt.Errorf("failed to read image: %w", err)
	}

	w.draft.Source = &f
	w.draft.CropRect = crop.Centered(cfg.Width, cfg.Height)
	w.draft.Cropped = nil
	w.stage = StageCropping
	w.ui.ShowStage(StageCropping)
	return nil
}

// SetCropRect updates the crop region while cropping. The interactive
// surface keeps the region 3:4-locked; the renderer maps whatever arrives
// here onto the canonical raster.
func (w *Workflow) SetCropRect(r crop.Rect) error {
	if w.stage != StageCropping {
		return ErrInvalidTransition
	}
	w.draft.CropRect = r
	return nil
}

// Preview renders the current crop region to the canonical 480x640 raster
// and advances to StagePreviewing. A render failure keeps the workflow in
// StageCropping with the error shown.
func (w *Workflow) Preview() error {
	if w.stage != StageCropping {
		return ErrInvalidTransition
	}
	if w.busy {
		return ErrBusy
	}
	w.busy = true
	w.ui.SetBusy(true)
	defer func() {
		w.busy = false
		w.ui.SetBusy(false)
	}()

	cropped, err := w.renderer.RenderCrop(w.draft.Source.Data, w.draft.CropRect)
	if err != nil {
		w.ui.ShowError(StageCropping, "Failed to preview image")
		return fmt.Errorf("failed to render crop: %w", err)
	}

	w.draft.Cropped = cropped
	w.stage = StagePreviewing
	w.ui.ShowStage(StagePreviewing)
	return nil
}

// Back returns from the preview to the crop surface, discarding the
// rendered raster.
func (w *Workflow) Back() error {
	if w.stage != StagePreviewing {
		return ErrInvalidTransition
	}
	w.draft.Cropped = nil
	w.stage = StageCropping
	w.ui.ShowStage(StageCropping)
	return nil
}

// Submit sends the rendered raster to the server. Success ends in
// StageDone with the draft destroyed. Failure returns to StagePreviewing
// with the server's message (or a generic fallback) shown and controls
// re-enabled for a retry.
func (w *Workflow) Submit(ctx context.Context) error {
	if w.stage != StagePreviewing {
		return ErrInvalidTransition
	}
	if w.draft.Cropped == nil || w.draft.PerformanceID == "" {
		return ErrInvalidTransition
	}
	if w.busy {
		return ErrBusy
	}
	w.busy = true
	w.ui.SetBusy(true)
	defer func() {
		w.busy = false
		w.ui.SetBusy(false)
	}()

	w.stage = StageSubmitting
	w.ui.ShowStage(StageSubmitting)

	_, err := w.submitter.Submit(ctx, w.draft.Cropped, w.draft.Source.Name, w.draft.PerformanceID)
	if err != nil {
		w.stage = StagePreviewing
		w.ui.ShowStage(StagePreviewing)
		w.ui.ShowError(StagePreviewing, "Upload failed: "+userMessage(err))
		return err
	}

	w.draft = Draft{}
	w.stage = StageDone
	w.ui.ShowStage(StageDone)
	return nil
}

// Cancel abandons the draft from any non-terminal stage and returns to a
// clean StageSelecting. An in-flight submit cannot be cancelled.
func (w *Workflow) Cancel() error {
	if w.stage == StageDone {
		return ErrInvalidTransition
	}
	if w.busy {
		return ErrBusy
	}
	w.reset()
	return nil
}

// NewSubmission starts over after a completed submission.
func (w *Workflow) NewSubmission() error {
	if w.stage != StageDone {
		return ErrInvalidTransition
	}
	w.reset()
	return nil
}

func (w *Workflow) reset() {
	w.draft = Draft{}
	w.stage = StageSelecting
	w.ui.ShowStage(StageSelecting)
}

func isImageMIME(mime string) bool {
	switch mime {
	case "image/jpeg", "image/jpg", "image/png", "image/webp":
		return true
	}
	return false
}

// userMessage extracts the server-provided error message when present,
// falling back to a generic one for transport failures.
func userMessage(err error) string {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Message
	}
	return "network error, please try again"
}
