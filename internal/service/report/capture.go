package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/civic-client/internal/domain"
)

// CaptureLocation fills d.Coordinates from the device. On failure d is left
// unchanged and the error is returned; a denied permission surfaces later
// as "location required" when the draft is composed.
func (s *Service) CaptureLocation(ctx context.Context, d *domain.Draft) error {
	if s.locations == nil {
		return fmt.Errorf("report.CaptureLocation: %w", domain.ErrPermissionDenied)
	}

	c, err := s.locations.CurrentLocation(ctx)
	if err != nil {
		s.log.InfoContext(ctx, "location unavailable", slog.String("error", err.Error()))
		return fmt.Errorf("report.CaptureLocation: %w", err)
	}
	if !c.IsFinite() {
		return fmt.Errorf("report.CaptureLocation: %w", domain.NewValidationError("location", "location required"))
	}

	d.Coordinates = &c
	return nil
}

// AttachImage asks the device for an image and attaches it to d. A dismissed
// picker leaves d unchanged and is not an error. quality is passed through.
func (s *Service) AttachImage(ctx context.Context, d *domain.Draft, quality float64) error {
	if s.images == nil {
		return fmt.Errorf("report.AttachImage: %w", domain.ErrPermissionDenied)
	}

	img, err := s.images.PickImage(ctx, quality)
	if err != nil {
		s.log.InfoContext(ctx, "image unavailable", slog.String("error", err.Error()))
		return fmt.Errorf("report.AttachImage: %w", err)
	}
	if img == nil {
		return nil
	}

	img.Quality = quality
	d.Image = img
	return nil
}
