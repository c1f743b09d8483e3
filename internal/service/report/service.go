// Package report assembles report drafts from user input and device
// capabilities and submits them.
package report

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/heartmarshall/civic-client/internal/domain"
)

// locationProvider yields the device position or domain.ErrPermissionDenied.
type locationProvider interface {
	CurrentLocation(ctx context.Context) (domain.Coordinates, error)
}

// imageProvider yields a picked or captured image, nil when the user
// dismissed the picker, or domain.ErrPermissionDenied.
type imageProvider interface {
	PickImage(ctx context.Context, quality float64) (*domain.ImageDraft, error)
}

// submitter sends a composed report to the backend.
type submitter interface {
	Submit(ctx context.Context, sub domain.Submission) (*domain.Report, error)
}

// Service drives a draft from capture to submission.
type Service struct {
	log       *slog.Logger
	composer  *Composer
	locations locationProvider
	images    imageProvider
	api       submitter
	inflight  singleflight.Group
}

// NewService creates a report service. locations and images may be nil when
// the device offers no such capability.
func NewService(
	logger *slog.Logger,
	composer *Composer,
	locations locationProvider,
	images imageProvider,
	api submitter,
) *Service {
	return &Service{
		log:       logger.With("service", "report"),
		composer:  composer,
		locations: locations,
		images:    images,
		api:       api,
	}
}
