// Package device supplies location and image capabilities on hosts without
// sensors: a fixed position and images read from the filesystem.
package device

import (
	"context"
	"fmt"
	"strings"

	"github.com/heartmarshall/civic-client/internal/domain"
)

// StaticLocation reports a fixed position. The zero value has no position
// and behaves like a device where location access was refused.
type StaticLocation struct {
	coords *domain.Coordinates
}

// NewStaticLocation parses "lat,lon". An empty string yields a provider
// without a position.
func NewStaticLocation(latlon string) (*StaticLocation, error) {
	latlon = strings.TrimSpace(latlon)
	if latlon == "" {
		return &StaticLocation{}, nil
	}

	lat, lon, ok := strings.Cut(latlon, ",")
	if !ok {
		return nil, domain.NewValidationError("location", fmt.Sprintf("expected \"lat,lon\", got %q", latlon))
	}
	c, err := domain.ParseCoordinates(lat, lon)
	if err != nil {
		return nil, err
	}
	return &StaticLocation{coords: &c}, nil
}

// CurrentLocation returns the configured position or domain.ErrPermissionDenied.
func (l *StaticLocation) CurrentLocation(ctx context.Context) (domain.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return domain.Coordinates{}, err
	}
	if l.coords == nil {
		return domain.Coordinates{}, fmt.Errorf("device.CurrentLocation: %w", domain.ErrPermissionDenied)
	}
	return *l.coords, nil
}
