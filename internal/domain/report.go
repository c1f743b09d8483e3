package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Report is a civic issue report as returned by the backend. Read-only on the client.
type Report struct {
	ID        int64        `json:"id"             yaml:"id"`
	UserID    int64        `json:"user_id"        yaml:"user_id"`
	Username  string       `json:"username,omitempty"  yaml:"username,omitempty"`
	Text      string       `json:"text"           yaml:"text"`
	Category  Category     `json:"category"       yaml:"category"`
	Status    ReportStatus `json:"status"         yaml:"status"`
	Latitude  *float64     `json:"latitude"       yaml:"latitude,omitempty"`
	Longitude *float64     `json:"longitude"      yaml:"longitude,omitempty"`
	ImageURL  *string      `json:"image_url"      yaml:"image_url,omitempty"`
	CreatedAt Timestamp    `json:"created_at"     yaml:"created_at"`
}

// HasImage reports whether the server stored a photo for the report.
func (r Report) HasImage() bool {
	return r.ImageURL != nil && *r.ImageURL != ""
}

// ReportStats mirrors the dashboard counters served by the backend.
type ReportStats struct {
	Total    int `json:"total_reports"    yaml:"total"`
	Pending  int `json:"pending_reports"  yaml:"pending"`
	Resolved int `json:"resolved_reports" yaml:"resolved"`
	Mine     int `json:"user_reports"     yaml:"mine"`
}

// CategoryInfo is one entry of the backend's category catalog.
type CategoryInfo struct {
	ID   string `json:"id"   yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Icon string `json:"icon" yaml:"icon,omitempty"`
}

// Timestamp decodes the backend's created_at values. The server emits
// ISO-8601 without a zone offset; such values are taken as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses any layout the backend is known to produce.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t.UTC()}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// MarshalYAML renders the timestamp as RFC 3339.
func (t Timestamp) MarshalYAML() (any, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.UTC().Format(time.RFC3339), nil
}

// Coordinates is a WGS-84 position in decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// IsFinite reports whether both components are usable numbers.
func (c Coordinates) IsFinite() bool {
	return isFinite(c.Latitude) && isFinite(c.Longitude)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ParseCoordinates builds Coordinates from manually entered text.
func ParseCoordinates(lat, lon string) (Coordinates, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return Coordinates{}, NewValidationError("latitude", "latitude must be a number")
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return Coordinates{}, NewValidationError("longitude", "longitude must be a number")
	}
	c := Coordinates{Latitude: la, Longitude: lo}
	if !c.IsFinite() {
		return Coordinates{}, NewValidationError("location", "location required")
	}
	return c, nil
}

// ImageDraft describes an image picked or captured on the device.
// Data, when set, is uploaded instead of reading URI.
type ImageDraft struct {
	URI      string
	Filename string
	MIMEType string
	Data     []byte
	// Quality is the compression hint given to the picker. It is carried
	// along untouched.
	Quality float64
}

// Draft is a report being edited. Any field may be missing until submission.
type Draft struct {
	Description string
	Category    string
	Coordinates *Coordinates
	Image       *ImageDraft
}

// ImagePart is the binary part of a submission.
type ImagePart struct {
	Field       string
	Filename    string
	ContentType string
	URI         string
	Data        []byte
}

// Submission is the validated, transport-ready form of a Draft.
// Values are only produced by the report composer.
type Submission struct {
	Text      string
	Category  Category
	Latitude  string
	Longitude string
	Image     *ImagePart
}

// HasImage reports whether the submission carries a binary part.
func (s Submission) HasImage() bool {
	return s.Image != nil
}

// User is the account the current credential belongs to.
type User struct {
	ID       int64  `json:"id"       yaml:"id"`
	Username string `json:"username" yaml:"username"`
}
