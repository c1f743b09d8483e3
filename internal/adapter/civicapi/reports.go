package civicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/heartmarshall/civic-client/internal/domain"
	"github.com/heartmarshall/civic-client/internal/gateway"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Submit uploads a composed report as multipart/form-data with the text
// fields text, latitude, longitude, category and, when present, one binary part.
func (c *Client) Submit(ctx context.Context, sub domain.Submission) (*domain.Report, error) {
	body, contentType, err := c.encodeSubmission(sub)
	if err != nil {
		return nil, err
	}

	c.log.DebugContext(ctx, "submitting report",
		slog.String("category", sub.Category.String()),
		slog.Bool("has_image", sub.HasImage()),
		slog.Int("bytes", body.Len()),
	)

	resp, err := c.gw.Send(ctx, gateway.Request{
		Method:      http.MethodPost,
		Path:        reportsPrefix + "/upload",
		Route:       "reports.upload",
		ContentType: contentType,
		Body:        body,
		Fallback:    fallbackUpload,
	})
	if err != nil {
		return nil, err
	}

	report, err := decode[domain.Report](resp, "report")
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *Client) encodeSubmission(sub domain.Submission) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"text", sub.Text},
		{"latitude", sub.Latitude},
		{"longitude", sub.Longitude},
		{"category", sub.Category.String()},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("civicapi.Submit: write field %s: %w", f.name, err)
		}
	}

	if sub.Image != nil {
		if err := c.writeImage(mw, sub.Image); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("civicapi.Submit: close multipart: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func (c *Client) writeImage(mw *multipart.Writer, img *domain.ImagePart) error {
	field := img.Field
	if field == "" {
		field = c.imageField
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(img.Filename)))
	h.Set("Content-Type", img.ContentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("civicapi.Submit: create image part: %w", err)
	}

	if img.Data != nil {
		if _, err := part.Write(img.Data); err != nil {
			return fmt.Errorf("civicapi.Submit: write image: %w", err)
		}
		return nil
	}

	rc, err := c.openImage(img.URI)
	if err != nil {
		return fmt.Errorf("civicapi.Submit: open image %s: %w", img.URI, err)
	}
	defer rc.Close()
	if _, err := io.Copy(part, rc); err != nil {
		return fmt.Errorf("civicapi.Submit: copy image: %w", err)
	}
	return nil
}

// ListMine returns the reports filed by the current user, newest first.
func (c *Client) ListMine(ctx context.Context) ([]domain.Report, error) {
	return c.list(ctx, reportsPrefix+"/my", "reports.my")
}

// ListAll returns every report, newest first.
func (c *Client) ListAll(ctx context.Context) ([]domain.Report, error) {
	return c.list(ctx, reportsPrefix+"/all", "reports.all")
}

func (c *Client) list(ctx context.Context, path, route string) ([]domain.Report, error) {
	resp, err := c.gw.Send(ctx, gateway.Request{
		Method:   http.MethodGet,
		Path:     path,
		Route:    route,
		Fallback: fallbackList,
	})
	if err != nil {
		return nil, err
	}

	reports, err := decode[[]domain.Report](resp, "report list")
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []domain.Report{}
	}
	return reports, nil
}

// Get returns one report by ID.
func (c *Client) Get(ctx context.Context, id int64) (*domain.Report, error) {
	resp, err := c.gw.Send(ctx, gateway.Request{
		Method:   http.MethodGet,
		Path:     reportsPrefix + "/" + strconv.FormatInt(id, 10),
		Route:    "reports.get",
		Fallback: fallbackGet,
	})
	if err != nil {
		return nil, err
	}

	report, err := decode[domain.Report](resp, "report")
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// UpdateStatus changes the lifecycle state of a report the user owns.
func (c *Client) UpdateStatus(ctx context.Context, id int64, status domain.ReportStatus) (domain.ReportStatus, error) {
	if !status.IsValid() {
		return "", domain.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}

	form := url.Values{"status_update": {status.String()}}
	resp, err := c.gw.Send(ctx, gateway.Request{
		Method:      http.MethodPut,
		Path:        reportsPrefix + "/" + strconv.FormatInt(id, 10) + "/status",
		Route:       "reports.status",
		ContentType: "application/x-www-form-urlencoded",
		Body:        strings.NewReader(form.Encode()),
		Fallback:    fallbackStatus,
	})
	if err != nil {
		return "", err
	}

	out, err := decode[struct {
		Status domain.ReportStatus `json:"status"`
	}](resp, "status update")
	if err != nil {
		return "", err
	}
	if out.Status == "" {
		return status, nil
	}
	return out.Status, nil
}

// Nearby returns up to 50 reports within radiusKm of the point, nearest first.
func (c *Client) Nearby(ctx context.Context, at domain.Coordinates, radiusKm float64) ([]domain.Report, error) {
	if !at.IsFinite() {
		return nil, domain.NewValidationError("location", "location required")
	}
	if radiusKm <= 0 {
		return nil, domain.NewValidationError("radius_km", "radius must be positive")
	}

	payload, err := json.Marshal(struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		RadiusKm  float64 `json:"radius_km"`
	}{at.Latitude, at.Longitude, radiusKm})
	if err != nil {
		return nil, fmt.Errorf("civicapi.Nearby: encode: %w", err)
	}

	resp, err := c.gw.Send(ctx, gateway.Request{
		Method:      http.MethodPost,
		Path:        reportsPrefix + "/nearby",
		Route:       "reports.nearby",
		ContentType: "application/json",
		Body:        bytes.NewReader(payload),
		Fallback:    fallbackList,
	})
	if err != nil {
		return nil, err
	}

	reports, err := decode[[]domain.Report](resp, "report list")
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []domain.Report{}
	}
	return reports, nil
}

// Stats returns the dashboard counters.
func (c *Client) Stats(ctx context.Context) (*domain.ReportStats, error) {
	resp, err := c.gw.Send(ctx, gateway.Request{
		Method: http.MethodGet,
		Path:   reportsPrefix + "/stats",
		Route:  "reports.stats",
	})
	if err != nil {
		return nil, err
	}

	stats, err := decode[domain.ReportStats](resp, "statistics")
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Categories returns the backend's category catalog.
func (c *Client) Categories(ctx context.Context) ([]domain.CategoryInfo, error) {
	resp, err := c.gw.Send(ctx, gateway.Request{
		Method: http.MethodGet,
		Path:   reportsPrefix + "/categories",
		Route:  "reports.categories",
	})
	if err != nil {
		return nil, err
	}

	out, err := decode[struct {
		Categories []domain.CategoryInfo `json:"categories"`
	}](resp, "category list")
	if err != nil {
		return nil, err
	}
	return out.Categories, nil
}

// Health reports the backend's self-reported status string.
func (c *Client) Health(ctx context.Context) (string, error) {
	resp, err := c.gw.Send(ctx, gateway.Request{
		Method: http.MethodGet,
		Path:   "/health",
		Route:  "health",
	})
	if err != nil {
		return "", err
	}

	out, err := decode[struct {
		Status string `json:"status"`
	}](resp, "health status")
	if err != nil {
		return "", err
	}
	return out.Status, nil
}
