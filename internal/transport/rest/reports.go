package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/heartmarshall/civic-client/internal/domain"
	"github.com/heartmarshall/civic-client/internal/mockserver"
	"github.com/heartmarshall/civic-client/pkg/ctxutil"
)

const (
	// MaxImageBytes is the largest accepted upload.
	MaxImageBytes = 10 << 20

	maxUploadBody   = MaxImageBytes + 1<<20
	defaultRadiusKm = 5.0

	// createdAtLayout is ISO-8601 without a zone, which clients read as UTC.
	createdAtLayout = "2006-01-02T15:04:05.000000"
)

// reportStore defines the report operations needed by ReportHandler.
type reportStore interface {
	AccountByID(id int64) (mockserver.Account, bool)
	CreateReport(in mockserver.NewReport) (mockserver.Report, error)
	Report(id int64) (mockserver.Report, error)
	ReportsByUser(userID int64) []mockserver.Report
	AllReports() []mockserver.Report
	SetStatus(id, userID int64, status domain.ReportStatus) error
	Nearby(at domain.Coordinates, radiusKm float64) []mockserver.Report
	Stats(userID int64) domain.ReportStats
	PutImage(name string, img mockserver.Image)
	Image(name string) (mockserver.Image, bool)
}

// ReportHandler serves the report endpoints.
type ReportHandler struct {
	store reportStore
	log   *slog.Logger
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(store reportStore, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{store: store, log: logger.With("handler", "reports")}
}

type reportResponse struct {
	ID        int64    `json:"id"`
	UserID    int64    `json:"user_id"`
	Username  string   `json:"username"`
	Text      string   `json:"text"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	ImageURL  *string  `json:"image_url"`
	Category  string   `json:"category"`
	Status    string   `json:"status"`
	CreatedAt string   `json:"created_at"`
}

func toReportResponse(r mockserver.Report) reportResponse {
	return reportResponse{
		ID:        r.ID,
		UserID:    r.UserID,
		Username:  r.Username,
		Text:      r.Text,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		ImageURL:  r.ImageURL,
		Category:  r.Category,
		Status:    r.Status.String(),
		CreatedAt: r.CreatedAt.UTC().Format(createdAtLayout),
	}
}

func toReportList(rs []mockserver.Report) []reportResponse {
	out := make([]reportResponse, len(rs))
	for i, r := range rs {
		out[i] = toReportResponse(r)
	}
	return out
}

// Upload handles POST /api/reports/upload (multipart/form-data).
func (h *ReportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, _ := ctxutil.UserIDFromCtx(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusBadRequest, "Image file too large. Maximum size is 10MB")
			return
		}
		writeDetail(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	in := mockserver.NewReport{
		UserID:   userID,
		Text:     r.PostFormValue("text"),
		Category: r.PostFormValue("category"),
	}

	var issues []fieldIssue
	if in.Text == "" {
		issues = append(issues, missing("body", "text"))
	}
	if in.Category == "" {
		issues = append(issues, missing("body", "category"))
	}
	var err error
	if in.Latitude, err = optionalFloat(r.PostFormValue("latitude")); err != nil {
		issues = append(issues, notFloat("body", "latitude"))
	}
	if in.Longitude, err = optionalFloat(r.PostFormValue("longitude")); err != nil {
		issues = append(issues, notFloat("body", "longitude"))
	}
	if len(issues) > 0 {
		writeUnprocessable(w, issues)
		return
	}

	if url, status, detail := h.saveImage(r); status != 0 {
		writeDetail(w, status, detail)
		return
	} else if url != "" {
		in.ImageURL = &url
	}

	report, err := h.store.CreateReport(in)
	if err != nil {
		h.log.ErrorContext(r.Context(), "create report", slog.String("error", err.Error()))
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Failed to create report: %v", err))
		return
	}

	h.log.InfoContext(r.Context(), "report created",
		slog.Int64("report_id", report.ID),
		slog.String("category", report.Category),
		slog.Bool("has_image", report.ImageURL != nil))
	writeJSON(w, http.StatusCreated, toReportResponse(report))
}

// saveImage stores the optional "image" part. A non-zero status means the
// upload must be rejected with detail.
func (h *ReportHandler) saveImage(r *http.Request) (url string, status int, detail string) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return "", 0, ""
	}
	if err != nil {
		return "", http.StatusBadRequest, "invalid image part"
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", http.StatusBadRequest, "Only image files are allowed"
	}
	if header.Size > MaxImageBytes {
		return "", http.StatusBadRequest, "Image file too large. Maximum size is 10MB"
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", http.StatusInternalServerError, fmt.Sprintf("Image upload failed: %v", err)
	}

	filename := header.Filename
	if filename == "" {
		filename = "image.jpg"
	}
	name := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	h.store.PutImage(name, mockserver.Image{ContentType: contentType, Data: data})

	return "http://" + r.Host + "/uploads/" + name, 0, ""
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Mine handles GET /api/reports/my.
func (h *ReportHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, _ := ctxutil.UserIDFromCtx(r.Context())
	writeJSONOK(w, toReportList(h.store.ReportsByUser(userID)))
}

// All handles GET /api/reports/all.
func (h *ReportHandler) All(w http.ResponseWriter, r *http.Request) {
	writeJSONOK(w, toReportList(h.store.AllReports()))
}

// Get handles GET /api/reports/{id}.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r)
	if !ok {
		return
	}

	report, err := h.store.Report(id)
	if errors.Is(err, domain.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "Report not found")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSONOK(w, toReportResponse(report))
}

// UpdateStatus handles PUT /api/reports/{id}/status with form field status_update.
func (h *ReportHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	raw := r.PostFormValue("status_update")
	if raw == "" {
		writeUnprocessable(w, []fieldIssue{missing("body", "status_update")})
		return
	}
	status := domain.ReportStatus(raw)
	if !status.IsValid() {
		writeDetail(w, http.StatusBadRequest, "Invalid status. Must be one of: pending, in_progress, resolved, rejected")
		return
	}

	userID, _ := ctxutil.UserIDFromCtx(r.Context())
	switch err := h.store.SetStatus(id, userID, status); {
	case errors.Is(err, domain.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Report not found")
		return
	case errors.Is(err, mockserver.ErrForbidden):
		writeDetail(w, http.StatusForbidden, "Not authorized to update this report")
		return
	case err != nil:
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.log.InfoContext(r.Context(), "report status updated", slog.Int64("report_id", id), slog.String("status", raw))
	writeJSONOK(w, map[string]string{"message": "Report status updated successfully", "status": raw})
}

type nearbyRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	RadiusKm  *float64 `json:"radius_km"`
}

// Nearby handles POST /api/reports/nearby.
func (h *ReportHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	var req nearbyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var issues []fieldIssue
	if req.Latitude == nil {
		issues = append(issues, missing("body", "latitude"))
	}
	if req.Longitude == nil {
		issues = append(issues, missing("body", "longitude"))
	}
	if len(issues) > 0 {
		writeUnprocessable(w, issues)
		return
	}

	radius := defaultRadiusKm
	if req.RadiusKm != nil {
		radius = *req.RadiusKm
	}

	at := domain.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	writeJSONOK(w, toReportList(h.store.Nearby(at, radius)))
}

// Stats handles GET /api/reports/stats.
func (h *ReportHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, _ := ctxutil.UserIDFromCtx(r.Context())
	writeJSONOK(w, h.store.Stats(userID))
}

var categoryIcons = map[domain.Category]string{
	domain.CategoryInfrastructure: "🏗️",
	domain.CategoryEnvironment:    "🌱",
	domain.CategoryPublicSafety:   "🚨",
	domain.CategorySafety:         "⚠️",
	domain.CategoryTraffic:        "🚦",
	domain.CategoryTransportation: "🚗",
	domain.CategoryUtilities:      "💡",
	domain.CategoryOther:          "📍",
}

// Categories handles GET /api/reports/categories. No authentication required.
func (h *ReportHandler) Categories(w http.ResponseWriter, r *http.Request) {
	out := make([]domain.CategoryInfo, len(domain.Categories))
	for i, c := range domain.Categories {
		out[i] = domain.CategoryInfo{ID: c.String(), Name: c.Label(), Icon: categoryIcons[c]}
	}
	writeJSONOK(w, map[string]any{"categories": out})
}

// Image handles GET /uploads/{name}.
func (h *ReportHandler) Image(w http.ResponseWriter, r *http.Request) {
	img, ok := h.store.Image(mux.Vars(r)["name"])
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(int((24*time.Hour).Seconds())))
	w.WriteHeader(http.StatusOK)
	w.Write(img.Data) //nolint:errcheck
}

func reportID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeUnprocessable(w, []fieldIssue{{
			Loc:  []string{"path", "report_id"},
			Msg:  "value is not a valid integer",
			Type: "type_error.integer",
		}})
		return 0, false
	}
	return id, true
}
