package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/civic-client/internal/auth"
	"github.com/heartmarshall/civic-client/internal/mockserver"
)

type testServer struct {
	*httptest.Server
	store *mockserver.Store
}

func newTestServer(t *testing.T, reg *prometheus.Registry) *testServer {
	t.Helper()

	store := mockserver.NewStore()
	tokens := auth.NewJWTManager("router-test-secret-at-least-32-chars", "civic-mock", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := NewRouter(RouterConfig{AuthPrefix: "/auth", Version: "test", Registry: reg}, store, tokens, logger)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token, contentType string, body io.Reader) (int, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, s.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (s *testServer) register(t *testing.T, username string) string {
	t.Helper()

	status, body := s.do(t, http.MethodPost, "/auth/register", "", "application/json",
		strings.NewReader(`{"username":"`+username+`","password":"pw-`+username+`"}`))
	require.Equal(t, http.StatusCreated, status, string(body))

	var tok tokenResponse
	require.NoError(t, json.Unmarshal(body, &tok))
	return tok.AccessToken
}

type uploadPart struct {
	field, filename, contentType string
	data                         []byte
}

func multipartBody(t *testing.T, fields map[string]string, img *uploadPart) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if img != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+img.field+`"; filename="`+img.filename+`"`)
		h.Set("Content-Type", img.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(img.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func detail(t *testing.T, body []byte) string {
	t.Helper()
	var out struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out.Detail
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	status, body := s.do(t, http.MethodGet, "/health", "", "", nil)
	assert.Equal(t, http.StatusOK, status)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "test", resp.Version)
}

func TestRouter_AuthFlow(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	token := s.register(t, "alice")

	status, body := s.do(t, http.MethodPost, "/auth/register", "", "application/json",
		strings.NewReader(`{"username":"alice","password":"x"}`))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Username already registered", detail(t, body))

	status, body = s.do(t, http.MethodPost, "/auth/login", "", "application/json",
		strings.NewReader(`{"username":"alice","password":"wrong"}`))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid username or password", detail(t, body))

	form := url.Values{"username": {"alice"}, "password": {"pw-alice"}}
	status, body = s.do(t, http.MethodPost, "/auth/login", "", "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	require.Equal(t, http.StatusOK, status, string(body))
	var tok tokenResponse
	require.NoError(t, json.Unmarshal(body, &tok))
	assert.Equal(t, "bearer", tok.TokenType)
	assert.Equal(t, "alice", tok.User.Username)

	status, body = s.do(t, http.MethodGet, "/auth/me", token, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"id":1,"username":"alice"}`, string(body))

	status, _ = s.do(t, http.MethodGet, "/auth/me", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRouter_Login_MissingFields(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	status, body := s.do(t, http.MethodPost, "/auth/login", "", "application/json", strings.NewReader(`{"username":"a"}`))
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	var out struct {
		Detail []fieldIssue `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Detail, 1)
	assert.Equal(t, []string{"body", "password"}, out.Detail[0].Loc)
}

func TestRouter_ReportsRequireAuth(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	for _, path := range []string{"/api/reports/my", "/api/reports/all", "/api/reports/stats", "/api/reports/1"} {
		status, body := s.do(t, http.MethodGet, path, "", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
		assert.Equal(t, "Not authenticated", detail(t, body), path)

		status, _ = s.do(t, http.MethodGet, path, "forged", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
	}

	status, _ := s.do(t, http.MethodGet, "/api/reports/categories", "", "", nil)
	assert.Equal(t, http.StatusOK, status, "categories are public")
}

func TestRouter_UploadAndRead(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	token := s.register(t, "alice")

	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	body, ct := multipartBody(t, map[string]string{
		"text": "Large pothole", "category": "infrastructure",
		"latitude": "40.712800", "longitude": "-74.006000",
	}, &uploadPart{"image", "p.png", "image/png", png})

	status, data := s.do(t, http.MethodPost, "/api/reports/upload", token, ct, body)
	require.Equal(t, http.StatusCreated, status, string(data))

	var created reportResponse
	require.NoError(t, json.Unmarshal(data, &created))
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "alice", created.Username)
	require.NotNil(t, created.Latitude)
	assert.InDelta(t, 40.7128, *created.Latitude, 1e-9)
	require.NotNil(t, created.ImageURL)
	assert.NotContains(t, created.CreatedAt, "Z", "created_at has no zone")

	imgPath := strings.TrimPrefix(*created.ImageURL, s.URL)
	status, imgData := s.do(t, http.MethodGet, imgPath, "", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, png, imgData)

	status, data = s.do(t, http.MethodGet, "/api/reports/my", token, "", nil)
	require.Equal(t, http.StatusOK, status)
	var mine []reportResponse
	require.NoError(t, json.Unmarshal(data, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, created.ID, mine[0].ID)

	status, _ = s.do(t, http.MethodGet, "/api/reports/1", token, "", nil)
	assert.Equal(t, http.StatusOK, status)
	status, data = s.do(t, http.MethodGet, "/api/reports/99", token, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Report not found", detail(t, data))
	status, _ = s.do(t, http.MethodGet, "/api/reports/abc", token, "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestRouter_Upload_Rejections(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	token := s.register(t, "alice")

	body, ct := multipartBody(t, map[string]string{"text": "x", "category": "other"},
		&uploadPart{"image", "notes.txt", "text/plain", []byte("hello")})
	status, data := s.do(t, http.MethodPost, "/api/reports/upload", token, ct, body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Only image files are allowed", detail(t, data))

	body, ct = multipartBody(t, map[string]string{"category": "other", "latitude": "north"}, nil)
	status, data = s.do(t, http.MethodPost, "/api/reports/upload", token, ct, body)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, string(data), `"text"`)
	assert.Contains(t, string(data), `"latitude"`)

	big := make([]byte, MaxImageBytes+1)
	body, ct = multipartBody(t, map[string]string{"text": "x", "category": "other"},
		&uploadPart{"image", "big.jpg", "image/jpeg", big})
	status, data = s.do(t, http.MethodPost, "/api/reports/upload", token, ct, body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Image file too large. Maximum size is 10MB", detail(t, data))
}

func TestRouter_UpdateStatus(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	body, ct := multipartBody(t, map[string]string{"text": "x", "category": "other"}, nil)
	status, _ := s.do(t, http.MethodPost, "/api/reports/upload", alice, ct, body)
	require.Equal(t, http.StatusCreated, status)

	put := func(token, value string) (int, []byte) {
		form := url.Values{"status_update": {value}}
		return s.do(t, http.MethodPut, "/api/reports/1/status", token, "application/x-www-form-urlencoded",
			strings.NewReader(form.Encode()))
	}

	status, data := put(bob, "resolved")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Not authorized to update this report", detail(t, data))

	status, data = put(alice, "done")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, detail(t, data), "Invalid status")

	status, data = put(alice, "resolved")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"Report status updated successfully","status":"resolved"}`, string(data))

	status, data = s.do(t, http.MethodGet, "/api/reports/stats", bob, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"total_reports":1,"pending_reports":0,"resolved_reports":1,"user_reports":0}`, string(data))
}

func TestRouter_Nearby(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)
	token := s.register(t, "alice")

	body, ct := multipartBody(t, map[string]string{
		"text": "x", "category": "other", "latitude": "40.7128", "longitude": "-74.006",
	}, nil)
	status, _ := s.do(t, http.MethodPost, "/api/reports/upload", token, ct, body)
	require.Equal(t, http.StatusCreated, status)

	status, data := s.do(t, http.MethodPost, "/api/reports/nearby", token, "application/json",
		strings.NewReader(`{"latitude":40.713,"longitude":-74.006}`))
	require.Equal(t, http.StatusOK, status)
	var got []reportResponse
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Len(t, got, 1)

	status, data = s.do(t, http.MethodPost, "/api/reports/nearby", token, "application/json",
		strings.NewReader(`{"latitude":0,"longitude":0,"radius_km":1}`))
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(data))
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, prometheus.NewRegistry())

	s.do(t, http.MethodGet, "/health", "", "", nil)
	status, data := s.do(t, http.MethodGet, "/metrics", "", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), `civic_mock_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestRouter_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, nil)

	status, data := s.do(t, http.MethodGet, "/nope", "", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not Found", detail(t, data))
}
