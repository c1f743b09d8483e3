package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/civic-client/internal/domain"
	"github.com/heartmarshall/civic-client/pkg/ctxutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// storeWith returns a mock backed by a single in-memory value.
func storeWith(token string) *TokenStoreMock {
	var mu sync.Mutex
	value := token
	return &TokenStoreMock{
		GetFunc: func(context.Context) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			return value, nil
		},
		SetFunc: func(_ context.Context, t string) error {
			mu.Lock()
			defer mu.Unlock()
			value = t
			return nil
		},
		ClearFunc: func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			value = ""
			return nil
		},
	}
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []Outcome
	routes   []string
}

func (o *recordingObserver) ObserveRequest(_, route string, outcome Outcome, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
	o.routes = append(o.routes, route)
}

func TestSend_AttachesBearerToken(t *testing.T) {
	t.Parallel()

	var gotAuth, gotUA, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		gotReqID = r.Header.Get(HeaderRequestID)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	g := New(srv.URL, storeWith("tok-123"), discardLogger(), WithUserAgent("civic-client/test"))
	ctx := ctxutil.WithRequestID(context.Background(), "req-1")

	resp, err := g.Send(ctx, Request{Method: http.MethodGet, Path: "/api/reports/my"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "[]", string(resp.Body))
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "civic-client/test", gotUA)
	assert.Equal(t, "req-1", gotReqID)
}

func TestSend_EmptyStoreSendsNoAuthorization(t *testing.T) {
	t.Parallel()

	var hadAuth bool
	var gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		gotReqID = r.Header.Get(HeaderRequestID)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := New(srv.URL, storeWith(""), discardLogger())

	_, err := g.Send(context.Background(), Request{Method: http.MethodGet, Path: "/api/reports/all"})
	require.NoError(t, err)

	assert.False(t, hadAuth, "Authorization header must be absent")
	assert.NotEmpty(t, gotReqID, "a request id is generated when the context has none")
}

func TestSend_StoreReadFailureSendsUnauthenticated(t *testing.T) {
	t.Parallel()

	var hadAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := &TokenStoreMock{
		GetFunc: func(context.Context) (string, error) { return "", errors.New("keychain locked") },
	}
	g := New(srv.URL, store, discardLogger())

	_, err := g.Send(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	require.NoError(t, err)
	assert.False(t, hadAuth)
}

func TestSend_UnauthorizedClearsStoreOnce(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
	}))
	defer srv.Close()

	store := storeWith("stale")
	obs := &recordingObserver{}
	g := New(srv.URL, store, discardLogger(), WithObserver(obs))

	_, err := g.Send(context.Background(), Request{Method: http.MethodGet, Path: "/api/reports/my", Route: "reports.my"})
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
	assert.Equal(t, "Could not validate credentials", domain.UserMessage(err))
	assert.Len(t, store.ClearCalls(), 1)

	token, _ := store.Get(context.Background())
	assert.Empty(t, token)
	assert.Equal(t, []Outcome{OutcomeUnauthorized}, obs.outcomes)
	assert.Equal(t, []string{"reports.my"}, obs.routes)
}

func TestSend_UnauthorizedWithEmptyStore(t *testing.T) {
	t.Parallel()

	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Not authenticated"}`))
	}))
	defer srv.Close()

	store := storeWith("")
	g := New(srv.URL, store, discardLogger())

	_, err := g.Send(context.Background(), Request{Method: http.MethodGet, Path: "/api/reports/my"})

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Empty(t, authHeader)
	assert.Len(t, store.ClearCalls(), 1)
}

func TestSend_UnauthorizedWithFailingClear(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := &TokenStoreMock{
		GetFunc:   func(context.Context) (string, error) { return "tok", nil },
		ClearFunc: func(context.Context) error { return errors.New("disk full") },
	}
	g := New(srv.URL, store, discardLogger())

	_, err := g.Send(context.Background(), Request{Method: http.MethodGet, Path: "/x"})

	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
	assert.Len(t, store.ClearCalls(), 1)
	assert.Equal(t, "Your session has expired. Please log in again.", domain.UserMessage(err))
}

func TestSend_ServerErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		fallback string
		wantMsg  string
	}{
		{"string detail", http.StatusBadRequest, `{"detail":"Only image files are allowed"}`, "Upload failed.", "Only image files are allowed"},
		{"list detail", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","text"],"msg":"field required"},{"msg":"value is not a valid float"}]}`, "", "field required; value is not a valid float"},
		{"no detail uses fallback", http.StatusInternalServerError, `Internal Server Error`, "Upload failed.", "Upload failed."},
		{"no detail no fallback", http.StatusBadGateway, ``, "", "Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			store := storeWith("tok")
			g := New(srv.URL, store, discardLogger())

			_, err := g.Send(context.Background(), Request{Method: http.MethodPost, Path: "/api/reports/upload", Fallback: tt.fallback})
			require.Error(t, err)

			assert.Equal(t, domain.KindServer, domain.KindOf(err))
			assert.Equal(t, tt.status, domain.StatusOf(err))
			assert.Equal(t, tt.wantMsg, domain.UserMessage(err))
			assert.Empty(t, store.ClearCalls(), "non-401 failures must not clear the store")
		})
	}
}

func TestSend_NetworkFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	obs := &recordingObserver{}
	g := New(url, storeWith(""), discardLogger(), WithObserver(obs))

	_, err := g.Send(context.Background(), Request{Method: http.MethodGet, Path: "/health"})

	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Equal(t, 0, domain.StatusOf(err))
	assert.Equal(t, []Outcome{OutcomeNetworkError}, obs.outcomes)
}

func TestSend_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	g := New(srv.URL, storeWith(""), discardLogger(), WithTimeout(50*time.Millisecond))

	_, err := g.Send(context.Background(), Request{Method: http.MethodGet, Path: "/slow"})

	assert.Equal(t, domain.KindNetwork, domain.KindOf(err))
	assert.Equal(t, "Request timed out.", domain.UserMessage(err))
}

func TestSend_CancelledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := New(srv.URL, storeWith(""), discardLogger())
	_, err := g.Send(ctx, Request{Method: http.MethodGet, Path: "/x"})

	assert.Equal(t, domain.KindNetwork, domain.KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSend_ForwardsBodyAndContentType(t *testing.T) {
	t.Parallel()

	var gotCT, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	g := New(srv.URL+"/", storeWith(""), discardLogger())
	resp, err := g.Send(context.Background(), Request{
		Method:      http.MethodPost,
		Path:        "/auth/login",
		ContentType: "application/json",
		Body:        strings.NewReader(`{"username":"a"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, `{"username":"a"}`, gotBody)
}

func TestParseDetail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		body string
		want string
	}{
		{`{"detail":"Report not found"}`, "Report not found"},
		{`{"detail":[{"msg":"a"},{"msg":" "},{"msg":"b"}]}`, "a; b"},
		{`{"detail":{"code":1}}`, ""},
		{`{"message":"x"}`, ""},
		{`not json`, ""},
		{``, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseDetail([]byte(tt.body)), "body %q", tt.body)
	}
}
