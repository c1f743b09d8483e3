// Package civicapi is the typed client of the civic reporting backend.
package civicapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/heartmarshall/civic-client/internal/config"
	"github.com/heartmarshall/civic-client/internal/domain"
	"github.com/heartmarshall/civic-client/internal/gateway"
)

const (
	reportsPrefix = "/api/reports"

	fallbackUpload = "Upload failed."
	fallbackList   = "Could not load reports."
	fallbackGet    = "Could not load the report."
	fallbackStatus = "Could not update the report status."
	fallbackLogin  = "Login failed."
	fallbackSignup = "Registration failed."
)

// sender performs one authenticated call. *gateway.Gateway implements it.
type sender interface {
	Send(ctx context.Context, req gateway.Request) (*gateway.Response, error)
}

// Client encodes requests to the backend and decodes its replies.
// Gateway failures are returned unchanged.
type Client struct {
	gw         sender
	authPrefix string
	loginForm  bool
	imageField string
	openImage  func(uri string) (io.ReadCloser, error)
	log        *slog.Logger
}

// New creates a Client sending through gw.
func New(gw sender, cfg config.APIConfig, logger *slog.Logger) *Client {
	field := cfg.ImageField
	if field == "" {
		field = "image"
	}
	return &Client{
		gw:         gw,
		authPrefix: strings.TrimRight(cfg.AuthPrefix, "/"),
		loginForm:  cfg.LoginEncoding == "form",
		imageField: field,
		openImage:  openLocal,
		log:        logger.With("adapter", "civicapi"),
	}
}

// openLocal opens an image URI on the local filesystem.
func openLocal(uri string) (io.ReadCloser, error) {
	return os.Open(strings.TrimPrefix(uri, "file://"))
}

// decode unmarshals a success body; failures are malformed-response errors.
func decode[T any](resp *gateway.Response, what string) (T, error) {
	var v T
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return v, domain.NewMalformedResponseError(
			fmt.Sprintf("The server sent an unreadable %s.", what),
			fmt.Errorf("decode %s: %w", what, err),
		)
	}
	return v, nil
}
