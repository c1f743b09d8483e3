package report

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/heartmarshall/civic-client/internal/domain"
	"github.com/heartmarshall/civic-client/pkg/ctxutil"
)

// Compose validates d without submitting it.
func (s *Service) Compose(d domain.Draft) (domain.Submission, error) {
	return s.composer.Compose(d)
}

// Submit composes d and uploads it. Validation failures return before any
// network call. Concurrent calls with the same draftID share one upload and
// its result; a later call after completion uploads again.
//
// The shared upload is detached from the caller's cancellation and bounded
// by the gateway timeout only. A caller whose ctx ends stops waiting with a
// network error while the upload continues for the others.
func (s *Service) Submit(ctx context.Context, draftID string, d domain.Draft) (*domain.Report, error) {
	sub, err := s.composer.Compose(d)
	if err != nil {
		return nil, err
	}

	ctx = ctxutil.WithDraftID(ctx, draftID)

	upload := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(draftID, func() (any, error) {
		return s.api.Submit(upload, sub)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "stopped waiting for submission", slog.String("draft_id", draftID))
		return nil, domain.NewNetworkError("Request cancelled.", ctx.Err())
	case res = <-ch:
	}

	v, err, shared := res.Val, res.Err, res.Shared
	if shared {
		s.log.DebugContext(ctx, "joined in-flight submission", slog.String("draft_id", draftID))
	}
	if err != nil {
		s.log.WarnContext(ctx, "report submission failed",
			slog.String("draft_id", draftID),
			slog.String("kind", domain.KindOf(err).String()),
		)
		return nil, err
	}

	report, _ := v.(*domain.Report)
	if report == nil {
		return nil, domain.NewMalformedResponseError("The server did not return the created report.", nil)
	}
	s.log.InfoContext(ctx, "report submitted",
		slog.String("draft_id", draftID),
		slog.Int64("report_id", report.ID),
		slog.String("status", report.Status.String()),
	)
	return report, nil
}
