package report

import (
	"context"
	"sync"

	"github.com/heartmarshall/civic-client/internal/domain"
)

var _ submitter = &submitterMock{}

type submitterMock struct {
	SubmitFunc func(ctx context.Context, sub domain.Submission) (*domain.Report, error)

	calls struct {
		Submit []struct {
			Ctx context.Context
			Sub domain.Submission
		}
	}
	lockSubmit sync.RWMutex
}

func (mock *submitterMock) Submit(ctx context.Context, sub domain.Submission) (*domain.Report, error) {
	if mock.SubmitFunc == nil {
		panic("submitterMock.SubmitFunc: method is nil but submitter.Submit was just called")
	}
	callInfo := struct {
		Ctx context.Context
		Sub domain.Submission
	}{Ctx: ctx, Sub: sub}
	mock.lockSubmit.Lock()
	mock.calls.Submit = append(mock.calls.Submit, callInfo)
	mock.lockSubmit.Unlock()
	return mock.SubmitFunc(ctx, sub)
}

func (mock *submitterMock) SubmitCalls() []struct {
	Ctx context.Context
	Sub domain.Submission
} {
	mock.lockSubmit.RLock()
	calls := mock.calls.Submit
	mock.lockSubmit.RUnlock()
	return calls
}
