package report

import (
	"context"
	"sync"

	"github.com/heartmarshall/civic-client/internal/domain"
)

var _ imageProvider = &imageProviderMock{}

type imageProviderMock struct {
	PickImageFunc func(ctx context.Context, quality float64) (*domain.ImageDraft, error)

	calls struct {
		PickImage []struct {
			Ctx     context.Context
			Quality float64
		}
	}
	lockPickImage sync.RWMutex
}

func (mock *imageProviderMock) PickImage(ctx context.Context, quality float64) (*domain.ImageDraft, error) {
	if mock.PickImageFunc == nil {
		panic("imageProviderMock.PickImageFunc: method is nil but imageProvider.PickImage was just called")
	}
	callInfo := struct {
		Ctx     context.Context
		Quality float64
	}{Ctx: ctx, Quality: quality}
	mock.lockPickImage.Lock()
	mock.calls.PickImage = append(mock.calls.PickImage, callInfo)
	mock.lockPickImage.Unlock()
	return mock.PickImageFunc(ctx, quality)
}

func (mock *imageProviderMock) PickImageCalls() []struct {
	Ctx     context.Context
	Quality float64
} {
	mock.lockPickImage.RLock()
	calls := mock.calls.PickImage
	mock.lockPickImage.RUnlock()
	return calls
}
