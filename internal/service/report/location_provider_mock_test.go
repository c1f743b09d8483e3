package report

import (
	"context"
	"sync"

	"github.com/heartmarshall/civic-client/internal/domain"
)

var _ locationProvider = &locationProviderMock{}

type locationProviderMock struct {
	CurrentLocationFunc func(ctx context.Context) (domain.Coordinates, error)

	calls struct {
		CurrentLocation []struct {
			Ctx context.Context
		}
	}
	lockCurrentLocation sync.RWMutex
}

func (mock *locationProviderMock) CurrentLocation(ctx context.Context) (domain.Coordinates, error) {
	if mock.CurrentLocationFunc == nil {
		panic("locationProviderMock.CurrentLocationFunc: method is nil but locationProvider.CurrentLocation was just called")
	}
	callInfo := struct{ Ctx context.Context }{Ctx: ctx}
	mock.lockCurrentLocation.Lock()
	mock.calls.CurrentLocation = append(mock.calls.CurrentLocation, callInfo)
	mock.lockCurrentLocation.Unlock()
	return mock.CurrentLocationFunc(ctx)
}

func (mock *locationProviderMock) CurrentLocationCalls() []struct{ Ctx context.Context } {
	mock.lockCurrentLocation.RLock()
	calls := mock.calls.CurrentLocation
	mock.lockCurrentLocation.RUnlock()
	return calls
}
