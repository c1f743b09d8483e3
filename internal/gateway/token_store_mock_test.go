package gateway

import (
	"context"
	"sync"
)

var _ TokenStore = &TokenStoreMock{}

type TokenStoreMock struct {
	GetFunc   func(ctx context.Context) (string, error)
	SetFunc   func(ctx context.Context, token string) error
	ClearFunc func(ctx context.Context) error

	calls struct {
		Get []struct {
			Ctx context.Context
		}
		Set []struct {
			Ctx   context.Context
			Token string
		}
		Clear []struct {
			Ctx context.Context
		}
	}
	lockGet   sync.RWMutex
	lockSet   sync.RWMutex
	lockClear sync.RWMutex
}

func (mock *TokenStoreMock) Get(ctx context.Context) (string, error) {
	if mock.GetFunc == nil {
		panic("TokenStoreMock.GetFunc: method is nil but TokenStore.Get was just called")
	}
	callInfo := struct{ Ctx context.Context }{Ctx: ctx}
	mock.lockGet.Lock()
	mock.calls.Get = append(mock.calls.Get, callInfo)
	mock.lockGet.Unlock()
	return mock.GetFunc(ctx)
}

func (mock *TokenStoreMock) GetCalls() []struct{ Ctx context.Context } {
	mock.lockGet.RLock()
	calls := mock.calls.Get
	mock.lockGet.RUnlock()
	return calls
}

func (mock *TokenStoreMock) Set(ctx context.Context, token string) error {
	if mock.SetFunc == nil {
		panic("TokenStoreMock.SetFunc: method is nil but TokenStore.Set was just called")
	}
	callInfo := struct {
		Ctx   context.Context
		Token string
	}{Ctx: ctx, Token: token}
	mock.lockSet.Lock()
	mock.calls.Set = append(mock.calls.Set, callInfo)
	mock.lockSet.Unlock()
	return mock.SetFunc(ctx, token)
}

func (mock *TokenStoreMock) SetCalls() []struct {
	Ctx   context.Context
	Token string
} {
	mock.lockSet.RLock()
	calls := mock.calls.Set
	mock.lockSet.RUnlock()
	return calls
}

func (mock *TokenStoreMock) Clear(ctx context.Context) error {
	if mock.ClearFunc == nil {
		panic("TokenStoreMock.ClearFunc: method is nil but TokenStore.Clear was just called")
	}
	callInfo := struct{ Ctx context.Context }{Ctx: ctx}
	mock.lockClear.Lock()
	mock.calls.Clear = append(mock.calls.Clear, callInfo)
	mock.lockClear.Unlock()
	return mock.ClearFunc(ctx)
}

func (mock *TokenStoreMock) ClearCalls() []struct{ Ctx context.Context } {
	mock.lockClear.RLock()
	calls := mock.calls.Clear
	mock.lockClear.RUnlock()
	return calls
}
