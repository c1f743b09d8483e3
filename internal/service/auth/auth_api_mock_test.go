package auth

import (
	"context"
	"sync"

	"github.com/heartmarshall/civic-client/internal/domain"
)

var _ authAPI = &authAPIMock{}

type authAPIMock struct {
	LoginFunc    func(ctx context.Context, cred domain.Credentials) (*domain.Session, error)
	RegisterFunc func(ctx context.Context, cred domain.Credentials) (*domain.Session, error)
	MeFunc       func(ctx context.Context) (*domain.User, error)

	calls struct {
		Login []struct {
			Ctx  context.Context
			Cred domain.Credentials
		}
		Register []struct {
			Ctx  context.Context
			Cred domain.Credentials
		}
		Me []struct {
			Ctx context.Context
		}
	}
	lockLogin    sync.RWMutex
	lockRegister sync.RWMutex
	lockMe       sync.RWMutex
}

func (mock *authAPIMock) Login(ctx context.Context, cred domain.Credentials) (*domain.Session, error) {
	if mock.LoginFunc == nil {
		panic("authAPIMock.LoginFunc: method is nil but authAPI.Login was just called")
	}
	callInfo := struct {
		Ctx  context.Context
		Cred domain.Credentials
	}{Ctx: ctx, Cred: cred}
	mock.lockLogin.Lock()
	mock.calls.Login = append(mock.calls.Login, callInfo)
	mock.lockLogin.Unlock()
	return mock.LoginFunc(ctx, cred)
}

func (mock *authAPIMock) LoginCalls() []struct {
	Ctx  context.Context
	Cred domain.Credentials
} {
	mock.lockLogin.RLock()
	calls := mock.calls.Login
	mock.lockLogin.RUnlock()
	return calls
}

func (mock *authAPIMock) Register(ctx context.Context, cred domain.Credentials) (*domain.Session, error) {
	if mock.RegisterFunc == nil {
		panic("authAPIMock.RegisterFunc: method is nil but authAPI.Register was just called")
	}
	callInfo := struct {
		Ctx  context.Context
		Cred domain.Credentials
	}{Ctx: ctx, Cred: cred}
	mock.lockRegister.Lock()
	mock.calls.Register = append(mock.calls.Register, callInfo)
	mock.lockRegister.Unlock()
	return mock.RegisterFunc(ctx, cred)
}

func (mock *authAPIMock) RegisterCalls() []struct {
	Ctx  context.Context
	Cred domain.Credentials
} {
	mock.lockRegister.RLock()
	calls := mock.calls.Register
	mock.lockRegister.RUnlock()
	return calls
}

func (mock *authAPIMock) Me(ctx context.Context) (*domain.User, error) {
	if mock.MeFunc == nil {
		panic("authAPIMock.MeFunc: method is nil but authAPI.Me was just called")
	}
	callInfo := struct{ Ctx context.Context }{Ctx: ctx}
	mock.lockMe.Lock()
	mock.calls.Me = append(mock.calls.Me, callInfo)
	mock.lockMe.Unlock()
	return mock.MeFunc(ctx)
}

func (mock *authAPIMock) MeCalls() []struct{ Ctx context.Context } {
	mock.lockMe.RLock()
	calls := mock.calls.Me
	mock.lockMe.RUnlock()
	return calls
}
