package mocks

import (
	"context"
	"io"
	"io/ioutil"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Store(ctx context.Context, name string, content io.Reader) (string, error) {
	ioutil.ReadAll(content)
	args := m.Called(ctx, name, content)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	args := m.Called(ctx, url)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockStorage) CallsForMethod(method string) []mock.Call {
	var calls []mock.Call
	for _, call := range m.Calls {
		if call.Method == method {
			calls = append(calls, call)
		}
	}
	return calls
}

func (m *MockStorage) Reset() {
	m.Mock = mock.Mock{}
}
