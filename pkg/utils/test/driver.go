package testutils

import (
	"context"
	"errors"

	"github.com/papercomputeco/ollamaui/pkg/storage"
)

// ErrMockStorage is returned by FailingDriver.
var ErrMockStorage = errors.New("mock storage failure")

// FailingDriver is a storage.Driver whose every call fails.
type FailingDriver struct{}

func (FailingDriver) Put(context.Context, *storage.Exchange) error {
	return ErrMockStorage
}

func (FailingDriver) Get(context.Context, string) (*storage.Exchange, error) {
	return nil, ErrMockStorage
}

func (FailingDriver) List(context.Context, int) ([]*storage.Exchange, error) {
	return nil, ErrMockStorage
}

func (FailingDriver) Count(context.Context) (int, error) {
	return 0, ErrMockStorage
}

func (FailingDriver) Close() error {
	return nil
}
