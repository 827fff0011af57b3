package service

import (
	"context"

	"github.com/morphid/biodid-middleware/pkg/biometric"
	"github.com/morphid/biodid-middleware/pkg/bundle"
	"github.com/morphid/biodid-middleware/pkg/fuzzy"
	"github.com/morphid/biodid-middleware/pkg/registry"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	CreateFunc func(ctx context.Context, b *bundle.MetadataBundle) error
}

func (m *MockStore) Create(ctx context.Context, b *bundle.MetadataBundle) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, b)
	}
	return nil
}

// MockHelperStore is a mock implementation of HelperStore
type MockHelperStore struct {
	PutFunc    func(ctx context.Context, did string, helpers map[biometric.Finger]fuzzy.HelperDataEntry) (string, error)
	DeleteFunc func(ctx context.Context, did string) error
}

func (m *MockHelperStore) Put(ctx context.Context, did string, helpers map[biometric.Finger]fuzzy.HelperDataEntry) (string, error) {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, did, helpers)
	}
	return "helper://" + did, nil
}

func (m *MockHelperStore) Delete(ctx context.Context, did string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, did)
	}
	return nil
}

// MockGuard is a mock implementation of UniquenessGuard
type MockGuard struct {
	CheckUniqueFunc func(ctx context.Context, did string) (*registry.CheckResult, error)
}

func (m *MockGuard) CheckUnique(ctx context.Context, did string) (*registry.CheckResult, error) {
	if m.CheckUniqueFunc != nil {
		return m.CheckUniqueFunc(ctx, did)
	}
	return &registry.CheckResult{Unique: true}, nil
}
