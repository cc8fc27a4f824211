package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dxb-props/propertyfinder-crawler/internal/repository"
)

// MockPropertyRepository is a testify mock of repository.PropertyRepository.
type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) Save(ctx context.Context, record repository.PropertyRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockPropertyRepository) FindAll(ctx context.Context) ([]repository.PropertyRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]repository.PropertyRecord), args.Error(1)
}

func (m *MockPropertyRepository) FindWithFilters(ctx context.Context, filter repository.PropertyFilter, pagination repository.PaginationParams) (*repository.PropertySearchResult, error) {
	args := m.Called(ctx, filter, pagination)
	return args.Get(0).(*repository.PropertySearchResult), args.Error(1)
}

func (m *MockPropertyRepository) ClearAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPropertyRepository) Close() {
	m.Called()
}
