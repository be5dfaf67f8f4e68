package tracker

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/02loveslollipop/iss-ears/internal/models"
	"github.com/02loveslollipop/iss-ears/internal/nabaztag"
)

// MockFetcher is a mock implementation of PositionFetcher
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchPosition(ctx context.Context) (models.Position, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Position), args.Error(1)
}

// MockDispatcher is a mock implementation of Dispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Send(ctx context.Context, batch nabaztag.Batch) ([]byte, error) {
	args := m.Called(ctx, batch)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDispatcher) Addr() string {
	return "localhost:1234"
}

// MockRecorder is a mock implementation of Recorder
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordDispatch(ctx context.Context, rec models.DispatchRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
