package source

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fanpulse/fanpulse/internal/contract"
	"github.com/fanpulse/fanpulse/schema"
)

// MockSnapshotSource is a mock implementation of SnapshotSource for testing.
type MockSnapshotSource struct {
	mock.Mock
}

var _ contract.SnapshotSource = &MockSnapshotSource{} // Compile-time check

// Name implements the SnapshotSource interface.
func (m *MockSnapshotSource) Name() string {
	return m.Called().String(0)
}

// Fingerprint implements the SnapshotSource interface.
func (m *MockSnapshotSource) Fingerprint() string {
	return m.Called().String(0)
}

// FetchSnapshots implements the SnapshotSource interface.
func (m *MockSnapshotSource) FetchSnapshots(ctx context.Context, dataset string) ([]schema.RawSnapshot, error) {
	args := m.Called(ctx, dataset)
	rows, _ := args.Get(0).([]schema.RawSnapshot)
	return rows, args.Error(1)
}

// FetchEvents implements the SnapshotSource interface.
func (m *MockSnapshotSource) FetchEvents(ctx context.Context) ([]schema.CalendarEvent, error) {
	args := m.Called(ctx)
	events, _ := args.Get(0).([]schema.CalendarEvent)
	return events, args.Error(1)
}

// FetchSurvey implements the SnapshotSource interface.
func (m *MockSnapshotSource) FetchSurvey(ctx context.Context) ([]schema.SurveyResponse, error) {
	args := m.Called(ctx)
	responses, _ := args.Get(0).([]schema.SurveyResponse)
	return responses, args.Error(1)
}
