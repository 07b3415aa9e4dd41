package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/tithe/internal/service"
)

// MockWriter records published reports for tests.
type MockWriter struct {
	Err    error
	Weekly []*service.WeeklyReport
	Yearly []*service.YearlyReport
	mu     sync.Mutex
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

// WriteWeekly implements ReportWriter.
func (m *MockWriter) WriteWeekly(_ context.Context, report *service.WeeklyReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.Weekly = append(m.Weekly, report)
	return nil
}

// WriteYearly implements ReportWriter.
func (m *MockWriter) WriteYearly(_ context.Context, report *service.YearlyReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.Yearly = append(m.Yearly, report)
	return nil
}

// Calls returns how many reports were published.
func (m *MockWriter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Weekly) + len(m.Yearly)
}
