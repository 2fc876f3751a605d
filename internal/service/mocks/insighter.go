package mocks

import (
	"context"
	"errors"

	"github.com/godilite/feedback-insights/internal/analytics"
)

// MockTextInsighter is a mock implementation of the TextInsighter interface.
type MockTextInsighter struct {
	SummarizeFunc func(ctx context.Context, text string) (analytics.TextInsight, error)
}

// Summarize implements the TextInsighter interface
func (m *MockTextInsighter) Summarize(ctx context.Context, text string) (analytics.TextInsight, error) {
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, text)
	}
	return analytics.TextInsight{}, errors.New("SummarizeFunc not implemented")
}
