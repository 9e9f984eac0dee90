package numerator

import (
	"context"
	"fmt"
	"sync"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
type MockGenerator struct {
	NextFunc func(ctx context.Context, cfg Config) (string, error)

	mu   sync.Mutex
	last int64
}

// Next implements Generator. Without NextFunc it counts up from 1.
func (m *MockGenerator) Next(ctx context.Context, cfg Config) (string, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, cfg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last++
	width := cfg.PadWidth
	if width == 0 {
		width = 6
	}
	return fmt.Sprintf("%s%0*d", cfg.Prefix, width, m.last), nil
}

var _ Generator = (*MockGenerator)(nil)
