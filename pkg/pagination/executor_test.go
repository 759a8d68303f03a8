package pagination

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewExecutor_Defaults(t *testing.T) {
	exec := NewExecutor[string, item](nil, Config{Timeout: -1})

	if exec.config.Name != "default" {
		t.Errorf("Name = %q, want default", exec.config.Name)
	}
	if exec.config.Timeout != 0 {
		t.Errorf("Timeout = %v, want 0", exec.config.Timeout)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", cfg.Timeout)
	}
}

func TestExecutor_Success(t *testing.T) {
	var calls atomic.Int32
	var got PageRequest[string]
	source := SourceFunc[string, item](func(ctx context.Context, req PageRequest[string]) (PageResult[item], error) {
		calls.Add(1)
		got = req
		return PageResult[item]{Items: itemsRange(0, 3), TotalCount: -4}, nil
	})

	exec := NewExecutor[string, item](source, Config{Name: "test", Timeout: time.Second})
	req := PageRequest[string]{Key: "shoes", PageNumber: 2, PageSize: 10, Generation: 7}

	result, err := exec.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("source called %d times, want 1", calls.Load())
	}
	if got != req {
		t.Errorf("source received %+v, want %+v", got, req)
	}
	if len(result.Items) != 3 {
		t.Errorf("len(Items) = %d, want 3", len(result.Items))
	}
	if result.TotalCount != 0 {
		t.Errorf("negative TotalCount not clamped: %d", result.TotalCount)
	}
}

func TestExecutor_ErrorClassification(t *testing.T) {
	serviceErr := ServiceError(200, "Category not found")

	tests := []struct {
		name     string
		timeout  time.Duration
		fetch    func(ctx context.Context) error
		expected ErrorKind
	}{
		{
			name:     "transport failure",
			fetch:    func(ctx context.Context) error { return errors.New("connection refused") },
			expected: KindNetwork,
		},
		{
			name:     "service failure passes through",
			fetch:    func(ctx context.Context) error { return serviceErr },
			expected: KindService,
		},
		{
			name:    "per-request timeout",
			timeout: 20 * time.Millisecond,
			fetch: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
			expected: KindTimeout,
		},
		{
			name:     "deadline error from transport",
			fetch:    func(ctx context.Context) error { return context.DeadlineExceeded },
			expected: KindTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			source := SourceFunc[string, item](func(ctx context.Context, req PageRequest[string]) (PageResult[item], error) {
				calls.Add(1)
				return PageResult[item]{}, tt.fetch(ctx)
			})

			exec := NewExecutor[string, item](source, Config{Name: "test", Timeout: tt.timeout})
			_, err := exec.Fetch(context.Background(), PageRequest[string]{Key: "k", PageNumber: 1, PageSize: 10})

			var perr *Error
			if !errors.As(err, &perr) {
				t.Fatalf("Fetch() error = %v, want *Error", err)
			}
			if perr.Kind != tt.expected {
				t.Errorf("Kind = %q, want %q", perr.Kind, tt.expected)
			}
			if calls.Load() != 1 {
				t.Errorf("source called %d times, want exactly 1 (no retry)", calls.Load())
			}
		})
	}
}

func TestExecutor_ParentCancelledIsNotTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := SourceFunc[string, item](func(ctx context.Context, req PageRequest[string]) (PageResult[item], error) {
		return PageResult[item]{}, ctx.Err()
	})

	exec := NewExecutor[string, item](source, Config{Timeout: time.Second})
	_, err := exec.Fetch(ctx, PageRequest[string]{PageNumber: 1, PageSize: 10})

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("Fetch() error = %v, want *Error", err)
	}
	if perr.Kind != KindNetwork {
		t.Errorf("Kind = %q, want %q", perr.Kind, KindNetwork)
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("errors.Is(err, context.Canceled) should hold")
	}
}
