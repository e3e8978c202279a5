package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestMap_PreservesOrder(t *testing.T) {
	items := make([]int, 200)
	for i := range items {
		items[i] = i
	}

	results := Map(context.Background(), items, CPUBound, func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	})

	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	for i, r := range results {
		if r.Err != nil || r.Value != i*2 {
			t.Errorf("results[%d] = %+v, want %d", i, r, i*2)
		}
	}
}

func TestMap_Empty(t *testing.T) {
	results := Map(context.Background(), nil, IOBound, func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	if results != nil {
		t.Errorf("expected nil for empty input, got %v", results)
	}
}

func TestMap_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	results := Map(ctx, []string{"a", "b", "c"}, FileProcessing, func(_ context.Context, s string) (string, error) {
		calls.Add(1)
		return s, nil
	})
	if calls.Load() != 0 {
		t.Errorf("fn ran %d times after cancellation", calls.Load())
	}
	for i, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("results[%d].Err = %v", i, r.Err)
		}
	}
}

func TestCollect(t *testing.T) {
	items := []string{"a", "bb", "", "dddd"}
	var failed []string

	lengths := Collect(context.Background(), items, CPUBound, func(_ context.Context, s string) (int, error) {
		if s == "" {
			return 0, errors.New("empty")
		}
		return len(s), nil
	}, func(item string, err error) {
		failed = append(failed, item)
	})

	want := []int{1, 2, 4}
	if len(lengths) != len(want) {
		t.Fatalf("got %v, want %v", lengths, want)
	}
	for i := range want {
		if lengths[i] != want[i] {
			t.Errorf("lengths[%d] = %d, want %d", i, lengths[i], want[i])
		}
	}
	if len(failed) != 1 || failed[0] != "" {
		t.Errorf("failed = %q", failed)
	}
}

func TestCalculateWorkers(t *testing.T) {
	orig := numCPU
	numCPU = func() int { return 4 }
	defer func() { numCPU = orig }()

	tests := []struct {
		items int
		kind  Workload
		want  int
	}{
		{0, CPUBound, 0},
		{1, IOBound, 1},
		{100, CPUBound, 4},
		{100, FileProcessing, 8},
		{100, IOBound, 16},
		{3, FileProcessing, 3},
	}
	for _, tt := range tests {
		if got := CalculateWorkers(tt.items, tt.kind); got != tt.want {
			t.Errorf("CalculateWorkers(%d, %s) = %d, want %d", tt.items, tt.kind, got, tt.want)
		}
	}
}
