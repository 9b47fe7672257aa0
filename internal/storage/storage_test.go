package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/kino-draws/internal/draw"
)

func TestDryRun_SaveDraws(t *testing.T) {
	var buf bytes.Buffer
	store := NewDryRun(&buf)

	draws := []*draw.Draw{
		draw.NewDraw(time.Date(2024, 5, 15, 14, 5, 0, 0, time.UTC), []int{3, 7, 9}),
		draw.NewDraw(time.Date(2024, 5, 15, 14, 0, 0, 0, time.UTC), []int{1, 2}),
	}

	n, err := store.SaveDraws(context.Background(), draws)
	if err != nil {
		t.Fatalf("SaveDraws() error: %v", err)
	}
	if n != 2 {
		t.Errorf("SaveDraws() = %d, want 2", n)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("wrote %d lines, want 2: %q", len(lines), buf.String())
	}

	var got draw.Draw
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if got.ID != draws[0].ID {
		t.Errorf("ID = %d, want %d", got.ID, draws[0].ID)
	}
}

func TestDryRun_CancelledContext(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDryRun(&buf).SaveDraws(ctx, []*draw.Draw{
		draw.NewDraw(time.Now(), []int{1}),
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("SaveDraws() error = %v, want context.Canceled", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %q after cancellation", buf.String())
	}
}

func TestPersistenceError(t *testing.T) {
	cause := errors.New("connection reset")
	err := error(&PersistenceError{Op: "saving draws", Err: cause})

	if !errors.Is(err, cause) {
		t.Error("PersistenceError should unwrap to its cause")
	}
	if err.Error() != "saving draws: connection reset" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestInt32Conversion(t *testing.T) {
	nums := []int{3, 7, 80, math.MaxInt32}
	converted, err := toInt32(nums)
	if err != nil {
		t.Fatalf("toInt32() error: %v", err)
	}
	back := fromInt32(converted)

	for i := range nums {
		if back[i] != nums[i] {
			t.Errorf("round trip [%d] = %d, want %d", i, back[i], nums[i])
		}
	}
}

func TestInt32Conversion_OutOfRange(t *testing.T) {
	tests := []struct {
		name string
		nums []int
	}{
		{"above max", []int{3, math.MaxInt32 + 1}},
		{"wraps to small value", []int{4294967299}},
		{"below min", []int{math.MinInt32 - 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := toInt32(tt.nums); err == nil {
				t.Errorf("toInt32(%v) should fail instead of truncating", tt.nums)
			}
		})
	}
}
