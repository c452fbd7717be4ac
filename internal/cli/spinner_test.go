package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a bytes.Buffer shared with the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "Building plate")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.SetMessage("Exporting plate")
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	got := out.String()
	if !strings.Contains(got, "Building plate") || !strings.Contains(got, "Exporting plate") {
		t.Errorf("spinner output %q missing messages", got)
	}
	if s.Cancelled() {
		t.Error("Cancelled() = true after Stop()")
	}
}

func TestSpinner_ContextEnds(t *testing.T) {
	tests := []struct {
		name string
		ctx  func() (context.Context, context.CancelFunc)
	}{
		{"cancel", func() (context.Context, context.CancelFunc) { return context.WithCancel(context.Background()) }},
		{"timeout", func() (context.Context, context.CancelFunc) {
			return context.WithTimeout(context.Background(), 20*time.Millisecond)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := tt.ctx()
			var out syncBuffer
			s := newSpinnerTo(ctx, &out, "waiting")
			s.Start()
			if tt.name == "cancel" {
				cancel()
			}
			time.Sleep(100 * time.Millisecond)
			defer cancel()
			if !s.Cancelled() {
				t.Error("Cancelled() = false after the context ended")
			}
		})
	}
}

func TestSpinner_StopIsIdempotent(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "x")
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinner_StopBeforeStart(t *testing.T) {
	var out syncBuffer
	done := make(chan struct{})
	go func() {
		newSpinnerTo(context.Background(), &out, "x").Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() before Start() blocked")
	}
}
