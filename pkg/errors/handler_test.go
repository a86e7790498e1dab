package errors

import (
	"sync"
	"testing"
	"time"
)

func TestRecoverMiddlewareCountsPanics(t *testing.T) {
	h := NewErrorHandler("", nil, Options{
		MaxErrors:     100,
		ResetInterval: time.Hour,
		CheckInterval: time.Hour,
	})
	defer h.Stop()

	handler = h
	defer func() { handler = nil }()

	func() {
		defer RecoverMiddleware()()
		panic("boom")
	}()

	if got := h.ErrorCount(); got != 1 {
		t.Errorf("ErrorCount() = %d, want 1", got)
	}
}

func TestRecoverMiddlewareWithoutHandler(t *testing.T) {
	handler = nil

	// Must not propagate the panic
	func() {
		defer RecoverMiddleware()()
		panic("sin handler")
	}()
}

func TestShutdownAboveThreshold(t *testing.T) {
	var (
		mu       sync.Mutex
		shutdown bool
		exitCode = -1
	)
	done := make(chan struct{})

	h := &ErrorHandler{
		stopChan: make(chan struct{}),
		shutdownFunc: func() {
			mu.Lock()
			shutdown = true
			mu.Unlock()
		},
		exitFunc: func(code int) {
			mu.Lock()
			exitCode = code
			mu.Unlock()
			close(done)
		},
		maxErrors:     2,
		resetInterval: time.Hour,
		checkInterval: 10 * time.Millisecond,
	}
	h.start()
	defer h.Stop()

	for i := 0; i < 3; i++ {
		h.IncrementError()
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("crash guard never fired")
	}

	mu.Lock()
	defer mu.Unlock()
	if !shutdown {
		t.Error("shutdown func was not called")
	}
	if exitCode != 1 {
		t.Errorf("exit code = %d, want 1", exitCode)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	h := NewErrorHandler("", nil, DefaultOptions())
	h.Stop()
	h.Stop()
}
