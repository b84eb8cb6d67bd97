package parallel

import (
	"errors"
	"sync"
	"testing"
)

func TestErrorCollectorKeepsFirst(t *testing.T) {
	t.Parallel()
	var ec ErrorCollector
	first := errors.New("first error")

	ec.SetError(nil)
	if ec.Err() != nil {
		t.Fatalf("nil error should be ignored, got %v", ec.Err())
	}
	ec.SetError(first)
	ec.SetError(errors.New("second error"))
	ec.SetError(nil)
	if ec.Err() != first {
		t.Errorf("Err() = %v, want %v", ec.Err(), first)
	}
}

func TestErrorCollectorConcurrent(t *testing.T) {
	t.Parallel()
	var ec ErrorCollector
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ec.SetError(errors.New("merge failed"))
		}()
	}
	close(start)
	wg.Wait()

	if ec.Err() == nil || ec.Err().Error() != "merge failed" {
		t.Errorf("Err() = %v, want merge failed", ec.Err())
	}
}

func TestPanicErrorUnwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("index out of range")

	wrapped := &PanicError{Value: cause}
	if !errors.Is(wrapped, cause) {
		t.Error("PanicError with an error value should unwrap to it")
	}
	plain := &PanicError{Value: "boom"}
	if plain.Unwrap() != nil {
		t.Errorf("Unwrap() = %v, want nil for non-error value", plain.Unwrap())
	}
	if got, want := plain.Error(), "parallel: task panicked: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
