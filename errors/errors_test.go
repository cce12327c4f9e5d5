package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "phase and kind only",
			err:  &Error{Phase: PhaseCreate, Kind: KindResource},
			want: "[create] resource",
		},
		{
			name: "with detail",
			err:  Validation(PhaseCreate, "timer interval must be positive"),
			want: "[create] validation: timer interval must be positive",
		},
		{
			name: "with handle",
			err:  NotFound(PhaseJoin, "thread", 42),
			want: "[join] not_found handle 42: unknown thread handle",
		},
		{
			name: "with cause",
			err:  Resource(PhaseCreate, "thread", fmt.Errorf("out of memory")),
			want: "[create] resource: allocate thread (caused by: out of memory)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Fatalf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := NotFound(PhaseJoin, "thread", 7)

	if !errors.Is(err, &Error{Phase: PhaseJoin, Kind: KindNotFound}) {
		t.Fatal("expected match on phase+kind")
	}
	if errors.Is(err, &Error{Phase: PhaseDetach, Kind: KindNotFound}) {
		t.Fatal("should not match different phase")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := Callback(PhaseTick, 3, cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be unwrapped")
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseAcquire, KindValidation).
		Handle(9).
		Detail("release count %d out of range", -1).
		Build()

	if err.Phase != PhaseAcquire || err.Kind != KindValidation {
		t.Fatal("builder lost phase or kind")
	}
	if err.Handle != 9 {
		t.Fatalf("Handle = %d, want 9", err.Handle)
	}
	if err.Detail != "release count -1 out of range" {
		t.Fatalf("unexpected detail: %q", err.Detail)
	}
}
