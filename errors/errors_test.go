package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:    PhaseAllocate,
				Kind:     KindCapacity,
				Routine:  "mexec",
				Position: 8,
				Slot:     "integer",
				Detail:   "more than 8 integer parameters",
			},
			contains: []string{"[allocate]", "capacity", "in mexec", "parameter 8", "slot integer", "more than 8"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase:    PhaseSession,
				Kind:     KindNotConfigured,
				Position: NoPosition,
			},
			contains: []string{"[session]", "not_configured"},
		},
		{
			name: "engine status",
			err:  EngineCall("mget", 150373850, "%GTM-E-UNDEF"),
			contains: []string{"[call]", "engine_call", "in mget", "status 150373850", "%GTM-E-UNDEF"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:    PhaseAllocate,
				Kind:     KindAllocation,
				Position: NoPosition,
				Detail:   "memory full",
				Cause:    errors.New("underlying error"),
			},
			contains: []string{"[allocate]", "allocation", "memory full", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_NoPositionOmitted(t *testing.T) {
	msg := NotConfigured("GTMCI").Error()
	if strings.Contains(msg, "parameter") {
		t.Errorf("message %q mentions a parameter position", msg)
	}
	if !strings.Contains(msg, "GTMCI environment variable not set") {
		t.Errorf("message %q lacks marker detail", msg)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := AllocationFailed(1<<20, cause)

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find cause")
	}
}

func TestError_Sentinels(t *testing.T) {
	tests := []struct {
		err      error
		sentinel *Error
	}{
		{NotConfigured("GTMCI"), ErrNotConfigured},
		{InitFailed(1, "boom"), ErrInitFailed},
		{ParamType(2, struct{}{}), ErrParamType},
		{CapacityExceeded(8, "text", 8), ErrCapacity},
		{AllocationFailed(10, nil), ErrAllocation},
		{EngineCall("mexec", 1, "x"), ErrEngineCall},
		{Closed("session"), ErrClosed},
	}
	all := []*Error{ErrNotConfigured, ErrInitFailed, ErrParamType, ErrCapacity, ErrAllocation, ErrEngineCall, ErrClosed}

	for _, tt := range tests {
		for _, s := range all {
			want := s == tt.sentinel
			if got := errors.Is(tt.err, s); got != want {
				t.Errorf("errors.Is(%v, %s/%s) = %v, want %v", tt.err, s.Phase, s.Kind, got, want)
			}
		}
	}
}

func TestError_As(t *testing.T) {
	var err error = ParamType(5, []int{1})
	var e *Error
	if !errors.As(err, &e) {
		t.Fatal("errors.As failed")
	}
	if e.Position != 5 {
		t.Errorf("Position = %d, want 5", e.Position)
	}
	if !strings.Contains(e.Detail, "[]int") {
		t.Errorf("Detail = %q, want type name", e.Detail)
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseCall, KindEngineCall).
		Routine("mexec").
		Position(3).
		Slot("text").
		Status(42).
		Value("v").
		Cause(cause).
		Detail("expected %s, got %s", "a", "b").
		Build()

	if err.Phase != PhaseCall {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseCall)
	}
	if err.Kind != KindEngineCall {
		t.Errorf("Kind = %v, want %v", err.Kind, KindEngineCall)
	}
	if err.Routine != "mexec" || err.Position != 3 || err.Slot != "text" || err.Status != 42 {
		t.Errorf("unexpected fields: %+v", err)
	}
	if err.Value != "v" {
		t.Errorf("Value = %v, want v", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected a, got b" {
		t.Errorf("Detail = %v", err.Detail)
	}
}

func TestBuilder_DefaultPosition(t *testing.T) {
	err := New(PhaseStore, KindInvalidData).Build()
	if err.Position != NoPosition {
		t.Errorf("Position = %d, want NoPosition", err.Position)
	}
}
