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
				Phase:     PhaseCall,
				Kind:      KindNativeStatus,
				Instance:  "pump",
				Function:  "fmi2DoStep",
				Status:    3,
				HasStatus: true,
				Detail:    "step rejected",
			},
			contains: []string{"[call]", "native_status", "pump", "fmi2DoStep", "status 3", "step rejected"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseResolve,
				Kind:  KindUnknownVariable,
			},
			contains: []string{"[resolve]", "unknown_variable"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindInvalidData,
				Detail: "open container",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[load]", "invalid_data", "open container", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("Error() = %q, missing %q", msg, s)
				}
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	err := Sequence("doStep", "instantiated", "step-mode")

	if !errors.Is(err, &Error{Phase: PhaseSequence, Kind: KindSequenceViolation}) {
		t.Error("expected Is to match on Phase+Kind")
	}
	if errors.Is(err, &Error{Phase: PhaseCall, Kind: KindSequenceViolation}) {
		t.Error("expected Is to reject different Phase")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("dlopen failed")
	err := MissingSymbol("fmi3GetFloat64", cause)

	if !errors.Is(err, cause) {
		t.Error("expected Unwrap chain to reach cause")
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseSample, KindNativeStatus).
		Instance("ball").
		Function("fmi2GetReal").
		Status(4).
		Detail("read during column %d", 2).
		Build()

	if err.Phase != PhaseSample {
		t.Errorf("Phase = %q", err.Phase)
	}
	if err.Instance != "ball" {
		t.Errorf("Instance = %q", err.Instance)
	}
	if !err.HasStatus || err.Status != 4 {
		t.Errorf("Status = %d (has=%v)", err.Status, err.HasStatus)
	}
	if err.Detail != "read during column 2" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	if msg := UnknownVariable("ball.h").Error(); !strings.Contains(msg, "ball.h") {
		t.Errorf("UnknownVariable: %q", msg)
	}
	if msg := Capability("m", "doStep", "model-exchange").Error(); !strings.Contains(msg, "model-exchange") {
		t.Errorf("Capability: %q", msg)
	}
	if msg := LiveInstances(2).Error(); !strings.Contains(msg, "2 instance(s)") {
		t.Errorf("LiveInstances: %q", msg)
	}
	if msg := Sequence("terminate", "instantiated", "event-mode", "continuous-time-mode").Error(); !strings.Contains(msg, "legal in: event-mode, continuous-time-mode") {
		t.Errorf("Sequence: %q", msg)
	}
}
