package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindsSurviveWrapping(t *testing.T) {
	cause := errors.New("boom")
	cases := []struct {
		name string
		err  error
		is   func(error) bool
	}{
		{"config", Config("bad %s", "value"), IsConfig},
		{"not_found", ModelNotFound("m"), IsModelNotFound},
		{"load", ModelLoad("m", cause), IsModelLoad},
		{"inference", Inference("pool", cause), IsInference},
		{"invalid", InvalidInput("empty"), IsInvalidInput},
		{"dependency", DependencyUnavailable("onnx"), IsDependencyUnavailable},
		{"unavailable", Unavailable("m", cause), IsUnavailable},
	}
	for _, tc := range cases {
		wrapped := fmt.Errorf("outer: %w", tc.err)
		if !tc.is(tc.err) || !tc.is(wrapped) {
			t.Fatalf("%s: helper did not match", tc.name)
		}
		if IsModelNotFound(tc.err) != (tc.name == "not_found") {
			t.Fatalf("%s: unexpected IsModelNotFound", tc.name)
		}
	}
}

func TestCauseIsUnwrapped(t *testing.T) {
	cause := errors.New("missing file")
	if !errors.Is(ModelLoad("m", cause), cause) {
		t.Fatalf("ModelLoad should unwrap to cause")
	}
	if !errors.Is(Inference("run", cause), cause) {
		t.Fatalf("Inference should unwrap to cause")
	}
	if got := ModelLoad("m", cause).Error(); got != "failed to load model m: missing file" {
		t.Fatalf("unexpected message %q", got)
	}
}
