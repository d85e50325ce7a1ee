package errors

import (
	"math"
	"testing"
)

func TestValidateResolution(t *testing.T) {
	tests := []struct {
		input   int
		wantErr bool
	}{
		{1, false},
		{120, false},
		{MaxResolution, false},
		{0, true},
		{-5, true},
		{MaxResolution + 1, true},
	}

	for _, tt := range tests {
		err := ValidateResolution(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateResolution(%d) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if err != nil && !Is(err, ErrCodeInvalidOption) {
			t.Errorf("ValidateResolution(%d) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidOption)
		}
	}
}

func TestValidateDelta(t *testing.T) {
	tests := []struct {
		name    string
		input   float64
		wantErr bool
	}{
		{"default", 0.6, false},
		{"small", 1e-6, false},
		{"one", 1, false},
		{"wide", 2.5, false},
		{"zero", 0, true},
		{"negative", -0.1, true},
		{"nan", math.NaN(), true},
		{"inf", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDelta(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateDelta(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidWindow) {
				t.Errorf("ValidateDelta(%v) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidWindow)
			}
		})
	}
}

func TestValidateSamples(t *testing.T) {
	for _, n := range []int{2, 100, MaxSamples} {
		if err := ValidateSamples(n); err != nil {
			t.Errorf("ValidateSamples(%d) = %v, want nil", n, err)
		}
	}
	for _, n := range []int{-1, 0, 1, MaxSamples + 1} {
		if err := ValidateSamples(n); err == nil {
			t.Errorf("ValidateSamples(%d) = nil, want error", n)
		}
	}
}

func TestValidateImageSize(t *testing.T) {
	if err := ValidateImageSize(800); err != nil {
		t.Errorf("ValidateImageSize(800) = %v", err)
	}
	if err := ValidateImageSize(0); err == nil {
		t.Error("ValidateImageSize(0) should fail")
	}
	if err := ValidateImageSize(MaxImageSize + 1); err == nil {
		t.Error("ValidateImageSize(max+1) should fail")
	}
}

func TestValidateMatrixName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "G2_circuit.mtx", false},
		{"compressed", "bcsstk01.mtx.gz", false},
		{"dashes", "my-matrix", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"slash", "dir/matrix.mtx", true},
		{"backslash", `dir\matrix.mtx`, true},
		{"parent", "..", true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMatrixName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMatrixName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
