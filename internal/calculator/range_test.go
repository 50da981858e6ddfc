package calculator

import "testing"

func TestCalculateRange(t *testing.T) {
	high, low, err := CalculateRange([]float64{3, 9, 1, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if high != 9 || low != 1 {
		t.Errorf("expected 9/1, got %v/%v", high, low)
	}
	if _, _, err := CalculateRange(nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestCalculatePosition(t *testing.T) {
	tests := []struct {
		current, high, low, want float64
	}{
		{5, 10, 0, 0.5},
		{12, 10, 0, 1},
		{-1, 10, 0, 0},
		{7, 7, 7, 0.5},
	}
	for _, tt := range tests {
		got, err := CalculatePosition(tt.current, tt.high, tt.low)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("position(%v,%v,%v): got %v, want %v", tt.current, tt.high, tt.low, got, tt.want)
		}
	}
	if _, err := CalculatePosition(1, 0, 10); err == nil {
		t.Error("expected error when high < low")
	}
}

func TestCalculateVariation(t *testing.T) {
	got, err := CalculateVariation([]float64{200, 150, 250})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertClose(t, "variation", got, 25, 1e-9)
}

func TestCalculateSMA(t *testing.T) {
	got, err := CalculateSMA([]float64{1, 2, 3, 4, 5}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertClose(t, "SMA(3)", got, 4, 1e-12)
	if _, err := CalculateSMA([]float64{1}, 3); err == nil {
		t.Error("expected error for short input")
	}
}
