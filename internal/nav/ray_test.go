package nav

import "testing"

func TestRay_BorderConvergent(t *testing.T) {
	r := ray{diffX: 5, diffY: 1, yStep: -1}
	if got := r.border(); got != 0 {
		t.Fatalf("border = %d, want 0", got)
	}
	r.advance()
	if got := r.border(); got != 5 {
		t.Fatalf("border after advance = %d, want 5", got)
	}
	r.advance()
	if got := r.border(); got != 10 {
		t.Fatalf("border after two advances = %d, want 10", got)
	}
}

func TestRay_BorderDivergentRounding(t *testing.T) {
	// ((2+1)*5 - 1) / 2 = 7: the rounding bias keeps occlusion conservative.
	r := ray{diffX: 5, diffY: 2, yStep: 1, rounding: 1}
	if got := r.border(); got != 7 {
		t.Fatalf("border = %d, want 7", got)
	}
}

func TestRay_ZeroDiffY(t *testing.T) {
	r := ray{diffX: 3}
	if got := r.border(); got != 0 {
		t.Fatalf("border with diffY=0 = %d, want 0", got)
	}
}
