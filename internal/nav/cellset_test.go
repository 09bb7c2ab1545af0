package nav

import "testing"

func TestCellSet_Basics(t *testing.T) {
	s := NewCellSet(130)
	for _, id := range []int{0, 63, 64, 129} {
		s.Add(id)
	}
	s.Add(-1)
	s.Add(130)

	if got := s.Len(); got != 4 {
		t.Fatalf("Len = %d, want 4", got)
	}
	for _, id := range []int{0, 63, 64, 129} {
		if !s.Contains(id) {
			t.Fatalf("missing id %d", id)
		}
	}
	if s.Contains(1) || s.Contains(-1) || s.Contains(130) {
		t.Fatalf("unexpected membership")
	}

	ids := s.IDs()
	want := []int{0, 63, 64, 129}
	if len(ids) != len(want) {
		t.Fatalf("IDs = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("IDs = %v, want %v", ids, want)
		}
	}
}

func TestCellSet_Intersect(t *testing.T) {
	a := NewCellSet(100)
	b := NewCellSet(100)
	for i := 0; i < 100; i += 2 {
		a.Add(i)
	}
	for i := 0; i < 100; i += 3 {
		b.Add(i)
	}
	a.Intersect(b)
	for i := 0; i < 100; i++ {
		want := i%6 == 0
		if a.Contains(i) != want {
			t.Fatalf("after intersect, Contains(%d) = %v, want %v", i, !want, want)
		}
	}
}
