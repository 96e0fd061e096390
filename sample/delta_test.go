package sample

import "testing"

func TestDeltaOrdering(t *testing.T) {
	for _, tt := range []struct {
		name string
		a, b delta
		want int
	}{
		{
			name: "accept beats score and length",
			a:    delta{accept: true, text: "x"},
			b:    delta{score: 9, text: "longer"},
			want: 1,
		},
		{
			name: "clean beats healed",
			a:    delta{text: "ab"},
			b:    delta{healed: true, score: 9, text: "abcdef"},
			want: 1,
		},
		{
			name: "higher score beats longer text",
			a:    delta{score: 2, text: "a"},
			b:    delta{score: 1, text: "abcd"},
			want: 1,
		},
		{
			name: "longer text breaks score ties",
			a:    delta{score: 1, text: "abc"},
			b:    delta{score: 1, text: "ab"},
			want: 1,
		},
		{
			name: "exact tie",
			a:    delta{score: 1, text: "ab"},
			b:    delta{score: 1, text: "cd"},
			want: 0,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.compare(tt.b); got != tt.want {
				t.Errorf("compare = %d, want %d", got, tt.want)
			}
			if got := tt.b.compare(tt.a); got != -tt.want {
				t.Errorf("reverse compare = %d, want %d", got, -tt.want)
			}
		})
	}
}

func TestResolveKeepsTies(t *testing.T) {
	deltas := []delta{
		{id: 1, score: 1, text: "ab"},
		{id: 2, score: 1, text: "cd"},
		{id: 3, score: 0, text: "zz"},
	}
	best := resolve(deltas)
	if len(best) != 2 {
		t.Fatalf("best class size = %d, want 2", len(best))
	}
	if best[0].id != 1 || best[1].id != 2 {
		t.Errorf("best = %+v", best)
	}

	if got := resolve(nil); got != nil {
		t.Errorf("resolve(nil) = %v", got)
	}
}
