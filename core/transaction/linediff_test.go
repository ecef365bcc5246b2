package transaction

import (
	"testing"
)

func TestDiffHunks(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		target   string
		expected []hunk
	}{
		{
			name:   "identical",
			base:   "a\nb\n",
			target: "a\nb\n",
		},
		{
			name:     "replace middle",
			base:     "a\nb\nc\n",
			target:   "a\nX\nc\n",
			expected: []hunk{{oldStart: 2, oldEnd: 4, newText: []byte("X\n")}},
		},
		{
			name:     "append",
			base:     "a\n",
			target:   "a\nb\n",
			expected: []hunk{{oldStart: 2, oldEnd: 2, newText: []byte("b\n")}},
		},
		{
			name:     "delete first",
			base:     "a\nb\n",
			target:   "b\n",
			expected: []hunk{{oldStart: 0, oldEnd: 2}},
		},
		{
			name:     "from empty",
			base:     "",
			target:   "a\n",
			expected: []hunk{{oldStart: 0, oldEnd: 0, newText: []byte("a\n")}},
		},
		{
			name:     "to empty",
			base:     "a\nb",
			target:   "",
			expected: []hunk{{oldStart: 0, oldEnd: 3}},
		},
		{
			name:   "two hunks",
			base:   "a\nb\nc\nd\ne\n",
			target: "A\nb\nc\nd\nE\n",
			expected: []hunk{
				{oldStart: 0, oldEnd: 2, newText: []byte("A\n")},
				{oldStart: 8, oldEnd: 10, newText: []byte("E\n")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := diffHunks([]byte(tt.base), []byte(tt.target))
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %d hunks, got %d: %+v", len(tt.expected), len(got), got)
			}
			for i, h := range got {
				want := tt.expected[i]
				if h.oldStart != want.oldStart || h.oldEnd != want.oldEnd || string(h.newText) != string(want.newText) {
					t.Errorf("hunk %d: got [%d,%d) %q, want [%d,%d) %q",
						i, h.oldStart, h.oldEnd, h.newText, want.oldStart, want.oldEnd, want.newText)
				}
			}
		})
	}
}
