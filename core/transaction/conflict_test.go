package transaction

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_RemoveDominatesContainedEdit(t *testing.T) {
	m, store := newTestManager(t, map[string]string{"a.go": "0123456789abcdef"})

	remove := NewRemove(store, "a.go", 0, 10)
	mustAdd(t, m, remove)

	added, err := m.AddTransaction(NewEdit(store, "a.go", 2, 5, []byte("x")))
	require.NoError(t, err)
	assert.True(t, added)

	queue := m.Transactions("a.go")
	require.Len(t, queue, 1)
	assert.Same(t, remove, queue[0])
}

func TestAdd_ContainedRemoveBreaksDownEdit(t *testing.T) {
	m, store := newTestManager(t, map[string]string{"a.go": "01234567890123456789"})

	edit := NewEdit(store, "a.go", 0, 20, []byte("A")).WithBreakdown(fixedBreakdown(
		NewEdit(store, "a.go", 0, 5, []byte("a1")),
		NewEdit(store, "a.go", 15, 20, []byte("a2")),
	))
	mustAdd(t, m, edit)
	mustAdd(t, m, NewRemove(store, "a.go", 5, 15))

	assert.ElementsMatch(t,
		[]string{"edit[0,5)a1", "remove[5,15)", "edit[15,20)a2"},
		spans(m.Transactions("a.go")),
	)
}

func TestAdd_UnresolvableConflict(t *testing.T) {
	m, store := newTestManager(t, map[string]string{"a.go": "0123456789abcdef"})

	first := NewEdit(store, "a.go", 0, 10, []byte("A"))
	mustAdd(t, m, first)

	second := NewEdit(store, "a.go", 5, 15, []byte("B")).WithBreakdown(fixedBreakdown())
	_, err := m.AddTransaction(second)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))

	var te *TransactionError
	require.True(t, errors.As(err, &te))
	assert.Same(t, second, te.New)
	assert.Same(t, first, te.Existing)
	assert.Contains(t, te.Queue, "a.go:")

	queue := m.Transactions("a.go")
	require.Len(t, queue, 1)
	assert.Same(t, first, queue[0])
}

func TestAdd_ContainingEditWithoutBreakdownFails(t *testing.T) {
	m, store := newTestManager(t, map[string]string{"a.go": "0123456789"})

	mustAdd(t, m, NewEdit(store, "a.go", 0, 10, []byte("A")).WithBreakdown(fixedBreakdown()))

	_, err := m.AddTransaction(NewRemove(store, "a.go", 2, 4))
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, m.NumTransactions())
}

func TestAdd_PartialRemoveDropsConflicts(t *testing.T) {
	m, store := newTestManager(t, map[string]string{"a.go": "0123456789abcdefghij"})

	mustAdd(t, m, NewEdit(store, "a.go", 0, 6, []byte("A")))
	mustAdd(t, m, NewEdit(store, "a.go", 8, 12, []byte("B")))
	mustAdd(t, m, NewEdit(store, "a.go", 14, 18, []byte("C")))

	mustAdd(t, m, NewRemove(store, "a.go", 4, 10))

	assert.ElementsMatch(t,
		[]string{"edit[14,18)C", "remove[4,10)"},
		spans(m.Transactions("a.go")),
	)
}

func TestAdd_PartialEditBreaksItselfDown(t *testing.T) {
	m, store := newTestManager(t, map[string]string{"a.go": "0123456789abcdefghij"})

	mustAdd(t, m, NewRemove(store, "a.go", 5, 10))

	edit := NewEdit(store, "a.go", 0, 15, []byte("composite")).WithBreakdown(fixedBreakdown(
		NewEdit(store, "a.go", 0, 5, []byte("head")),
		NewEdit(store, "a.go", 10, 15, []byte("tail")),
	))
	added, err := m.AddTransaction(edit)
	require.NoError(t, err)
	assert.True(t, added)

	assert.ElementsMatch(t,
		[]string{"remove[5,10)", "edit[0,5)head", "edit[10,15)tail"},
		spans(m.Transactions("a.go")),
	)
}

func TestAdd_PieceInsideRemoveIsDropped(t *testing.T) {
	m, store := newTestManager(t, map[string]string{"a.go": "0123456789abcdefghij"})

	mustAdd(t, m, NewRemove(store, "a.go", 5, 10))

	edit := NewEdit(store, "a.go", 0, 15, []byte("composite")).WithBreakdown(fixedBreakdown(
		NewEdit(store, "a.go", 0, 5, []byte("head")),
		NewEdit(store, "a.go", 6, 8, []byte("inner")),
	))
	mustAdd(t, m, edit)

	assert.ElementsMatch(t,
		[]string{"remove[5,10)", "edit[0,5)head"},
		spans(m.Transactions("a.go")),
	)
}

func TestAdd_InsertInsideRemoveIsSubsumed(t *testing.T) {
	tests := []struct {
		name   string
		offset int
	}{
		{name: "start boundary", offset: 2},
		{name: "interior", offset: 4},
		{name: "end boundary", offset: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, store := newTestManager(t, map[string]string{"a.go": "0123456789"})

			remove := NewRemove(store, "a.go", 2, 6)
			mustAdd(t, m, remove)

			added, err := m.AddTransaction(NewInsert(store, "a.go", tt.offset, []byte("x")))
			require.NoError(t, err)
			assert.True(t, added)

			queue := m.Transactions("a.go")
			require.Len(t, queue, 1)
			assert.Same(t, remove, queue[0])
		})
	}
}

func TestAdd_InsertOutsideRemoveIsKept(t *testing.T) {
	m, store := newTestManager(t, map[string]string{"a.go": "0123456789"})

	mustAdd(t, m, NewRemove(store, "a.go", 2, 6))
	mustAdd(t, m, NewInsert(store, "a.go", 7, []byte("x")))

	assert.Equal(t, []string{"remove[2,6)", "insert[7,7)x"}, spans(m.Transactions("a.go")))
}

func TestAdd_BoundaryInsertOnUnbreakableEditFails(t *testing.T) {
	for _, offset := range []int{0, 10} {
		m, store := newTestManager(t, map[string]string{"a.go": "0123456789"})

		edit := NewEdit(store, "a.go", 0, 10, []byte("A")).WithBreakdown(fixedBreakdown())
		mustAdd(t, m, edit)

		insert := NewInsert(store, "a.go", offset, []byte("X"))
		_, err := m.AddTransaction(insert)
		require.ErrorIs(t, err, ErrConflict, "offset %d", offset)

		var te *TransactionError
		require.True(t, errors.As(err, &te))
		assert.Same(t, insert, te.New)
		assert.Same(t, edit, te.Existing)
		assert.Equal(t, []string{"edit[0,10)A"}, spans(m.Transactions("a.go")))
	}
}

func TestAdd_BoundaryInsertBreaksDownEdit(t *testing.T) {
	m, store := newTestManager(t, map[string]string{"a.go": "0123456789"})

	mustAdd(t, m, NewEdit(store, "a.go", 0, 10, []byte("A")).WithBreakdown(fixedBreakdown(
		NewEdit(store, "a.go", 0, 3, []byte("a")),
		NewEdit(store, "a.go", 7, 10, []byte("b")),
	)))
	mustAdd(t, m, NewInsert(store, "a.go", 10, []byte("X")))

	assert.Equal(t,
		[]string{"edit[0,3)a", "edit[7,10)b", "insert[10,10)X"},
		spans(m.Transactions("a.go")),
	)
}

func TestAdd_BreakdownPiecesKeepOrder(t *testing.T) {
	m, store := newTestManager(t, map[string]string{"a.go": "0123456789abcdefghijklmnopqrstuvwxyz"})

	mustAdd(t, m, NewEdit(store, "a.go", 0, 10, []byte("A")).WithBreakdown(fixedBreakdown(
		NewEdit(store, "a.go", 0, 3, []byte("p0")),
		NewEdit(store, "a.go", 5, 10, []byte("p1")),
	)))
	mustAdd(t, m, NewRemove(store, "a.go", 20, 25))
	mustAdd(t, m, NewRemove(store, "a.go", 3, 5))

	assert.Equal(t,
		[]string{"edit[0,3)p0", "edit[5,10)p1", "remove[20,25)", "remove[3,5)"},
		spans(m.Transactions("a.go")),
	)
	assert.Regexp(t, `(?s)edit\(a\.go \[0,3\).*edit\(a\.go \[5,10\)`, m.TransactionsString())
}

func TestAdd_FileLevelTransactionIgnoresContainment(t *testing.T) {
	m, store := newTestManager(t, map[string]string{"a.go": "0123456789"})

	mustAdd(t, m, NewRemove(store, "a.go", 0, 10))
	mustAdd(t, m, NewFileRename(store, "a.go", "b.go"))

	assert.Equal(t, []string{"remove[0,10)", "file_rename[0,0)b.go"}, spans(m.Transactions("a.go")))
}

func TestAdd_DefaultLineBreakdown(t *testing.T) {
	m, store := newTestManager(t, map[string]string{"a.go": "a\nb\nc\nd\ne\n"})

	mustAdd(t, m, NewEdit(store, "a.go", 0, 10, []byte("A\nb\nc\nd\nE\n")))
	mustAdd(t, m, NewRemove(store, "a.go", 4, 6))

	assert.ElementsMatch(t,
		[]string{"edit[0,2)A\n", "remove[4,6)", "edit[8,10)E\n"},
		spans(m.Transactions("a.go")),
	)

	_, err := m.ApplyAll()
	require.NoError(t, err)
	assert.Equal(t, "A\nb\nd\nE\n", readString(t, store, "a.go"))
}

func TestAdd_SkipConflictResolution(t *testing.T) {
	m, store := newTestManager(t, map[string]string{"a.go": "0123456789"})

	mustAdd(t, m, NewEdit(store, "a.go", 0, 6, []byte("A")))
	_, err := m.AddTransaction(NewEdit(store, "a.go", 3, 9, []byte("B")), SkipConflictResolution())
	require.NoError(t, err)
	assert.Equal(t, 2, m.NumTransactions())
}

func TestAdd_QueuesStayDisjoint(t *testing.T) {
	m, store := newTestManager(t, map[string]string{"a.go": "line0\nline1\nline2\nline3\nline4\nline5\n"})

	mustAdd(t, m, NewEdit(store, "a.go", 0, 36, []byte("LINE0\nline1\nline2\nline3\nline4\nLINE5\n")))
	mustAdd(t, m, NewRemove(store, "a.go", 12, 18))
	mustAdd(t, m, NewInsert(store, "a.go", 24, []byte("new\n")))

	queue := m.Transactions("a.go")
	for i := range queue {
		for j := i + 1; j < len(queue); j++ {
			assert.False(t, overlaps(queue[i], queue[j]), "%s overlaps %s", queue[i], queue[j])
		}
	}
}
