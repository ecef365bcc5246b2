package transaction

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/adalundhe/codemod/core/files"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, contents map[string]string) (*Manager, *files.MemStore) {
	t.Helper()
	store := files.NewMemStoreWith(contents)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return NewManager(ManagerConfig{Store: store, Logger: logger}), store
}

func mustAdd(t *testing.T, m *Manager, tx Transaction) {
	t.Helper()
	_, err := m.AddTransaction(tx)
	require.NoError(t, err)
}

func readString(t *testing.T, store files.Store, path string) string {
	t.Helper()
	data, err := store.Read(path)
	require.NoError(t, err)
	return string(data)
}

func spans(queue []Transaction) []string {
	result := make([]string, 0, len(queue))
	for _, q := range queue {
		result = append(result, fmt.Sprintf("%s[%d,%d)%s", q.Kind(), q.StartByte(), q.EndByte(), q.payload()))
	}
	return result
}

func fixedBreakdown(pieces ...Transaction) BreakdownFunc {
	return func(*Edit) []Transaction { return pieces }
}
