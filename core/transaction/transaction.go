package transaction

import (
	"bytes"
	"fmt"
	"sync/atomic"

	"github.com/adalundhe/codemod/core/files"
	"github.com/google/uuid"
)

// Transaction is one typed edit to one file, keyed by the half-open byte
// range [StartByte, EndByte). The set of implementations is closed.
type Transaction interface {
	ID() string
	Kind() Kind
	Order() Order
	FilePath() string
	StartByte() int
	EndByte() int
	// Diff describes the net effect without executing.
	Diff() DiffLite
	// Execute mutates the file store. It must run at most once.
	Execute() error
	// Breakdown splits the transaction into disjoint pieces with the same
	// net effect. The bool is false when no decomposition exists.
	Breakdown() ([]Transaction, bool)
	String() string

	seq() uint64
	payload() []byte
}

// BreakdownFunc decomposes an Edit into smaller transactions.
type BreakdownFunc func(e *Edit) []Transaction

var txCounter atomic.Uint64

type base struct {
	id       string
	store    files.Store
	filePath string
	start    int
	end      int
	counter  uint64
}

func newBase(store files.Store, filePath string, start, end int) base {
	return base{
		id:       uuid.New().String(),
		store:    store,
		filePath: filePath,
		start:    start,
		end:      end,
		counter:  txCounter.Add(1),
	}
}

func (b *base) ID() string       { return b.id }
func (b *base) FilePath() string { return b.filePath }
func (b *base) StartByte() int   { return b.start }
func (b *base) EndByte() int     { return b.end }
func (b *base) seq() uint64      { return b.counter }

func (b *base) read() ([]byte, error) {
	if b.store == nil {
		return nil, ErrNoStore
	}
	return b.store.Read(b.filePath)
}

func (b *base) checkBounds(data []byte) error {
	if b.start < 0 || b.end < b.start || b.end > len(data) {
		return fmt.Errorf("%w: [%d,%d) in %s of %d bytes", ErrRangeOutOfBounds, b.start, b.end, b.filePath, len(data))
	}
	return nil
}

func (b *base) splice(replacement []byte) error {
	data, err := b.read()
	if err != nil {
		return err
	}
	if err := b.checkBounds(data); err != nil {
		return err
	}

	out := make([]byte, 0, len(data)-(b.end-b.start)+len(replacement))
	out = append(out, data[:b.start]...)
	out = append(out, replacement...)
	out = append(out, data[b.end:]...)
	return b.store.Write(b.filePath, out)
}

func (b *base) modified() DiffLite {
	return DiffLite{Path: b.filePath, ChangeType: ChangeModified}
}

func (b *base) describe(kind Kind, extra []byte) string {
	return fmt.Sprintf("%s(%s [%d,%d) %s id=%s)", kind, b.filePath, b.start, b.end, preview(extra), shortID(b.id))
}

func preview(content []byte) string {
	const limit = 32
	if len(content) > limit {
		return fmt.Sprintf("%q...", content[:limit])
	}
	return fmt.Sprintf("%q", content)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Equal reports whether a and b describe the same change: same variant,
// file, range and payload. Identity is not compared.
func Equal(a, b Transaction) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Kind() == b.Kind() &&
		a.FilePath() == b.FilePath() &&
		a.StartByte() == b.StartByte() &&
		a.EndByte() == b.EndByte() &&
		bytes.Equal(a.payload(), b.payload())
}

type Insert struct {
	base
	content []byte
}

func NewInsert(store files.Store, filePath string, offset int, content []byte) *Insert {
	return &Insert{base: newBase(store, filePath, offset, offset), content: cloneBytes(content)}
}

func (t *Insert) Kind() Kind                       { return KindInsert }
func (t *Insert) Order() Order                     { return OrderInsert }
func (t *Insert) Content() []byte                  { return cloneBytes(t.content) }
func (t *Insert) Diff() DiffLite                   { return t.modified() }
func (t *Insert) Execute() error                   { return t.splice(t.content) }
func (t *Insert) Breakdown() ([]Transaction, bool) { return nil, false }
func (t *Insert) String() string                   { return t.describe(KindInsert, t.content) }
func (t *Insert) payload() []byte                  { return t.content }

// Edit replaces the bytes in its range with new content.
type Edit struct {
	base
	content   []byte
	breakdown BreakdownFunc
}

func NewEdit(store files.Store, filePath string, start, end int, content []byte) *Edit {
	return &Edit{base: newBase(store, filePath, start, end), content: cloneBytes(content)}
}

// WithBreakdown replaces the default line-diff decomposition.
func (t *Edit) WithBreakdown(fn BreakdownFunc) *Edit {
	t.breakdown = fn
	return t
}

func (t *Edit) Kind() Kind      { return KindEdit }
func (t *Edit) Order() Order    { return OrderEdit }
func (t *Edit) Content() []byte { return cloneBytes(t.content) }
func (t *Edit) Diff() DiffLite  { return t.modified() }
func (t *Edit) Execute() error  { return t.splice(t.content) }
func (t *Edit) String() string  { return t.describe(KindEdit, t.content) }
func (t *Edit) payload() []byte { return t.content }

func (t *Edit) Breakdown() ([]Transaction, bool) {
	var pieces []Transaction
	if t.breakdown != nil {
		pieces = t.breakdown(t)
	} else {
		pieces = t.diffBreakdown()
	}
	if len(pieces) == 0 {
		return nil, false
	}
	return pieces, true
}

// diffBreakdown splits the edit into one piece per changed line hunk
// between the current range contents and the new content.
func (t *Edit) diffBreakdown() []Transaction {
	data, err := t.read()
	if err != nil || t.checkBounds(data) != nil {
		return nil
	}

	hunks := diffHunks(data[t.start:t.end], t.content)
	if len(hunks) < 2 {
		return nil
	}

	pieces := make([]Transaction, 0, len(hunks))
	for _, h := range hunks {
		start, end := t.start+h.oldStart, t.start+h.oldEnd
		pieces = append(pieces, t.piece(start, end, h.newText))
	}
	return pieces
}

func (t *Edit) piece(start, end int, content []byte) Transaction {
	switch {
	case start == end:
		return NewInsert(t.store, t.filePath, start, content)
	case len(content) == 0:
		return NewRemove(t.store, t.filePath, start, end)
	default:
		return NewEdit(t.store, t.filePath, start, end, content)
	}
}

type Remove struct {
	base
}

func NewRemove(store files.Store, filePath string, start, end int) *Remove {
	return &Remove{base: newBase(store, filePath, start, end)}
}

func (t *Remove) Kind() Kind                       { return KindRemove }
func (t *Remove) Order() Order                     { return OrderRemove }
func (t *Remove) Diff() DiffLite                   { return t.modified() }
func (t *Remove) Execute() error                   { return t.splice(nil) }
func (t *Remove) Breakdown() ([]Transaction, bool) { return nil, false }
func (t *Remove) String() string                   { return t.describe(KindRemove, nil) }
func (t *Remove) payload() []byte                  { return nil }

type FileAdd struct {
	base
	content []byte
}

func NewFileAdd(store files.Store, filePath string, content []byte) *FileAdd {
	return &FileAdd{base: newBase(store, filePath, 0, 0), content: cloneBytes(content)}
}

func (t *FileAdd) Kind() Kind                       { return KindFileAdd }
func (t *FileAdd) Order() Order                     { return OrderFileAdd }
func (t *FileAdd) Breakdown() ([]Transaction, bool) { return nil, false }
func (t *FileAdd) String() string                   { return t.describe(KindFileAdd, t.content) }
func (t *FileAdd) payload() []byte                  { return t.content }

func (t *FileAdd) Diff() DiffLite {
	return DiffLite{Path: t.filePath, ChangeType: ChangeAdded}
}

func (t *FileAdd) Execute() error {
	if t.store == nil {
		return ErrNoStore
	}
	exists, err := t.store.Exists(t.filePath)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("add %s: %w", t.filePath, files.ErrFileExists)
	}
	return t.store.Write(t.filePath, t.content)
}

type FileRemove struct {
	base
}

func NewFileRemove(store files.Store, filePath string) *FileRemove {
	return &FileRemove{base: newBase(store, filePath, 0, 0)}
}

func (t *FileRemove) Kind() Kind                       { return KindFileRemove }
func (t *FileRemove) Order() Order                     { return OrderFileRemove }
func (t *FileRemove) Breakdown() ([]Transaction, bool) { return nil, false }
func (t *FileRemove) String() string                   { return t.describe(KindFileRemove, nil) }
func (t *FileRemove) payload() []byte                  { return nil }

func (t *FileRemove) Diff() DiffLite {
	return DiffLite{Path: t.filePath, ChangeType: ChangeRemoved}
}

func (t *FileRemove) Execute() error {
	if t.store == nil {
		return ErrNoStore
	}
	return t.store.Remove(t.filePath)
}

type FileRename struct {
	base
	newPath string
}

func NewFileRename(store files.Store, filePath, newPath string) *FileRename {
	return &FileRename{base: newBase(store, filePath, 0, 0), newPath: newPath}
}

func (t *FileRename) Kind() Kind                       { return KindFileRename }
func (t *FileRename) Order() Order                     { return OrderFileRename }
func (t *FileRename) NewPath() string                  { return t.newPath }
func (t *FileRename) Breakdown() ([]Transaction, bool) { return nil, false }
func (t *FileRename) String() string                   { return t.describe(KindFileRename, []byte(t.newPath)) }
func (t *FileRename) payload() []byte                  { return []byte(t.newPath) }

func (t *FileRename) Diff() DiffLite {
	return DiffLite{Path: t.newPath, ChangeType: ChangeRenamed, RenameFrom: t.filePath}
}

func (t *FileRename) Execute() error {
	if t.store == nil {
		return ErrNoStore
	}
	return t.store.Rename(t.filePath, t.newPath)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	result := make([]byte, len(b))
	copy(result, b)
	return result
}
