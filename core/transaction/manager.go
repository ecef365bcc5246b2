package transaction

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/adalundhe/codemod/core/files"
	"github.com/gobwas/glob"
)

type ManagerConfig struct {
	// Store backs the file-level convenience adds.
	Store  files.Store
	Logger *slog.Logger
	// MaxTransactions caps the total queued count; <= 0 disables the cap.
	MaxTransactions int
	// MaxDuration bounds the batch wall-clock time; <= 0 disables it.
	MaxDuration time.Duration
	Now         func() time.Time
}

// Manager queues, conflict-resolves and commits transactions for one
// editing session. It is not safe for concurrent use.
type Manager struct {
	store  files.Store
	logger *slog.Logger
	now    func() time.Time

	queued       map[string][]Transaction
	pendingUndos []func()
	committing   bool

	maxTransactions int
	stopwatchStart  time.Time
	maxDuration     time.Duration
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	m := &Manager{
		store:  cfg.Store,
		logger: cfg.Logger,
		now:    cfg.Now,
		queued: make(map[string][]Transaction),
	}
	m.SetMaxTransactions(cfg.MaxTransactions)
	m.ResetStopwatch(cfg.MaxDuration)
	return m
}

type addOptions struct {
	dedupe         bool
	solveConflicts bool
}

type AddOption func(*addOptions)

// SkipDedupe queues the transaction even if an equal one is queued.
func SkipDedupe() AddOption {
	return func(o *addOptions) { o.dedupe = false }
}

// SkipConflictResolution appends the transaction without checking overlaps.
func SkipConflictResolution() AddOption {
	return func(o *addOptions) { o.solveConflicts = false }
}

// AddTransaction resolves t against its file's queue and queues the result.
// It returns false without error when an equal transaction is already queued.
// Limits are checked after the queue is updated, so a limit error leaves t
// queued.
func (m *Manager) AddTransaction(t Transaction, opts ...AddOption) (bool, error) {
	o := addOptions{dedupe: true, solveConflicts: true}
	for _, opt := range opts {
		opt(&o)
	}

	if t.StartByte() < 0 || t.EndByte() < t.StartByte() {
		return false, fmt.Errorf("%w: %s", ErrInvalidRange, t)
	}

	queue := m.queued[t.FilePath()]
	if o.dedupe && containsEqual(queue, t) {
		m.logger.Debug("duplicate transaction ignored", "transaction", t.String())
		return false, nil
	}

	if o.solveConflicts {
		resolved, err := newResolver(queue).resolve(t)
		if err != nil {
			m.logger.Error("unresolvable transaction conflict", "error", err)
			var te *TransactionError
			if errors.As(err, &te) {
				te.Queue = m.TransactionsString()
			}
			return false, err
		}
		queue = resolved
	} else {
		queue = append(queue, t)
	}
	m.setQueue(t.FilePath(), queue)

	return true, m.checkLimits()
}

// Add is shorthand for AddTransaction with default options.
func (m *Manager) Add(t Transaction) (bool, error) {
	return m.AddTransaction(t)
}

func (m *Manager) AddFileAddTransaction(path string, content []byte) (bool, error) {
	if m.store == nil {
		return false, ErrNoStore
	}
	return m.AddTransaction(NewFileAdd(m.store, path, content))
}

func (m *Manager) AddFileRemoveTransaction(path string) (bool, error) {
	if m.store == nil {
		return false, ErrNoStore
	}
	return m.AddTransaction(NewFileRemove(m.store, path))
}

func (m *Manager) AddFileRenameTransaction(path, newPath string) (bool, error) {
	if m.store == nil {
		return false, ErrNoStore
	}
	return m.AddTransaction(NewFileRename(m.store, path, newPath))
}

// AddPendingUndo registers a callback run once by RevertAll.
func (m *Manager) AddPendingUndo(fn func()) {
	m.pendingUndos = append(m.pendingUndos, fn)
}

func (m *Manager) setQueue(path string, queue []Transaction) {
	if len(queue) == 0 {
		delete(m.queued, path)
		return
	}
	m.queued[path] = queue
}

func containsEqual(queue []Transaction, t Transaction) bool {
	for _, q := range queue {
		if Equal(q, t) {
			return true
		}
	}
	return false
}

func (m *Manager) NumTransactions() int {
	total := 0
	for _, queue := range m.queued {
		total += len(queue)
	}
	return total
}

// Transactions returns a copy of the queue for path.
func (m *Manager) Transactions(path string) []Transaction {
	return append([]Transaction(nil), m.queued[path]...)
}

func (m *Manager) SetMaxTransactions(n int) {
	m.maxTransactions = n
}

func (m *Manager) MaxTransactionsExceeded() bool {
	return m.maxTransactions > 0 && m.NumTransactions() > m.maxTransactions
}

// ResetStopwatch restarts the batch clock with a new deadline; a
// non-positive max disables the deadline.
func (m *Manager) ResetStopwatch(max time.Duration) {
	m.stopwatchStart = m.now()
	m.maxDuration = max
}

func (m *Manager) IsTimeExceeded() bool {
	return m.maxDuration > 0 && m.now().Sub(m.stopwatchStart) >= m.maxDuration
}

func (m *Manager) checkLimits() error {
	if m.MaxTransactionsExceeded() {
		m.logger.Info("max transactions reached, stopping", "max_transactions", m.maxTransactions)
		return &MaxTransactionsExceededError{Threshold: m.maxTransactions}
	}
	if m.IsTimeExceeded() {
		m.logger.Info("max preview time exceeded, stopping", "max_duration", m.maxDuration)
		return &MaxPreviewTimeExceededError{Threshold: m.maxDuration}
	}
	return nil
}

// SortTransactions orders every file's queue by descending start byte,
// then descending Order, then newest first.
func (m *Manager) SortTransactions() {
	for _, queue := range m.queued {
		sortQueue(queue)
	}
}

func sortQueue(queue []Transaction) {
	sort.SliceStable(queue, func(i, j int) bool {
		a, b := queue[i], queue[j]
		if a.StartByte() != b.StartByte() {
			return a.StartByte() > b.StartByte()
		}
		if a.Order() != b.Order() {
			return a.Order() > b.Order()
		}
		return a.seq() > b.seq()
	})
}

// ToCommit returns the queued file paths in sorted order, restricted to
// paths when any are given.
func (m *Manager) ToCommit(paths ...string) []string {
	var result []string
	if len(paths) == 0 {
		for path := range m.queued {
			result = append(result, path)
		}
	} else {
		seen := make(map[string]bool, len(paths))
		for _, path := range paths {
			if _, ok := m.queued[path]; ok && !seen[path] {
				seen[path] = true
				result = append(result, path)
			}
		}
	}
	sort.Strings(result)
	return result
}

// queuedAmong returns the distinct queued paths of paths, sorted.
func (m *Manager) queuedAmong(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	return m.ToCommit(paths...)
}

// ToCommitMatching returns the queued file paths matching any of the glob
// patterns.
func (m *Manager) ToCommitMatching(patterns ...string) ([]string, error) {
	matchers := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
		}
		matchers = append(matchers, g)
	}

	var result []string
	for _, path := range m.ToCommit() {
		if matchesAny(matchers, path) {
			result = append(result, path)
		}
	}
	return result, nil
}

func matchesAny(matchers []glob.Glob, path string) bool {
	for _, g := range matchers {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// Commit executes the sorted queues of the given files; an empty paths
// commits nothing. Each file reports at most one Modified diff. An execute error stops the commit; transactions
// already executed stay applied.
func (m *Manager) Commit(paths []string) ([]DiffLite, error) {
	if m.committing {
		m.logger.Warn("skipping commit, already committing")
		return nil, nil
	}
	m.committing = true
	defer func() { m.committing = false }()

	var diffs []DiffLite
	if len(m.queued) == 0 {
		return diffs, nil
	}

	m.SortTransactions()
	for _, path := range m.queuedAmong(paths) {
		queue := m.queued[path]
		delete(m.queued, path)

		modified := false
		for _, t := range queue {
			diff := t.Diff()
			if diff.ChangeType != ChangeModified {
				diffs = append(diffs, diff)
			} else if !modified {
				modified = true
				diffs = append(diffs, diff)
			}

			if err := t.Execute(); err != nil {
				return diffs, fmt.Errorf("execute %s: %w", t, err)
			}
		}
		m.logger.Debug("committed file", "path", path, "transactions", len(queue))
	}
	return diffs, nil
}

// Apply queues t and immediately commits its file.
func (m *Manager) Apply(t Transaction) ([]DiffLite, error) {
	if _, err := m.AddTransaction(t); err != nil {
		return nil, err
	}
	return m.Commit([]string{t.FilePath()})
}

// ApplyAll commits every queued file.
func (m *Manager) ApplyAll() ([]DiffLite, error) {
	return m.Commit(m.ToCommit())
}

// RevertAll discards the queue unexecuted and runs every pending undo once.
func (m *Manager) RevertAll() {
	m.queued = make(map[string][]Transaction)

	undos := m.pendingUndos
	m.pendingUndos = nil
	for _, undo := range undos {
		undo()
	}
}

// ClearTransactions reverts everything and resets the limits.
func (m *Manager) ClearTransactions() {
	if n := m.NumTransactions(); n > 0 {
		m.logger.Warn("clearing unflushed transactions", "count", n, "files", len(m.queued))
	}
	m.RevertAll()
	m.SetMaxTransactions(0)
	m.ResetStopwatch(0)
}

// TransactionsString dumps every queued transaction per file, sorted by path.
func (m *Manager) TransactionsString() string {
	var sb strings.Builder
	for _, path := range m.ToCommit() {
		sb.WriteString(path)
		sb.WriteString(":\n")
		for _, t := range m.queued[path] {
			sb.WriteString("  ")
			sb.WriteString(t.String())
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
