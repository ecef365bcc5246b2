package transaction

type queryOptions struct {
	order    *Order
	combined bool
}

type QueryOption func(*queryOptions)

// MatchOrder restricts a range query to transactions with the given Order.
func MatchOrder(o Order) QueryOption {
	return func(q *queryOptions) { q.order = &o }
}

// Combined lets TransactionsAtRange chain adjacent transactions that
// together cover the range when no single transaction matches exactly.
func Combined() QueryOption {
	return func(q *queryOptions) { q.combined = true }
}

func buildQuery(opts []QueryOption) queryOptions {
	var q queryOptions
	for _, opt := range opts {
		opt(&q)
	}
	return q
}

func (q queryOptions) matches(t Transaction) bool {
	return q.order == nil || t.Order() == *q.order
}

// TransactionsAtRange returns the queued transactions of path spanning
// exactly [start, end).
func (m *Manager) TransactionsAtRange(path string, start, end int, opts ...QueryOption) []Transaction {
	q := buildQuery(opts)
	queue := m.queued[path]

	var exact []Transaction
	for _, t := range queue {
		if t.StartByte() == start && t.EndByte() == end && q.matches(t) {
			exact = append(exact, t)
		}
	}
	if len(exact) > 0 || !q.combined {
		return exact
	}
	return chainRange(queue, start, end, q)
}

// chainRange finds adjacent non-empty transactions that tile [start, end).
func chainRange(queue []Transaction, start, end int, q queryOptions) []Transaction {
	for _, t := range queue {
		if t.StartByte() != start || t.EndByte() <= start || t.EndByte() > end || !q.matches(t) {
			continue
		}
		if t.EndByte() == end {
			return []Transaction{t}
		}
		if rest := chainRange(queue, t.EndByte(), end, q); len(rest) > 0 {
			return append([]Transaction{t}, rest...)
		}
	}
	return nil
}

// TransactionContainingRange returns the queued transaction of path that
// contains [start, end) with the least boundary slack, or nil.
func (m *Manager) TransactionContainingRange(path string, start, end int, opts ...QueryOption) Transaction {
	q := buildQuery(opts)

	var best Transaction
	bestSlack := -1
	for _, t := range m.queued[path] {
		if t.StartByte() > start || t.EndByte() < end || !q.matches(t) {
			continue
		}
		slack := abs(t.StartByte()-start) + abs(t.EndByte()-end)
		if bestSlack < 0 || slack < bestSlack {
			best, bestSlack = t, slack
		}
		if slack == 0 {
			break
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
