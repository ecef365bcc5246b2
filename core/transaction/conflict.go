package transaction

import "fmt"

const maxResolveSteps = 1 << 14

// resolver reconciles a new transaction with a copy of its file's queue.
// The copy is only handed back on success, so a failed resolution leaves
// the manager's queue untouched.
type resolver struct {
	queue []Transaction
}

type workItem struct {
	tx Transaction
	// at is the queue index to insert at; -1 appends.
	at int
	// place skips resolution and inserts tx directly.
	place bool
	// piece marks a breakdown product, whose containment is only checked
	// against the transactions it overlaps.
	piece bool
}

func newResolver(queue []Transaction) *resolver {
	return &resolver{queue: append([]Transaction(nil), queue...)}
}

func (r *resolver) resolve(t Transaction) ([]Transaction, error) {
	stack := []workItem{{tx: t, at: -1}}

	for steps := 0; len(stack) > 0; steps++ {
		if steps >= maxResolveSteps {
			return nil, fmt.Errorf("%w: breakdown of %s did not converge", ErrConflict, t)
		}

		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if item.place {
			r.insert(item.tx, item.at)
			continue
		}

		next, err := r.step(item)
		if err != nil {
			return nil, err
		}
		stack = append(stack, next...)
	}
	return r.queue, nil
}

// step applies the resolution policy to one transaction and returns the
// follow-up work. Items are popped from the end, so the returned slice is
// ordered last-processed first.
func (r *resolver) step(item workItem) ([]workItem, error) {
	t := item.tx
	if !item.piece {
		if outer := r.containing(t); outer != nil {
			return r.resolveContained(item, outer)
		}
	}

	conflicts := r.conflicts(t)
	if len(conflicts) == 0 {
		return []workItem{{tx: t, at: item.at, place: true}}, nil
	}

	if outer := firstContaining(conflicts, t); outer != nil {
		return r.resolveContained(item, outer)
	}
	return r.resolvePartial(item, conflicts)
}

// containing returns the first queued Remove or Edit whose range contains a
// byte-range t, including a zero-width t on either boundary. File-level
// transactions and zero-width containers are left to the overlap test.
func (r *resolver) containing(t Transaction) Transaction {
	if !isRangeKind(t.Kind()) {
		return nil
	}
	for _, q := range r.queue {
		if q == t || q.StartByte() == q.EndByte() {
			continue
		}
		if (q.Kind() == KindRemove || q.Kind() == KindEdit) && contains(q, t) {
			return q
		}
	}
	return nil
}

func isRangeKind(k Kind) bool {
	return k == KindInsert || k == KindEdit || k == KindRemove
}

// resolveContained handles t lying entirely inside an existing transaction.
func (r *resolver) resolveContained(item workItem, outer Transaction) ([]workItem, error) {
	switch outer.Kind() {
	case KindRemove:
		return nil, nil
	case KindEdit:
		pieces, ok := outer.Breakdown()
		if !ok {
			return nil, &TransactionError{New: item.tx, Existing: outer}
		}
		idx := r.indexOf(outer)
		r.removeAt(idx)

		work := []workItem{{tx: item.tx, at: item.at, place: true}}
		return append(work, pieceItems(pieces, idx)...), nil
	default:
		return nil, &TransactionError{New: item.tx, Existing: outer}
	}
}

// resolvePartial handles overlaps where no existing transaction contains t.
func (r *resolver) resolvePartial(item workItem, conflicts []Transaction) ([]workItem, error) {
	t := item.tx
	switch t.Kind() {
	case KindRemove:
		for _, c := range conflicts {
			r.removeAt(r.indexOf(c))
		}
		return []workItem{{tx: t, at: item.at, place: true}}, nil
	case KindEdit:
		pieces, ok := t.Breakdown()
		if !ok {
			return nil, &TransactionError{New: t, Existing: conflicts[0]}
		}
		return pieceItems(pieces, item.at), nil
	default:
		return nil, &TransactionError{New: t, Existing: conflicts[0]}
	}
}

// pieceItems returns work for pieces in stack order, so pieces[0] is
// resolved first and lands at at, pieces[1] at at+1, and so on. A negative
// at appends every piece in order.
func pieceItems(pieces []Transaction, at int) []workItem {
	items := make([]workItem, 0, len(pieces))
	for i := len(pieces) - 1; i >= 0; i-- {
		pos := at
		if at >= 0 {
			pos = at + i
		}
		items = append(items, workItem{tx: pieces[i], at: pos, piece: true})
	}
	return items
}

func (r *resolver) conflicts(t Transaction) []Transaction {
	var result []Transaction
	for _, q := range r.queue {
		if q != t && overlaps(q, t) {
			result = append(result, q)
		}
	}
	return result
}

func firstContaining(candidates []Transaction, inner Transaction) Transaction {
	for _, c := range candidates {
		if contains(c, inner) {
			return c
		}
	}
	return nil
}

func overlaps(a, b Transaction) bool {
	return a.StartByte() < b.EndByte() && b.StartByte() < a.EndByte()
}

func contains(outer, inner Transaction) bool {
	return outer.StartByte() <= inner.StartByte() && inner.EndByte() <= outer.EndByte()
}

func (r *resolver) indexOf(t Transaction) int {
	for i, q := range r.queue {
		if q == t {
			return i
		}
	}
	return -1
}

func (r *resolver) removeAt(idx int) {
	if idx < 0 || idx >= len(r.queue) {
		return
	}
	r.queue = append(r.queue[:idx], r.queue[idx+1:]...)
}

func (r *resolver) insert(t Transaction, at int) {
	if at < 0 || at >= len(r.queue) {
		r.queue = append(r.queue, t)
		return
	}
	r.queue = append(r.queue, nil)
	copy(r.queue[at+1:], r.queue[at:])
	r.queue[at] = t
}
