package transaction

import "bytes"

type lineOpType int

const (
	lineKeep lineOpType = iota
	lineAdd
	lineDelete
)

type lineOp struct {
	opType   lineOpType
	oldIndex int
	newIndex int
}

// hunk is a changed region of the old text: old bytes [oldStart, oldEnd)
// become newText.
type hunk struct {
	oldStart int
	oldEnd   int
	newText  []byte
}

func splitLinesKeepEOL(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}
	return bytes.SplitAfter(data, []byte("\n"))
}

func trimEmptyTail(lines [][]byte) [][]byte {
	if n := len(lines); n > 0 && len(lines[n-1]) == 0 {
		return lines[:n-1]
	}
	return lines
}

// diffHunks computes the changed line regions between base and target.
func diffHunks(base, target []byte) []hunk {
	baseLines := trimEmptyTail(splitLinesKeepEOL(base))
	targetLines := trimEmptyTail(splitLinesKeepEOL(target))

	ops := editScript(baseLines, targetLines)
	return collectHunks(ops, baseLines, targetLines)
}

func editScript(base, target [][]byte) []lineOp {
	n, m := len(base), len(target)
	if n == 0 && m == 0 {
		return nil
	}
	if n == 0 {
		return allAdds(m)
	}
	if m == 0 {
		return allDeletes(n)
	}
	return myers(base, target)
}

func allAdds(m int) []lineOp {
	ops := make([]lineOp, m)
	for i := 0; i < m; i++ {
		ops[i] = lineOp{opType: lineAdd, newIndex: i}
	}
	return ops
}

func allDeletes(n int) []lineOp {
	ops := make([]lineOp, n)
	for i := 0; i < n; i++ {
		ops[i] = lineOp{opType: lineDelete, oldIndex: i}
	}
	return ops
}

func myers(base, target [][]byte) []lineOp {
	n, m := len(base), len(target)
	max := n + m
	offset := max
	v := make([]int, 2*max+1)
	var trace [][]int

	for depth := 0; depth <= max; depth++ {
		snapshot := make([]int, len(v))
		copy(snapshot, v)
		trace = append(trace, snapshot)

		for k := -depth; k <= depth; k += 2 {
			x := nextX(v, offset, k, depth)
			y := x - k
			for x < n && y < m && bytes.Equal(base[x], target[y]) {
				x++
				y++
			}
			v[offset+k] = x
			if x >= n && y >= m {
				return backtrack(trace, n, m, offset)
			}
		}
	}
	return nil
}

func nextX(v []int, offset, k, depth int) int {
	if k == -depth || (k != depth && v[offset+k-1] < v[offset+k+1]) {
		return v[offset+k+1]
	}
	return v[offset+k-1] + 1
}

func backtrack(trace [][]int, n, m, offset int) []lineOp {
	ops := make([]lineOp, 0, n+m)
	x, y := n, m

	for depth := len(trace) - 1; depth > 0; depth-- {
		vPrev := trace[depth]
		k := x - y
		prevK := previousK(vPrev, offset, k, depth)
		prevX := vPrev[offset+prevK]
		prevY := prevX - prevK

		afterX, afterY := prevX, prevY+1
		if prevK < k {
			afterX, afterY = prevX+1, prevY
		}
		ops = appendKeeps(ops, x, y, afterX, afterY)
		x, y = afterX, afterY

		if prevK < k {
			x--
			ops = append(ops, lineOp{opType: lineDelete, oldIndex: x})
		} else {
			y--
			ops = append(ops, lineOp{opType: lineAdd, newIndex: y})
		}
	}

	ops = appendKeeps(ops, x, y, 0, 0)
	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
	return ops
}

func previousK(v []int, offset, k, depth int) int {
	if k == -depth {
		return k + 1
	}
	if k == depth {
		return k - 1
	}
	if v[offset+k-1] < v[offset+k+1] {
		return k + 1
	}
	return k - 1
}

func appendKeeps(ops []lineOp, x, y, prevX, prevY int) []lineOp {
	for x > prevX && y > prevY {
		x--
		y--
		ops = append(ops, lineOp{opType: lineKeep, oldIndex: x, newIndex: y})
	}
	return ops
}

func collectHunks(ops []lineOp, base, target [][]byte) []hunk {
	offsets := lineOffsets(base)

	var hunks []hunk
	var current *hunk
	consumed := 0

	flush := func() {
		if current != nil {
			hunks = append(hunks, *current)
			current = nil
		}
	}
	open := func() {
		if current == nil {
			pos := offsets[consumed]
			current = &hunk{oldStart: pos, oldEnd: pos}
		}
	}

	for _, op := range ops {
		switch op.opType {
		case lineKeep:
			flush()
			consumed++
		case lineDelete:
			open()
			consumed++
			current.oldEnd = offsets[consumed]
		case lineAdd:
			open()
			current.newText = append(current.newText, target[op.newIndex]...)
		}
	}
	flush()
	return hunks
}

// lineOffsets returns the byte offset of every line start plus the total length.
func lineOffsets(lines [][]byte) []int {
	offsets := make([]int, len(lines)+1)
	for i, line := range lines {
		offsets[i+1] = offsets[i] + len(line)
	}
	return offsets
}
