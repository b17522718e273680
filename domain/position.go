package domain

// Step is the gap left between consecutive positions when appending, so later
// moves can land between two neighbours without renumbering the column.
const Step int64 = 1024

// AppendPosition returns the position for a task added at the end of a column
// whose current last position is last, or nil when the column is empty.
func AppendPosition(last *int64) int64 {
	if last == nil {
		return Step
	}
	return *last + Step
}

// ReorderPosition returns the position for a task dropped between prev and
// next. Either neighbour may be nil: no prev means the start of the column,
// no next means the end.
//
// Keys are integers, so repeated moves into the same gap eventually run out of
// room. Once next-prev <= 1 the midpoint equals prev and the result is no
// longer distinct; see GapExhausted.
func ReorderPosition(prev, next *int64) int64 {
	switch {
	case prev != nil && next != nil:
		return midpoint(*prev, *next)
	case prev != nil:
		return *prev + Step
	case next != nil:
		return *next >> 1
	default:
		return Step
	}
}

// GapExhausted reports whether there is no free integer between prev and next,
// in which case ReorderPosition cannot produce a distinct key. It is false
// whenever either side is open.
func GapExhausted(prev, next *int64) bool {
	if prev == nil || next == nil {
		return false
	}
	return *next-*prev <= 1
}

// midpoint is floor((a+b)/2) without overflowing int64.
func midpoint(a, b int64) int64 {
	return a>>1 + b>>1 + a&b&1
}
