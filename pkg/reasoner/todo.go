package reasoner

// ToDoPriority indexes the priority table used to order ToDo buckets.
// Lower numeric priority is popped first. requires at minimum
// these seven buckets; the table itself is injected at construction so no
// virtual "tactic class" hierarchy is needed.
type ToDoPriority int

const (
	PriorityID ToDoPriority = iota
	PriorityAnd
	PriorityOr
	PrioritySome
	PriorityForall
	PriorityLE
	PriorityNN
	numPriorities
)

// DefaultPriorityTable orders entries by the standard tableau tactic
// preference: unfold named concepts and conjunctions first
// (deterministic, cheap), then universal propagation, then
// non-deterministic choices (OR, at-most/NN) last, since they are the
// only rules that create a branch point.
var DefaultPriorityTable = [numPriorities]int{
	PriorityID:     0,
	PriorityAnd:    0,
	PriorityForall: 1,
	PrioritySome:   2,
	PriorityLE:     3,
	PriorityNN:     3,
	PriorityOr:     4,
}

// PriorityForEntry classifies a (tag, polarity) pair into its ToDo
// bucket. And/LE vertices are shared between two logical connectives via
// polarity (De Morgan for And/Or, at-most/at-least for LE), so the
// bucket depends on both the tag and whether bp is negative.
func PriorityForEntry(tag VertexTag, negative bool) ToDoPriority {
	switch tag {
	case TagConcept, TagSingleton, TagTop:
		return PriorityID
	case TagAnd, TagCollection:
		if negative {
			return PriorityOr
		}
		return PriorityAnd
	case TagForall:
		return PriorityForall
	case TagLE:
		if negative {
			return PrioritySome
		}
		return PriorityLE
	case TagReflexive, TagProjection:
		return PriorityNN
	default:
		return PriorityOr
	}
}

// todoItem is one unexpanded label entry: a (node, offset-into-label)
// pair, classified by the referenced concept's tag.
type todoItem struct {
	node   int
	offset int
	simple bool // true if offset indexes node.Simple, false for node.Complex
	bp     BP
}

// todoJournalOp undoes one ToDoQueue mutation, mirroring
// CompletionGraph's journal so that save/restore stay in lockstep
//.
type todoJournalOp struct {
	level int
	undo  func(q *ToDoQueue)
}

// ToDoQueue is a collection of priority buckets of unexpanded label
// entries. getNextEntry pops from the non-empty bucket with the lowest
// value in the injected priority table (the lowest index among ties).
type ToDoQueue struct {
	buckets  [numPriorities][]todoItem
	priority [numPriorities]int
	journal  []todoJournalOp
	level    int
}

// NewToDoQueue returns an empty queue using table for bucket ordering.
// If table is nil, DefaultPriorityTable is used.
func NewToDoQueue(table *[numPriorities]int) *ToDoQueue {
	q := &ToDoQueue{}
	if table != nil {
		q.priority = *table
	} else {
		q.priority = DefaultPriorityTable
	}
	return q
}

func (q *ToDoQueue) record(undo func(q *ToDoQueue)) {
	q.journal = append(q.journal, todoJournalOp{level: q.level, undo: undo})
}

// AddEntry appends an unexpanded (node, bp) pair into the bucket
// determined by tag.
func (q *ToDoQueue) AddEntry(node int, offset int, simple bool, bp BP, tag VertexTag) {
	b := PriorityForEntry(tag, bp.IsNegative())
	q.buckets[b] = append(q.buckets[b], todoItem{node: node, offset: offset, simple: simple, bp: bp})
	idx := len(q.buckets[b]) - 1
	q.record(func(qr *ToDoQueue) {
		qr.buckets[b] = qr.buckets[b][:idx]
	})
}

// GetNextEntry pops and returns the highest-priority non-empty entry and
// true, or the zero value and false if the queue is empty. The pop is not
// journalled: once an entry starts expansion it is gone regardless of
// later backtracking to a level before it was popped — the queue never
// re-offers an already-dispatched entry; backtracking instead re-derives
// fresh entries via addToDoEntry.
func (q *ToDoQueue) GetNextEntry() (todoItem, bool) {
	best := -1
	for b := 0; b < int(numPriorities); b++ {
		if len(q.buckets[b]) == 0 {
			continue
		}
		if best == -1 || q.priority[b] < q.priority[best] {
			best = b
		}
	}
	if best == -1 {
		return todoItem{}, false
	}
	item := q.buckets[best][0]
	q.buckets[best] = q.buckets[best][1:]
	return item, true
}

// Empty reports whether every bucket is empty.
func (q *ToDoQueue) Empty() bool {
	for b := range q.buckets {
		if len(q.buckets[b]) > 0 {
			return false
		}
	}
	return true
}

// Save increments the level and returns it, mirroring
// CompletionGraph.Save.
func (q *ToDoQueue) Save() int {
	q.level++
	return q.level
}

// Restore undoes every AddEntry recorded above target, then sets the
// current level to target.
func (q *ToDoQueue) Restore(target int) {
	for len(q.journal) > 0 {
		last := q.journal[len(q.journal)-1]
		if last.level <= target {
			break
		}
		last.undo(q)
		q.journal = q.journal[:len(q.journal)-1]
	}
	q.level = target
}
