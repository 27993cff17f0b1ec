package reasoner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityForEntryClassification(t *testing.T) {
	assert.Equal(t, PriorityID, PriorityForEntry(TagConcept, false))
	assert.Equal(t, PriorityAnd, PriorityForEntry(TagAnd, false))
	assert.Equal(t, PriorityOr, PriorityForEntry(TagAnd, true))
	assert.Equal(t, PriorityForall, PriorityForEntry(TagForall, false))
	assert.Equal(t, PriorityLE, PriorityForEntry(TagLE, false))
	assert.Equal(t, PrioritySome, PriorityForEntry(TagLE, true))
	assert.Equal(t, PriorityNN, PriorityForEntry(TagReflexive, false))
}

func TestToDoQueueOrdersByPriority(t *testing.T) {
	q := NewToDoQueue(nil)
	q.AddEntry(1, 0, true, BP(10), TagAnd)  // PriorityOr polarity? false -> PriorityAnd (0)
	q.AddEntry(1, 1, true, BP(11), TagForall) // PriorityForall (1)
	q.AddEntry(1, 2, true, BP(12), TagConcept) // PriorityID (0)

	first, ok := q.GetNextEntry()
	require.True(t, ok)
	assert.True(t, first.bp == BP(10) || first.bp == BP(12), "lowest-priority bucket entries come first")

	second, ok := q.GetNextEntry()
	require.True(t, ok)
	assert.True(t, second.bp == BP(10) || second.bp == BP(12))
	assert.NotEqual(t, first.bp, second.bp)

	third, ok := q.GetNextEntry()
	require.True(t, ok)
	assert.Equal(t, BP(11), third.bp)

	_, ok = q.GetNextEntry()
	assert.False(t, ok)
}

func TestToDoQueueEmpty(t *testing.T) {
	q := NewToDoQueue(nil)
	assert.True(t, q.Empty())
	q.AddEntry(1, 0, true, BP(10), TagConcept)
	assert.False(t, q.Empty())
}

func TestToDoQueueSaveRestoreUndoesAddEntry(t *testing.T) {
	q := NewToDoQueue(nil)
	q.AddEntry(1, 0, true, BP(10), TagConcept)

	level := q.Save()
	q.AddEntry(1, 1, true, BP(11), TagConcept)
	assert.False(t, q.Empty())

	q.Restore(level - 1)

	item, ok := q.GetNextEntry()
	require.True(t, ok)
	assert.Equal(t, BP(10), item.bp)

	_, ok = q.GetNextEntry()
	assert.False(t, ok, "entry added after the saved level was undone by Restore")
}

func TestToDoQueueCustomPriorityTable(t *testing.T) {
	table := DefaultPriorityTable
	table[PriorityForall], table[PriorityAnd] = table[PriorityAnd], table[PriorityForall]
	q := NewToDoQueue(&table)

	q.AddEntry(1, 0, true, BP(10), TagAnd)
	q.AddEntry(1, 1, true, BP(11), TagForall)

	first, ok := q.GetNextEntry()
	require.True(t, ok)
	assert.Equal(t, BP(11), first.bp, "custom priority table reorders bucket dispatch")
}

func TestToDoQueueDispatchedEntryNeverReoffered(t *testing.T) {
	q := NewToDoQueue(nil)
	q.AddEntry(1, 0, true, BP(10), TagConcept)
	level := q.Save()
	_, ok := q.GetNextEntry()
	require.True(t, ok)

	q.Restore(level - 1)
	_, ok = q.GetNextEntry()
	assert.False(t, ok)
}
