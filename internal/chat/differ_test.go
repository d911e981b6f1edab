package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDifferFirstCallEmitsNothing(t *testing.T) {
	d := NewDiffer()

	events := d.Update("<PN>Alice:</>hello\n<PN>Bob:</>hi")
	assert.Empty(t, events, "pre-existing history must not be replayed")

	// The snapshot was stored: a new line now diffs against it
	events = d.Update("<PN>Alice:</>hello\n<PN>Bob:</>hi\n<PN>Alice:</>bye")
	require.Len(t, events, 1)
	assert.Equal(t, "Alice", events[0].Player)
	assert.Equal(t, "bye", events[0].Message)
}

func TestDifferIdenticalSnapshot(t *testing.T) {
	d := NewDiffer()
	d.Update("line one\nline two")

	events := d.Update("line one\nline two")
	assert.Empty(t, events)
}

func TestDifferAppendedLines(t *testing.T) {
	d := NewDiffer()
	d.Update("l1\nl2\nl3")

	// Buffer dropped l1 and gained l4, l5
	events := d.Update("l2\nl3\nl4\nl5")
	require.Len(t, events, 2)
	assert.Equal(t, "l4", events[0].Raw)
	assert.Equal(t, "l5", events[1].Raw)
}

func TestDifferDuplicateAnchorVerification(t *testing.T) {
	d := NewDiffer()
	d.Update("l1\nl1\nl2")

	// l2 does not recur, so the only anchor candidate is the true one
	events := d.Update("l1\nl1\nl2\nl3")
	require.Len(t, events, 1)
	assert.Equal(t, "l3", events[0].Raw)
}

func TestDifferRepeatedTailLine(t *testing.T) {
	d := NewDiffer()
	d.Update("l1\nl2")

	// l2 occurs twice in the new snapshot; the verified occurrence scanning
	// from the tail is the one preceded by l1
	events := d.Update("l1\nl2\nl3\nl2")
	require.Len(t, events, 2)
	assert.Equal(t, "l3", events[0].Raw)
	assert.Equal(t, "l2", events[1].Raw)
}

func TestDifferFullRotation(t *testing.T) {
	d := NewDiffer()
	d.Update("old1\nold2\nold3")

	// No overlap at all: everything counts as new
	events := d.Update("new1\nnew2")
	require.Len(t, events, 2)
	assert.Equal(t, "new1", events[0].Raw)
	assert.Equal(t, "new2", events[1].Raw)
}

func TestDifferEmptyInputKeepsSnapshot(t *testing.T) {
	d := NewDiffer()
	d.Update("l1\nl2")

	assert.Empty(t, d.Update(""))
	assert.Empty(t, d.Update("   \n\n"))

	// The old snapshot survived the empty dump
	events := d.Update("l1\nl2\nl3")
	require.Len(t, events, 1)
	assert.Equal(t, "l3", events[0].Raw)
}

func TestDifferNormalizesLineEndings(t *testing.T) {
	d := NewDiffer()
	d.Update("l1\r\nl2\r")

	events := d.Update("l1\r\nl2\r\nl3")
	require.Len(t, events, 1)
	assert.Equal(t, "l3", events[0].Raw)
}

func TestDiffShorterOldSnapshot(t *testing.T) {
	// Verification run is bounded by the shorter snapshot
	got := diff([]string{"l2"}, []string{"l1", "l2", "l3"})
	assert.Equal(t, []string{"l3"}, got)
}
