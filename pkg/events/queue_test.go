package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReader_ReadsEachMessageOnce(t *testing.T) {
	q := NewQueue[string]()
	r := q.Reader()

	q.Send("a")
	q.Send("b")

	assert.Equal(t, []string{"a", "b"}, r.Read())
	assert.Empty(t, r.Read())

	q.Send("c")
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, []string{"c"}, r.Read())
	assert.True(t, r.IsEmpty())
}

func TestReader_IndependentCursors(t *testing.T) {
	q := NewQueue[int]()
	first := q.Reader()
	second := q.Reader()

	q.Send(1)
	assert.Equal(t, []int{1}, first.Read())

	q.Send(2)
	assert.Equal(t, []int{1, 2}, second.Read())
	assert.Equal(t, []int{2}, first.Read())
}

func TestQueue_UpdateKeepsOneCycle(t *testing.T) {
	q := NewQueue[string]()
	q.Send("old")
	assert.Equal(t, 1, q.SentThisCycle())

	q.Update()
	assert.Equal(t, 1, q.Len(), "message must survive the cycle after it was sent")
	assert.Equal(t, 0, q.SentThisCycle())

	late := q.Reader()
	q.Update()
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, late.Read(), "dropped messages are skipped")
}

func TestReader_Clear(t *testing.T) {
	q := NewQueue[string]()
	r := q.Reader()
	q.Send("x")
	r.Clear()
	assert.True(t, r.IsEmpty())

	q.Send("y")
	assert.Equal(t, []string{"y"}, r.Read())
}

func TestQueue_NewReaderSeesBufferedMessages(t *testing.T) {
	q := NewQueue[string]()
	q.Send("buffered")
	assert.Equal(t, []string{"buffered"}, q.Reader().Read())
}
