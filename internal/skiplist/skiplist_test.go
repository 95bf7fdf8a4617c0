package skiplist

import (
	"bytes"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydb/quarry/internal/arena"
)

func newTestList(t *testing.T) *List {
	t.Helper()
	return New(bytes.Compare, arena.New(4096), DefaultMaxHeight, DefaultBranching)
}

func TestInsertAndContains(t *testing.T) {
	l := newTestList(t)

	keys := []string{"delta", "alpha", "charlie", "bravo"}
	for _, k := range keys {
		l.Insert([]byte(k))
	}

	for _, k := range keys {
		assert.True(t, l.Contains([]byte(k)), "missing %q", k)
	}
	assert.False(t, l.Contains([]byte("echo")))
}

func TestIteratorForwardOrder(t *testing.T) {
	l := newTestList(t)
	for _, k := range []string{"c", "a", "d", "b"} {
		l.Insert([]byte(k))
	}

	it := l.NewIterator()
	var got []string
	for it.SeekToFirst(); it.Valid(); it.Next() {
		got = append(got, string(it.Key()))
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestIteratorSeekAndPrev(t *testing.T) {
	l := newTestList(t)
	for _, k := range []string{"a", "c", "e"} {
		l.Insert([]byte(k))
	}

	it := l.NewIterator()
	it.Seek([]byte("b"))
	require.True(t, it.Valid())
	assert.Equal(t, "c", string(it.Key()))

	it.Prev()
	require.True(t, it.Valid())
	assert.Equal(t, "a", string(it.Key()))

	// Prev off the front invalidates.
	it.Prev()
	assert.False(t, it.Valid())

	it.Seek([]byte("f"))
	assert.False(t, it.Valid())

	it.SeekToLast()
	require.True(t, it.Valid())
	assert.Equal(t, "e", string(it.Key()))
}

func TestIteratorContractViolationsPanic(t *testing.T) {
	l := newTestList(t)
	it := l.NewIterator()

	assert.Panics(t, func() { it.Key() })
	assert.Panics(t, func() { it.Next() })
	assert.Panics(t, func() { it.Prev() })
}

func TestSetListRebinds(t *testing.T) {
	l1 := newTestList(t)
	l2 := newTestList(t)
	l1.Insert([]byte("one"))
	l2.Insert([]byte("two"))

	it := l1.NewIterator()
	it.SeekToFirst()
	require.True(t, it.Valid())
	assert.Equal(t, "one", string(it.Key()))

	it.SetList(l2)
	assert.False(t, it.Valid())
	it.SeekToFirst()
	require.True(t, it.Valid())
	assert.Equal(t, "two", string(it.Key()))

	it.SetList(nil)
	it.SeekToFirst()
	assert.False(t, it.Valid())
}

func TestLargeOrderedInsert(t *testing.T) {
	l := New(bytes.Compare, arena.New(0), 12, 4)

	const n = 2000
	perm := rand.New(rand.NewSource(1)).Perm(n)
	for _, i := range perm {
		l.Insert([]byte(fmt.Sprintf("key-%06d", i)))
	}

	it := l.NewIterator()
	i := 0
	for it.SeekToFirst(); it.Valid(); it.Next() {
		assert.Equal(t, fmt.Sprintf("key-%06d", i), string(it.Key()))
		i++
	}
	assert.Equal(t, n, i)
}

// One writer appends while readers iterate; readers must always observe a
// sorted prefix of the inserted keys and never a torn node.
func TestConcurrentReadersSingleWriter(t *testing.T) {
	l := New(bytes.Compare, arena.New(0), 8, 4)

	const n = 5000
	var wg sync.WaitGroup
	stop := make(chan struct{})

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				it := l.NewIterator()
				prev := []byte(nil)
				count := 0
				for it.SeekToFirst(); it.Valid(); it.Next() {
					k := it.Key()
					if prev != nil && bytes.Compare(prev, k) >= 0 {
						t.Errorf("out of order: %q then %q", prev, k)
						return
					}
					prev = k
					count++
				}
				if count > n {
					t.Errorf("saw %d keys, inserted at most %d", count, n)
					return
				}
			}
		}()
	}

	for i := 0; i < n; i++ {
		l.Insert([]byte(fmt.Sprintf("key-%06d", i)))
	}
	close(stop)
	wg.Wait()
}
