package arena

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArenaAllocate(t *testing.T) {
	a := New(1024)

	b1 := a.Allocate(10)
	b2 := a.Allocate(20)
	assert.Len(t, b1, 10)
	assert.Len(t, b2, 20)
	assert.Equal(t, int64(30), a.MemoryUsage())

	// Allocations must not alias each other.
	for i := range b1 {
		b1[i] = 0xAA
	}
	for _, c := range b2 {
		assert.Zero(t, c)
	}
}

func TestArenaAppend(t *testing.T) {
	a := New(0)
	src := []byte("record bytes")
	cp := a.Append(src)
	assert.Equal(t, src, cp)
	src[0] = 'X'
	assert.Equal(t, byte('r'), cp[0])
}

func TestArenaOversizedAllocation(t *testing.T) {
	a := New(256)
	big := a.Allocate(4096)
	assert.Len(t, big, 4096)
	assert.Equal(t, int64(4096), a.MemoryUsage())
}

func TestArenaConcurrentAllocate(t *testing.T) {
	a := New(1024)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				buf := a.Allocate(16)
				for k := range buf {
					buf[k] = byte(j)
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(8*100*16), a.MemoryUsage())
}
