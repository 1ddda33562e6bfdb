package scintsim

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreeListReusesStorage(t *testing.T) {
	pool := NewFreeList[ScintillatorHit](4)
	assert.Equal(t, 0, pool.Capacity())

	hit := pool.Allocate()
	hit.Edep = 3
	hit.TrackID = 7
	assert.Equal(t, 4, pool.Capacity())
	assert.Equal(t, 1, pool.InUse())

	pool.Release(hit)
	assert.Equal(t, 0, pool.InUse())
	assert.Zero(t, *hit)

	again := pool.Allocate()
	assert.Same(t, hit, again)
	assert.Zero(t, *again)
}

func TestFreeListGrowsByBlocks(t *testing.T) {
	pool := NewFreeList[PhotonHit](2)
	for i := 0; i < 5; i++ {
		pool.Allocate()
	}
	assert.Equal(t, 6, pool.Capacity())
	assert.Equal(t, 5, pool.InUse())

	assert.Equal(t, defaultBlockSize, NewFreeList[PhotonHit](0).blockSize)
}

func TestHitAllocatorAcrossEvents(t *testing.T) {
	allocator := NewHitAllocator[ScintillatorHit](8)
	worker := WorkerID(3)

	first := map[*ScintillatorHit]bool{}
	for i := 0; i < 5; i++ {
		first[allocator.Allocate(worker)] = true
	}
	for h := range first {
		allocator.Release(worker, h)
	}
	assert.Equal(t, 0, allocator.Pool(worker).InUse())

	for i := 0; i < 5; i++ {
		assert.True(t, first[allocator.Allocate(worker)], "second event must reuse released storage")
	}
	assert.Equal(t, 8, allocator.Pool(worker).Capacity())
}

func TestHitAllocatorPoolsPerWorker(t *testing.T) {
	allocator := NewHitAllocator[PhotonHit](16)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(id WorkerID) {
			defer wg.Done()
			var hits []*PhotonHit
			for i := 0; i < 100; i++ {
				hits = append(hits, allocator.Allocate(id))
			}
			for _, h := range hits {
				allocator.Release(id, h)
			}
		}(WorkerID(w))
	}
	wg.Wait()

	for w := 0; w < 4; w++ {
		pool := allocator.Pool(WorkerID(w))
		assert.Equal(t, 0, pool.InUse())
		assert.Equal(t, 112, pool.Capacity())
	}
	assert.NotSame(t, allocator.Pool(0), allocator.Pool(1))
}

func TestHitAllocatorReleaseWithoutPool(t *testing.T) {
	allocator := NewHitAllocator[ScintillatorHit](4)
	hit := allocator.Allocate(0)

	assert.Panics(t, func() { allocator.Release(1, hit) })

	allocator.Destroy(0)
	assert.Panics(t, func() { allocator.Release(0, hit) })
}

func TestHitAllocatorReleaser(t *testing.T) {
	allocator := NewHitAllocator[ScintillatorHit](4)
	hc := NewHitsCollection("det", "col", allocator.Releaser(2))
	hc.Insert(allocator.Allocate(2))
	hc.Insert(allocator.Allocate(2))
	require.Equal(t, 2, allocator.Pool(2).InUse())

	hc.release()
	assert.Equal(t, 0, allocator.Pool(2).InUse())
	assert.Equal(t, 0, hc.Entries())
}
