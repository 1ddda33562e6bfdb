package scintsim

import (
	"fmt"
	"sync"
)

// WorkerID identifies the worker thread an allocator pool belongs to.
type WorkerID int

const defaultBlockSize = 256

// FreeList is a fixed-size block pool for one hit type. It is not safe for
// concurrent use; each worker owns its own.
type FreeList[T any] struct {
	blockSize int
	free      []*T
	blocks    int
	inUse     int
}

func NewFreeList[T any](blockSize int) *FreeList[T] {
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	return &FreeList[T]{blockSize: blockSize}
}

// Allocate returns zeroed storage for one T, growing the pool by one block when
// the free list is empty.
func (f *FreeList[T]) Allocate() *T {
	if len(f.free) == 0 {
		f.grow()
	}
	n := len(f.free) - 1
	item := f.free[n]
	f.free[n] = nil
	f.free = f.free[:n]
	f.inUse++
	return item
}

func (f *FreeList[T]) grow() {
	block := make([]T, f.blockSize)
	for i := len(block) - 1; i >= 0; i-- {
		f.free = append(f.free, &block[i])
	}
	f.blocks++
}

// Release zeroes item and puts it back on the free list.
func (f *FreeList[T]) Release(item *T) {
	if item == nil {
		return
	}
	var zero T
	*item = zero
	f.free = append(f.free, item)
	f.inUse--
}

// InUse is the number of items handed out and not yet released.
func (f *FreeList[T]) InUse() int { return f.inUse }

// Capacity is the total number of items the pool owns.
func (f *FreeList[T]) Capacity() int { return f.blocks * f.blockSize }

// HitAllocator keeps one FreeList per worker. The map is guarded, the lists
// themselves are only touched by their owning worker.
type HitAllocator[T any] struct {
	mu        sync.Mutex
	blockSize int
	pools     map[WorkerID]*FreeList[T]
}

func NewHitAllocator[T any](blockSize int) *HitAllocator[T] {
	return &HitAllocator[T]{
		blockSize: blockSize,
		pools:     make(map[WorkerID]*FreeList[T]),
	}
}

// Pool returns the worker's free list, creating it on first use.
func (a *HitAllocator[T]) Pool(worker WorkerID) *FreeList[T] {
	a.mu.Lock()
	defer a.mu.Unlock()
	pool, ok := a.pools[worker]
	if !ok {
		pool = NewFreeList[T](a.blockSize)
		a.pools[worker] = pool
	}
	return pool
}

func (a *HitAllocator[T]) Allocate(worker WorkerID) *T {
	return a.Pool(worker).Allocate()
}

// Release returns item to the worker's pool. Releasing on a worker that never
// allocated, or whose pool was destroyed, panics.
func (a *HitAllocator[T]) Release(worker WorkerID, item *T) {
	a.mu.Lock()
	pool, ok := a.pools[worker]
	a.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("hit allocator: release on worker %d without a pool", worker))
	}
	pool.Release(item)
}

// Destroy drops the worker's pool.
func (a *HitAllocator[T]) Destroy(worker WorkerID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.pools, worker)
}

// Releaser binds Release to one worker, for use as a collection's free func.
func (a *HitAllocator[T]) Releaser(worker WorkerID) func(*T) {
	return func(item *T) {
		a.Release(worker, item)
	}
}

var (
	ScintillatorHitAllocator = NewHitAllocator[ScintillatorHit](defaultBlockSize)
	PhotonHitAllocator       = NewHitAllocator[PhotonHit](defaultBlockSize)
)
