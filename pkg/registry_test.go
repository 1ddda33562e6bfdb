package scintsim

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryStableIDs(t *testing.T) {
	r := NewRegistry()
	a := r.Register("scintillators/ScintParticleCollection")
	b := r.Register("Scintillator0/Edep")

	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, a, r.Register("scintillators/ScintParticleCollection"))
	assert.Equal(t, 2, r.Len())

	name, ok := r.Name(b)
	require.True(t, ok)
	assert.Equal(t, "Scintillator0/Edep", name)
	_, ok = r.Name(5)
	assert.False(t, ok)
}

func TestRegistryResolveUnknown(t *testing.T) {
	r := NewRegistry()
	r.Register("sipm/SiPMParticleCollection")

	id, err := r.Resolve("sipm/SiPMParticleCollection")
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	_, err = r.Resolve("Scintillator9/Edep")
	var unknown *ErrUnknownCollection
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Scintillator9/Edep", unknown.Name)
}

func TestRegistryConcurrentRegister(t *testing.T) {
	r := NewRegistry()
	names := []string{"a/x", "b/y", "c/z"}
	ids := make([][]int, 8)

	var wg sync.WaitGroup
	for w := range ids {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for _, n := range names {
				ids[w] = append(ids[w], r.Register(n))
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, len(names), r.Len())
	for w := 1; w < len(ids); w++ {
		assert.Equal(t, ids[0], ids[w])
	}
}

func TestRegistryCollectionsOf(t *testing.T) {
	r := NewRegistry()
	r.Register("Scintillator1/nGamma")
	r.Register("Scintillator1/Edep")
	r.Register("Scintillator10/Edep")
	r.Register("sipm/SiPMParticleCollection")

	assert.Equal(t, []string{"Scintillator1/Edep", "Scintillator1/nGamma"}, r.CollectionsOf("Scintillator1"))
	assert.Empty(t, r.CollectionsOf("absorber"))
}

func TestIDCacheResolvesOncePerGeneration(t *testing.T) {
	r := NewRegistry()
	r.Register("a/x")
	r.Register("b/y")

	var cache idCache
	ids, err := cache.resolve(r, []string{"b/y", "a/x"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, ids)

	// Registering more names does not invalidate cached ids.
	r.Register("c/z")
	again, err := cache.resolve(r, []string{"b/y", "a/x"})
	require.NoError(t, err)
	assert.Equal(t, ids, again)

	r.Reset()
	assert.Equal(t, uint64(1), r.Generation())
	_, err = cache.resolve(r, []string{"b/y", "a/x"})
	require.Error(t, err)

	r.Register("a/x")
	r.Register("b/y")
	ids, err = cache.resolve(r, []string{"b/y", "a/x"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, ids)
}

func TestHitsCollectionsSlots(t *testing.T) {
	hce := NewHitsCollections()
	hce.Add(3, NewHitsMap("d", "m"))
	hce.Add(-1, NewHitsMap("d", "n"))

	assert.Equal(t, 1, hce.Len())
	assert.Nil(t, hce.Get(0))
	assert.Nil(t, hce.Get(10))
	assert.Equal(t, "d/m", hce.Get(3).(*HitsMap).Name())

	hce.Release()
	assert.Equal(t, 0, hce.Len())
}

func ExampleLogicalName() {
	fmt.Println(LogicalName("Scintillator2", "Edep"))
	// Output: Scintillator2/Edep
}
