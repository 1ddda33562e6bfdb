package scintsim

import (
	"fmt"
	"strconv"
	"sync"
)

// VolumeMap associates physical volume names with detector channel ids.
// It is shared by every worker once the geometry is built.
type VolumeMap struct {
	mu       sync.RWMutex
	channels map[string]int32
	warned   map[string]bool
}

func NewVolumeMap() *VolumeMap {
	return &VolumeMap{
		channels: make(map[string]int32),
		warned:   make(map[string]bool),
	}
}

// Set records the channel id of a volume.
func (v *VolumeMap) Set(volume string, channel int32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.channels[volume] = channel
}

// Lookup returns the explicit channel of a volume.
func (v *VolumeMap) Lookup(volume string) (int32, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	ch, ok := v.channels[volume]
	return ch, ok
}

// Channel returns the channel of volume. Volumes without an explicit id fall
// back to the digit at the end of their name ("scintPV2" -> 2). When that
// fails too the channel is -1 and a warning is logged once per volume.
func (v *VolumeMap) Channel(volume string) int32 {
	if ch, ok := v.Lookup(volume); ok {
		return ch
	}
	if ch, ok := trailingDigit(volume); ok {
		return ch
	}
	v.mu.Lock()
	first := !v.warned[volume]
	v.warned[volume] = true
	v.mu.Unlock()
	if first {
		logger.Warn(fmt.Sprintf("volume %q has no channel id and no trailing digit, using -1", volume), "volumes")
	}
	return -1
}

// Len is the number of volumes with an explicit channel.
func (v *VolumeMap) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.channels)
}

func trailingDigit(name string) (int32, bool) {
	if name == "" {
		return 0, false
	}
	n, err := strconv.Atoi(name[len(name)-1:])
	if err != nil {
		return 0, false
	}
	return int32(n), true
}
