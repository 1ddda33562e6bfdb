package scintsim

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
)

type VolumeMapSuite struct {
	suite.Suite
	log      *recordLogger
	previous Configuration
	volumes  *VolumeMap
}

func (s *VolumeMapSuite) SetupTest() {
	s.previous = GetConfiguration()
	s.log = &recordLogger{}
	SetLogger(s.log)
	s.volumes = DefaultGeometry().VolumeMap()
}

func (s *VolumeMapSuite) TearDownTest() {
	SetConfiguration(s.previous)
	SetLogger(nil)
}

func (s *VolumeMapSuite) TestExplicitChannels() {
	s.Equal(4, s.volumes.Len())
	for i, name := range []string{"scintPV0", "scintPV1", "scintPV2"} {
		s.Equal(int32(i), s.volumes.Channel(name))
	}
	s.Empty(s.log.messages("warn"))
}

func (s *VolumeMapSuite) TestOverrideWinsOverName() {
	s.volumes.Set("scintPV2", 7)
	s.Equal(int32(7), s.volumes.Channel("scintPV2"))
}

func (s *VolumeMapSuite) TestTrailingDigitFallback() {
	s.Equal(int32(3), s.volumes.Channel("extraPV3"))
	_, ok := s.volumes.Lookup("extraPV3")
	s.False(ok)
}

func (s *VolumeMapSuite) TestUnknownWarnsOnce() {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Equal(int32(-1), s.volumes.Channel("absorberPV"))
		}()
	}
	wg.Wait()
	s.Equal(int32(-1), s.volumes.Channel(""))
	s.Len(s.log.messages("warn"), 2)
}

func TestVolumeMapSuite(t *testing.T) {
	suite.Run(t, new(VolumeMapSuite))
}
