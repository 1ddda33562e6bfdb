package scintsim

import (
	"errors"
	"fmt"
)

const SiPMCollection = "SiPMParticleCollection"

// SiPMSD records optical photons absorbed in a SiPM. Photons are also kept in
// a per-event list that feeds the binary photon stream and the response
// engine at the end of the event.
type SiPMSD struct {
	detectorBase
	particle  string
	process   string
	allocator *HitAllocator[PhotonHit]
	worker    WorkerID
	hc        *HitsCollection[PhotonHit]

	photons PhotonList
	nEvent  int32

	photonStream *PhotonStreamWriter
	gossipStream *GossipStreamWriter
	engine       ResponseEngine
}

// NewSiPMSD creates the photon detector. engine may be nil, in which case no
// response is simulated.
func NewSiPMSD(name string, engine ResponseEngine) *SiPMSD {
	sd := &SiPMSD{
		detectorBase: newDetectorBase(name, SiPMCollection),
		particle:     configuration.PhotonParticle,
		process:      configuration.PhotonProcess,
		allocator:    PhotonHitAllocator,
		engine:       engine,
	}
	if sd.particle == "" {
		sd.particle = "opticalphoton"
	}
	if sd.process == "" {
		sd.process = "OpAbsorption"
	}
	if engine != nil {
		engine.SetSampling(configuration.Sampling)
		engine.SetGate(configuration.Gate)
		engine.SetPreGate(configuration.PreGate)
	}
	return sd
}

func (sd *SiPMSD) SetAllocator(a *HitAllocator[PhotonHit]) {
	sd.allocator = a
}

// SetPhotonStream enables the binary photon output.
func (sd *SiPMSD) SetPhotonStream(w *PhotonStreamWriter) {
	sd.photonStream = w
}

// SetGossipStream enables the response-engine output. It has no effect
// without an engine.
func (sd *SiPMSD) SetGossipStream(w *GossipStreamWriter) {
	sd.gossipStream = w
}

// Photons returns the photon list of the current event.
func (sd *SiPMSD) Photons() PhotonList {
	return sd.photons
}

// EventCounter is the number of events closed by this detector.
func (sd *SiPMSD) EventCounter() int32 {
	return sd.nEvent
}

func (sd *SiPMSD) OnEventBegin(evt *Event) error {
	ids, err := sd.collectionIDs()
	if err != nil {
		return err
	}
	sd.worker = evt.Worker
	sd.hc = NewHitsCollection(sd.name, SiPMCollection, sd.allocator.Releaser(evt.Worker))
	evt.HCE.Add(ids[0], sd.hc)
	sd.photons.Clear()
	return nil
}

func (sd *SiPMSD) OnStep(step *Step) bool {
	if sd.hc == nil {
		return false
	}
	if step.Track.ParticleName != sd.particle {
		return false
	}
	if step.PostStepPoint.ProcessName != sd.process {
		return false
	}
	if !step.FirstStepInVolume {
		return false
	}

	pos := step.PostStepPoint.Position
	time := step.PostStepPoint.GlobalTime
	wavelength := Wavelength(step.Track.TotalEnergy)

	hit := sd.allocator.Allocate(sd.worker)
	hit.Pos = pos
	hit.Time = time
	hit.Wavelength = wavelength
	hit.VolumeName = step.Track.VolumeName
	sd.hc.Insert(hit)

	sd.photons.AddPhoton(pos.X/Mm, pos.Y/Mm, time/Ns, wavelength/Nm)
	return true
}

func (sd *SiPMSD) OnEventEnd(*Event) error {
	defer func() {
		sd.hc = nil
		sd.nEvent++
	}()

	if sd.photonStream != nil {
		if err := sd.photonStream.WriteEvent(sd.nEvent, sd.photons); err != nil {
			return err
		}
	}

	if sd.engine == nil || sd.gossipStream == nil {
		return nil
	}
	block := GossipBlock{
		EventIndex: sd.nEvent,
		Sampling:   sd.engine.Sampling(),
	}
	if len(sd.photons) > 0 {
		if err := sd.engine.Generate(sd.photons); err != nil {
			return fmt.Errorf("generating SiPM response for event %d: %w", sd.nEvent, err)
		}
		block.Charge = sd.engine.Charge()
		block.Amplitudes = sd.engine.Waveform()
	}
	return sd.gossipStream.WriteEvent(block)
}

func (sd *SiPMSD) Close() error {
	var errs []error
	if sd.photonStream != nil {
		if err := sd.photonStream.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing photon stream: %w", err))
		}
	}
	if sd.gossipStream != nil {
		if err := sd.gossipStream.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing gossip stream: %w", err))
		}
	}
	return errors.Join(errs...)
}
