package scintsim

const ScintillatorCollection = "ScintParticleCollection"

// ScintillatorSD records the first step of every track of the configured
// particle type that deposits energy in a scintillator volume.
type ScintillatorSD struct {
	detectorBase
	particle  string
	volumes   *VolumeMap
	allocator *HitAllocator[ScintillatorHit]
	worker    WorkerID
	hc        *HitsCollection[ScintillatorHit]
}

func NewScintillatorSD(name string, particle string, volumes *VolumeMap) *ScintillatorSD {
	if volumes == nil {
		volumes = NewVolumeMap()
	}
	return &ScintillatorSD{
		detectorBase: newDetectorBase(name, ScintillatorCollection),
		particle:     particle,
		volumes:      volumes,
		allocator:    ScintillatorHitAllocator,
	}
}

// SetAllocator replaces the allocator hits are drawn from.
func (sd *ScintillatorSD) SetAllocator(a *HitAllocator[ScintillatorHit]) {
	sd.allocator = a
}

func (sd *ScintillatorSD) OnEventBegin(evt *Event) error {
	ids, err := sd.collectionIDs()
	if err != nil {
		return err
	}
	sd.worker = evt.Worker
	sd.hc = NewHitsCollection(sd.name, ScintillatorCollection, sd.allocator.Releaser(evt.Worker))
	evt.HCE.Add(ids[0], sd.hc)
	return nil
}

func (sd *ScintillatorSD) OnStep(step *Step) bool {
	if sd.hc == nil {
		return false
	}
	track := &step.Track
	if track.ParticleName != sd.particle || !step.FirstStepInVolume {
		return false
	}
	if step.TotalEnergyDeposit == 0 {
		return false
	}

	hit := sd.allocator.Allocate(sd.worker)
	hit.DetectorID = sd.volumes.Channel(track.VolumeName)
	hit.VolumeName = track.VolumeName
	hit.ParticleName = track.ParticleName
	hit.ParentID = track.ParentID
	hit.TrackID = track.TrackID
	hit.Edep = step.TotalEnergyDeposit
	hit.Energy = track.TotalEnergy
	hit.Pos = step.PostStepPoint.Position
	// Global time is counted from the start of the event.
	hit.Time = step.PostStepPoint.GlobalTime
	hit.LocalTime = step.PostStepPoint.GlobalTime
	hit.TrackLength = track.TrackLength + step.StepLength

	sd.hc.Insert(hit)
	return true
}

func (sd *ScintillatorSD) OnEventEnd(*Event) error {
	sd.hc = nil
	return nil
}
