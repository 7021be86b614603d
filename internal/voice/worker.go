package voice

import (
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"dynamisaudio/acoustic"
	"dynamisaudio/internal/simfeed"
)

// reflectionMaxDistanceM bounds the multi-hit ray fan cast toward the
// listener for early-reflection taps (spec §4.F duty 2).
const reflectionMaxDistanceM = 30.0

// reflectionFanDirections are lateral/vertical offsets, expressed in the
// local right/up frame built around the direct emitter-to-listener bearing,
// the worker casts its reflection fan along (see reflectionBasis and
// rotateAroundBearing). A small fixed fan keeps the per-interval ray budget
// bounded regardless of scene complexity.
var reflectionFanDirections = [4]acoustic.Vec3{
	{X: 1, Y: 0, Z: 0},
	{X: -1, Y: 0, Z: 0},
	{X: 0, Y: 1, Z: 0},
	{X: 0, Y: -1, Z: 0},
}

// reflectionBasis builds an orthonormal right/up pair perpendicular to
// bearing, so reflectionFanDirections' lateral/vertical offsets can be
// expressed relative to it regardless of the emitter's orientation in the
// scene. bearing must already be normalized.
func reflectionBasis(bearing acoustic.Vec3) (right, up acoustic.Vec3) {
	worldUp := acoustic.Vec3{X: 0, Y: 1, Z: 0}
	if math.Abs(bearing.Y) > 0.99 {
		worldUp = acoustic.Vec3{X: 1, Y: 0, Z: 0}
	}
	right = normalizeVec3(crossVec3(worldUp, bearing))
	up = crossVec3(bearing, right)
	return right, up
}

// rotateAroundBearing composes bearing with offset's lateral (X) and
// vertical (Y) components resolved against right/up, biasing the fan
// toward the listener while spreading it around that direction.
func rotateAroundBearing(bearing, right, up, offset acoustic.Vec3) acoustic.Vec3 {
	v := acoustic.Vec3{
		X: bearing.X + offset.X*right.X + offset.Y*up.X,
		Y: bearing.Y + offset.X*right.Y + offset.Y*up.Y,
		Z: bearing.Z + offset.X*right.Z + offset.Y*up.Z,
	}
	return normalizeVec3(v)
}

func crossVec3(a, b acoustic.Vec3) acoustic.Vec3 {
	return acoustic.Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func normalizeVec3(v acoustic.Vec3) acoustic.Vec3 {
	length := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if length < 1e-9 {
		return acoustic.Vec3{X: 0, Y: 0, Z: 1}
	}
	return acoustic.Vec3{X: v.X / length, Y: v.Y / length, Z: v.Z / length}
}

// Worker runs one emitter's cooperative lifecycle: it parks between work
// intervals and, each wake, updates the priority score and performs the
// per-interval duties (occlusion ray, reflection fan, reverb feed). Spec
// §5 requires cooperative parking with a bounded wake interval and no
// busy-loops; Worker uses a time.Ticker, mirroring the teacher's
// goroutine-per-duty loop shape (client/audio.go captureLoop/playbackLoop).
type Worker struct {
	emitter *Emitter

	interval time.Duration

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	errorCount atomic.Uint64
}

// NewWorker constructs a Worker for e, waking once every
// ScoreUpdateBlocks*DSPBlockSize/SampleRate seconds.
func NewWorker(e *Emitter) *Worker {
	intervalSeconds := float64(acoustic.ScoreUpdateBlocks) * float64(acoustic.DSPBlockSize) / float64(acoustic.SampleRate)
	return &Worker{
		emitter:  e,
		interval: time.Duration(intervalSeconds * float64(time.Second)),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the worker's cooperative loop in its own goroutine.
func (w *Worker) Start() {
	if !w.running.CompareAndSwap(false, true) {
		return
	}
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to exit its park cycle and waits for it to
// return. Safe to call multiple times.
func (w *Worker) Stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}
	close(w.stopCh)
	w.wg.Wait()
}

func (w *Worker) loop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			if w.emitter.State() == StateRelease || w.emitter.State() == StateInactive {
				continue
			}
			if err := w.safeTick(); err != nil {
				w.errorCount.Add(1)
				log.Printf("[voice] emitter %d worker error: %v", w.emitter.ID, err)
				w.emitter.Release()
			}
		}
	}
}

// ErrorCount returns the number of tick failures observed so far.
func (w *Worker) ErrorCount() uint64 { return w.errorCount.Load() }

// safeTick contains a panic from a misbehaving host collaborator (a
// RayBackend or SnapshotReader implementation) so one bad tick transitions
// only this emitter to RELEASE rather than taking down the worker pool
// (spec §7: render-adjacent code never propagates, it reports).
func (w *Worker) safeTick() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	w.tick()
	return nil
}

// tick performs one update interval's worth of work (spec §4.F
// "Per-interval duties").
func (w *Worker) tick() {
	e := w.emitter
	reader := e.SnapshotReader()
	back := e.BackParams()

	lx, ly, lz, haveListener := e.ListenerPose()
	if !haveListener {
		lx, ly, lz = 0, 0, 0
	}

	dx := lx - back.PositionX
	dy := ly - back.PositionY
	dz := lz - back.PositionZ
	distance := math.Sqrt(dx*dx + dy*dy + dz*dz)
	back.DistanceM = distance

	haveBearing := distance > 0
	dir := acoustic.Vec3{X: 0, Y: 0, Z: 1}
	if haveBearing {
		dir = acoustic.Vec3{X: dx / distance, Y: dy / distance, Z: dz / distance}
	}

	// Duty 1: emitter->listener occlusion ray.
	occlusion := acoustic.Bands{}
	if reader != nil && haveBearing {
		var hit acoustic.AcousticHit
		reader.TraceRay(acoustic.Vec3{X: back.PositionX, Y: back.PositionY, Z: back.PositionZ}, dir, distance, &hit)
		acc := simfeed.NewAccumulator()
		if hit.Hit {
			if mat, ok := reader.Material(hit.MaterialID); ok {
				acc.AccumulateDB(mat.TransmissionLossDB())
			}
		}
		occlusion = acc.Result()
	}
	back.OcclusionPerBand = occlusion

	// Duty 2: reflection fan, if a sink is wired.
	if sink := e.ReflectionSink(); sink != nil && reader != nil && haveBearing {
		taps := w.castReflectionFan(reader, back, dir)
		sink.SetTaps(taps)
	}

	// Duty 3: reverb feed, if the emitter has a room.
	if reader != nil {
		if room, ok := reader.Room(back.RoomID); ok {
			rt60 := simfeed.EstimateRT60(room.VolumeM3(), room.SurfaceAreaM2(), room.SabinsPerBand())
			meanRT60 := rt60.Mean()
			back.ReverbWetGain = simfeed.WetGain(distance, room.VolumeM3(), meanRT60)
		}
	}

	speed := math.Sqrt(back.VelocityX*back.VelocityX + back.VelocityY*back.VelocityY + back.VelocityZ*back.VelocityZ)
	score := ComputeScore(ScoreInputs{
		DistanceM:     distance,
		MasterGain:    back.MasterGain,
		SpeedMPS:      speed,
		Importance:    e.Importance,
		MeanOcclusion: occlusion.Mean(),
	})
	e.setScore(score)

	e.PublishParams(back)
}

// castReflectionFan casts the reflection fan around bearing, the
// normalized emitter-to-listener direction: each fixed reflectionFanDirections
// offset is applied in the local right/up frame built around bearing, so the
// fan always points toward the listener instead of along fixed world axes.
func (w *Worker) castReflectionFan(reader SnapshotReader, back Params, bearing acoustic.Vec3) []ReflectionTap {
	origin := acoustic.Vec3{X: back.PositionX, Y: back.PositionY, Z: back.PositionZ}
	buf := acoustic.NewAcousticHitBuffer(6)
	right, up := reflectionBasis(bearing)

	taps := make([]ReflectionTap, 0, len(reflectionFanDirections))
	for _, offset := range reflectionFanDirections {
		d := rotateAroundBearing(bearing, right, up, offset)
		buf.Reset()
		reader.TraceRayMulti(origin, d, reflectionMaxDistanceM, buf)
		for _, hit := range buf.Hits() {
			gain := 1 - hit.Distance/reflectionMaxDistanceM
			if gain < 0 {
				gain = 0
			}
			taps = append(taps, ReflectionTap{
				DistanceM:    hit.Distance,
				Gain:         gain,
				DelaySamples: int(hit.Distance / acoustic.SpeedOfSoundMPS * acoustic.SampleRate),
			})
		}
	}
	return taps
}
