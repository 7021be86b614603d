package simfeed

// LinearResample fills out with len(out) samples resampled from in, where
// in is understood to span the same time window as out scaled by ratio =
// srcRate/dstRate. It is stateless: position 0 of out always maps to
// position 0 of in. Streaming callers needing continuity across blocks use
// Resampler instead.
func LinearResample(in []float32, out []float32, ratio float64) {
	if len(in) == 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}
	for i := range out {
		srcPos := float64(i) * ratio
		sampleLinear(in, srcPos, &out[i])
	}
}

func sampleLinear(in []float32, srcPos float64, dst *float32) {
	i0 := int(srcPos)
	if i0 >= len(in)-1 {
		*dst = in[len(in)-1]
		return
	}
	if i0 < 0 {
		*dst = in[0]
		return
	}
	frac := float32(srcPos - float64(i0))
	*dst = in[i0] + (in[i0+1]-in[i0])*frac
}

// FramesRequired returns how many input frames must be available to
// produce outFrames output frames at the given ratio (srcRate/dstRate),
// rounding up so the resampler never reads past the end of a short block.
func FramesRequired(outFrames int, ratio float64) int {
	if outFrames <= 0 {
		return 0
	}
	last := float64(outFrames-1) * ratio
	need := int(last) + 2
	if need < 1 {
		return 1
	}
	return need
}

// Resampler is an allocation-free streaming linear resampler: it carries a
// fractional source position and the final sample of the previous block
// across successive Process calls so a stream split into fixed-size
// blocks resamples identically to one large call. Process never allocates
// (spec §4.E, §7: render-thread code must not allocate).
type Resampler struct {
	ratio      float64
	pos        float64
	lastSample float32
	primed     bool
}

// NewResampler constructs a Resampler for the given sample-rate ratio
// (srcRate/dstRate).
func NewResampler(ratio float64) *Resampler {
	return &Resampler{ratio: ratio}
}

// Ratio returns the configured srcRate/dstRate ratio.
func (r *Resampler) Ratio() float64 { return r.ratio }

// Reset clears carried-over history and fractional position, for reuse
// when a voice is recycled onto a different asset.
func (r *Resampler) Reset() {
	r.pos = 0
	r.primed = false
	r.lastSample = 0
}

// Process consumes in (the next contiguous chunk of source samples) and
// writes exactly len(out) resampled samples, advancing internal state so
// the next call continues from where this one left off. It performs no
// allocation.
func (r *Resampler) Process(in []float32, out []float32) {
	for i := range out {
		srcPos := r.pos
		r.sampleWithHistory(in, srcPos, &out[i])
		r.pos += r.ratio
	}
	if len(in) > 0 {
		r.lastSample = in[len(in)-1]
		r.primed = true
	}
	r.pos -= float64(len(in))
	if r.pos < -1 {
		r.pos = -1
	}
}

func (r *Resampler) sampleWithHistory(in []float32, srcPos float64, dst *float32) {
	if srcPos < 0 {
		if !r.primed {
			*dst = 0
			return
		}
		// srcPos in [-1,0) draws from the carried-over last sample and the
		// first sample of the current block (or stays flat if in is empty
		// this call).
		frac := float32(srcPos + 1)
		next := r.lastSample
		if len(in) > 0 {
			next = in[0]
		}
		*dst = r.lastSample + (next-r.lastSample)*frac
		return
	}
	sampleLinear(in, srcPos, dst)
}
