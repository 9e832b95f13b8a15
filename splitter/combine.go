package splitter

import (
	"fmt"

	"github.com/gqf2008/stem-splitter-core/dsp/stft"
	"github.com/gqf2008/stem-splitter-core/engine"
)

// combiner folds the engine's frequency branch back to the time domain
// and adds the time branch, yielding one waveform per source.
type combiner struct {
	tr *stft.Transform
}

// combine returns planar stereo waveforms, one [2][window]float64 pair
// per source.
func (c *combiner) combine(out *engine.Output) ([][2][]float64, error) {
	if err := out.Validate(); err != nil {
		return nil, err
	}

	if c.tr == nil {
		tr, err := stft.New(out.FFTSize, out.FFTHop)
		if err != nil {
			return nil, err
		}
		c.tr = tr
	} else if c.tr.FFTSize() != out.FFTSize || c.tr.Hop() != out.FFTHop {
		return nil, fmt.Errorf("%w: fft %d/%d, previously %d/%d",
			ErrShapeMismatch, out.FFTSize, out.FFTHop, c.tr.FFTSize(), c.tr.Hop())
	}

	if out.Bins != c.tr.Bins() {
		return nil, fmt.Errorf("%w: %d bins, transform has %d", ErrShapeMismatch, out.Bins, c.tr.Bins())
	}
	if want := c.tr.FrameCount(out.Window); out.Frames != want {
		return nil, fmt.Errorf("%w: %d frames, window of %d needs %d",
			ErrShapeMismatch, out.Frames, out.Window, want)
	}

	planes := make([][]float32, out.Sources)
	for s := range out.Sources {
		planes[s] = out.FreqSource(s)
	}
	waves, err := c.tr.DecodeSources(planes, out.Bins, out.Frames, out.Window)
	if err != nil {
		return nil, err
	}

	for s := range out.Sources {
		for ch := range 2 {
			branch := out.TimeChannel(s, ch)
			dst := waves[s][ch]
			for i, v := range branch {
				dst[i] += float64(v)
			}
		}
	}
	return waves, nil
}
