package engine

import "fmt"

// Output is the raw result of running the model on one analysis window.
//
// Time holds the time-domain branch as [Sources][2][Window] float32 in
// row-major order. Freq holds the frequency branch as
// [Sources][4][Bins][Frames] complex-as-channels planes. FFTSize and
// FFTHop describe the transform that produced Freq, so callers can build
// a matching inverse.
type Output struct {
	Sources int
	Window  int
	Bins    int
	Frames  int
	FFTSize int
	FFTHop  int

	Time []float32
	Freq []float32
}

// Validate checks that the slice lengths agree with the declared
// dimensions.
func (o *Output) Validate() error {
	if o.Sources <= 0 || o.Window <= 0 || o.Bins <= 0 || o.Frames <= 0 {
		return fmt.Errorf("%w: sources=%d window=%d bins=%d frames=%d",
			ErrShape, o.Sources, o.Window, o.Bins, o.Frames)
	}
	if want := o.Sources * 2 * o.Window; len(o.Time) != want {
		return fmt.Errorf("%w: time branch has %d samples, want %d", ErrShape, len(o.Time), want)
	}
	if want := o.Sources * 4 * o.Bins * o.Frames; len(o.Freq) != want {
		return fmt.Errorf("%w: freq branch has %d values, want %d", ErrShape, len(o.Freq), want)
	}
	return nil
}

// TimeChannel returns the waveform of one channel of one source. The
// returned slice aliases Output.Time.
func (o *Output) TimeChannel(source, channel int) []float32 {
	off := (source*2 + channel) * o.Window
	return o.Time[off : off+o.Window]
}

// FreqSource returns the four spectrogram planes of one source as a
// single contiguous slice. The returned slice aliases Output.Freq.
func (o *Output) FreqSource(source int) []float32 {
	stride := 4 * o.Bins * o.Frames
	off := source * stride
	return o.Freq[off : off+stride]
}

// Engine runs the separation model on a single fixed-size window of
// planar stereo audio.
type Engine interface {
	RunWindow(left, right []float64) (*Output, error)
}
