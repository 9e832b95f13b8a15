package stft

import (
	"fmt"
	"math/cmplx"

	"github.com/cwbudde/algo-dsp/dsp/window"
	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"
	"golang.org/x/sync/errgroup"
)

// NumPlanes is the CAC plane count: left-real, left-imag, right-real, right-imag.
const NumPlanes = 4

// normFloor guards the window-square normalization against division by
// near-zero accumulated window energy at frame boundaries.
const normFloor = 1e-8

// Spectrogram holds a CAC-packed complex spectrogram of shape
// [NumPlanes, Bins, Frames], flattened plane-major. The sample data is
// float32 because it crosses the inference-engine tensor boundary as-is.
type Spectrogram struct {
	Data   []float32
	Bins   int
	Frames int
}

// Plane returns the flattened [Bins, Frames] view of one CAC plane.
func (s *Spectrogram) Plane(p int) []float32 {
	size := s.Bins * s.Frames
	return s.Data[p*size : (p+1)*size]
}

// Transform performs forward and inverse short-time transforms for a fixed
// fftSize/hop pair. It keeps an FFT plan and scratch buffers, so a Transform
// is not safe for concurrent use; DecodeSources creates per-worker clones.
type Transform struct {
	fftSize int
	hop     int
	bins    int

	coeffs []float64 // periodic Hann, analysis and synthesis
	wsq    []float64 // coeffs squared, for overlap-add normalization

	plan   *algofft.Plan[complex128]
	frame  []complex128
	winBuf []float64
}

// New creates a transform for the given FFT size and hop.
// fftSize must be positive and even; hop must satisfy 0 < hop <= fftSize.
func New(fftSize, hop int) (*Transform, error) {
	if err := validateSize(fftSize, hop); err != nil {
		return nil, err
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("stft: failed to create FFT plan: %w", err)
	}

	coeffs := window.Generate(window.TypeHann, fftSize, window.WithPeriodic())
	if len(coeffs) != fftSize {
		return nil, fmt.Errorf("stft: window generation failed for size %d", fftSize)
	}

	wsq := make([]float64, fftSize)
	vecmath.MulBlock(wsq, coeffs, coeffs)

	return &Transform{
		fftSize: fftSize,
		hop:     hop,
		bins:    fftSize / 2,
		coeffs:  coeffs,
		wsq:     wsq,
		plan:    plan,
		frame:   make([]complex128, fftSize),
		winBuf:  make([]float64, fftSize),
	}, nil
}

// FFTSize returns the transform size.
func (t *Transform) FFTSize() int { return t.fftSize }

// Hop returns the hop size in samples.
func (t *Transform) Hop() int { return t.hop }

// Bins returns the frequency-bin count per CAC plane (fftSize/2; the
// Nyquist bin is dropped by the packing contract).
func (t *Transform) Bins() int { return t.bins }

// FrameCount returns the frame count produced for a signal of the given
// length under centered padding.
func (t *Transform) FrameCount(length int) int {
	if length <= 0 {
		return 0
	}
	return length/t.hop + 1
}

// Encode computes the CAC spectrogram of a planar stereo signal.
func (t *Transform) Encode(left, right []float64) (*Spectrogram, error) {
	if len(left) != len(right) {
		return nil, fmt.Errorf("%w: left %d, right %d", ErrChannelMismatch, len(left), len(right))
	}
	if len(left) == 0 {
		return nil, ErrEmptyInput
	}

	length := len(left)
	frames := t.FrameCount(length)
	spec := &Spectrogram{
		Data:   make([]float32, NumPlanes*t.bins*frames),
		Bins:   t.bins,
		Frames: frames,
	}

	half := t.fftSize / 2

	for ch, samples := range [2][]float64{left, right} {
		rePlane := spec.Plane(2 * ch)
		imPlane := spec.Plane(2*ch + 1)

		for m := range frames {
			start := m*t.hop - half
			for i := range t.fftSize {
				idx := start + i

				x := 0.0
				if idx >= 0 && idx < length {
					x = samples[idx]
				}
				t.winBuf[i] = x
			}

			vecmath.MulBlockInPlace(t.winBuf, t.coeffs)
			for i := range t.fftSize {
				t.frame[i] = complex(t.winBuf[i], 0)
			}

			err := t.plan.Forward(t.frame, t.frame)
			if err != nil {
				return nil, fmt.Errorf("stft: forward FFT failed: %w", err)
			}

			for k := range t.bins {
				rePlane[k*frames+m] = float32(real(t.frame[k]))
				imPlane[k*frames+m] = float32(imag(t.frame[k]))
			}
		}
	}

	return spec, nil
}

// Decode reconstructs a planar stereo signal of the given length from
// CAC planes. bins and frames describe the plane layout and must match
// this transform's bin count and the frame count implied by length.
//
// For a spectrogram produced by Encode, interior samples reconstruct
// to float32 precision. The dropped Nyquist bin cannot represent the
// step between the centering pad and a signal with nonzero ends, so
// the first and last fftSize samples carry a larger error, on the
// order of 1e-3 of the step height. A signal that is already zero at
// its ends reconstructs to float32 precision everywhere.
func (t *Transform) Decode(planes []float32, bins, frames, length int) (left, right []float64, err error) {
	if length <= 0 {
		return nil, nil, ErrEmptyInput
	}
	if bins != t.bins {
		return nil, nil, fmt.Errorf("%w: %d bins, expected %d", ErrShape, bins, t.bins)
	}
	if want := t.FrameCount(length); frames != want {
		return nil, nil, fmt.Errorf("%w: %d frames for length %d, expected %d", ErrShape, frames, length, want)
	}
	if want := NumPlanes * bins * frames; len(planes) != want {
		return nil, nil, fmt.Errorf("%w: %d plane samples, expected %d", ErrShape, len(planes), want)
	}

	half := t.fftSize / 2
	padded := length + t.fftSize

	norm := make([]float64, padded)
	for m := range frames {
		start := m * t.hop
		vecmath.AddBlockInPlace(norm[start:start+t.fftSize], t.wsq)
	}

	planeSize := bins * frames
	out := [2][]float64{}

	for ch := range 2 {
		re := planes[(2*ch)*planeSize : (2*ch+1)*planeSize]
		im := planes[(2*ch+1)*planeSize : (2*ch+2)*planeSize]

		buf := make([]float64, padded)
		for m := range frames {
			for k := range bins {
				t.frame[k] = complex(float64(re[k*frames+m]), float64(im[k*frames+m]))
			}

			// Hermitian mirror; the dropped Nyquist bin is zero.
			t.frame[t.bins] = 0
			for k := 1; k < t.bins; k++ {
				t.frame[t.fftSize-k] = cmplx.Conj(t.frame[k])
			}

			err := t.plan.Inverse(t.frame, t.frame)
			if err != nil {
				return nil, nil, fmt.Errorf("stft: inverse FFT failed: %w", err)
			}

			for i := range t.fftSize {
				t.winBuf[i] = real(t.frame[i])
			}

			vecmath.MulBlockInPlace(t.winBuf, t.coeffs)

			start := m * t.hop
			vecmath.AddBlockInPlace(buf[start:start+t.fftSize], t.winBuf)
		}

		for i := range buf {
			if norm[i] > normFloor {
				buf[i] /= norm[i]
			}
		}

		channel := make([]float64, length)
		copy(channel, buf[half:half+length])
		out[ch] = channel
	}

	return out[0], out[1], nil
}

// DecodeSources decodes one CAC spectrogram per source in parallel.
// Sources are independent, so each worker owns its own plan and scratch;
// the call joins all workers before returning.
func (t *Transform) DecodeSources(sources [][]float32, bins, frames, length int) ([][2][]float64, error) {
	out := make([][2][]float64, len(sources))

	var g errgroup.Group
	for i, planes := range sources {
		g.Go(func() error {
			w, err := New(t.fftSize, t.hop)
			if err != nil {
				return err
			}

			l, r, err := w.Decode(planes, bins, frames, length)
			if err != nil {
				return fmt.Errorf("stft: source %d: %w", i, err)
			}

			out[i] = [2][]float64{l, r}
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err
	}

	return out, nil
}
