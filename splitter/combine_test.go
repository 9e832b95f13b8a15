package splitter

import (
	"errors"
	"testing"

	"github.com/gqf2008/stem-splitter-core/dsp/stft"
	"github.com/gqf2008/stem-splitter-core/engine"
	"github.com/gqf2008/stem-splitter-core/internal/testutil"
)

func encodedOutput(t *testing.T, left, right []float64, fftSize, fftHop int) *engine.Output {
	t.Helper()
	tr, err := stft.New(fftSize, fftHop)
	if err != nil {
		t.Fatalf("stft.New: %v", err)
	}
	spec, err := tr.Encode(left, right)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	win := len(left)
	return &engine.Output{
		Sources: 1,
		Window:  win,
		Bins:    spec.Bins,
		Frames:  spec.Frames,
		FFTSize: fftSize,
		FFTHop:  fftHop,
		Time:    make([]float32, 2*win),
		Freq:    spec.Data,
	}
}

// The dropped Nyquist bin leaves a larger reconstruction error within
// fftSize samples of each end of the window, so those regions get a
// looser bound than the interior.
func requireCombined(t *testing.T, got, want []float64, fftSize int) {
	t.Helper()
	lo, hi := fftSize, len(want)-fftSize
	testutil.RequireSliceNearlyEqual(t, got[lo:hi], want[lo:hi], 1e-5)
	testutil.RequireSliceNearlyEqual(t, got[:lo], want[:lo], 1e-3)
	testutil.RequireSliceNearlyEqual(t, got[hi:], want[hi:], 1e-3)
}

func TestCombineReconstructsFrequencyBranch(t *testing.T) {
	const win = 1024
	left := testutil.DeterministicSine(441, 44100, 0.6, win)
	right := testutil.DeterministicSine(1000, 44100, 0.3, win)

	out := encodedOutput(t, left, right, 256, 64)

	var comb combiner
	waves, err := comb.combine(out)
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	if len(waves) != 1 {
		t.Fatalf("combine returned %d sources, want 1", len(waves))
	}
	requireCombined(t, waves[0][0], left, 256)
	requireCombined(t, waves[0][1], right, 256)
}

func TestCombineAddsBothBranches(t *testing.T) {
	const win = 512
	left := testutil.DeterministicSine(441, 44100, 0.4, win)
	right := testutil.DeterministicSine(660, 44100, 0.4, win)

	out := encodedOutput(t, left, right, 128, 32)
	// A constant time branch must shift the reconstruction.
	for i := range out.Time {
		out.Time[i] = 0.25
	}

	var comb combiner
	waves, err := comb.combine(out)
	if err != nil {
		t.Fatalf("combine: %v", err)
	}

	wantL := make([]float64, win)
	wantR := make([]float64, win)
	for i := range win {
		wantL[i] = left[i] + 0.25
		wantR[i] = right[i] + 0.25
	}
	requireCombined(t, waves[0][0], wantL, 128)
	requireCombined(t, waves[0][1], wantR, 128)
}

func TestCombineRejectsTransformParameterChange(t *testing.T) {
	left := make([]float64, 256)
	right := make([]float64, 256)

	var comb combiner
	if _, err := comb.combine(encodedOutput(t, left, right, 64, 16)); err != nil {
		t.Fatalf("first combine: %v", err)
	}

	_, err := comb.combine(encodedOutput(t, left, right, 128, 32))
	if err == nil {
		t.Fatal("combine accepted changed transform parameters mid-run")
	}
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("error = %v, want ErrShapeMismatch", err)
	}
}
