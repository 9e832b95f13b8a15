package stft

import (
	"errors"
	"math"
	"testing"

	"github.com/gqf2008/stem-splitter-core/internal/testutil"
)

func TestNewValidatesSizes(t *testing.T) {
	cases := []struct {
		name    string
		fftSize int
		hop     int
	}{
		{"zero size", 0, 1},
		{"negative size", -4, 1},
		{"odd size", 1023, 256},
		{"zero hop", 1024, 0},
		{"hop beyond size", 1024, 1025},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.fftSize, tc.hop)
			if err == nil {
				t.Fatalf("New(%d, %d) succeeded, want error", tc.fftSize, tc.hop)
			}
		})
	}
}

func TestFrameAndBinCounts(t *testing.T) {
	cases := []struct {
		fftSize, hop, length int
		wantFrames, wantBins int
	}{
		{4096, 1024, 343980, 336, 2048},
		{4, 2, 4, 3, 2},
		{4, 4, 4, 2, 2},
		{1024, 256, 1, 1, 512},
		{1024, 256, 0, 0, 512},
	}

	for _, tc := range cases {
		tr, err := New(tc.fftSize, tc.hop)
		if err != nil {
			t.Fatalf("New(%d, %d): %v", tc.fftSize, tc.hop, err)
		}
		if got := tr.FrameCount(tc.length); got != tc.wantFrames {
			t.Fatalf("FrameCount(%d) = %d, want %d", tc.length, got, tc.wantFrames)
		}
		if got := tr.Bins(); got != tc.wantBins {
			t.Fatalf("Bins() = %d, want %d", got, tc.wantBins)
		}
	}
}

func TestEncodeRejectsBadInput(t *testing.T) {
	tr, err := New(1024, 256)
	if err != nil {
		t.Fatal(err)
	}

	_, err = tr.Encode(make([]float64, 100), make([]float64, 99))
	if !errors.Is(err, ErrChannelMismatch) {
		t.Fatalf("err = %v, want ErrChannelMismatch", err)
	}

	_, err = tr.Encode(nil, nil)
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
}

func TestEncodeShape(t *testing.T) {
	tr, err := New(512, 128)
	if err != nil {
		t.Fatal(err)
	}

	sig := testutil.DeterministicSine(440, 44100, 1.0, 1000)

	spec, err := tr.Encode(sig, sig)
	if err != nil {
		t.Fatal(err)
	}

	if spec.Bins != 256 {
		t.Fatalf("Bins = %d, want 256", spec.Bins)
	}
	if want := 1000/128 + 1; spec.Frames != want {
		t.Fatalf("Frames = %d, want %d", spec.Frames, want)
	}
	if want := NumPlanes * 256 * spec.Frames; len(spec.Data) != want {
		t.Fatalf("len(Data) = %d, want %d", len(spec.Data), want)
	}
}

func TestCACPlaneOrder(t *testing.T) {
	tr, err := New(8, 4)
	if err != nil {
		t.Fatal(err)
	}

	// Left is DC-only, right is silence: energy must land exclusively in
	// the left-real plane (plane 0), bin 0.
	left := testutil.DC(1.0, 16)
	right := make([]float64, 16)

	spec, err := tr.Encode(left, right)
	if err != nil {
		t.Fatal(err)
	}

	if spec.Plane(0)[0] == 0 {
		t.Fatal("left-real DC bin is zero, want window energy")
	}
	for p := 2; p < NumPlanes; p++ {
		for i, v := range spec.Plane(p) {
			if v != 0 {
				t.Fatalf("plane %d index %d = %v, want 0 for silent right channel", p, i, v)
			}
		}
	}
}

// requireReconstructed compares a decoded channel against its source.
// The dropped Nyquist bin cannot represent the step the centering pad
// creates at the signal ends, so the first and last fftSize samples
// carry a larger error than the interior and get a looser bound.
func requireReconstructed(t *testing.T, got, want []float64, fftSize int, interiorEps, edgeEps float64) {
	t.Helper()
	lo, hi := fftSize, len(want)-fftSize
	if lo >= hi {
		testutil.RequireSliceNearlyEqual(t, got, want, edgeEps)
		return
	}
	testutil.RequireSliceNearlyEqual(t, got[lo:hi], want[lo:hi], interiorEps)
	testutil.RequireSliceNearlyEqual(t, got[:lo], want[:lo], edgeEps)
	testutil.RequireSliceNearlyEqual(t, got[hi:], want[hi:], edgeEps)
}

func TestPerfectReconstruction(t *testing.T) {
	cases := []struct {
		name    string
		fftSize int
		hop     int
		length  int
	}{
		{"demucs geometry", 4096, 1024, 10000},
		{"quarter hop", 1024, 256, 5000},
		{"half hop", 512, 256, 4097},
		{"non hop aligned", 1024, 256, 3001},
		{"shorter than fft", 1024, 256, 300},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr, err := New(tc.fftSize, tc.hop)
			if err != nil {
				t.Fatal(err)
			}

			left := testutil.DeterministicSine(441, 44100, 0.7, tc.length)
			right := testutil.DeterministicSine(1000, 44100, 0.4, tc.length)
			for i := range left {
				left[i] += 0.2 * right[i]
			}

			spec, err := tr.Encode(left, right)
			if err != nil {
				t.Fatal(err)
			}

			gotL, gotR, err := tr.Decode(spec.Data, spec.Bins, spec.Frames, tc.length)
			if err != nil {
				t.Fatal(err)
			}

			requireReconstructed(t, gotL, left, tc.fftSize, 1e-5, 1e-3)
			requireReconstructed(t, gotR, right, tc.fftSize, 1e-5, 1e-3)
		})
	}
}

func TestPerfectReconstructionDC(t *testing.T) {
	tr, err := New(256, 64)
	if err != nil {
		t.Fatal(err)
	}

	sig := testutil.DC(0.5, 1000)

	spec, err := tr.Encode(sig, sig)
	if err != nil {
		t.Fatal(err)
	}

	gotL, gotR, err := tr.Decode(spec.Data, spec.Bins, spec.Frames, len(sig))
	if err != nil {
		t.Fatal(err)
	}

	requireReconstructed(t, gotL, sig, tr.FFTSize(), 1e-6, 1e-2)
	requireReconstructed(t, gotR, sig, tr.FFTSize(), 1e-6, 1e-2)
}

func TestDecodeRejectsBadShapes(t *testing.T) {
	tr, err := New(512, 128)
	if err != nil {
		t.Fatal(err)
	}

	frames := tr.FrameCount(1000)
	good := make([]float32, NumPlanes*tr.Bins()*frames)

	if _, _, err := tr.Decode(good, tr.Bins()+1, frames, 1000); !errors.Is(err, ErrShape) {
		t.Fatalf("wrong bins: err = %v, want ErrShape", err)
	}
	if _, _, err := tr.Decode(good, tr.Bins(), frames+1, 1000); !errors.Is(err, ErrShape) {
		t.Fatalf("wrong frames: err = %v, want ErrShape", err)
	}
	if _, _, err := tr.Decode(good[:len(good)-1], tr.Bins(), frames, 1000); !errors.Is(err, ErrShape) {
		t.Fatalf("short data: err = %v, want ErrShape", err)
	}
	if _, _, err := tr.Decode(good, tr.Bins(), frames, 0); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("zero length: err = %v, want ErrEmptyInput", err)
	}
}

func TestDecodeZeroSpectrogramIsSilence(t *testing.T) {
	tr, err := New(64, 16)
	if err != nil {
		t.Fatal(err)
	}

	frames := tr.FrameCount(500)
	zeros := make([]float32, NumPlanes*tr.Bins()*frames)

	l, r, err := tr.Decode(zeros, tr.Bins(), frames, 500)
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireFinite(t, l)
	testutil.RequireFinite(t, r)
	for i := range l {
		if l[i] != 0 || r[i] != 0 {
			t.Fatalf("index %d: got (%v, %v), want silence", i, l[i], r[i])
		}
	}
}

func TestDecodeSourcesMatchesDecode(t *testing.T) {
	tr, err := New(512, 128)
	if err != nil {
		t.Fatal(err)
	}

	length := 2000
	specs := make([][]float32, 3)
	want := make([][2][]float64, 3)

	for s := range specs {
		sig := testutil.DeterministicNoise(int64(s+1), 0.5, length)
		spec, err := tr.Encode(sig, sig)
		if err != nil {
			t.Fatal(err)
		}
		specs[s] = spec.Data

		l, r, err := tr.Decode(spec.Data, spec.Bins, spec.Frames, length)
		if err != nil {
			t.Fatal(err)
		}
		want[s] = [2][]float64{l, r}
	}

	frames := tr.FrameCount(length)
	got, err := tr.DecodeSources(specs, tr.Bins(), frames, length)
	if err != nil {
		t.Fatal(err)
	}

	for s := range got {
		testutil.RequireSliceNearlyEqual(t, got[s][0], want[s][0], 0)
		testutil.RequireSliceNearlyEqual(t, got[s][1], want[s][1], 0)
	}
}

func TestDecodeSourcesPropagatesErrors(t *testing.T) {
	tr, err := New(512, 128)
	if err != nil {
		t.Fatal(err)
	}

	frames := tr.FrameCount(1000)
	good := make([]float32, NumPlanes*tr.Bins()*frames)
	bad := good[:len(good)-1]

	_, err = tr.DecodeSources([][]float32{good, bad}, tr.Bins(), frames, 1000)
	if !errors.Is(err, ErrShape) {
		t.Fatalf("err = %v, want ErrShape", err)
	}
}

// Sanity guard: the window-square accumulation must exceed the norm floor
// over the whole signal range for the shipped demucs geometry, otherwise
// reconstruction would silently attenuate samples.
func TestWindowEnergyCoversSignal(t *testing.T) {
	tr, err := New(4096, 1024)
	if err != nil {
		t.Fatal(err)
	}

	length := 5000
	frames := tr.FrameCount(length)
	padded := length + tr.FFTSize()

	norm := make([]float64, padded)
	for m := range frames {
		start := m * tr.Hop()
		for i, w := range tr.coeffs {
			norm[start+i] += w * w
		}
	}

	half := tr.FFTSize() / 2
	for i := half; i < half+length; i++ {
		if norm[i] <= normFloor {
			t.Fatalf("window energy at sample %d is %v, below floor", i-half, norm[i])
		}
	}
}

func TestReconstructionToleratesFloat32Packing(t *testing.T) {
	tr, err := New(256, 64)
	if err != nil {
		t.Fatal(err)
	}

	sig := testutil.DeterministicNoise(7, 0.3, 1500)
	// Remove the components the dropped Nyquist bin cannot carry by
	// round-tripping once; the second round trip must then be stable.
	spec, err := tr.Encode(sig, sig)
	if err != nil {
		t.Fatal(err)
	}
	l1, r1, err := tr.Decode(spec.Data, spec.Bins, spec.Frames, len(sig))
	if err != nil {
		t.Fatal(err)
	}

	spec2, err := tr.Encode(l1, r1)
	if err != nil {
		t.Fatal(err)
	}
	l2, r2, err := tr.Decode(spec2.Data, spec2.Bins, spec2.Frames, len(sig))
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireSliceNearlyEqual(t, l2, l1, 1e-5)
	testutil.RequireSliceNearlyEqual(t, r2, r1, 1e-5)

	diff, err := testutil.MaxAbsDiff(l1, sig)
	if err != nil {
		t.Fatal(err)
	}
	if math.IsNaN(diff) {
		t.Fatal("reconstruction produced NaN")
	}
}
