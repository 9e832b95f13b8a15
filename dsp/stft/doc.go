// Package stft implements the short-time Fourier analysis/synthesis kernel
// used by the separation pipeline, with complex-as-channels (CAC) packing.
//
// The forward transform frames a planar stereo signal with centered padding
// (fftSize/2 zeros conceptually prepended and appended, so frame 0 is
// centered on sample 0), applies a periodic Hann analysis window, runs a
// complex FFT per frame, and packs the first fftSize/2 bins of each channel
// into a four-plane tensor: left-real, left-imag, right-real, right-imag.
//
// The inverse transform rebuilds the Hermitian spectrum per frame (the
// dropped Nyquist bin is taken as zero), applies the matching synthesis
// window, overlap-adds frames at the hop stride with window-square
// normalization, and strips the centering pad. Encoding a signal and
// immediately decoding it reproduces the input within floating-point
// tolerance whenever the window/hop pair satisfies the constant-overlap-add
// condition.
package stft
