package stft

import (
	"errors"
	"fmt"
)

// Errors returned by the transform kernel.
var (
	ErrChannelMismatch = errors.New("stft: left/right length mismatch")
	ErrEmptyInput      = errors.New("stft: empty input")
	ErrShape           = errors.New("stft: spectrogram shape mismatch")
)

func validateSize(fftSize, hop int) error {
	if fftSize <= 0 || fftSize%2 != 0 {
		return fmt.Errorf("stft: fft size must be positive and even: %d", fftSize)
	}
	if hop <= 0 || hop > fftSize {
		return fmt.Errorf("stft: hop must be in [1, %d]: %d", fftSize, hop)
	}
	return nil
}
