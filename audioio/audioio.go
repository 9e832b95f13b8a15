package audioio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
)

var (
	ErrUnsupportedFormat = errors.New("audioio: unsupported file format")
	ErrEmptyAudio        = errors.New("audioio: file contains no samples")
)

// Buffer holds decoded audio as interleaved float64 samples in [-1, 1].
type Buffer struct {
	Samples    []float64
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames in the buffer.
func (b *Buffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Read decodes an audio file chosen by its extension.
func Read(path string) (*Buffer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return readWAV(path)
	case ".mp3":
		return readMP3(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func readWAV(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audioio: open %s: %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("audioio: invalid WAV file: %s", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audioio: decode %s: %w", path, err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyAudio, path)
	}

	bitDepth := int(decoder.SampleBitDepth())
	if bitDepth == 0 {
		return nil, fmt.Errorf("audioio: unknown bit depth for WAV file: %s", path)
	}
	factor := math.Pow(2, float64(bitDepth-1))

	out := &Buffer{
		Samples:    make([]float64, len(buf.Data)),
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
	}
	for i, v := range buf.Data {
		out.Samples[i] = float64(v) / factor
	}
	return out, nil
}

func readMP3(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audioio: open %s: %w", path, err)
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("audioio: decode %s: %w", path, err)
	}

	// The decoder always emits 16-bit little-endian stereo.
	var samples []float64
	var sample int16
	for {
		err := binary.Read(decoder, binary.LittleEndian, &sample)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("audioio: decode %s: %w", path, err)
		}
		samples = append(samples, float64(sample)/32768)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyAudio, path)
	}
	return &Buffer{Samples: samples, SampleRate: decoder.SampleRate(), Channels: 2}, nil
}

// Write encodes the buffer as a 16-bit PCM WAV file.
func Write(path string, buf *Buffer) error {
	if buf == nil || len(buf.Samples) == 0 {
		return ErrEmptyAudio
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audioio: create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, buf.SampleRate, 16, buf.Channels, 1)
	intBuf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: buf.Channels,
			SampleRate:  buf.SampleRate,
		},
		Data:           make([]int, len(buf.Samples)),
		SourceBitDepth: 16,
	}
	for i, v := range buf.Samples {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		intBuf.Data[i] = int(v * 32767)
	}
	if err := enc.Write(intBuf); err != nil {
		enc.Close()
		return fmt.Errorf("audioio: write %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("audioio: finalize %s: %w", path, err)
	}
	return nil
}

// ToPlanarStereo splits an interleaved buffer into left and right
// channels. Mono input is duplicated; with more than two channels the
// first two are used.
func ToPlanarStereo(buf *Buffer) (left, right []float64) {
	n := buf.Frames()
	left = make([]float64, n)
	right = make([]float64, n)
	switch {
	case buf.Channels == 1:
		copy(left, buf.Samples)
		copy(right, buf.Samples)
	default:
		for i := range n {
			left[i] = buf.Samples[i*buf.Channels]
			right[i] = buf.Samples[i*buf.Channels+1]
		}
	}
	return left, right
}

// Interleave merges planar stereo channels into interleaved samples.
// Both channels must be the same length.
func Interleave(left, right []float64) []float64 {
	out := make([]float64, 2*len(left))
	for i := range left {
		out[2*i] = left[i]
		out[2*i+1] = right[i]
	}
	return out
}
