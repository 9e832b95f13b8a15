package splitter

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/gqf2008/stem-splitter-core/audioio"
)

// SeparatedStems holds the result of a separation run in memory as
// interleaved stereo float64 samples per stem.
type SeparatedStems struct {
	acc        [][]float64
	index      stemIndex
	sampleRate int
	numSamples int
}

// SampleRate returns the sample rate of the separated audio.
func (s *SeparatedStems) SampleRate() int { return s.sampleRate }

// NumSamples returns the number of sample frames per stem.
func (s *SeparatedStems) NumSamples() int { return s.numSamples }

// StemCount returns how many stems the model produced.
func (s *SeparatedStems) StemCount() int { return s.index.count }

// Names returns the stem names in accumulator order.
func (s *SeparatedStems) Names() []string {
	return append([]string(nil), s.index.names...)
}

// Get returns one stem as interleaved stereo samples. The returned
// slice is a copy.
func (s *SeparatedStems) Get(stem Stem) []float64 {
	idx := s.index.resolve(string(stem))
	return append([]float64(nil), s.acc[idx]...)
}

// GetBuffer returns one stem as an audio buffer.
func (s *SeparatedStems) GetBuffer(stem Stem) *audioio.Buffer {
	return &audioio.Buffer{Samples: s.Get(stem), SampleRate: s.sampleRate, Channels: 2}
}

// Mix sums the named stems into one interleaved stereo track.
func (s *SeparatedStems) Mix(stems ...Stem) []float64 {
	out := make([]float64, 2*s.numSamples)
	for _, stem := range stems {
		idx := s.index.resolve(string(stem))
		vecmath.AddBlockInPlace(out, s.acc[idx])
	}
	return out
}

// MixBuffer sums the named stems into an audio buffer.
func (s *SeparatedStems) MixBuffer(stems ...Stem) *audioio.Buffer {
	return &audioio.Buffer{Samples: s.Mix(stems...), SampleRate: s.sampleRate, Channels: 2}
}

// MixExcept sums every stem except the excluded ones.
func (s *SeparatedStems) MixExcept(exclude ...Stem) []float64 {
	skip := make(map[int]bool, len(exclude))
	for _, stem := range exclude {
		skip[s.index.resolve(string(stem))] = true
	}
	out := make([]float64, 2*s.numSamples)
	for idx := range s.acc {
		if skip[idx] {
			continue
		}
		vecmath.AddBlockInPlace(out, s.acc[idx])
	}
	return out
}

// MixExceptBuffer sums every stem except the excluded ones into an
// audio buffer.
func (s *SeparatedStems) MixExceptBuffer(exclude ...Stem) *audioio.Buffer {
	return &audioio.Buffer{Samples: s.MixExcept(exclude...), SampleRate: s.sampleRate, Channels: 2}
}

// Save writes one stem to a 16-bit WAV file.
func (s *SeparatedStems) Save(stem Stem, path string) error {
	return audioio.Write(path, s.GetBuffer(stem))
}

// SaveMix writes a mix of the named stems to a 16-bit WAV file.
func (s *SeparatedStems) SaveMix(stems []Stem, path string) error {
	return audioio.Write(path, s.MixBuffer(stems...))
}

// SaveMixExcept writes a mix of all but the excluded stems to a 16-bit
// WAV file.
func (s *SeparatedStems) SaveMixExcept(exclude []Stem, path string) error {
	return audioio.Write(path, s.MixExceptBuffer(exclude...))
}
