// Package audioio reads and writes the audio files the separation
// pipeline consumes and produces.
//
// Read decodes WAV and MP3 files into interleaved float64 samples in
// [-1, 1]. Write encodes a Buffer as 16-bit PCM WAV. Helpers convert
// between interleaved and planar stereo layouts.
package audioio
