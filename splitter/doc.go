// Package splitter separates a music recording into its instrument
// stems.
//
// The separation model consumes fixed-size analysis windows, so the
// input is processed by a sliding window: each window is padded, run
// through the engine, its time and frequency branches are combined, and
// the first hop samples of the result are written into per-stem
// accumulators. Separate returns the accumulated stems in memory;
// SplitFile and RemoveVocals write them to WAV files.
package splitter
