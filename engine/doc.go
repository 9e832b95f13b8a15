// Package engine runs the neural separation model on one analysis window
// at a time.
//
// An Engine receives a stereo window as planar float64 slices and returns
// the raw model output: a time-domain waveform per source plus a
// complex-as-channels spectrogram per source. Callers combine the two
// branches themselves, typically with dsp/stft.
//
// The package ships one implementation, Session, backed by ONNX Runtime.
// Session holds a single process-wide inference session; Preload loads it
// once and subsequent calls reuse it.
package engine
