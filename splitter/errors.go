package splitter

import "errors"

var (
	// ErrConfiguration indicates the model manifest or the input audio
	// cannot drive the windowed separation loop.
	ErrConfiguration = errors.New("splitter: invalid configuration")

	// ErrShapeMismatch indicates the engine changed its output geometry
	// between windows of the same run.
	ErrShapeMismatch = errors.New("splitter: engine output shape changed mid-run")
)
