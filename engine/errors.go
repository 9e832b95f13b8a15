package engine

import "errors"

var (
	// ErrMissingIO indicates the loaded model does not expose the input
	// and output names the separation pipeline requires.
	ErrMissingIO = errors.New("engine: model is missing a required input or output")

	// ErrInference indicates the runtime session failed while executing
	// the model.
	ErrInference = errors.New("engine: inference failed")

	// ErrShape indicates a tensor did not have the expected dimensions.
	ErrShape = errors.New("engine: unexpected tensor shape")
)
