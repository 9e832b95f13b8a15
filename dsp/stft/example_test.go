package stft_test

import (
	"fmt"

	"github.com/gqf2008/stem-splitter-core/dsp/stft"
)

func ExampleTransform_Encode() {
	tr, err := stft.New(256, 64)
	if err != nil {
		panic(err)
	}

	left := make([]float64, 1000)
	right := make([]float64, 1000)
	for i := range left {
		left[i] = 0.5
		right[i] = -0.5
	}

	spec, err := tr.Encode(left, right)
	if err != nil {
		panic(err)
	}

	fmt.Println("bins:", spec.Bins)
	fmt.Println("frames:", spec.Frames)
	fmt.Println("planes:", len(spec.Data)/(spec.Bins*spec.Frames))
	// Output:
	// bins: 128
	// frames: 16
	// planes: 4
}

func ExampleTransform_Decode() {
	tr, err := stft.New(256, 64)
	if err != nil {
		panic(err)
	}

	signal := make([]float64, 500)
	for i := range signal {
		signal[i] = 0.25
	}

	spec, err := tr.Encode(signal, signal)
	if err != nil {
		panic(err)
	}

	left, _, err := tr.Decode(spec.Data, spec.Bins, spec.Frames, len(signal))
	if err != nil {
		panic(err)
	}

	fmt.Println("samples:", len(left))
	// Output:
	// samples: 500
}
