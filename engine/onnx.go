package engine

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/gqf2008/stem-splitter-core/dsp/stft"
	"github.com/gqf2008/stem-splitter-core/model"
)

// Fixed geometry of the hybrid transformer separation graph.
const (
	// ModelWindow is the number of samples the graph consumes per run.
	ModelWindow = 343980

	modelFFTSize = 4096
	modelFFTHop  = 1024
	modelBins    = modelFFTSize / 2
	modelFrames  = ModelWindow/modelFFTHop + 1

	inputTimeName  = "input"
	inputSpecName  = "x"
	outputFreqName = "output"
	outputTimeName = "add_67"
)

var (
	ortInit sync.Once
	ortErr  error

	loadMu sync.Mutex
	loaded *Session
)

// Session is an Engine backed by a process-wide ONNX Runtime inference
// session. Runs are serialized internally; the session itself is safe
// for concurrent use.
type Session struct {
	// mu guards both the inference run and the shared transform,
	// whose scratch buffers are not safe for concurrent use.
	mu        sync.Mutex
	modelName string
	sess      *ort.DynamicAdvancedSession
	tr        *stft.Transform
}

// Preload loads the model behind h into the process-wide session. The
// first call creates the session; later calls for the same model reuse
// it, and a call for a different model fails.
func Preload(h *model.Handle) (*Session, error) {
	loadMu.Lock()
	defer loadMu.Unlock()

	if loaded != nil {
		if loaded.modelName != h.Manifest.Name {
			return nil, fmt.Errorf("engine: session already holds model %q, cannot load %q",
				loaded.modelName, h.Manifest.Name)
		}
		return loaded, nil
	}

	ortInit.Do(func() {
		if lib := os.Getenv("ORT_SHARED_LIB"); lib != "" {
			ort.SetSharedLibraryPath(lib)
		}
		ortErr = ort.InitializeEnvironment()
	})
	if ortErr != nil {
		return nil, fmt.Errorf("engine: initialize onnxruntime: %w", ortErr)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(h.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("engine: inspect model graph: %w", err)
	}
	if !hasIO(inputs, inputTimeName) || !hasIO(inputs, inputSpecName) {
		return nil, fmt.Errorf("%w: inputs %q and %q", ErrMissingIO, inputTimeName, inputSpecName)
	}
	if !hasIO(outputs, outputFreqName) || !hasIO(outputs, outputTimeName) {
		return nil, fmt.Errorf("%w: outputs %q and %q", ErrMissingIO, outputFreqName, outputTimeName)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("engine: session options: %w", err)
	}
	defer opts.Destroy()
	if err := opts.SetIntraOpNumThreads(runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("engine: session options: %w", err)
	}

	sess, err := ort.NewDynamicAdvancedSession(h.LocalPath,
		[]string{inputTimeName, inputSpecName},
		[]string{outputFreqName, outputTimeName},
		opts)
	if err != nil {
		return nil, fmt.Errorf("engine: create session: %w", err)
	}

	tr, err := stft.New(modelFFTSize, modelFFTHop)
	if err != nil {
		sess.Destroy()
		return nil, err
	}

	loaded = &Session{modelName: h.Manifest.Name, sess: sess, tr: tr}
	return loaded, nil
}

// encodeWindow builds the CAC spectrogram on the shared transform
// under the session lock.
func (s *Session) encodeWindow(left, right []float64) (*stft.Spectrogram, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tr.Encode(left, right)
}

func hasIO(infos []ort.InputOutputInfo, name string) bool {
	for _, info := range infos {
		if info.Name == name {
			return true
		}
	}
	return false
}

// RunWindow executes the model on one stereo window. Both channels must
// be exactly ModelWindow samples long.
func (s *Session) RunWindow(left, right []float64) (*Output, error) {
	if len(left) != ModelWindow || len(right) != ModelWindow {
		return nil, fmt.Errorf("%w: window is %d/%d samples, want %d",
			ErrShape, len(left), len(right), ModelWindow)
	}

	spec, err := s.encodeWindow(left, right)
	if err != nil {
		return nil, err
	}
	if spec.Bins != modelBins || spec.Frames != modelFrames {
		return nil, fmt.Errorf("%w: spectrogram is %dx%d, want %dx%d",
			ErrShape, spec.Bins, spec.Frames, modelBins, modelFrames)
	}

	timeData := make([]float32, 2*ModelWindow)
	for i, v := range left {
		timeData[i] = float32(v)
	}
	for i, v := range right {
		timeData[ModelWindow+i] = float32(v)
	}

	timeTensor, err := ort.NewTensor(ort.NewShape(1, 2, ModelWindow), timeData)
	if err != nil {
		return nil, fmt.Errorf("engine: create waveform tensor: %w", err)
	}
	defer timeTensor.Destroy()

	specTensor, err := ort.NewTensor(ort.NewShape(1, stft.NumPlanes, modelBins, modelFrames), spec.Data)
	if err != nil {
		return nil, fmt.Errorf("engine: create spectrogram tensor: %w", err)
	}
	defer specTensor.Destroy()

	outputs := []ort.Value{nil, nil}
	s.mu.Lock()
	err = s.sess.Run([]ort.Value{timeTensor, specTensor}, outputs)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	defer func() {
		for _, v := range outputs {
			if v != nil {
				v.Destroy()
			}
		}
	}()

	freqOut, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("%w: frequency output is not a float32 tensor", ErrShape)
	}
	timeOut, ok := outputs[1].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("%w: waveform output is not a float32 tensor", ErrShape)
	}

	freqShape := freqOut.GetShape()
	if len(freqShape) != 5 || freqShape[0] != 1 || freqShape[2] != stft.NumPlanes ||
		freqShape[3] != modelBins || freqShape[4] != modelFrames {
		return nil, fmt.Errorf("%w: frequency output shape %v", ErrShape, freqShape)
	}
	timeShape := timeOut.GetShape()
	if len(timeShape) != 4 || timeShape[0] != 1 || timeShape[2] != 2 || timeShape[3] != ModelWindow {
		return nil, fmt.Errorf("%w: waveform output shape %v", ErrShape, timeShape)
	}
	if freqShape[1] != timeShape[1] {
		return nil, fmt.Errorf("%w: branches disagree on source count (%d vs %d)",
			ErrShape, freqShape[1], timeShape[1])
	}
	sources := int(freqShape[1])

	out := &Output{
		Sources: sources,
		Window:  ModelWindow,
		Bins:    modelBins,
		Frames:  modelFrames,
		FFTSize: modelFFTSize,
		FFTHop:  modelFFTHop,
		Time:    append([]float32(nil), timeOut.GetData()...),
		Freq:    append([]float32(nil), freqOut.GetData()...),
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
