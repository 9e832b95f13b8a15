package splitter

import (
	"fmt"

	"github.com/gqf2008/stem-splitter-core/audioio"
	"github.com/gqf2008/stem-splitter-core/engine"
	"github.com/gqf2008/stem-splitter-core/model"
)

// Separate reads an audio file and splits it into stems held in
// memory.
func Separate(inputPath string, opts ...Option) (*SeparatedStems, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	eng, mf, err := resolveEngine(&cfg)
	if err != nil {
		return nil, err
	}

	cfg.observer.Stage(StageReadAudio)
	buf, err := audioio.Read(inputPath)
	if err != nil {
		return nil, err
	}

	stems, err := separateBuffer(buf, eng, mf, cfg.observer)
	if err != nil {
		return nil, err
	}
	cfg.observer.Stage(StageFinalize)
	cfg.observer.Finished()
	return stems, nil
}

// SeparateBuffer splits already-decoded audio into stems held in
// memory.
func SeparateBuffer(buf *audioio.Buffer, opts ...Option) (*SeparatedStems, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	eng, mf, err := resolveEngine(&cfg)
	if err != nil {
		return nil, err
	}

	stems, err := separateBuffer(buf, eng, mf, cfg.observer)
	if err != nil {
		return nil, err
	}
	cfg.observer.Stage(StageFinalize)
	cfg.observer.Finished()
	return stems, nil
}

// resolveEngine yields the inference engine and the manifest describing
// its geometry, downloading and loading the model when the caller did
// not supply an engine.
func resolveEngine(cfg *config) (engine.Engine, model.Manifest, error) {
	if cfg.engine != nil {
		return cfg.engine, cfg.engineManifest, nil
	}

	cfg.observer.Stage(StageResolveModel)
	var (
		handle *model.Handle
		err    error
	)
	if cfg.modelPath != "" {
		handle, err = model.LoadFromPath(cfg.modelPath)
	} else {
		var modelOpts []model.Option
		if cfg.manifestURL != "" {
			modelOpts = append(modelOpts, model.WithManifestURL(cfg.manifestURL))
		}
		handle, err = model.Ensure(cfg.modelName, modelOpts...)
	}
	if err != nil {
		return nil, model.Manifest{}, err
	}

	cfg.observer.Stage(StageEnginePreload)
	sess, err := engine.Preload(handle)
	if err != nil {
		return nil, model.Manifest{}, err
	}
	return sess, handle.Manifest, nil
}

// separateBuffer drives the sliding-window loop shared by every public
// entry point.
func separateBuffer(buf *audioio.Buffer, eng engine.Engine, mf model.Manifest, obs Observer) (*SeparatedStems, error) {
	if mf.SampleRate != 44100 {
		return nil, fmt.Errorf("%w: model expects %d Hz, only 44100 Hz models are supported",
			ErrConfiguration, mf.SampleRate)
	}
	win, hop := mf.Window, mf.Hop
	if win <= 0 || hop <= 0 || hop > win {
		return nil, fmt.Errorf("%w: window=%d hop=%d", ErrConfiguration, win, hop)
	}

	left, right := audioio.ToPlanarStereo(buf)
	n := len(left)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty audio", ErrConfiguration)
	}

	winL := make([]float64, win)
	winR := make([]float64, win)

	var (
		comb  combiner
		acc   [][]float64
		stems int
		chunk int
	)
	totalChunks := (n + hop - 1) / hop

	obs.Stage(StageInfer)
	for pos := 0; pos < n; {
		fill := min(win, n-pos)
		copy(winL[:fill], left[pos:pos+fill])
		copy(winR[:fill], right[pos:pos+fill])
		for i := fill; i < win; i++ {
			winL[i] = 0
			winR[i] = 0
		}

		out, err := eng.RunWindow(winL, winR)
		if err != nil {
			return nil, err
		}

		if acc == nil {
			stems = out.Sources
			acc = make([][]float64, stems)
			for s := range acc {
				acc[s] = make([]float64, 2*n)
			}
		} else if out.Sources != stems {
			return nil, fmt.Errorf("%w: %d sources, previously %d", ErrShapeMismatch, out.Sources, stems)
		}

		mixed, err := comb.combine(out)
		if err != nil {
			return nil, err
		}

		copyLen := min(hop, out.Window, n-pos)
		for s := range stems {
			dst := acc[s]
			for i := range copyLen {
				dst[2*(pos+i)] = mixed[s][0][i]
				dst[2*(pos+i)+1] = mixed[s][1][i]
			}
		}

		chunk++
		obs.Chunk(chunk, totalChunks, 100*float64(chunk)/float64(totalChunks))

		if pos+hop >= n {
			break
		}
		pos += hop
	}

	names := mf.Stems
	if len(names) == 0 {
		// Conventional order, matching fallbackIndex. Manifests that do
		// list stems use the model's own order instead, e.g. htdemucs
		// ships drums/bass/other/vocals.
		names = []string{"vocals", "drums", "bass", "other"}
	}

	return &SeparatedStems{
		acc:        acc,
		index:      newStemIndex(names, stems),
		sampleRate: mf.SampleRate,
		numSamples: n,
	}, nil
}
