package splitter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gqf2008/stem-splitter-core/audioio"
)

// SplitResult holds the paths of the four stem files SplitFile wrote.
type SplitResult struct {
	VocalsPath string
	DrumsPath  string
	BassPath   string
	OtherPath  string
}

// VocalRemovalResult holds the paths RemoveVocals wrote.
type VocalRemovalResult struct {
	InstrumentalPath string
	VocalsPath       string
}

// SplitFile separates an audio file and writes one WAV per canonical
// stem into the output directory, named {input}_{stem}.wav.
func SplitFile(inputPath string, opts ...Option) (*SplitResult, error) {
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

	if err := os.MkdirAll(cfg.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("splitter: create output dir: %w", err)
	}
	base := outputBase(cfg.outputDir, inputPath)

	cfg.observer.Stage(StageWriteStems)
	result := &SplitResult{}
	for _, target := range []struct {
		stem Stem
		dest *string
	}{
		{StemVocals, &result.VocalsPath},
		{StemDrums, &result.DrumsPath},
		{StemBass, &result.BassPath},
		{StemOther, &result.OtherPath},
	} {
		path := fmt.Sprintf("%s_%s.wav", base, target.stem)
		n := stems.NumSamples()
		cfg.observer.Writing(string(target.stem), n, n, 100)
		if err := stems.Save(target.stem, path); err != nil {
			return nil, err
		}
		*target.dest = path
	}

	cfg.observer.Stage(StageFinalize)
	cfg.observer.Finished()
	return result, nil
}

// RemoveVocals separates an audio file and writes just two WAV files:
// the isolated vocals and the instrumental made of every other stem.
func RemoveVocals(inputPath string, opts ...Option) (*VocalRemovalResult, error) {
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

	if err := os.MkdirAll(cfg.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("splitter: create output dir: %w", err)
	}
	base := outputBase(cfg.outputDir, inputPath)
	n := stems.NumSamples()

	cfg.observer.Stage(StageWriteStems)
	vocalsPath := base + "_vocals.wav"
	cfg.observer.Writing("vocals", n, n, 100)
	if err := stems.Save(StemVocals, vocalsPath); err != nil {
		return nil, err
	}

	instrumentalPath := base + "_instrumental.wav"
	cfg.observer.Writing("instrumental", n, n, 100)
	if err := stems.SaveMixExcept([]Stem{StemVocals}, instrumentalPath); err != nil {
		return nil, err
	}

	cfg.observer.Stage(StageFinalize)
	cfg.observer.Finished()
	return &VocalRemovalResult{InstrumentalPath: instrumentalPath, VocalsPath: vocalsPath}, nil
}

func outputBase(outputDir, inputPath string) string {
	name := filepath.Base(inputPath)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" {
		name = "output"
	}
	return filepath.Join(outputDir, name)
}
