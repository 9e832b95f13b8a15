package splitter

import (
	"github.com/gqf2008/stem-splitter-core/engine"
	"github.com/gqf2008/stem-splitter-core/model"
)

// Option adjusts a separation run.
type Option func(*config)

type config struct {
	modelName   string
	manifestURL string
	modelPath   string
	outputDir   string
	observer    Observer

	engine         engine.Engine
	engineManifest model.Manifest
}

func defaultConfig() config {
	return config{
		modelName: "htdemucs_ort_v1",
		outputDir: ".",
		observer:  nopObserver{},
	}
}

// WithModel selects a registered model name.
func WithModel(name string) Option {
	return func(c *config) { c.modelName = name }
}

// WithManifestURL fetches the model manifest from the given URL instead
// of the registry.
func WithManifestURL(url string) Option {
	return func(c *config) { c.manifestURL = url }
}

// WithModelPath uses a local model file with default htdemucs settings
// instead of downloading one.
func WithModelPath(path string) Option {
	return func(c *config) { c.modelPath = path }
}

// WithOutputDir writes stem files under dir. Defaults to the current
// directory.
func WithOutputDir(dir string) Option {
	return func(c *config) { c.outputDir = dir }
}

// WithObserver reports progress to obs during the run.
func WithObserver(obs Observer) Option {
	return func(c *config) { c.observer = obs }
}

// WithEngine runs separation against a caller-supplied engine and
// manifest, bypassing model resolution entirely.
func WithEngine(e engine.Engine, mf model.Manifest) Option {
	return func(c *config) {
		c.engine = e
		c.engineManifest = mf
	}
}
