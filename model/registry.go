package model

import "fmt"

// Known model names and where their manifests are published.
var registry = map[string]string{
	"htdemucs_ort_v1": "https://models.stem-splitter.dev/htdemucs_ort_v1/manifest.json",
}

// ManifestURL returns the published manifest location for a registered
// model name.
func ManifestURL(name string) (string, error) {
	url, ok := registry[name]
	if !ok {
		return "", fmt.Errorf("model: unknown model %q", name)
	}
	return url, nil
}
