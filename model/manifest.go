package model

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Artifact is one downloadable file listed in a manifest.
type Artifact struct {
	File      string `json:"file"`
	SHA256    string `json:"sha256"`
	SizeBytes uint64 `json:"size_bytes"`
	URL       string `json:"url"`
}

// IODesc documents one tensor endpoint of the model graph.
type IODesc struct {
	Name   string   `json:"name"`
	Layout string   `json:"layout,omitempty"`
	DType  string   `json:"dtype,omitempty"`
	Shape  []string `json:"shape,omitempty"`
}

// Manifest describes a published separation model.
type Manifest struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`

	Backend string `json:"backend,omitempty"`
	Format  string `json:"format,omitempty"`
	Opset   int    `json:"opset,omitempty"`

	SampleRate int `json:"sample_rate"`
	Window     int `json:"window"`
	Hop        int `json:"hop"`

	Stems []string `json:"stems,omitempty"`

	InputLayout  string   `json:"input_layout,omitempty"`
	OutputLayout string   `json:"output_layout,omitempty"`
	Inputs       []IODesc `json:"inputs,omitempty"`
	Outputs      []IODesc `json:"outputs,omitempty"`

	Artifacts []Artifact `json:"artifacts,omitempty"`
	Entry     string     `json:"entry,omitempty"`

	// Legacy single-artifact form, used when Artifacts is empty.
	URL      string `json:"url,omitempty"`
	SHA256   string `json:"sha256,omitempty"`
	Filesize uint64 `json:"filesize,omitempty"`
}

// UnmarshalJSON accepts "sample_rate_hz" as an alias for "sample_rate".
func (m *Manifest) UnmarshalJSON(data []byte) error {
	type plain Manifest
	aux := struct {
		*plain
		SampleRateHz int `json:"sample_rate_hz"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if m.SampleRate == 0 && aux.SampleRateHz != 0 {
		m.SampleRate = aux.SampleRateHz
	}
	return nil
}

// ResolvedArtifact is the single artifact selected from a manifest.
type ResolvedArtifact struct {
	File      string
	SHA256    string
	SizeBytes uint64
	URL       string
}

// ResolvePrimaryArtifact selects the artifact to download. With an
// artifacts list the entry name decides; a single listed artifact needs
// no entry. Without a list the legacy url/sha256/filesize fields apply.
func (m *Manifest) ResolvePrimaryArtifact() (ResolvedArtifact, error) {
	if len(m.Artifacts) > 0 {
		if m.Entry != "" {
			for _, a := range m.Artifacts {
				if a.File == m.Entry {
					return resolvedFrom(a)
				}
			}
			return ResolvedArtifact{}, fmt.Errorf("model: entry %q not found in artifacts", m.Entry)
		}
		if len(m.Artifacts) == 1 {
			return resolvedFrom(m.Artifacts[0])
		}
		return ResolvedArtifact{}, fmt.Errorf("model: multiple artifacts present but no entry specified")
	}
	if m.URL == "" || m.SHA256 == "" || m.Filesize == 0 {
		return ResolvedArtifact{}, fmt.Errorf("model: manifest missing artifacts and legacy url/sha256/filesize")
	}
	if !validChecksum(m.SHA256) {
		return ResolvedArtifact{}, fmt.Errorf("model: manifest sha256 %q is not a 64-character hex digest", m.SHA256)
	}
	file := inferFilenameFromURL(m.URL)
	if file == "" {
		file = fmt.Sprintf("%s-%s.bin", m.Name, m.SHA256[:8])
	}
	return ResolvedArtifact{File: file, SHA256: m.SHA256, SizeBytes: m.Filesize, URL: m.URL}, nil
}

func resolvedFrom(a Artifact) (ResolvedArtifact, error) {
	if !validChecksum(a.SHA256) {
		return ResolvedArtifact{}, fmt.Errorf("model: artifact %q sha256 %q is not a 64-character hex digest", a.File, a.SHA256)
	}
	return ResolvedArtifact{File: a.File, SHA256: a.SHA256, SizeBytes: a.SizeBytes, URL: a.URL}, nil
}

func validChecksum(sha string) bool {
	if len(sha) != 64 {
		return false
	}
	_, err := hex.DecodeString(sha)
	return err == nil
}

func inferFilenameFromURL(url string) string {
	if i := strings.LastIndexByte(url, '/'); i >= 0 {
		return url[i+1:]
	}
	return url
}
