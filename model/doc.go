// Package model resolves, downloads, and verifies separation model
// artifacts.
//
// A Manifest describes a published model: its audio geometry, stem
// order, and downloadable artifacts. Ensure fetches the manifest for a
// registered model name, downloads the ONNX artifact into a local cache,
// and verifies its checksum. LoadFromPath wraps a local model file with
// default htdemucs settings for development use.
package model
