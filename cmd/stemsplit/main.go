// Command stemsplit separates a music file into instrument stems.
//
// Usage:
//
//	stemsplit [flags] -in song.mp3
//
// Modes:
//
//	split    write one WAV per stem (vocals, drums, bass, other)
//	karaoke  write only the vocals and the instrumental mix
//	mix      write a single WAV mixing the stems named by -stems
//
// Examples:
//
//	stemsplit -in song.mp3 -out stems/
//	stemsplit -in song.wav -mode karaoke
//	stemsplit -in song.wav -mode mix -stems drums,bass
//	stemsplit -in song.wav -model-path ./htdemucs.onnx
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gqf2008/stem-splitter-core/splitter"
)

func main() {
	in := flag.String("in", "", "input audio file (.wav or .mp3)")
	out := flag.String("out", ".", "output directory")
	modelName := flag.String("model", "htdemucs_ort_v1", "registered model name")
	modelPath := flag.String("model-path", "", "local model file, bypasses the registry")
	manifestURL := flag.String("manifest-url", "", "manifest URL override")
	mode := flag.String("mode", "split", "operation: split, karaoke, or mix")
	stemList := flag.String("stems", "", "comma-separated stems for -mode mix")
	quiet := flag.Bool("quiet", false, "suppress progress output")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: stemsplit [flags] -in song.mp3\n\n")
		fmt.Fprintf(os.Stderr, "Separates a music file into instrument stems.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	opts := []splitter.Option{
		splitter.WithModel(*modelName),
		splitter.WithOutputDir(*out),
	}
	if *modelPath != "" {
		opts = append(opts, splitter.WithModelPath(*modelPath))
	}
	if *manifestURL != "" {
		opts = append(opts, splitter.WithManifestURL(*manifestURL))
	}
	if !*quiet {
		opts = append(opts, splitter.WithObserver(&consoleObserver{}))
	}

	if err := run(*mode, *in, *out, *stemList, opts); err != nil {
		fmt.Fprintf(os.Stderr, "stemsplit: %v\n", err)
		os.Exit(1)
	}
}

func run(mode, in, out, stemList string, opts []splitter.Option) error {
	switch mode {
	case "split":
		result, err := splitter.SplitFile(in, opts...)
		if err != nil {
			return err
		}
		fmt.Println(result.VocalsPath)
		fmt.Println(result.DrumsPath)
		fmt.Println(result.BassPath)
		fmt.Println(result.OtherPath)
		return nil

	case "karaoke":
		result, err := splitter.RemoveVocals(in, opts...)
		if err != nil {
			return err
		}
		fmt.Println(result.VocalsPath)
		fmt.Println(result.InstrumentalPath)
		return nil

	case "mix":
		stems, err := parseStems(stemList)
		if err != nil {
			return err
		}
		separated, err := splitter.Separate(in, opts...)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(out, 0o755); err != nil {
			return err
		}
		name := filepath.Base(in)
		name = strings.TrimSuffix(name, filepath.Ext(name))
		path := filepath.Join(out, name+"_mix.wav")
		if err := separated.SaveMix(stems, path); err != nil {
			return err
		}
		fmt.Println(path)
		return nil

	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

func parseStems(list string) ([]splitter.Stem, error) {
	if list == "" {
		return nil, fmt.Errorf("-mode mix needs -stems, e.g. -stems drums,bass")
	}
	known := make(map[string]bool)
	for _, s := range splitter.AllStems() {
		known[string(s)] = true
	}
	var stems []splitter.Stem
	for _, name := range strings.Split(list, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if !known[name] {
			return nil, fmt.Errorf("unknown stem %q", name)
		}
		stems = append(stems, splitter.Stem(name))
	}
	if len(stems) == 0 {
		return nil, fmt.Errorf("no stems given")
	}
	return stems, nil
}

// consoleObserver prints run progress to stderr.
type consoleObserver struct {
	lastPercent int
}

func (c *consoleObserver) Stage(stage splitter.Stage) {
	fmt.Fprintf(os.Stderr, "[%s]\n", stage)
}

func (c *consoleObserver) Chunk(done, total int, percent float64) {
	p := int(percent)
	if p == c.lastPercent && done != total {
		return
	}
	c.lastPercent = p
	fmt.Fprintf(os.Stderr, "\rinference %d/%d (%d%%)", done, total, p)
	if done == total {
		fmt.Fprintln(os.Stderr)
	}
}

func (c *consoleObserver) Writing(stem string, done, total int, percent float64) {
	fmt.Fprintf(os.Stderr, "writing %s\n", stem)
}

func (c *consoleObserver) Finished() {
	fmt.Fprintln(os.Stderr, "done")
}
