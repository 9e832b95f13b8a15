package splitter

// Stage identifies a phase of a separation run.
type Stage string

const (
	StageResolveModel  Stage = "resolve_model"
	StageEnginePreload Stage = "engine_preload"
	StageReadAudio     Stage = "read_audio"
	StageInfer         Stage = "infer"
	StageWriteStems    Stage = "write_stems"
	StageFinalize      Stage = "finalize"
)

// Observer receives progress callbacks during a separation run.
// Implementations must be fast; callbacks run on the separation
// goroutine.
type Observer interface {
	Stage(stage Stage)
	Chunk(done, total int, percent float64)
	Writing(stem string, done, total int, percent float64)
	Finished()
}

type nopObserver struct{}

func (nopObserver) Stage(Stage)                       {}
func (nopObserver) Chunk(int, int, float64)           {}
func (nopObserver) Writing(string, int, int, float64) {}
func (nopObserver) Finished()                         {}
