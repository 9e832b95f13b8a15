package splitter

import "strings"

// Stem names a separated source.
type Stem string

const (
	StemVocals Stem = "vocals"
	StemDrums  Stem = "drums"
	StemBass   Stem = "bass"
	StemOther  Stem = "other"
)

// AllStems returns the four canonical stems in their conventional
// order.
func AllStems() []Stem {
	return []Stem{StemVocals, StemDrums, StemBass, StemOther}
}

// Positions assumed for canonical stems when the manifest does not name
// them.
var fallbackIndex = map[string]int{
	"vocals": 0,
	"drums":  1,
	"bass":   2,
	"other":  3,
}

// stemIndex maps stem names to accumulator positions for one
// separation run.
type stemIndex struct {
	names  []string
	byName map[string]int
	count  int
}

func newStemIndex(names []string, count int) stemIndex {
	idx := stemIndex{names: names, byName: make(map[string]int, len(names)), count: count}
	for i, name := range names {
		idx.byName[strings.ToLower(name)] = i
	}
	return idx
}

// resolve returns the accumulator position for a stem name. Names the
// manifest does not list fall back to the conventional position,
// clamped to the available stem count.
func (idx stemIndex) resolve(name string) int {
	key := strings.ToLower(name)
	i, ok := idx.byName[key]
	if !ok {
		i = fallbackIndex[key]
	}
	if i > idx.count-1 {
		i = idx.count - 1
	}
	return i
}
