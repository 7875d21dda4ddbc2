package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nvandessel/arcprune/internal/experiment"
)

// Array names. Each is stored as <name>.arrow in the realization directory.
const (
	Degrees        = "degrees"
	Visits         = "vvisit"
	Fires          = "vfires"
	Infections     = "vinfec"
	LastFires      = "lfires"
	LastInfections = "linfec"
	Attempts       = "nattempts"
)

// Ext is the artifact file extension.
const Ext = ".arrow"

// Matrices and Vectors list the artifact names by shape.
var (
	Matrices = []string{Degrees, Visits, Fires, Infections}
	Vectors  = []string{LastFires, LastInfections, Attempts}
)

// Dir returns the directory holding the artifacts of seed.
func Dir(outdir string, seed int64) string {
	return filepath.Join(outdir, fmt.Sprintf("%02d", seed))
}

// Path returns the file of one named array inside dir.
func Path(dir, name string) string {
	return filepath.Join(dir, name+Ext)
}

// Set is the full array set of one realization.
type Set struct {
	Matrices map[string][][]int64
	Vectors  map[string][]int64
}

// FromRealization collects the arrays of r under their artifact names.
func FromRealization(r *experiment.Realization) Set {
	return Set{
		Matrices: map[string][][]int64{
			Degrees:    r.DegreeMatrix(),
			Visits:     r.VisitMatrix(),
			Fires:      r.FireMatrix(),
			Infections: r.InfectionMatrix(),
		},
		Vectors: map[string][]int64{
			LastFires:      r.LastFires(),
			LastInfections: r.LastInfections(),
			Attempts:       r.Attempts(),
		},
	}
}

// SaveRealization writes every array of r to Dir(outdir, r.Seed) and
// returns that directory.
func SaveRealization(outdir string, r *experiment.Realization) (string, error) {
	dir := Dir(outdir, r.Seed)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating realization dir: %w", err)
	}
	set := FromRealization(r)
	for _, name := range Matrices {
		if err := WriteMatrix(Path(dir, name), set.Matrices[name]); err != nil {
			return "", fmt.Errorf("writing %s: %w", name, err)
		}
	}
	for _, name := range Vectors {
		if err := WriteVector(Path(dir, name), set.Vectors[name]); err != nil {
			return "", fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return dir, nil
}

// Load reads every array from dir.
func Load(dir string) (Set, error) {
	set := Set{
		Matrices: make(map[string][][]int64, len(Matrices)),
		Vectors:  make(map[string][]int64, len(Vectors)),
	}
	for _, name := range Matrices {
		m, err := ReadMatrix(Path(dir, name))
		if err != nil {
			return Set{}, fmt.Errorf("reading %s: %w", name, err)
		}
		set.Matrices[name] = m
	}
	for _, name := range Vectors {
		v, err := ReadVector(Path(dir, name))
		if err != nil {
			return Set{}, fmt.Errorf("reading %s: %w", name, err)
		}
		set.Vectors[name] = v
	}
	return set, nil
}
