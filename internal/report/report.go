// Package report summarizes realizations as degree correlations and
// writes them as CSV.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/nvandessel/arcprune/internal/experiment"
)

// Header is the column layout of corrs.csv.
var Header = []string{"top", "n", "realiz", "epoch", "corrvisits", "corrfires", "corrinfec"}

// Row is the correlation of vertex degree with each relative measure for
// one batch of one realization.
type Row struct {
	Topology    string  `json:"top"`
	NumVertices int     `json:"n"`
	Seed        int64   `json:"realiz"`
	Batch       int     `json:"epoch"`
	Visits      float64 `json:"corrvisits"`
	Fires       float64 `json:"corrfires"`
	Infections  float64 `json:"corrinfec"`
}

// Pearson returns the sample correlation of x and y. It returns 0 when
// either series is constant or the lengths differ.
func Pearson(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) || constant(x) || constant(y) {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0
	}
	return max(-1, min(1, r))
}

func constant(xs []float64) bool {
	for _, v := range xs[1:] {
		if v != xs[0] {
			return false
		}
	}
	return true
}

// DegreeCorrelation correlates degrees with measure normalized to sum to
// one. A measure that sums to zero correlates as 0.
func DegreeCorrelation(degrees, measure []int64) float64 {
	var total int64
	for _, v := range measure {
		total += v
	}
	if total == 0 {
		return 0
	}
	x := make([]float64, len(degrees))
	for i, d := range degrees {
		x[i] = float64(d)
	}
	y := make([]float64, len(measure))
	for i, v := range measure {
		y[i] = float64(v) / float64(total)
	}
	return Pearson(x, y)
}

// Correlate returns one row per batch of r.
func Correlate(r *experiment.Realization) []Row {
	rows := make([]Row, len(r.Batches))
	for i, b := range r.Batches {
		rows[i] = Row{
			Topology:    r.Topology,
			NumVertices: r.NumVertices,
			Seed:        r.Seed,
			Batch:       b.Batch,
			Visits:      DegreeCorrelation(b.Degrees, b.Visits),
			Fires:       DegreeCorrelation(b.Degrees, b.Fires),
			Infections:  DegreeCorrelation(b.Degrees, b.Infections),
		}
	}
	return rows
}

// CorrelateAll concatenates the rows of every successful outcome in
// realization order.
func CorrelateAll(outcomes []experiment.Outcome) []Row {
	var rows []Row
	for _, o := range outcomes {
		if o.Realization != nil {
			rows = append(rows, Correlate(o.Realization)...)
		}
	}
	return rows
}

func (r Row) record() []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return []string{
		r.Topology,
		strconv.Itoa(r.NumVertices),
		strconv.FormatInt(r.Seed, 10),
		strconv.Itoa(r.Batch),
		f(r.Visits),
		f(r.Fires),
		f(r.Infections),
	}
}

// WriteCSV writes rows to path with Header as the first line.
func WriteCSV(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range rows {
		if err := w.Write(r.record()); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return f.Close()
}

// ReadCSV reads a file written by WriteCSV.
func ReadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		row, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRecord(rec []string) (Row, error) {
	if len(rec) != len(Header) {
		return Row{}, fmt.Errorf("got %d fields, want %d", len(rec), len(Header))
	}
	r := Row{Topology: rec[0]}
	var errs [6]error
	r.NumVertices, errs[0] = strconv.Atoi(rec[1])
	r.Seed, errs[1] = strconv.ParseInt(rec[2], 10, 64)
	r.Batch, errs[2] = strconv.Atoi(rec[3])
	r.Visits, errs[3] = strconv.ParseFloat(rec[4], 64)
	r.Fires, errs[4] = strconv.ParseFloat(rec[5], 64)
	r.Infections, errs[5] = strconv.ParseFloat(rec[6], 64)
	if err := errors.Join(errs[:]...); err != nil {
		return Row{}, err
	}
	return r, nil
}
