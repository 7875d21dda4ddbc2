// Package artifact stores the per-realization arrays as Apache Arrow IPC
// files. Matrices are written in long form with int64 columns
// (batch, vertex, value); vectors as (batch, value). The schema metadata
// records the kind and the shape so empty arrays round-trip.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// ErrBadArtifact is returned when a file is not an artifact of the
// expected kind or shape.
var ErrBadArtifact = errors.New("bad artifact")

const (
	kindMatrix = "matrix"
	kindVector = "vector"

	metaKind = "arcprune.kind"
	metaRows = "arcprune.rows"
	metaCols = "arcprune.cols"
)

// maxRecordRows bounds the rows per record batch.
const maxRecordRows = 1 << 16

func int64Field(name string) arrow.Field {
	return arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Int64}
}

func matrixSchema(rows, cols int) *arrow.Schema {
	md := arrow.NewMetadata(
		[]string{metaKind, metaRows, metaCols},
		[]string{kindMatrix, strconv.Itoa(rows), strconv.Itoa(cols)},
	)
	return arrow.NewSchema([]arrow.Field{int64Field("batch"), int64Field("vertex"), int64Field("value")}, &md)
}

func vectorSchema(rows int) *arrow.Schema {
	md := arrow.NewMetadata(
		[]string{metaKind, metaRows, metaCols},
		[]string{kindVector, strconv.Itoa(rows), "1"},
	)
	return arrow.NewSchema([]arrow.Field{int64Field("batch"), int64Field("value")}, &md)
}

// WriteMatrix writes m to path. Every row must have the same length.
func WriteMatrix(path string, m [][]int64) error {
	cols := 0
	if len(m) > 0 {
		cols = len(m[0])
	}
	for i, row := range m {
		if len(row) != cols {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrBadArtifact, i, len(row), cols)
		}
	}

	schema := matrixSchema(len(m), cols)
	return writeFile(path, schema, func(b *array.RecordBuilder, flush func() error) error {
		batch := b.Field(0).(*array.Int64Builder)
		vertex := b.Field(1).(*array.Int64Builder)
		value := b.Field(2).(*array.Int64Builder)
		pending := 0
		for i, row := range m {
			for j, x := range row {
				batch.Append(int64(i))
				vertex.Append(int64(j))
				value.Append(x)
				pending++
				if pending == maxRecordRows {
					if err := flush(); err != nil {
						return err
					}
					pending = 0
				}
			}
		}
		return nil
	})
}

// WriteVector writes v to path.
func WriteVector(path string, v []int64) error {
	schema := vectorSchema(len(v))
	return writeFile(path, schema, func(b *array.RecordBuilder, flush func() error) error {
		batch := b.Field(0).(*array.Int64Builder)
		value := b.Field(1).(*array.Int64Builder)
		for i, x := range v {
			batch.Append(int64(i))
			value.Append(x)
			if (i+1)%maxRecordRows == 0 {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// writeFile creates path and streams the records produced by fill. fill
// calls flush to emit the rows built so far as one record batch; the
// remainder is flushed when fill returns.
func writeFile(path string, schema *arrow.Schema, fill func(*array.RecordBuilder, func() error) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating artifact: %w", err)
	}
	defer f.Close()

	mem := memory.NewGoAllocator()
	w, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("opening arrow writer: %w", err)
	}

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	flush := func() error {
		rec := b.NewRecord()
		defer rec.Release()
		if rec.NumRows() == 0 {
			return nil
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
		return nil
	}

	if err := fill(b, flush); err != nil {
		w.Close()
		return err
	}
	if err := flush(); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing arrow writer: %w", err)
	}
	return f.Close()
}

// ReadMatrix reads a matrix written by WriteMatrix.
func ReadMatrix(path string) ([][]int64, error) {
	var out [][]int64
	err := readFile(path, kindMatrix, func(rows, cols int) {
		out = make([][]int64, rows)
		for i := range out {
			out[i] = make([]int64, cols)
		}
	}, func(rec arrow.Record) error {
		batch := rec.Column(0).(*array.Int64).Int64Values()
		vertex := rec.Column(1).(*array.Int64).Int64Values()
		value := rec.Column(2).(*array.Int64).Int64Values()
		for k := range value {
			i, j := int(batch[k]), int(vertex[k])
			if i < 0 || i >= len(out) || j < 0 || j >= len(out[i]) {
				return fmt.Errorf("%w: cell (%d, %d) outside shape", ErrBadArtifact, i, j)
			}
			out[i][j] = value[k]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadVector reads a vector written by WriteVector.
func ReadVector(path string) ([]int64, error) {
	var out []int64
	err := readFile(path, kindVector, func(rows, _ int) {
		out = make([]int64, rows)
	}, func(rec arrow.Record) error {
		batch := rec.Column(0).(*array.Int64).Int64Values()
		value := rec.Column(1).(*array.Int64).Int64Values()
		for k := range value {
			i := int(batch[k])
			if i < 0 || i >= len(out) {
				return fmt.Errorf("%w: index %d outside length %d", ErrBadArtifact, i, len(out))
			}
			out[i] = value[k]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func readFile(path, kind string, alloc func(rows, cols int), each func(arrow.Record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening artifact: %w", err)
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadArtifact, path, err)
	}
	defer r.Close()

	md := r.Schema().Metadata()
	if got := metaValue(md, metaKind); got != kind {
		return fmt.Errorf("%w: %s holds %q, want %q", ErrBadArtifact, path, got, kind)
	}
	rows, errR := strconv.Atoi(metaValue(md, metaRows))
	cols, errC := strconv.Atoi(metaValue(md, metaCols))
	if errR != nil || errC != nil || rows < 0 || cols < 0 {
		return fmt.Errorf("%w: %s has no valid shape", ErrBadArtifact, path)
	}
	alloc(rows, cols)

	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return fmt.Errorf("reading record %d: %w", i, err)
		}
		if err := each(rec); err != nil {
			return err
		}
	}
	return nil
}

func metaValue(md arrow.Metadata, key string) string {
	i := md.FindKey(key)
	if i < 0 {
		return ""
	}
	return md.Values()[i]
}
