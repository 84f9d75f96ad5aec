package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"labelforge/internal/model"
)

var (
	// ErrShapeMismatch indicates inputs whose row or column counts disagree.
	ErrShapeMismatch = errors.New("dataset: shape mismatch")
	// ErrUnsupportedFormat indicates a file extension with no matrix codec.
	ErrUnsupportedFormat = errors.New("dataset: unsupported matrix format")
	// ErrEmpty indicates a matrix without rows.
	ErrEmpty = errors.New("dataset: empty matrix")
)

// LoadMatrix reads a dense matrix from a .csv file (one row per line) or a
// .bin file written by gonum's MarshalBinary.
func LoadMatrix(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open matrix: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		m, err := readCSV(bufio.NewReader(f))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return m, nil
	case ".bin":
		var m mat.Dense
		if _, err := m.UnmarshalBinaryFrom(bufio.NewReader(f)); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return &m, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// SaveMatrix writes m in the format implied by the extension of path.
func SaveMatrix(path string, m mat.Matrix) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".bin" {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create matrix: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if ext == ".csv" {
		err = writeCSV(w, m)
	} else {
		_, err = mat.DenseCopyOf(m).MarshalBinaryTo(w)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// LoadLabels reads integer class labels. A single-column matrix holds the
// labels directly; a wider one is treated as one-hot (or scores) per row.
func LoadLabels(path string) ([]int, error) {
	m, err := LoadMatrix(path)
	if err != nil {
		return nil, err
	}
	rows, cols := m.Dims()
	if cols > 1 {
		return model.Argmax(m), nil
	}
	labels := make([]int, rows)
	for i := 0; i < rows; i++ {
		v := m.At(i, 0)
		if v < 0 || v != math.Trunc(v) {
			return nil, fmt.Errorf("read %s: row %d: label %v is not a class index", path, i, v)
		}
		labels[i] = int(v)
	}
	return labels, nil
}

func readCSV(r io.Reader) (*mat.Dense, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = 0

	var data []float64
	rows, cols := 0, 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) && errors.Is(perr.Err, csv.ErrFieldCount) {
				return nil, fmt.Errorf("%w: line %d has %d fields", ErrShapeMismatch, perr.Line, len(record))
			}
			return nil, err
		}
		cols = len(record)
		for j, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", rows, j, err)
			}
			data = append(data, v)
		}
		rows++
	}
	if rows == 0 {
		return nil, ErrEmpty
	}
	return mat.NewDense(rows, cols, data), nil
}

func writeCSV(w io.Writer, m mat.Matrix) error {
	cw := csv.NewWriter(w)
	rows, cols := m.Dims()
	record := make([]string, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
