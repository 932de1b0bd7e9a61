// Package dataset loads binary classification data into gonum matrices.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"helr/core/ckkswrapper"
)

// Dataset holds R observations of W features and their 0/1 labels.
type Dataset struct {
	X *mat.Dense
	Y *mat.VecDense
}

// New checks that x and y describe the same observations.
func New(x *mat.Dense, y *mat.VecDense) (*Dataset, error) {
	d := &Dataset{X: x, Y: y}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Dims returns the number of observations and features.
func (d *Dataset) Dims() (rows, features int) {
	return d.X.Dims()
}

func (d *Dataset) Validate() error {
	r, c := d.X.Dims()
	if r == 0 || c == 0 {
		return fmt.Errorf("%w: empty feature matrix", ckkswrapper.ErrDimensionMismatch)
	}
	if d.Y.Len() != r {
		return fmt.Errorf("%w: %d feature rows but %d labels", ckkswrapper.ErrDimensionMismatch, r, d.Y.Len())
	}
	return nil
}

// Row copies observation i.
func (d *Dataset) Row(i int) []float64 {
	return mat.Row(nil, i, d.X)
}

// Column copies feature j across all observations.
func (d *Dataset) Column(j int) []float64 {
	return mat.Col(nil, j, d.X)
}

// Labels copies the label vector.
func (d *Dataset) Labels() []float64 {
	return mat.Col(nil, 0, d.Y)
}

// Transpose returns X^T as a new matrix, one row per feature.
func (d *Dataset) Transpose() *mat.Dense {
	return mat.DenseCopyOf(d.X.T())
}

type errInvalidLine struct {
	lineNum  int
	fields   int
	expected int
}

func (e errInvalidLine) Error() string {
	return fmt.Sprintf("at line %d, expected %d values, got %d", e.lineNum, e.expected, e.fields)
}

// Read parses comma separated records. The first record is a header and is
// skipped; the last column of every other record is the label.
func Read(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no header row", ckkswrapper.ErrDimensionMismatch)
		}
		return nil, err
	}
	width := len(header)
	if width < 2 {
		return nil, fmt.Errorf("%w: need at least one feature and a label, got %d columns", ckkswrapper.ErrDimensionMismatch, width)
	}

	var features, labels []float64
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(record) != width {
			return nil, fmt.Errorf("%w: %w", ckkswrapper.ErrDimensionMismatch, errInvalidLine{lineNum: line, fields: len(record), expected: width})
		}
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, i+1, err)
			}
			if i == width-1 {
				labels = append(labels, v)
			} else {
				features = append(features, v)
			}
		}
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no observations", ckkswrapper.ErrDimensionMismatch)
	}
	return New(mat.NewDense(len(labels), width-1, features), mat.NewVecDense(len(labels), labels))
}

// LoadCSV reads a dataset file, see Read.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return d, nil
}

// Standardize centres every column of x on its mean and divides it by its
// population standard deviation, in place. A constant column is only
// centred. The column statistics are returned.
func Standardize(x *mat.Dense) (mean, std []float64) {
	r, c := x.Dims()
	mean = make([]float64, c)
	std = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, x)
		m, v := stat.PopMeanVariance(col, nil)
		mean[j], std[j] = m, math.Sqrt(v)
		for i := 0; i < r; i++ {
			val := x.At(i, j) - m
			if std[j] > 0 {
				val /= std[j]
			}
			x.Set(i, j, val)
		}
	}
	return mean, std
}
