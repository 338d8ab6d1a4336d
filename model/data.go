package model

import (
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Observations is the n_obs x n_modalities matrix of measured values: row i
// holds every modality's estimate for subject i. It is read-only once
// created, so it may be shared by concurrently running chains.
type Observations struct {
	y *mat.Dense
}

// NewObservations copies rows into a new observation matrix. Every row must
// have the same, non-zero length and every value must be finite.
func NewObservations(rows [][]float64) (*Observations, error) {
	if len(rows) < 1 {
		return nil, dimErrorf("observation matrix has no rows")
	}

	cols := len(rows[0])
	if cols < 1 {
		return nil, dimErrorf("observation matrix has no columns")
	}

	flat := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, dimErrorf("subject %d has %d observations, expected %d", i+1, len(r), cols)
		}
		flat = append(flat, r...)
	}

	return newObservations(len(rows), cols, flat)
}

// newObservations takes ownership of flat (row-major)
func newObservations(rows, cols int, flat []float64) (*Observations, error) {
	for idx, v := range flat {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, configErrorf("observation for subject %d, modality %d is not finite",
				idx/cols+1, idx%cols+1)
		}
	}
	return &Observations{y: mat.NewDense(rows, cols, flat)}, nil
}

// Dims returns (subjects, modalities)
func (o *Observations) Dims() (int, int) {
	return o.y.Dims()
}

// At returns the observation for 0-based subject i and modality m
func (o *Observations) At(i, m int) float64 {
	return o.y.At(i, m)
}

// Column returns a copy of modality m's (0-based) observations
func (o *Observations) Column(m int) []float64 {
	return mat.Col(nil, m, o.y)
}

// Row returns a copy of subject i's (0-based) observations
func (o *Observations) Row(i int) []float64 {
	return mat.Row(nil, i, o.y)
}

// Matrix exposes the data read-only
func (o *Observations) Matrix() mat.Matrix {
	return o.y
}

// preprocess drops blank lines and '#' comments
func preprocess(data []byte) string {
	lines := strings.Split(string(data), "\n")
	kept := lines[:0]
	for _, ln := range lines {
		if pos := strings.IndexByte(ln, '#'); pos >= 0 {
			ln = ln[:pos]
		}
		ln = strings.TrimSpace(ln)
		if len(ln) > 0 {
			kept = append(kept, ln)
		}
	}
	return strings.Join(kept, "\n")
}

// ReadObservations parses the text observation format: a header giving the
// subject and modality counts followed by the values in row-major order.
// Whitespace (including newlines) separates fields and '#' starts a comment.
//
//	# three subjects, two modalities
//	3 2
//	0.11 0.09
//	0.52 0.48
//	0.33 0.37
func ReadObservations(data []byte) (*Observations, error) {
	fr := NewFieldReader(preprocess(data))

	rows, err := fr.ReadInt()
	if err != nil {
		return nil, errors.Wrap(err, "Error reading subject count")
	}
	cols, err := fr.ReadInt()
	if err != nil {
		return nil, errors.Wrap(err, "Error reading modality count")
	}
	if rows < 1 || cols < 1 {
		return nil, dimErrorf("header declares a %dx%d observation matrix", rows, cols)
	}

	if found := fr.Remaining(); found != rows*cols {
		return nil, dimErrorf("header declares %dx%d = %d values, found %d", rows, cols, rows*cols, found)
	}

	flat := make([]float64, rows*cols)
	for i := range flat {
		flat[i], err = fr.ReadFloat()
		if err != nil {
			return nil, errors.Wrapf(err, "Error reading value for subject %d, modality %d", i/cols+1, i%cols+1)
		}
	}

	return newObservations(rows, cols, flat)
}

// ReadObservationsFile reads the text observation format from a file
func ReadObservationsFile(filename string) (*Observations, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Could not READ observations from %s", filename)
	}

	obs, err := ReadObservations(data)
	if err != nil {
		return nil, errors.Wrapf(err, "Could not PARSE observations from %s", filename)
	}
	return obs, nil
}

// WriteTo writes the observations in the format read by ReadObservations
func (o *Observations) WriteTo(w io.Writer) (int64, error) {
	rows, cols := o.Dims()

	var total int64
	n, err := fmt.Fprintf(w, "%d %d\n", rows, cols)
	total += int64(n)
	if err != nil {
		return total, err
	}

	for i := 0; i < rows; i++ {
		fields := make([]string, cols)
		for m := 0; m < cols; m++ {
			fields[m] = fmt.Sprintf("%.10g", o.At(i, m))
		}
		n, err = fmt.Fprintln(w, strings.Join(fields, " "))
		total += int64(n)
		if err != nil {
			return total, err
		}
	}

	return total, nil
}
