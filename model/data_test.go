package model

import (
	"bytes"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestNewObservations(t *testing.T) {
	assert := assert.New(t)

	obs, err := NewObservations([][]float64{{1, 2}, {3, 4}, {5, 6}})
	assert.NoError(err)
	rows, cols := obs.Dims()
	assert.Equal(3, rows)
	assert.Equal(2, cols)
	assert.Equal(4.0, obs.At(1, 1))
	assert.Equal([]float64{2, 4, 6}, obs.Column(1))
	assert.Equal([]float64{5, 6}, obs.Row(2))

	// Copies, not views
	col := obs.Column(0)
	col[0] = 99
	assert.Equal(1.0, obs.At(0, 0))

	_, err = NewObservations(nil)
	assert.True(errors.Is(err, ErrDimensionMismatch))
	_, err = NewObservations([][]float64{{}})
	assert.True(errors.Is(err, ErrDimensionMismatch))
	_, err = NewObservations([][]float64{{1, 2}, {3}})
	assert.True(errors.Is(err, ErrDimensionMismatch))
	_, err = NewObservations([][]float64{{1, math.NaN()}})
	assert.True(errors.Is(err, ErrInvalidConfiguration))
	_, err = NewObservations([][]float64{{math.Inf(1)}})
	assert.True(errors.Is(err, ErrInvalidConfiguration))
}

func TestReadObservations(t *testing.T) {
	assert := assert.New(t)

	obs, err := ReadObservationsFile("../res/small.dat")
	assert.NoError(err)
	rows, cols := obs.Dims()
	assert.Equal(6, rows)
	assert.Equal(3, cols)
	assert.Equal(0.2134, obs.At(0, 2))
	assert.Equal(0.3613, obs.At(5, 2))

	_, err = ReadObservationsFile("../res/missing.dat")
	assert.Error(err)

	bad := map[string]string{
		"no header":    "",
		"short header": "2",
		"bad count":    "x 2\n1 2",
		"zero rows":    "0 2\n",
		"too few":      "2 2\n1 2 3",
		"too many":     "1 2\n1 2 3",
		"not a number": "1 2\n1 two",
		"not finite":   "1 2\n1 NaN",
	}
	for name, data := range bad {
		_, err := ReadObservations([]byte(data))
		assert.Error(err, name)
	}

	_, err = ReadObservations([]byte("2 2\n1 2 3"))
	assert.True(errors.Is(err, ErrDimensionMismatch))
}

func TestObservationsRoundTrip(t *testing.T) {
	assert := assert.New(t)

	obs, err := NewObservations([][]float64{{0.125, -3}, {1e-7, 42.5}})
	assert.NoError(err)

	var buf bytes.Buffer
	n, err := obs.WriteTo(&buf)
	assert.NoError(err)
	assert.Equal(int64(buf.Len()), n)

	back, err := ReadObservations(buf.Bytes())
	assert.NoError(err)
	assert.Equal(obs.Column(0), back.Column(0))
	assert.Equal(obs.Column(1), back.Column(1))
}

func TestFieldReader(t *testing.T) {
	assert := assert.New(t)

	fr := NewFieldReader("3  x\n 2.5")
	assert.Equal(3, fr.Remaining())

	i, err := fr.ReadInt()
	assert.NoError(err)
	assert.Equal(3, i)

	_, err = fr.ReadFloat()
	assert.Error(err)

	f, err := fr.ReadFloat()
	assert.NoError(err)
	assert.Equal(2.5, f)
	assert.Equal(0, fr.Remaining())

	_, err = fr.Read()
	assert.Error(err)
	_, err = fr.ReadInt()
	assert.Error(err)
}
