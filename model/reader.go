package model

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FieldReader reads whitespace-delimited tokens, as used by the observation
// text format.
type FieldReader struct {
	Pos    int
	Fields []string
}

// NewFieldReader constructs a new field reader around the given data
func NewFieldReader(data string) *FieldReader {
	return &FieldReader{0, strings.Fields(data)}
}

// Remaining is the number of unread tokens
func (fr *FieldReader) Remaining() int {
	return len(fr.Fields) - fr.Pos
}

// Read returns the next space-delimited field/token
func (fr *FieldReader) Read() (string, error) {
	if fr.Pos >= len(fr.Fields) {
		return "", io.EOF
	}
	p := fr.Pos
	fr.Pos++
	return fr.Fields[p], nil
}

// ReadInt reads the next token as an int
func (fr *FieldReader) ReadInt() (int, error) {
	s, err := fr.Read()
	if err != nil {
		return 0, err
	}

	i, err := strconv.ParseInt(s, 10, 0)
	if err != nil {
		return 0, errors.Wrapf(err, "field %d", fr.Pos)
	}
	return int(i), nil
}

// ReadFloat reads the next token as a float
func (fr *FieldReader) ReadFloat() (float64, error) {
	s, err := fr.Read()
	if err != nil {
		return 0, err
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "field %d", fr.Pos)
	}
	return f, nil
}
