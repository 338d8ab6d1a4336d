package posterior

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/CraigKelly/nogold/model"
)

// Sheet names used by the sample artifact
const (
	summarySheet = "summary"
	chainPrefix  = "chain"
)

var summaryHeader = []interface{}{"parameter", "mean", "sd", "2.5%", "median", "97.5%", "rhat"}

// WriteXLSX saves a result as a workbook: a summary sheet (run id, modality
// count, per-parameter summary) and one sheet per chain with a header row of
// parameter names followed by the draws in order.
func WriteXLSX(path string, r *Result) (err error) {
	if len(r.Chains) < 1 {
		return errors.Wrapf(model.ErrInsufficientSamples, "result %s has no chains to save", r.RunID)
	}
	for c, ch := range r.Chains {
		if err = CheckArtifactSize(ch.Len(), len(ch.Names)); err != nil {
			return errors.Wrapf(err, "chain %d", c+1)
		}
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err = f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"run", r.RunID},
		{"modalities", r.Modalities},
		summaryHeader,
	}
	for _, s := range r.Summary {
		row := []interface{}{s.Name, s.Mean, s.StdDev, s.Lower, s.Median, s.Upper, ""}
		if !math.IsNaN(s.Rhat) && !math.IsInf(s.Rhat, 0) {
			row[6] = s.Rhat
		}
		rows = append(rows, row)
	}
	if err = writeRows(f, summarySheet, rows); err != nil {
		return err
	}

	for c, ch := range r.Chains {
		sheet := fmt.Sprintf("%s%d", chainPrefix, c+1)
		if _, err = f.NewSheet(sheet); err != nil {
			return errors.Wrapf(err, "Could not add sheet for chain %d", c+1)
		}

		rows = make([][]interface{}, 0, ch.Len()+1)
		header := make([]interface{}, len(ch.Names))
		for i, n := range ch.Names {
			header[i] = n
		}
		rows = append(rows, header)
		for _, d := range ch.Draws {
			row := make([]interface{}, len(d))
			for i, v := range d {
				row[i] = v
			}
			rows = append(rows, row)
		}
		if err = writeRows(f, sheet, rows); err != nil {
			return errors.Wrapf(err, "chain %d", c+1)
		}
	}

	if err = f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "Could not save sample artifact %s", path)
	}
	return nil
}

// CheckArtifactSize returns an InvalidConfiguration error when a chain of
// draws x params (plus its header row) does not fit on one worksheet
func CheckArtifactSize(draws, params int) error {
	if draws+1 > excelize.TotalRows {
		return errors.Wrapf(model.ErrInvalidConfiguration,
			"%d draws per chain will not fit in a sample artifact (at most %d)", draws, excelize.TotalRows-1)
	}
	if params > excelize.MaxColumns {
		return errors.Wrapf(model.ErrInvalidConfiguration,
			"%d parameters will not fit in a sample artifact (at most %d)", params, excelize.MaxColumns)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "Could not write row %d of sheet %s", r+1, sheet)
		}
	}
	return nil
}

// ReadXLSX loads a result written by WriteXLSX. Chains come back in sheet
// order; summaries are recomputed from the draws.
func ReadXLSX(path string) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Could not READ sample artifact %s", path)
	}
	defer f.Close()

	raw := excelize.Options{RawCellValue: true}

	summary, err := f.GetRows(summarySheet, raw)
	if err != nil {
		return nil, errors.Wrapf(err, "sample artifact %s has no %s sheet", path, summarySheet)
	}
	if len(summary) < 2 || len(summary[0]) < 2 || len(summary[1]) < 2 {
		return nil, errors.Errorf("sample artifact %s has a malformed %s sheet", path, summarySheet)
	}

	r := &Result{RunID: summary[0][1], Rhat: make(map[string]float64)}
	if r.Modalities, err = strconv.Atoi(summary[1][1]); err != nil {
		return nil, errors.Wrapf(err, "sample artifact %s: bad modality count", path)
	}
	for i, row := range summary {
		if i < 3 {
			continue // run, modalities, header
		}
		if len(row) > 6 && len(row[6]) > 0 {
			if rh, perr := strconv.ParseFloat(row[6], 64); perr == nil {
				r.Rhat[row[0]] = rh
			}
		}
	}

	for c := 1; ; c++ {
		sheet := fmt.Sprintf("%s%d", chainPrefix, c)
		if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
			break
		}

		rows, err := f.GetRows(sheet, raw)
		if err != nil {
			return nil, errors.Wrapf(err, "chain %d", c)
		}
		ch, err := parseChain(rows)
		if err != nil {
			return nil, errors.Wrapf(err, "sample artifact %s chain %d", path, c)
		}
		r.Chains = append(r.Chains, ch)
	}

	if len(r.Chains) < 1 {
		return nil, errors.Wrapf(model.ErrInsufficientSamples, "sample artifact %s has no chains", path)
	}

	if err := r.Summarize(); err != nil {
		return nil, err
	}
	return r, nil
}

func parseChain(rows [][]string) (*SampleSet, error) {
	if len(rows) < 1 {
		return nil, errors.Errorf("missing header row")
	}

	names := make([]string, len(rows[0]))
	for i, n := range rows[0] {
		names[i] = strings.TrimSpace(n)
	}
	ch, err := NewSampleSet(names)
	if err != nil {
		return nil, err
	}

	draw := make([]float64, len(names))
	for r, row := range rows[1:] {
		if len(row) != len(names) {
			return nil, errors.Wrapf(model.ErrDimensionMismatch, "draw %d has %d values for %d parameters", r+1, len(row), len(names))
		}
		for i, v := range row {
			if draw[i], err = strconv.ParseFloat(v, 64); err != nil {
				return nil, errors.Wrapf(err, "draw %d, parameter %s", r+1, names[i])
			}
			if math.IsNaN(draw[i]) || math.IsInf(draw[i], 0) {
				return nil, errors.Errorf("draw %d, parameter %s is not finite: %s", r+1, names[i], v)
			}
		}
		if err := ch.Append(draw); err != nil {
			return nil, err
		}
	}
	return ch, nil
}
