package model

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"
	"strings"
)

// Column binds a feature name to the CSV header it is read from.
type Column struct {
	Feature string
	Header  string
}

// Dataset is a dense training table in feature order.
type Dataset struct {
	X       [][]float64
	Y       []float64
	Skipped int
}

// ReadCSV loads the configured columns. Rows with an empty or non-numeric
// cell in any used column are skipped and counted.
func ReadCSV(r io.Reader, columns []Column, target string) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, errors.New("no feature columns configured")
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(h)] = i
	}

	featureIdx := make([]int, len(columns))
	for i, c := range columns {
		idx, ok := pos[c.Header]
		if !ok {
			return nil, fmt.Errorf("csv has no column %q for feature %q", c.Header, c.Feature)
		}
		featureIdx[i] = idx
	}
	targetIdx, ok := pos[target]
	if !ok {
		return nil, fmt.Errorf("csv has no target column %q", target)
	}

	ds := &Dataset{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		y, ok := cell(record, targetIdx)
		if !ok {
			ds.Skipped++
			continue
		}
		row := make([]float64, len(featureIdx))
		complete := true
		for i, idx := range featureIdx {
			v, ok := cell(record, idx)
			if !ok {
				complete = false
				break
			}
			row[i] = v
		}
		if !complete {
			ds.Skipped++
			continue
		}
		ds.X = append(ds.X, row)
		ds.Y = append(ds.Y, y)
	}

	if len(ds.X) == 0 {
		return nil, errors.New("csv has no complete rows")
	}
	return ds, nil
}

func cell(record []string, idx int) (float64, bool) {
	if idx >= len(record) {
		return 0, false
	}
	s := strings.TrimSpace(record[idx])
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Split shuffles with seed and holds out testFraction of rows.
func (d *Dataset) Split(testFraction float64, seed int64) (train, test *Dataset) {
	order := rand.New(rand.NewSource(seed)).Perm(len(d.X))

	nTest := int(math.Round(testFraction * float64(len(d.X))))
	if nTest >= len(d.X) {
		nTest = len(d.X) - 1
	}
	if nTest < 0 {
		nTest = 0
	}

	train, test = &Dataset{}, &Dataset{}
	for i, idx := range order {
		if i < nTest {
			test.X = append(test.X, d.X[idx])
			test.Y = append(test.Y, d.Y[idx])
			continue
		}
		train.X = append(train.X, d.X[idx])
		train.Y = append(train.Y, d.Y[idx])
	}
	return train, test
}

// TargetRange returns min and max of Y.
func (d *Dataset) TargetRange() (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range d.Y {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
