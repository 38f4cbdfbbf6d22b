package submission

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fraudline-dev/fraudline/internal/model"
)

// Header is the CSV header for a submission file.
const Header = "TransactionID,isFraud"

const (
	numFields  = 2
	colID      = 0
	colIsFraud = 1
)

// ReadPredictions reads all predictions from a submission reader.
func ReadPredictions(r io.Reader) ([]model.Prediction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading submission CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var preds []model.Prediction
	for i, rec := range records[1:] {
		p, err := UnmarshalPrediction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		preds = append(preds, p)
	}
	return preds, nil
}

// WritePredictions writes predictions to a submission writer (including header).
func WritePredictions(w io.Writer, preds []model.Prediction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, p := range preds {
		if err := cw.Write(MarshalPrediction(p)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalPrediction converts a Prediction to a CSV row ([]string).
func MarshalPrediction(p model.Prediction) []string {
	row := make([]string, numFields)
	row[colID] = p.TransactionID
	row[colIsFraud] = strconv.FormatFloat(p.IsFraud, 'f', -1, 64)
	return row
}

// UnmarshalPrediction converts a CSV row to a Prediction.
func UnmarshalPrediction(record []string) (model.Prediction, error) {
	if len(record) != numFields {
		return model.Prediction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	prob, err := strconv.ParseFloat(record[colIsFraud], 64)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("parsing isFraud %q: %w", record[colIsFraud], err)
	}

	return model.Prediction{
		TransactionID: record[colID],
		IsFraud:       prob,
	}, nil
}

// Save writes predictions to path, replacing any existing file.
func Save(path string, preds []model.Prediction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating submission: %w", err)
	}
	if err := WritePredictions(f, preds); err != nil {
		f.Close()
		return fmt.Errorf("writing submission %s: %w", path, err)
	}
	return f.Close()
}
