package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// CSVReader loads a dataset whose last column holds the label and every other
// column a numeric feature. The first row is the header.
type CSVReader struct {
	filename string
	// NumericLabels parses labels as decimals instead of keeping them as
	// strings, so that sign-based decorators can read them.
	NumericLabels bool
}

func NewCSVReader(filename string) (*CSVReader, error) {
	if filename == "" {
		return nil, fmt.Errorf("csv filename must not be empty")
	}
	return &CSVReader{filename: filename}, nil
}

func (cr *CSVReader) LoadData() (*Dataset, []string, error) {
	file, err := os.Open(cr.filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return cr.Read(file)
}

// Read parses CSV content from r.
func (cr *CSVReader) Read(r io.Reader) (*Dataset, []string, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv: %w", err)
	}

	if len(records) < 2 {
		return nil, nil, fmt.Errorf("insufficient data in file")
	}

	headers := records[0][:len(records[0])-1]
	rows := records[1:]

	samples := make([]Sample, len(rows))
	labels := make([]Label, len(rows))

	for i, record := range rows {
		if len(record) < 2 {
			return nil, nil, fmt.Errorf("row %d: need at least one feature and a label", i+1)
		}

		samples[i] = make(Sample, len(record)-1)
		for j := 0; j < len(record)-1; j++ {
			val, err := decimal.NewFromString(strings.TrimSpace(record[j]))
			if err != nil {
				return nil, nil, fmt.Errorf("invalid numeric value at row %d, column %d: %q", i+1, j, record[j])
			}
			samples[i][j] = val
		}

		raw := strings.TrimSpace(record[len(record)-1])
		if cr.NumericLabels {
			val, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid numeric label at row %d: %q", i+1, raw)
			}
			labels[i] = val
		} else {
			labels[i] = raw
		}
	}

	ds, err := NewDataset(samples, labels)
	if err != nil {
		return nil, nil, err
	}

	return ds, headers, nil
}

// ReadSamples parses unlabeled CSV content: a header row followed by numeric
// feature rows.
func ReadSamples(r io.Reader) ([]Sample, []string, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read csv: %w", err)
	}

	if len(records) < 1 {
		return nil, nil, fmt.Errorf("missing header row")
	}

	samples := make([]Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		sample := make(Sample, len(record))
		for j, raw := range record {
			val, err := decimal.NewFromString(strings.TrimSpace(raw))
			if err != nil {
				return nil, nil, fmt.Errorf("invalid numeric value at row %d, column %d: %q", i+1, j, raw)
			}
			sample[j] = val
		}
		samples = append(samples, sample)
	}

	if err := CheckDim(samples); err != nil {
		return nil, nil, err
	}

	return samples, records[0], nil
}
