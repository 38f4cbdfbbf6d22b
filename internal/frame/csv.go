package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// indexHeaders are the names a dataframe writer gives its row index.
var indexHeaders = map[string]bool{"": true, "Unnamed: 0": true}

// naTokens are the cell values read as missing, the same set pandas uses by
// default.
var naTokens = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true,
	"-1.#QNAN": true, "-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true,
	"<NA>": true, "N/A": true, "NA": true, "NULL": true, "NaN": true, "None": true,
	"n/a": true, "nan": true, "null": true,
}

// ReadCSV reads a table with a header row. A column is numeric when every
// non-missing cell parses as a float, otherwise it is a string column. Empty
// cells and the usual NA spellings (NA, N/A, null, NaN, ...) are missing.
// Row index columns are dropped.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading table CSV: %w", err)
	}

	if len(records) == 0 {
		return New(0), nil
	}

	header := records[0]
	body := records[1:]
	t := New(len(body))
	for j, name := range header {
		if indexHeaders[name] {
			continue
		}
		cells := make([]string, len(body))
		for i, rec := range body {
			cells[i] = rec[j]
		}
		if err := t.Append(parseColumn(name, cells)); err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
	}
	return t, nil
}

func parseColumn(name string, cells []string) *Column {
	nums := make([]float64, len(cells))
	for i, s := range cells {
		if naTokens[s] {
			nums[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			missing := make([]bool, len(cells))
			for k, cell := range cells {
				missing[k] = naTokens[cell]
			}
			return StringColumn(name, cells, missing)
		}
		nums[i] = v
	}
	return NumericColumn(name, nums)
}

// WriteCSV writes t with a header row. Missing values are written as empty cells.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := make([]string, len(t.cols))
	for i := 0; i < t.rows; i++ {
		for j, c := range t.cols {
			row[j] = FormatCell(c, i)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// FormatCell renders row i of c the way WriteCSV does.
func FormatCell(c *Column, i int) string {
	if c.IsMissing(i) {
		return ""
	}
	if c.Kind == String {
		return c.Str[i]
	}
	return strconv.FormatFloat(c.Num[i], 'f', -1, 64)
}

// ReadCSVFile reads a table from path.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening table %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading table %s: %w", path, err)
	}
	return t, nil
}

// WriteCSVFile writes t to path, replacing any existing file.
func WriteCSVFile(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
