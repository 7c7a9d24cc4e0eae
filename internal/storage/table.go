package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/quartic/internal/dynamo"
)

// Columns are the named columns of a trajectory table. The written header
// carries an additional leading unnamed index column.
var Columns = []string{"Time", "Position", "Momentum"}

// ErrMalformedTable indicates a CSV file that is not a trajectory table.
var ErrMalformedTable = errors.New("storage: malformed trajectory table")

// Table is the column-oriented form of a trajectory, one row per sample.
type Table struct {
	Time     []float64
	Position []float64
	Momentum []float64
}

func TableFromResult(res *dynamo.Result) Table {
	return Table{
		Time:     append([]float64(nil), res.Times...),
		Position: res.Component(0),
		Momentum: res.Component(1),
	}
}

func (t Table) Len() int { return len(t.Time) }

// Result rebuilds a trajectory from the table. Run statistics are not stored
// in the table and are left zero.
func (t Table) Result() *dynamo.Result {
	res := &dynamo.Result{
		Times:   append([]float64(nil), t.Time...),
		States:  make([]dynamo.State, t.Len()),
		Metrics: make(map[string]float64),
	}
	for i := range res.States {
		res.States[i] = dynamo.State{t.Position[i], t.Momentum[i]}
	}
	return res
}

func (t Table) validate() error {
	if len(t.Position) != len(t.Time) || len(t.Momentum) != len(t.Time) {
		return fmt.Errorf("%w: column lengths %d/%d/%d", ErrMalformedTable,
			len(t.Time), len(t.Position), len(t.Momentum))
	}
	return nil
}

// FormatFloat renders v in its shortest round-trip form using fixed notation
// for decimal exponents in [-5, 16) and scientific notation otherwise, e.g.
// "10.0", "0.0001", "1e-05", "1.5e+16". NaN renders as an empty field.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	sci := strconv.FormatFloat(v, 'e', -1, 64)
	mant, expStr, _ := strings.Cut(sci, "e")
	exp, _ := strconv.Atoi(expStr)
	if exp < -4 || exp >= 16 {
		sign := '+'
		if exp < 0 {
			sign, exp = '-', -exp
		}
		return fmt.Sprintf("%se%c%02d", mant, sign, exp)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// WriteTable writes the table as CSV with a leading zero-based index column.
func WriteTable(w io.Writer, t Table) error {
	if err := t.validate(); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{""}, Columns...)); err != nil {
		return err
	}

	row := make([]string, 4)
	for i := range t.Time {
		row[0] = strconv.Itoa(i)
		row[1] = FormatFloat(t.Time[i])
		row[2] = FormatFloat(t.Position[i])
		row[3] = FormatFloat(t.Momentum[i])
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func ReadTable(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Table{}, fmt.Errorf("%w: missing header", ErrMalformedTable)
		}
		return Table{}, err
	}
	if header[0] != "" || header[1] != Columns[0] || header[2] != Columns[1] || header[3] != Columns[2] {
		return Table{}, fmt.Errorf("%w: unexpected header %q", ErrMalformedTable, header)
	}

	var t Table
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, err
		}

		idx, err := strconv.Atoi(rec[0])
		if err != nil || idx != row {
			return Table{}, fmt.Errorf("%w: row %d has index %q", ErrMalformedTable, row, rec[0])
		}

		var vals [3]float64
		for j := range vals {
			if vals[j], err = parseFloat(rec[j+1]); err != nil {
				return Table{}, fmt.Errorf("%w: row %d column %s: %v", ErrMalformedTable, row, Columns[j], err)
			}
		}
		t.Time = append(t.Time, vals[0])
		t.Position = append(t.Position, vals[1])
		t.Momentum = append(t.Momentum, vals[2])
	}

	return t, nil
}

// ExportCSV writes the trajectory table of res to path, replacing any
// existing file.
func ExportCSV(path string, res *dynamo.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteTable(f, TableFromResult(res)); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func ImportCSV(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, err
	}
	defer f.Close()

	t, err := ReadTable(f)
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}
