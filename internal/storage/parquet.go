package storage

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
)

// Sample is one trajectory row in columnar form.
type Sample struct {
	Index    int64   `parquet:"index,snappy"`
	Time     float64 `parquet:"time,snappy"`
	Position float64 `parquet:"position,snappy"`
	Momentum float64 `parquet:"momentum,snappy"`
}

func (t Table) Samples() []Sample {
	rows := make([]Sample, t.Len())
	for i := range rows {
		rows[i] = Sample{
			Index:    int64(i),
			Time:     t.Time[i],
			Position: t.Position[i],
			Momentum: t.Momentum[i],
		}
	}
	return rows
}

func WriteParquet(path string, t Table) error {
	if err := t.validate(); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[Sample](file)
	if _, err := writer.Write(t.Samples()); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}

	return file.Close()
}

func ReadParquet(path string) (Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return Table{}, err
	}
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[Sample](file)
	defer func() { _ = reader.Close() }()

	rows := make([]Sample, reader.NumRows())
	n := 0
	for n < len(rows) {
		k, err := reader.Read(rows[n:])
		n += k
		if errors.Is(err, io.EOF) || (err == nil && k == 0) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("failed to read parquet file: %w", err)
		}
	}
	rows = rows[:n]

	t := Table{
		Time:     make([]float64, n),
		Position: make([]float64, n),
		Momentum: make([]float64, n),
	}
	for i, r := range rows {
		if r.Index != int64(i) {
			return Table{}, fmt.Errorf("%w: row %d has index %d", ErrMalformedTable, i, r.Index)
		}
		t.Time[i], t.Position[i], t.Momentum[i] = r.Time, r.Position, r.Momentum
	}
	return t, nil
}
