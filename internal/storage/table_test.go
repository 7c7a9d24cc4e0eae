package storage

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/quartic/internal/dynamo"
	"github.com/san-kum/quartic/internal/integrators"
	"github.com/san-kum/quartic/internal/physics"
	"github.com/san-kum/quartic/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quarticResult(t *testing.T) *dynamo.Result {
	t.Helper()
	s := sim.New(physics.NewQuartic(), integrators.NewRK45())
	res, err := s.Run(context.Background(), dynamo.State{1, 0}, dynamo.DefaultConfig())
	require.NoError(t, err)
	return res
}

func TestFormatFloat(t *testing.T) {
	// summed at run time so the result carries the float64 rounding error
	a, b := 0.1, 0.2

	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{math.Copysign(0, -1), "-0.0"},
		{1, "1.0"},
		{10, "10.0"},
		{-4, "-4.0"},
		{0.01, "0.01"},
		{a + b, "0.30000000000000004"},
		{0.30000000000000004, "0.30000000000000004"},
		{0.3, "0.3"},
		{0.0001, "0.0001"},
		{0.00001, "1e-05"},
		{1.5e-7, "1.5e-07"},
		{-2.5e-10, "-2.5e-10"},
		{1e15, "1000000000000000.0"},
		{1e16, "1e+16"},
		{1.2345678901234568e+17, "1.2345678901234568e+17"},
		{5e-324, "5e-324"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
		{math.NaN(), ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFloat(tt.in), "FormatFloat(%v)", tt.in)
	}
}

func TestWriteTable_Layout(t *testing.T) {
	table := Table{
		Time:     []float64{0, 0.01},
		Position: []float64{1, 0.9999},
		Momentum: []float64{0, -0.04},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, table))

	want := ",Time,Position,Momentum\n" +
		"0,0.0,1.0,0.0\n" +
		"1,0.01,0.9999,-0.04\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteTable_MismatchedColumns(t *testing.T) {
	table := Table{Time: []float64{0, 1}, Position: []float64{1}, Momentum: []float64{0, 0}}
	err := WriteTable(&bytes.Buffer{}, table)
	assert.ErrorIs(t, err, ErrMalformedTable)
}

func TestExportCSV_RoundTrip(t *testing.T) {
	res := quarticResult(t)
	path := filepath.Join(t.TempDir(), "fourth_power_single_particle_data.csv")

	require.NoError(t, ExportCSV(path, res))

	table, err := ImportCSV(path)
	require.NoError(t, err)
	require.Equal(t, res.Len(), table.Len())

	assert.Equal(t, res.Times, table.Time)
	assert.Equal(t, res.Component(0), table.Position)
	assert.Equal(t, res.Component(1), table.Momentum)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Equal(t, ",Time,Position,Momentum", lines[0])
	assert.Equal(t, "0,0.0,1.0,0.0", lines[1])
	assert.Len(t, lines, res.Len()+1)
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "1"))
	assert.Contains(t, lines[len(lines)-1], ",10.0,")
}

func TestExportCSV_Deterministic(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")

	require.NoError(t, ExportCSV(a, quarticResult(t)))
	require.NoError(t, ExportCSV(b, quarticResult(t)))

	da, err := os.ReadFile(a)
	require.NoError(t, err)
	db, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestExportCSV_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 1<<16)), 0644))

	res := &dynamo.Result{Times: []float64{0}, States: []dynamo.State{{1, 0}}}
	require.NoError(t, ExportCSV(path, res))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ",Time,Position,Momentum\n0,0.0,1.0,0.0\n", string(data))
}

func TestExportCSV_UnwritablePath(t *testing.T) {
	res := &dynamo.Result{Times: []float64{0}, States: []dynamo.State{{1, 0}}}
	err := ExportCSV(filepath.Join(t.TempDir(), "missing", "out.csv"), res)
	assert.Error(t, err)
}

func TestReadTable_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"wrong header", "idx,t,x,p\n0,0.0,1.0,0.0\n"},
		{"bad index", ",Time,Position,Momentum\n3,0.0,1.0,0.0\n"},
		{"bad float", ",Time,Position,Momentum\n0,zero,1.0,0.0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTable(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrMalformedTable)
		})
	}

	_, err := ReadTable(strings.NewReader(",Time,Position\n0,0.0,1.0\n"))
	assert.Error(t, err)
}

func TestReadTable_SpecialValues(t *testing.T) {
	input := ",Time,Position,Momentum\n0,1e-05,inf,\n"
	table, err := ReadTable(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	assert.Equal(t, 1e-05, table.Time[0])
	assert.True(t, math.IsInf(table.Position[0], 1))
	assert.True(t, math.IsNaN(table.Momentum[0]))
}

func TestTable_Result(t *testing.T) {
	table := Table{
		Time:     []float64{0, 0.5},
		Position: []float64{1, 0.5},
		Momentum: []float64{0, -1},
	}

	res := table.Result()
	require.Equal(t, 2, res.Len())
	assert.Equal(t, dynamo.State{0.5, -1}, res.Final())

	res.Times[0] = 42
	assert.Equal(t, 0.0, table.Time[0])
}

func TestParquet_RoundTrip(t *testing.T) {
	res := quarticResult(t)
	path := filepath.Join(t.TempDir(), "trajectory.parquet")

	require.NoError(t, WriteParquet(path, TableFromResult(res)))

	table, err := ReadParquet(path)
	require.NoError(t, err)
	require.Equal(t, res.Len(), table.Len())

	assert.Equal(t, res.Times, table.Time)
	assert.Equal(t, res.Component(0), table.Position)
	assert.Equal(t, res.Component(1), table.Momentum)
}

func TestParquet_MissingFile(t *testing.T) {
	_, err := ReadParquet(filepath.Join(t.TempDir(), "missing.parquet"))
	assert.Error(t, err)
}
