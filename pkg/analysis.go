package scintsim

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

type ColumnKind int

const (
	Int32Column ColumnKind = iota
	Float64Column
	Int32Sequence
	Float64Sequence
)

func (k ColumnKind) String() string {
	switch k {
	case Int32Column:
		return "int"
	case Float64Column:
		return "double"
	case Int32Sequence:
		return "int[]"
	case Float64Sequence:
		return "double[]"
	}
	return fmt.Sprintf("ColumnKind(%d)", int(k))
}

func (k ColumnKind) IsSequence() bool {
	return k == Int32Sequence || k == Float64Sequence
}

// TableMode decides how bound sequences turn into rows.
type TableMode int

const (
	// RowPerEntry appends one row per sequence element; scalar columns are
	// repeated on every row.
	RowPerEntry TableMode = iota
	// RowPerEvent appends a single row; sequence columns hold the whole
	// sequence as one value.
	RowPerEvent
)

type ColumnSchema struct {
	Name string
	Kind ColumnKind
}

type TableSchema struct {
	Name    string
	Mode    TableMode
	Columns []ColumnSchema
}

// ColumnData is a snapshot of one column for a block of rows. Int32 or
// Float64 holds the values depending on the kind; for sequence-valued
// columns of a RowPerEvent table the values are flattened and Lengths holds
// one length per row.
type ColumnData struct {
	Name    string
	Kind    ColumnKind
	Int32   []int32
	Float64 []float64
	Lengths []int32
}

// RowBlock is a set of rows appended to one table in one call.
type RowBlock struct {
	Table   string
	Rows    int
	Columns []ColumnData
}

// TableWriter is the persistent backend of the analysis manager. It is
// shared by the workers of a run, so implementations serialize their calls.
type TableWriter interface {
	CreateTable(schema TableSchema) error
	AppendRows(block RowBlock) error
	WriteHistogram(h *H1) error
	WriteRunInfo(info RunInfo) error
	Close() error
}

type binding struct {
	ColumnSchema
	i32  *int32
	f64  *float64
	i32s *[]int32
	f64s *[]float64
}

// Table binds columns to variables owned by the caller. Each AddRow reads
// the current value of every bound variable.
type Table struct {
	Name     string
	Mode     TableMode
	bindings []binding
	rows     int
	closed   bool
}

func (t *Table) checkOpen() {
	if t.closed {
		panic(fmt.Sprintf("table %q: column added after FinishTable", t.Name))
	}
}

func (t *Table) Int32(name string, v *int32) *Table {
	t.checkOpen()
	t.bindings = append(t.bindings, binding{ColumnSchema: ColumnSchema{name, Int32Column}, i32: v})
	return t
}

func (t *Table) Float64(name string, v *float64) *Table {
	t.checkOpen()
	t.bindings = append(t.bindings, binding{ColumnSchema: ColumnSchema{name, Float64Column}, f64: v})
	return t
}

func (t *Table) Int32s(name string, v *[]int32) *Table {
	t.checkOpen()
	t.bindings = append(t.bindings, binding{ColumnSchema: ColumnSchema{name, Int32Sequence}, i32s: v})
	return t
}

func (t *Table) Float64s(name string, v *[]float64) *Table {
	t.checkOpen()
	t.bindings = append(t.bindings, binding{ColumnSchema: ColumnSchema{name, Float64Sequence}, f64s: v})
	return t
}

func (t *Table) Schema() TableSchema {
	schema := TableSchema{Name: t.Name, Mode: t.Mode}
	for _, b := range t.bindings {
		schema.Columns = append(schema.Columns, b.ColumnSchema)
	}
	return schema
}

// Rows is the number of rows appended so far.
func (t *Table) Rows() int { return t.rows }

func (b *binding) seqLen() int {
	switch b.Kind {
	case Int32Sequence:
		return len(*b.i32s)
	case Float64Sequence:
		return len(*b.f64s)
	}
	return 1
}

// entries returns the row count of a RowPerEntry table, checking that every
// bound sequence has the same length.
func (t *Table) entries() (int, error) {
	n := -1
	for i := range t.bindings {
		b := &t.bindings[i]
		if !b.Kind.IsSequence() {
			continue
		}
		l := b.seqLen()
		if n < 0 {
			n = l
			continue
		}
		if l != n {
			return 0, &ErrRecordLength{TableName: t.Name, Column: b.Name, Expected: n, Got: l}
		}
	}
	if n < 0 {
		n = 1
	}
	return n, nil
}

func (t *Table) snapshot() (RowBlock, error) {
	rows := 1
	if t.Mode == RowPerEntry {
		n, err := t.entries()
		if err != nil {
			return RowBlock{}, err
		}
		rows = n
	}

	block := RowBlock{Table: t.Name, Rows: rows, Columns: make([]ColumnData, len(t.bindings))}
	for i := range t.bindings {
		b := &t.bindings[i]
		col := ColumnData{Name: b.Name, Kind: b.Kind}
		switch b.Kind {
		case Int32Column:
			col.Int32 = repeat(*b.i32, rows)
		case Float64Column:
			col.Float64 = repeat(*b.f64, rows)
		case Int32Sequence:
			col.Int32 = clone(*b.i32s)
		case Float64Sequence:
			col.Float64 = clone(*b.f64s)
		}
		if t.Mode == RowPerEvent && b.Kind.IsSequence() {
			col.Lengths = []int32{int32(b.seqLen())}
		}
		block.Columns[i] = col
	}
	return block, nil
}

func repeat[T constraints.Integer | constraints.Float](v T, n int) []T {
	s := make([]T, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func clone[T constraints.Integer | constraints.Float](s []T) []T {
	c := make([]T, len(s))
	copy(c, s)
	return c
}

// AnalysisManager owns the histograms and tables of one worker.
type AnalysisManager struct {
	writer     TableWriter
	histograms []*H1
	tables     []*Table
	byName     map[string]int
}

// NewAnalysisManager creates a manager writing to w. With a nil writer,
// tables only count their rows.
func NewAnalysisManager(w TableWriter) *AnalysisManager {
	return &AnalysisManager{
		writer: w,
		byName: make(map[string]int),
	}
}

func (m *AnalysisManager) Writer() TableWriter { return m.writer }

// CreateH1 books a histogram and returns its id.
func (m *AnalysisManager) CreateH1(name, title string, nbins int, low, high, unit float64) (int, error) {
	h, err := NewH1(name, title, nbins, low, high, unit)
	if err != nil {
		return -1, err
	}
	m.histograms = append(m.histograms, h)
	return len(m.histograms) - 1, nil
}

func (m *AnalysisManager) GetH1(id int) *H1 {
	if id < 0 || id >= len(m.histograms) {
		return nil
	}
	return m.histograms[id]
}

func (m *AnalysisManager) FillH1(id int, value, weight float64) {
	if h := m.GetH1(id); h != nil {
		h.Fill(value, weight)
	}
}

func (m *AnalysisManager) Histograms() []*H1 { return m.histograms }

// CreateTable starts a table definition. Columns are bound on the returned
// table and the definition is closed by FinishTable.
func (m *AnalysisManager) CreateTable(name string, mode TableMode) (int, *Table) {
	t := &Table{Name: name, Mode: mode}
	m.tables = append(m.tables, t)
	id := len(m.tables) - 1
	m.byName[name] = id
	return id, t
}

// FinishTable freezes the columns of a table and creates it in the writer.
func (m *AnalysisManager) FinishTable(id int) error {
	t := m.GetTable(id)
	if t == nil {
		return fmt.Errorf("unknown table id %d", id)
	}
	t.closed = true
	if m.writer == nil {
		return nil
	}
	return m.writer.CreateTable(t.Schema())
}

func (m *AnalysisManager) GetTable(id int) *Table {
	if id < 0 || id >= len(m.tables) {
		return nil
	}
	return m.tables[id]
}

func (m *AnalysisManager) TableID(name string) (int, bool) {
	id, ok := m.byName[name]
	return id, ok
}

// AddRow snapshots the bound variables of a table into the writer.
func (m *AnalysisManager) AddRow(id int) error {
	t := m.GetTable(id)
	if t == nil {
		return fmt.Errorf("unknown table id %d", id)
	}
	block, err := t.snapshot()
	if err != nil {
		return err
	}
	if block.Rows == 0 {
		return nil
	}
	if m.writer != nil {
		if err := m.writer.AppendRows(block); err != nil {
			return fmt.Errorf("appending to table %q: %w", t.Name, err)
		}
	}
	t.rows += block.Rows
	return nil
}

// Merge adds the histograms of other, booked in the same order.
func (m *AnalysisManager) Merge(other *AnalysisManager) error {
	if len(other.histograms) != len(m.histograms) {
		return fmt.Errorf("cannot merge %d histograms into %d", len(other.histograms), len(m.histograms))
	}
	for i, h := range m.histograms {
		if err := h.Merge(other.histograms[i]); err != nil {
			return err
		}
	}
	for i, t := range m.tables {
		if i < len(other.tables) {
			t.rows += other.tables[i].rows
		}
	}
	return nil
}
