package scintsim

import (
	"fmt"
	"sync"
)

// MemoryWriter keeps everything in memory. Used by tests and dry runs.
type MemoryWriter struct {
	mu         sync.Mutex
	schemas    map[string]TableSchema
	rows       map[string][]map[string]any
	histograms map[string]*H1
	runInfo    []RunInfo
	closed     bool
}

func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{
		schemas:    make(map[string]TableSchema),
		rows:       make(map[string][]map[string]any),
		histograms: make(map[string]*H1),
	}
}

func (w *MemoryWriter) CreateTable(schema TableSchema) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.schemas[schema.Name] = schema
	return nil
}

// AppendRows splits the block into one map per row. Sequence values of a
// RowPerEvent table are stored as slices.
func (w *MemoryWriter) AppendRows(block RowBlock) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	schema, ok := w.schemas[block.Table]
	if !ok {
		return fmt.Errorf("table %q was never created", block.Table)
	}

	rows := make([]map[string]any, block.Rows)
	for i := range rows {
		rows[i] = make(map[string]any, len(block.Columns))
	}
	for _, col := range block.Columns {
		if schema.Mode == RowPerEvent && col.Kind.IsSequence() {
			offset := 0
			for i, l := range col.Lengths {
				end := offset + int(l)
				if col.Kind == Int32Sequence {
					rows[i][col.Name] = col.Int32[offset:end]
				} else {
					rows[i][col.Name] = col.Float64[offset:end]
				}
				offset = end
			}
			continue
		}
		for i := range rows {
			if col.Kind == Int32Column || col.Kind == Int32Sequence {
				rows[i][col.Name] = col.Int32[i]
			} else {
				rows[i][col.Name] = col.Float64[i]
			}
		}
	}
	w.rows[block.Table] = append(w.rows[block.Table], rows...)
	return nil
}

func (w *MemoryWriter) WriteHistogram(h *H1) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := *h
	c.edges = clone(h.edges)
	c.contents = clone(h.contents)
	w.histograms[h.Name] = &c
	return nil
}

func (w *MemoryWriter) WriteRunInfo(info RunInfo) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.runInfo = append(w.runInfo, info)
	return nil
}

func (w *MemoryWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// Rows returns the rows appended to a table.
func (w *MemoryWriter) Rows(table string) []map[string]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows[table]
}

func (w *MemoryWriter) Schema(table string) (TableSchema, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.schemas[table]
	return s, ok
}

func (w *MemoryWriter) Histogram(name string) *H1 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.histograms[name]
}

func (w *MemoryWriter) RunInfo() []RunInfo {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runInfo
}

func (w *MemoryWriter) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}
