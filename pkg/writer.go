package scintsim

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jmbenlloch/go-hdf5"
)

type hdf5Column struct {
	ColumnSchema
	data    *hdf5.Dataset
	lengths *hdf5.Dataset // only for sequence columns of RowPerEvent tables
	size    int
	rows    int
}

type hdf5Table struct {
	schema  TableSchema
	group   *hdf5.Group
	columns map[string]*hdf5Column
	rows    int
}

// HDF5Writer stores tables, histograms and run information in an HDF5 file.
// Every table is a group with one extendable dataset per column.
type HDF5Writer struct {
	mu              sync.Mutex
	File            *hdf5.File
	Filename        string
	RunGroup        *hdf5.Group
	HistogramsGroup *hdf5.Group
	RunInfoTable    *hdf5.Dataset
	HistogramsTable *hdf5.Dataset
	tables          map[string]*hdf5Table
	histograms      []*hdf5.Dataset
	nHistograms     int
	nRuns           int
}

func NewHDF5Writer(filename string) (*HDF5Writer, error) {
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Creating file: %s", filename), "hdf5writer")
	}
	file, err := openFile(filename)
	if err != nil {
		return nil, err
	}
	w := &HDF5Writer{
		File:     file,
		Filename: filename,
		tables:   make(map[string]*hdf5Table),
	}
	if w.RunGroup, err = createGroup(file, "Run"); err != nil {
		return nil, errors.Join(err, w.Close())
	}
	if w.HistogramsGroup, err = createGroup(file, "Histograms"); err != nil {
		return nil, errors.Join(err, w.Close())
	}
	if w.RunInfoTable, err = createTable(w.RunGroup, "runInfo", RunInfoHDF5{}); err != nil {
		return nil, errors.Join(err, w.Close())
	}
	if w.HistogramsTable, err = createTable(w.HistogramsGroup, "info", HistogramInfoHDF5{}); err != nil {
		return nil, errors.Join(err, w.Close())
	}
	return w, nil
}

func (w *HDF5Writer) CreateTable(schema TableSchema) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.tables[schema.Name]; ok {
		return nil
	}

	group, err := createGroup(w.File, schema.Name)
	if err != nil {
		return err
	}
	table := &hdf5Table{
		schema:  schema,
		group:   group,
		columns: make(map[string]*hdf5Column),
	}
	w.tables[schema.Name] = table

	for _, c := range schema.Columns {
		col := &hdf5Column{ColumnSchema: c}
		if col.data, err = createColumn(group, c.Name, c.Kind); err != nil {
			return err
		}
		if schema.Mode == RowPerEvent && c.Kind.IsSequence() {
			if col.lengths, err = createColumn(group, c.Name+"_length", Int32Column); err != nil {
				return err
			}
		}
		table.columns[c.Name] = col
	}
	return nil
}

func (w *HDF5Writer) AppendRows(block RowBlock) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	table, ok := w.tables[block.Table]
	if !ok {
		return &ErrCreateTable{TableName: block.Table, Err: errors.New("table was never created")}
	}
	for _, data := range block.Columns {
		col, ok := table.columns[data.Name]
		if !ok {
			return fmt.Errorf("table %q has no column %q", block.Table, data.Name)
		}
		if err := col.append(data); err != nil {
			return fmt.Errorf("column %q: %w", data.Name, err)
		}
	}
	table.rows += block.Rows
	return nil
}

func (c *hdf5Column) append(data ColumnData) error {
	var err error
	var n int
	switch c.Kind {
	case Int32Column, Int32Sequence:
		err = writeColumn(c.data, data.Int32, c.size)
		n = len(data.Int32)
	default:
		err = writeColumn(c.data, data.Float64, c.size)
		n = len(data.Float64)
	}
	if err != nil {
		return err
	}
	c.size += n
	if c.lengths != nil {
		if err := writeColumn(c.lengths, data.Lengths, c.rows); err != nil {
			return err
		}
		c.rows += len(data.Lengths)
	}
	return nil
}

// WriteHistogram stores the contents (underflow, bins, overflow) and the bin
// edges as two datasets and adds a line to the info table.
func (w *HDF5Writer) WriteHistogram(h *H1) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	contents, err := createColumn(w.HistogramsGroup, h.Name, Float64Column)
	if err != nil {
		return err
	}
	w.histograms = append(w.histograms, contents)
	if err := writeColumn(contents, h.Contents(), 0); err != nil {
		return err
	}

	edges, err := createColumn(w.HistogramsGroup, h.Name+"_edges", Float64Column)
	if err != nil {
		return err
	}
	w.histograms = append(w.histograms, edges)
	if err := writeColumn(edges, h.Edges(), 0); err != nil {
		return err
	}

	info := HistogramInfoHDF5{
		name:    convertToHdf5String(h.Name),
		nbins:   int32(h.NBins()),
		low:     h.Low(),
		high:    h.High(),
		entries: int32(h.Entries()),
		mean:    h.Mean(),
		rms:     h.RMS(),
	}
	if err := writeEntryToTable(w.HistogramsTable, info, w.nHistograms); err != nil {
		return err
	}
	w.nHistograms++
	return nil
}

func (w *HDF5Writer) WriteRunInfo(info RunInfo) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	entry := RunInfoHDF5{
		run_number: int32(info.RunNumber),
		run_uuid:   convertToHdf5String(info.UUID.String()),
		events:     int32(info.Events),
		gun_x:      info.GunPosition.X,
		gun_y:      info.GunPosition.Y,
		gun_z:      info.GunPosition.Z,
	}
	if err := writeEntryToTable(w.RunInfoTable, entry, w.nRuns); err != nil {
		return err
	}
	w.nRuns++
	return nil
}

// Rows returns the number of rows written to a table.
func (w *HDF5Writer) Rows(table string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.tables[table]; ok {
		return t.rows
	}
	return 0
}

func (w *HDF5Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Closing file %s", w.Filename), "hdf5writer")
	}
	var errs []error

	names := make([]string, 0, len(w.tables))
	for name := range w.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		table := w.tables[name]
		for _, col := range table.columns {
			if err := col.data.Close(); err != nil {
				errs = append(errs, fmt.Errorf("error closing column %s/%s: %w", name, col.Name, err))
			}
			if col.lengths != nil {
				if err := col.lengths.Close(); err != nil {
					errs = append(errs, fmt.Errorf("error closing column %s/%s_length: %w", name, col.Name, err))
				}
			}
		}
		if err := table.group.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing %s group: %w", name, err))
		}
	}
	w.tables = map[string]*hdf5Table{}

	for _, dset := range w.histograms {
		if err := dset.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing histogram dataset: %w", err))
		}
	}
	w.histograms = nil

	if w.HistogramsTable != nil {
		if err := w.HistogramsTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing histograms table: %w", err))
		}
	}
	if w.RunInfoTable != nil {
		if err := w.RunInfoTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing run info table: %w", err))
		}
	}
	if w.HistogramsGroup != nil {
		if err := w.HistogramsGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing histograms group: %w", err))
		}
	}
	if w.RunGroup != nil {
		if err := w.RunGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing run group: %w", err))
		}
	}
	if w.File != nil {
		if err := w.File.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing file: %w", err))
		}
		w.File = nil
	}
	return errors.Join(errs...)
}
