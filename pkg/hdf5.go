package scintsim

import (
	"fmt"

	"github.com/jmbenlloch/go-hdf5"
	"golang.org/x/exp/constraints"
)

const STRLEN = 40

type RunInfoHDF5 struct {
	run_number int32
	run_uuid   [STRLEN]byte
	events     int32
	gun_x      float64
	gun_y      float64
	gun_z      float64
}

type HistogramInfoHDF5 struct {
	name    [STRLEN]byte
	nbins   int32
	low     float64
	high    float64
	entries int32
	mean    float64
	rms     float64
}

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

func openFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &ErrOpenFile{Filename: fname, Err: err}
	}
	return f, nil
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &ErrCreateGroup{GroupName: groupName, Err: err}
	}
	return g, nil
}

func datasetCreateProps() (*hdf5.PropList, error) {
	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, err
	}
	chunks := []uint{32768}
	if err := plist.SetChunk(chunks); err != nil {
		return nil, err
	}
	if configuration.CompressionLevel > 0 {
		if err := plist.SetDeflate(configuration.CompressionLevel); err != nil {
			return nil, err
		}
	}
	return plist, nil
}

func extendableSpace() (*hdf5.Dataspace, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	return hdf5.CreateSimpleDataspace(dims, maxDims)
}

// createColumn creates an empty, extendable one-dimensional dataset.
func createColumn(group *hdf5.Group, name string, kind ColumnKind) (*hdf5.Dataset, error) {
	dtype := hdf5.T_NATIVE_DOUBLE
	if kind == Int32Column || kind == Int32Sequence {
		dtype = hdf5.T_NATIVE_INT32
	}
	return createDataset(group, name, dtype)
}

// createTable creates an extendable table of compound datatype.
func createTable(group *hdf5.Group, name string, datatype interface{}) (*hdf5.Dataset, error) {
	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return createDataset(group, name, dtype)
}

func createDataset(group *hdf5.Group, name string, dtype *hdf5.Datatype) (*hdf5.Dataset, error) {
	fileSpace, err := extendableSpace()
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer fileSpace.Close()

	plist, err := datasetCreateProps()
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()

	dset, err := group.CreateDatasetWith(name, dtype, fileSpace, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func writeEntryToTable[T any](dataset *hdf5.Dataset, data T, offset int) error {
	array := []T{data}
	return writeArrayToTable(dataset, &array, offset)
}

// writeArrayToTable grows dataset and writes data starting at offset.
func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T, offset int) error {
	length := uint(len(*data))
	if length == 0 {
		return nil
	}
	dims := []uint{length}
	dataspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return fmt.Errorf("creating memory dataspace: %w", err)
	}
	defer dataspace.Close()

	start := uint(offset)
	if err := dataset.Resize([]uint{start + length}); err != nil {
		return fmt.Errorf("extending dataset to %d entries: %w", start+length, err)
	}
	filespace := dataset.Space()
	defer filespace.Close()

	if err := filespace.SelectHyperslab([]uint{start}, nil, []uint{length}, nil); err != nil {
		return fmt.Errorf("selecting entries %d-%d: %w", start, start+length, err)
	}
	return dataset.WriteSubset(data, dataspace, filespace)
}

// writeColumn appends numeric values to a column dataset.
func writeColumn[T constraints.Integer | constraints.Float](dataset *hdf5.Dataset, data []T, offset int) error {
	return writeArrayToTable(dataset, &data, offset)
}
