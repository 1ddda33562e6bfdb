package scintsim

import "fmt"

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error { return e.Err }

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error { return e.Err }

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error { return e.Err }

// ErrUnknownCollection is returned when a logical collection name was never
// registered by a detector. It means detector setup and aggregation setup
// disagree, and the run cannot continue.
type ErrUnknownCollection struct {
	Name string
}

func (e *ErrUnknownCollection) Error() string {
	return fmt.Sprintf("cannot resolve collection %q: not registered by any sensitive detector", e.Name)
}

// ErrRecordLength reports bound sequences of different lengths in a table row.
type ErrRecordLength struct {
	TableName string
	Column    string
	Expected  int
	Got       int
}

func (e *ErrRecordLength) Error() string {
	return fmt.Sprintf("table %q: column %q has %d entries, expected %d",
		e.TableName, e.Column, e.Got, e.Expected)
}
