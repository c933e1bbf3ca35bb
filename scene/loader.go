package scene

import (
	"sync/atomic"

	"github.com/milk9111/gamestate/specs"
)

// Data is what a scene file declares.
type Data struct {
	Name   string `yaml:"name"`
	Crates int    `yaml:"crates"`
}

// Operation is an in-flight scene load. Done is polled once per frame.
type Operation interface {
	Done() bool
	// Err and Data are only meaningful once Done reports true.
	Err() error
	Data() Data
	Details() Details
}

type Loader interface {
	Load(d Details) Operation
}

// AsyncLoader reads and decodes scene files on a goroutine.
type AsyncLoader struct {
	// Read defaults to specs.Load.
	Read func(path string) ([]byte, error)
}

func (l AsyncLoader) Load(d Details) Operation {
	read := l.Read
	if read == nil {
		read = specs.Load
	}

	op := &asyncOperation{details: d}
	go func() {
		defer op.done.Store(true)
		raw, err := read(d.Path)
		if err != nil {
			op.err = err
			return
		}
		op.data, op.err = specs.DecodeSpec[Data](d.Path, raw)
	}()
	return op
}

type asyncOperation struct {
	details Details
	done    atomic.Bool
	// written before done is set
	data Data
	err  error
}

func (o *asyncOperation) Done() bool { return o.done.Load() }

func (o *asyncOperation) Err() error {
	if !o.Done() {
		return nil
	}
	return o.err
}

func (o *asyncOperation) Data() Data {
	if !o.Done() {
		return Data{}
	}
	return o.data
}

func (o *asyncOperation) Details() Details { return o.details }
