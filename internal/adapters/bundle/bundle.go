// Package bundle carries the point-of-interest data compiled into the binary.
package bundle

import (
	_ "embed"
	"fmt"
	"os"
)

//go:embed data/metro.json
var metro []byte

// Dataset is a static point-of-interest dataset held in memory.
type Dataset struct {
	data []byte
}

// Metro returns the bundled metro station dataset.
func Metro() Dataset {
	return Dataset{data: metro}
}

// FromFile reads a dataset in the bundled format from disk, for deployments
// that ship their own stations.
func FromFile(path string) (Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return Dataset{data: b}, nil
}

// Bytes implements ports.StaticDataset.
func (d Dataset) Bytes() []byte {
	return d.data
}
