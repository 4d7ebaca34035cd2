package qlearning

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sbinet/npyio"
)

// Save writes the table to path as a NumPy .npy float64 array.
func (t *Table) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("qlearning: create %s: %w", path, err)
	}
	if err := npyio.Write(f, t.data); err != nil {
		f.Close()
		return fmt.Errorf("qlearning: write %s: %w", path, err)
	}
	return f.Close()
}

// Load replaces the table contents with the array stored at path. The file
// must hold exactly as many entries as the table, either flat or with the
// table's five dimensions in row-major order. On error the table is left
// unchanged.
func (t *Table) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s: %w", ErrTableNotFound, path, err)
		}
		return fmt.Errorf("qlearning: open %s: %w", path, err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return fmt.Errorf("qlearning: read header of %s: %w", path, err)
	}
	if err := t.checkShape(r.Header.Descr.Shape, r.Header.Descr.Fortran); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	data := make([]float64, len(t.data))
	if err := r.Read(&data); err != nil {
		return fmt.Errorf("qlearning: read %s: %w", path, err)
	}
	if len(data) != len(t.data) {
		return fmt.Errorf("%w: %s holds %d values, table has %d", ErrShapeMismatch, path, len(data), len(t.data))
	}
	copy(t.data, data)
	return nil
}

func (t *Table) checkShape(shape []int, fortran bool) error {
	switch len(shape) {
	case 1:
		if shape[0] == len(t.data) {
			return nil
		}
	case len(t.shape):
		if fortran {
			return fmt.Errorf("%w: column-major arrays are not supported", ErrShapeMismatch)
		}
		match := true
		for i, d := range shape {
			if d != t.shape[i] {
				match = false
			}
		}
		if match {
			return nil
		}
	}
	return fmt.Errorf("%w: stored %v, table %v", ErrShapeMismatch, shape, t.shape)
}
