package edfio

import (
	"fmt"

	"github.com/cortical-data/ecog/internal/fsutil"
	"github.com/cortical-data/ecog/internal/ieeg"
)

// LoadRecording reads an EDF file from the filesystem into a Recording.
func LoadRecording(fsys fsutil.FileSystem, path string) (*ieeg.Recording, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	rec, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return rec, nil
}

// SaveRecording writes a Recording as EDF. It refuses to overwrite an
// existing file unless force is set, wrapping fs.ErrExist so the caller
// can report how to proceed.
func SaveRecording(fsys fsutil.FileSystem, path string, rec *ieeg.Recording, meta Meta, force bool) error {
	data, err := Encode(rec, meta)
	if err != nil {
		return err
	}
	return fsutil.WriteFileNoClobber(fsys, path, data, force)
}

// SaveDerived writes a DerivedSignal as EDF under the same no-overwrite
// contract.
func SaveDerived(fsys fsutil.FileSystem, path string, sig *ieeg.DerivedSignal, meta Meta, force bool) error {
	data, err := EncodeDerived(sig, meta)
	if err != nil {
		return err
	}
	return fsutil.WriteFileNoClobber(fsys, path, data, force)
}
