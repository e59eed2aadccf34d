package file

import (
	"errors"
	"fmt"
	"hash/adler32"
	"os"
	"path/filepath"

	"github.com/ablab/experimentutils"
)

// NewSpoolByRecord opens the spool backing the record's insert statement,
// one file per statement, named by a hash of it. A spool that fails
// validation is set aside under a .corrupt suffix and recreated empty.
func NewSpoolByRecord(record experimentutils.Record, config ...Config) (*Spool, error) {
	// Set default config
	cfg := configDefault(config...)

	h := adler32.New()
	_, _ = h.Write([]byte(record.SQL()))
	path := filepath.Join(cfg.Dir, fmt.Sprintf("%d.spool", h.Sum32()))

	return openSpool(path, record)
}

func openSpool(path string, pattern Item) (*Spool, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	s, err := NewSpool(f, pattern)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrCorruptSpool) {
		_ = f.Close()
		return nil, err
	}

	if err := f.Close(); err != nil {
		return nil, err
	}
	if err := os.Rename(path, path+".corrupt"); err != nil {
		return nil, err
	}

	f, err = os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	return NewSpool(f, pattern)
}
