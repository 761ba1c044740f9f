package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// UsageBytes sums the on-disk size of the given files or directories.
// Missing paths count as zero.
func UsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, root := range paths {
		if root == "" || root == ":memory:" {
			continue
		}
		err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

// SizeBytes returns the size of the database including its WAL and shared-memory files.
func (s *SQLiteStorage) SizeBytes() (int64, error) {
	if s.path == ":memory:" {
		return 0, nil
	}
	return UsageBytes(s.path, s.path+"-wal", s.path+"-shm")
}
