// Package archive packs the staging directory into the single data file read by the
// game runtime.
//
// Layout, all integers little-endian:
//
//	header   uniqueID[5] "GDDF\x00", version[10] "1.0" NUL padded, count u32
//	entries  count times: name[300] NUL padded, size u32, offset u32
//	blobs    file contents in entry order; offsets are absolute
package archive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Layout constants
const (
	UniqueID    = "GDDF\x00"
	Version     = "1.0"
	NameSize    = 300
	versionSize = 10
	headerSize  = len(UniqueID) + versionSize + 4
	entrySize   = NameSize + 4 + 4
)

var (
	// ErrNameTooLong is returned for file names that do not fit an entry
	ErrNameTooLong = errors.New("file name too long for archive entry")
	// ErrTooLarge is returned when offsets would not fit in 32 bits
	ErrTooLarge = errors.New("archive exceeds 4 GiB")
	// ErrInvalidArchive is returned by Open for files not in the archive layout
	ErrInvalidArchive = errors.New("not a valid archive")
)

// Entry describes one file stored in an archive
type Entry struct {
	Name   string
	Size   uint32
	Offset uint32
}

// Create packs fileNames, read from sourceDir, into outputPath. The archive is
// written next to outputPath first and renamed into place, so a failed call never
// leaves a partial archive behind.
func Create(fileNames []string, sourceDir, outputPath string) (err error) {
	entries, err := plan(fileNames, sourceDir)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".archive-*")
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = writeIndex(tmp, entries); err != nil {
		return fmt.Errorf("failed to write archive index: %w", err)
	}
	for _, e := range entries {
		if err = copyBlob(tmp, filepath.Join(sourceDir, e.Name), e.Size); err != nil {
			return err
		}
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	if err = os.Rename(tmp.Name(), outputPath); err != nil {
		return fmt.Errorf("failed to move archive into place: %w", err)
	}
	return nil
}

func plan(fileNames []string, sourceDir string) ([]Entry, error) {
	offset := uint64(headerSize) + uint64(entrySize)*uint64(len(fileNames))
	entries := make([]Entry, 0, len(fileNames))

	for _, name := range fileNames {
		if len(name) >= NameSize {
			return nil, fmt.Errorf("%w: %q", ErrNameTooLong, name)
		}
		if name == "" || strings.IndexByte(name, 0) >= 0 {
			return nil, fmt.Errorf("invalid archive entry name %q", name)
		}

		info, err := os.Stat(filepath.Join(sourceDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%s is not a regular file", name)
		}

		size := uint64(info.Size())
		if offset+size > math.MaxUint32 {
			return nil, fmt.Errorf("%w: adding %s", ErrTooLarge, name)
		}
		entries = append(entries, Entry{Name: name, Size: uint32(size), Offset: uint32(offset)})
		offset += size
	}
	return entries, nil
}

func writeIndex(w io.Writer, entries []Entry) error {
	var buf bytes.Buffer
	buf.WriteString(UniqueID)
	buf.Write(padded(Version, versionSize))
	binary.Write(&buf, binary.LittleEndian, uint32(len(entries)))

	for _, e := range entries {
		buf.Write(padded(e.Name, NameSize))
		binary.Write(&buf, binary.LittleEndian, e.Size)
		binary.Write(&buf, binary.LittleEndian, e.Offset)
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func padded(s string, size int) []byte {
	b := make([]byte, size)
	copy(b, s)
	return b
}

func copyBlob(w io.Writer, path string, size uint32) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	n, err := io.Copy(w, io.LimitReader(f, int64(size)))
	if err != nil {
		return fmt.Errorf("failed to copy %s: %w", path, err)
	}
	if n != int64(size) {
		return fmt.Errorf("%s changed size while archiving", path)
	}
	return nil
}
