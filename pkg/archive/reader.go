package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Reader gives access to the files stored in an archive
type Reader struct {
	f       *os.File
	size    int64
	entries []Entry

	pos     int
	name    string
	content io.Reader
}

// Open parses the index of the archive at path
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := &Reader{f: f, pos: -1}
	if err := r.readIndex(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) readIndex() error {
	info, err := r.f.Stat()
	if err != nil {
		return err
	}
	r.size = info.Size()

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r.f, header); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	if string(header[:len(UniqueID)]) != UniqueID {
		return fmt.Errorf("%w: bad identifier", ErrInvalidArchive)
	}
	count := binary.LittleEndian.Uint32(header[headerSize-4:])
	if int64(headerSize)+int64(count)*entrySize > r.size {
		return fmt.Errorf("%w: index of %d entries exceeds file size", ErrInvalidArchive, count)
	}

	raw := make([]byte, int(count)*entrySize)
	if _, err := io.ReadFull(r.f, raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	r.entries = make([]Entry, count)
	for i := range r.entries {
		e := raw[i*entrySize : (i+1)*entrySize]
		name := e[:NameSize]
		if n := bytes.IndexByte(name, 0); n >= 0 {
			name = name[:n]
		}
		entry := Entry{
			Name:   string(name),
			Size:   binary.LittleEndian.Uint32(e[NameSize:]),
			Offset: binary.LittleEndian.Uint32(e[NameSize+4:]),
		}
		if int64(entry.Offset)+int64(entry.Size) > r.size {
			return fmt.Errorf("%w: entry %s is out of bounds", ErrInvalidArchive, entry.Name)
		}
		r.entries[i] = entry
	}
	return nil
}

// Version returns the format version stored in the header
func (r *Reader) Version() (string, error) {
	buf := make([]byte, versionSize)
	if _, err := r.f.ReadAt(buf, int64(len(UniqueID))); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf, "\x00")), nil
}

// Entries returns the index of the archive
func (r *Reader) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// Names returns the stored file names in archive order
func (r *Reader) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

// ReadFile returns the content of the named file
func (r *Reader) ReadFile(name string) ([]byte, error) {
	for _, e := range r.entries {
		if e.Name == name {
			return io.ReadAll(r.section(e))
		}
	}
	return nil, fmt.Errorf("%s: %w", name, os.ErrNotExist)
}

func (r *Reader) section(e Entry) io.Reader {
	return io.NewSectionReader(r.f, int64(e.Offset), int64(e.Size))
}

// Next advances to the next stored file. It returns false at the end of the archive.
func (r *Reader) Next() bool {
	if r.pos+1 >= len(r.entries) {
		return false
	}
	r.pos++
	e := r.entries[r.pos]
	r.name, r.content = e.Name, r.section(e)
	return true
}

// Name returns the name of the current file
func (r *Reader) Name() string {
	return r.name
}

// Content returns the content of the current file
func (r *Reader) Content() io.Reader {
	if r.content == nil {
		panic("archive: Content call before successful Next call")
	}
	return r.content
}

// Err reports iteration errors. The index is validated by Open, so iteration itself
// cannot fail; read errors surface from Content.
func (r *Reader) Err() error {
	return nil
}

// Close closes the underlying file
func (r *Reader) Close() error {
	return r.f.Close()
}
