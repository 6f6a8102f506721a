package container

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/gdexport/gdexport/pkg/types"
)

var loadingScreenMagic = [4]byte{'G', 'D', 'L', 'S'}

// LoadingScreenVersion is the layout version written by WriteLoadingScreen
const LoadingScreenVersion uint16 = 1

const (
	flagShow uint8 = 1 << iota
	flagShowText
	flagSmoothImage
)

// ErrBadLoadingScreen is returned when a loading screen file does not have the expected layout
var ErrBadLoadingScreen = errors.New("invalid loading screen file")

// EncodeLoadingScreen writes ls to w using the little-endian layout read by the runtime:
// magic, version u16, flags u8, width i32, height i32, then the text and the image
// file each as a u32 length followed by the bytes.
func EncodeLoadingScreen(w io.Writer, ls types.LoadingScreen) error {
	var flags uint8
	if ls.Enabled {
		flags |= flagShow
	}
	if ls.ShowText {
		flags |= flagShowText
	}
	if ls.SmoothImage {
		flags |= flagSmoothImage
	}

	bw := bufio.NewWriter(w)
	fields := []any{loadingScreenMagic, LoadingScreenVersion, flags, ls.Width, ls.Height}
	for _, f := range fields {
		if err := binary.Write(bw, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	for _, s := range []string{ls.Text, ls.ImageFile} {
		if err := writeString(bw, s); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DecodeLoadingScreen reads a loading screen written by EncodeLoadingScreen
func DecodeLoadingScreen(r io.Reader) (types.LoadingScreen, error) {
	var (
		ls      types.LoadingScreen
		magic   [4]byte
		version uint16
		flags   uint8
	)

	for _, f := range []any{&magic, &version, &flags, &ls.Width, &ls.Height} {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return ls, fmt.Errorf("%w: %v", ErrBadLoadingScreen, err)
		}
	}
	if magic != loadingScreenMagic {
		return ls, fmt.Errorf("%w: bad magic %q", ErrBadLoadingScreen, magic[:])
	}
	if version != LoadingScreenVersion {
		return ls, fmt.Errorf("%w: unsupported version %d", ErrBadLoadingScreen, version)
	}

	ls.Enabled = flags&flagShow != 0
	ls.ShowText = flags&flagShowText != 0
	ls.SmoothImage = flags&flagSmoothImage != 0

	var err error
	if ls.Text, err = readString(r); err != nil {
		return ls, err
	}
	if ls.ImageFile, err = readString(r); err != nil {
		return ls, err
	}
	return ls, nil
}

// WriteLoadingScreen writes ls to path
func WriteLoadingScreen(path string, ls types.LoadingScreen) error {
	var buf bytes.Buffer
	if err := EncodeLoadingScreen(&buf, ls); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write loading screen: %w", err)
	}
	return nil
}

// ReadLoadingScreen reads the loading screen file at path
func ReadLoadingScreen(path string) (types.LoadingScreen, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.LoadingScreen{}, err
	}
	defer f.Close()
	return DecodeLoadingScreen(bufio.NewReader(f))
}

func writeString(w io.Writer, s string) error {
	if uint64(len(s)) > math.MaxUint32 {
		return fmt.Errorf("string of %d bytes is too long", len(s))
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// maxStringLen bounds the strings accepted when decoding
const maxStringLen = 1 << 20

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadLoadingScreen, err)
	}
	if n > maxStringLen {
		return "", fmt.Errorf("%w: string length %d", ErrBadLoadingScreen, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadLoadingScreen, err)
	}
	return string(buf), nil
}
