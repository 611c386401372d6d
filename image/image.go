// Package image defines the executable image container written by the
// assembler and loaded by the execution engine.
package image

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/trivm/trivm/translate"
)

var f = translate.From

// Image file format constants. The header is the magic, a format version
// byte, the entry address, and the lengths of the code and data segments,
// all multi-byte fields little-endian.
const (
	VERSION = 1

	HEADER_SIZE = 11

	OFFSET_MAGIC    = 0
	OFFSET_VERSION  = 4
	OFFSET_ENTRY    = 5
	OFFSET_CODE_LEN = 7
	OFFSET_DATA_LEN = 9
)

// MAGIC identifies an executable image file.
var MAGIC = [4]byte{'T', 'R', 'V', 'M'}

var (
	// ErrBadMagic means the file does not start with the image magic.
	ErrBadMagic = errors.New(f("not an executable image"))

	// ErrBadVersion means the image was produced for a different format
	// version.
	ErrBadVersion = errors.New(f("unsupported image version"))

	// ErrCorruptHeader means the segment lengths do not match the file.
	ErrCorruptHeader = errors.New(f("corrupt image header"))
)

// Image is a fully loaded executable: the code segment, the data segment,
// and the address execution starts at.
type Image struct {
	Entry uint16
	Code  []byte
	Data  []byte
}

// Encode writes the image to w in file format.
func (img *Image) Encode(w io.Writer) error {
	var header [HEADER_SIZE]byte
	copy(header[OFFSET_MAGIC:], MAGIC[:])
	header[OFFSET_VERSION] = VERSION
	putUint16(header[OFFSET_ENTRY:], img.Entry)
	putUint16(header[OFFSET_CODE_LEN:], uint16(len(img.Code)))
	putUint16(header[OFFSET_DATA_LEN:], uint16(len(img.Data)))

	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if _, err := w.Write(img.Code); err != nil {
		return err
	}
	_, err := w.Write(img.Data)
	return err
}

// Decode reads an image from r, validating the header.
func Decode(r io.Reader) (*Image, error) {
	var header [HEADER_SIZE]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrBadMagic
		}
		return nil, err
	}

	if !bytes.Equal(header[OFFSET_MAGIC:OFFSET_MAGIC+4], MAGIC[:]) {
		return nil, ErrBadMagic
	}
	if header[OFFSET_VERSION] != VERSION {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, header[OFFSET_VERSION])
	}

	img := &Image{Entry: getUint16(header[OFFSET_ENTRY:])}

	if n := getUint16(header[OFFSET_CODE_LEN:]); n > 0 {
		img.Code = make([]byte, n)
		if _, err := io.ReadFull(r, img.Code); err != nil {
			return nil, ErrCorruptHeader
		}
	}
	if n := getUint16(header[OFFSET_DATA_LEN:]); n > 0 {
		img.Data = make([]byte, n)
		if _, err := io.ReadFull(r, img.Data); err != nil {
			return nil, ErrCorruptHeader
		}
	}
	if int(img.Entry) > len(img.Code) {
		return nil, ErrCorruptHeader
	}

	return img, nil
}

// Save writes the image to the named file.
func (img *Image) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return img.Encode(file)
}

// Load reads an image from the named file.
func Load(path string) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Decode(file)
}

func putUint16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func getUint16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}
