package image

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecode(t *testing.T) {
	assert := assert.New(t)

	want := &Image{
		Entry: 3,
		Code:  []byte{0x01, 0x01, 0x01, 0x00},
		Data:  []byte{2, 0, 'h', 'i'},
	}

	var buf bytes.Buffer
	assert.NoError(want.Encode(&buf))
	assert.Equal(HEADER_SIZE+len(want.Code)+len(want.Data), buf.Len())

	got, err := Decode(&buf)
	assert.NoError(err)
	assert.Equal(want, got)
}

func TestDecodeEmptySegments(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	assert.NoError((&Image{}).Encode(&buf))

	got, err := Decode(&buf)
	assert.NoError(err)
	assert.Equal(uint16(0), got.Entry)
	assert.Empty(got.Code)
	assert.Empty(got.Data)
}

func TestDecodeBadMagic(t *testing.T) {
	assert := assert.New(t)

	_, err := Decode(bytes.NewReader([]byte("ELF!xxxxxxx")))
	assert.ErrorIs(err, ErrBadMagic)

	_, err = Decode(bytes.NewReader(nil))
	assert.ErrorIs(err, ErrBadMagic)
}

func TestDecodeBadVersion(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	assert.NoError((&Image{Code: []byte{0x00}}).Encode(&buf))
	raw := buf.Bytes()
	raw[OFFSET_VERSION] = 99

	_, err := Decode(bytes.NewReader(raw))
	assert.ErrorIs(err, ErrBadVersion)
}

func TestDecodeCorruptHeader(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	assert.NoError((&Image{Code: []byte{0x00, 0x00}}).Encode(&buf))
	raw := buf.Bytes()

	// Claim more code than the file holds.
	raw[OFFSET_CODE_LEN] = 200
	_, err := Decode(bytes.NewReader(raw))
	assert.ErrorIs(err, ErrCorruptHeader)
}

func TestDecodeEntryOutOfRange(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	assert.NoError((&Image{Entry: 10, Code: []byte{0x00}}).Encode(&buf))

	_, err := Decode(&buf)
	assert.ErrorIs(err, ErrCorruptHeader)
}

func TestSaveLoad(t *testing.T) {
	assert := assert.New(t)

	want := &Image{Code: []byte{0x00}, Data: []byte("x")}
	path := t.TempDir() + "/a.tvm"

	assert.NoError(want.Save(path))
	got, err := Load(path)
	assert.NoError(err)
	assert.Equal(want, got)
}
