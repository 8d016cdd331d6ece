// Package cache persists decoded sample matrices as dense array files: a
// small header describing shape and element type followed by row-major
// little-endian (float32 real, float32 imag) pairs.
package cache

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"example.com/s1gate/internal/decode"
)

const (
	magic   = "S1CX"
	version = 1
	// dtypeComplex64 is the only element type currently defined.
	dtypeComplex64 = 1
)

var ErrBadFormat = errors.New("not a sample cache file")

type header struct {
	Magic   [4]byte
	Version uint16
	Dtype   uint16
	Rows    uint32
	Cols    uint32
}

// Write stores the matrix at path, replacing any existing file.
func Write(path string, m *decode.SampleMatrix) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	hdr := header{Version: version, Dtype: dtypeComplex64, Rows: uint32(m.Rows), Cols: uint32(m.Cols)}
	copy(hdr.Magic[:], magic)
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return err
	}

	var buf [8]byte
	for _, v := range m.Data {
		binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(real(v)))
		binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(imag(v)))
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Sync()
}

// Read loads a matrix previously stored with Write.
func Read(path string) (*decode.SampleMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var hdr header
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrBadFormat
		}
		return nil, err
	}
	if string(hdr.Magic[:]) != magic {
		return nil, ErrBadFormat
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("%w: version %d", ErrBadFormat, hdr.Version)
	}
	if hdr.Dtype != dtypeComplex64 {
		return nil, fmt.Errorf("%w: element type %d", ErrBadFormat, hdr.Dtype)
	}

	m := &decode.SampleMatrix{
		Rows: int(hdr.Rows),
		Cols: int(hdr.Cols),
		Data: make([]complex64, int(hdr.Rows)*int(hdr.Cols)),
	}
	var buf [8]byte
	for i := range m.Data {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("%w: payload ends at element %d of %d", ErrBadFormat, i, len(m.Data))
		}
		re := math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8]))
		m.Data[i] = complex(re, im)
	}
	return m, nil
}
