package l0

import (
	"errors"
	"fmt"
	"io"
	"os"

	"example.com/s1gate/internal/common"
)

var (
	// ErrTruncatedFile reports EOF before the packet boundary implied by
	// the packet data length field.
	ErrTruncatedFile = errors.New("file truncated inside a packet")
)

const (
	minDataBlockSize = 8 << 20
)

type dataSource interface {
	Size() int64
	Slice(offset int64, length int) ([]byte, error)
	Close() error
}

// blockSource reads a file through a single reused block buffer so that a
// full-file scan does not allocate per packet.
type blockSource struct {
	file      *os.File
	size      int64
	blockSize int
	buf       []byte
	bufStart  int64
	bufLen    int
}

func newBlockSource(f *os.File, size int64, blockSize int) *blockSource {
	if blockSize < minDataBlockSize {
		blockSize = minDataBlockSize
	}
	return &blockSource{file: f, size: size, blockSize: blockSize}
}

func (bs *blockSource) Size() int64 {
	return bs.size
}

func (bs *blockSource) Close() error {
	if bs.file == nil {
		return nil
	}
	err := bs.file.Close()
	bs.file = nil
	bs.buf = nil
	bs.bufLen = 0
	return err
}

func (bs *blockSource) grow(need int) {
	if need <= bs.blockSize {
		return
	}
	newSize := bs.blockSize
	if newSize == 0 {
		newSize = minDataBlockSize
	}
	for newSize < need {
		newSize *= 2
	}
	bs.blockSize = newSize
	bs.buf = make([]byte, bs.blockSize)
	bs.bufLen = 0
	bs.bufStart = 0
}

func (bs *blockSource) ensure(offset int64, length int) error {
	if bs.file == nil {
		return io.EOF
	}
	if length > bs.blockSize {
		bs.grow(length)
	}
	if bs.buf == nil {
		bs.buf = make([]byte, bs.blockSize)
	}
	if offset >= bs.bufStart && offset+int64(length) <= bs.bufStart+int64(bs.bufLen) {
		return nil
	}
	if offset >= bs.size {
		bs.bufLen = 0
		return io.EOF
	}
	bs.bufStart = offset
	remain := bs.size - offset
	toRead := bs.blockSize
	if int64(toRead) > remain {
		toRead = int(remain)
	}
	if toRead <= 0 {
		bs.bufLen = 0
		return io.EOF
	}
	n, err := bs.file.ReadAt(bs.buf[:toRead], offset)
	if n < toRead && err == nil {
		err = io.EOF
	}
	if err != nil && !errors.Is(err, io.EOF) {
		bs.bufLen = 0
		return err
	}
	bs.bufLen = n
	if bs.bufLen == 0 {
		return io.EOF
	}
	return err
}

func (bs *blockSource) Slice(offset int64, length int) ([]byte, error) {
	if length <= 0 {
		return []byte{}, nil
	}
	if offset < 0 {
		return nil, io.ErrUnexpectedEOF
	}
	if offset >= bs.size {
		return nil, io.EOF
	}
	err := bs.ensure(offset, length)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if bs.bufLen == 0 {
		return nil, io.EOF
	}
	start := int(offset - bs.bufStart)
	if start < 0 || start >= bs.bufLen {
		return nil, io.ErrUnexpectedEOF
	}
	end := start + length
	if end > bs.bufLen {
		end = bs.bufLen
	}
	view := bs.buf[start:end]
	if len(view) < length {
		return view, io.EOF
	}
	return view, err
}

func sliceExact(src dataSource, offset int64, length int) ([]byte, error) {
	view, err := src.Slice(offset, length)
	if len(view) < length {
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return nil, io.ErrUnexpectedEOF
	}
	return view[:length], nil
}

// Reader walks a Level 0 file packet by packet. Each call to Next decodes
// the primary and secondary headers of one packet and records the location
// of its compressed sample payload; the next packet offset is derived from
// the packet data length field alone.
type Reader struct {
	source dataSource
	size   int64
	offset int64
	index  int

	progress *common.Progress
	skipped  int
}

// NewReader opens the file at path and prepares an iterator.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	src := newBlockSource(f, info.Size(), minDataBlockSize)
	return &Reader{source: src, size: src.Size()}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	if r.source == nil {
		return nil
	}
	err := r.source.Close()
	r.source = nil
	return err
}

// SetProgress attaches a progress tracker and enters its scan stage.
func (r *Reader) SetProgress(p *common.Progress) {
	r.progress = p
	if r.progress != nil {
		r.progress.StartScan(r.size)
	}
}

// Skipped reports how many packets were stepped over because their headers
// could not be decoded.
func (r *Reader) Skipped() int { return r.skipped }

// Next decodes the next packet's metadata. It returns io.EOF when the file
// ends exactly at a packet boundary and ErrTruncatedFile when it ends
// mid-packet. Packets whose secondary header cannot be decoded are skipped
// with a log line and do not terminate the scan.
func (r *Reader) Next() (PacketMeta, error) {
	if r.source == nil {
		return PacketMeta{}, io.EOF
	}
	for {
		if r.offset >= r.size {
			return PacketMeta{}, io.EOF
		}
		if r.offset+primaryHeaderSize > r.size {
			return PacketMeta{}, fmt.Errorf("%w: %d bytes after offset %d", ErrTruncatedFile, r.size-r.offset, r.offset)
		}

		var meta PacketMeta
		headerView, err := sliceExact(r.source, r.offset, primaryHeaderSize)
		if err != nil {
			return PacketMeta{}, fmt.Errorf("read primary header at offset %d: %w", r.offset, err)
		}
		if err := ParsePrimaryHeader(headerView, &meta); err != nil {
			return PacketMeta{}, err
		}

		dataLen := int64(meta.DataLength) + 1
		nextOffset := r.offset + primaryHeaderSize + dataLen
		if nextOffset > r.size {
			return PacketMeta{}, fmt.Errorf("%w: packet at offset %d claims %d data bytes, file has %d",
				ErrTruncatedFile, r.offset, dataLen, r.size-r.offset-primaryHeaderSize)
		}

		if !meta.HasSecondaryHeader || dataLen < secondaryHeaderSize {
			common.Logf("packet %d at offset %d has no secondary header, skipping", r.index, r.offset)
			r.skipPacket(nextOffset)
			continue
		}

		secView, err := sliceExact(r.source, r.offset+primaryHeaderSize, secondaryHeaderSize)
		if err != nil {
			return PacketMeta{}, fmt.Errorf("read secondary header at offset %d: %w", r.offset, err)
		}
		if err := ParseSecondaryHeader(secView, &meta); err != nil {
			common.Logf("packet %d at offset %d: %v, skipping", r.index, r.offset, err)
			r.skipPacket(nextOffset)
			continue
		}

		meta.PayloadOffset = r.offset + primaryHeaderSize + secondaryHeaderSize
		meta.PayloadLength = int(dataLen - secondaryHeaderSize)

		if r.progress != nil {
			r.progress.PacketIndexed(nextOffset - r.offset)
		}
		r.offset = nextOffset
		r.index++
		return meta, nil
	}
}

func (r *Reader) skipPacket(nextOffset int64) {
	r.skipped++
	r.index++
	if r.progress != nil {
		r.progress.PacketSkipped(nextOffset - r.offset)
	}
	r.offset = nextOffset
}

// ScanFile performs a one-shot scan of the whole file and returns the
// metadata table.
func ScanFile(path string) (*MetadataTable, error) {
	return ScanFileProgress(path, nil)
}

// ScanFileProgress is ScanFile with an optional progress tracker.
func ScanFileProgress(path string, p *common.Progress) (*MetadataTable, error) {
	reader, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	if p != nil {
		reader.SetProgress(p)
	}

	table := &MetadataTable{Path: path, FileSize: reader.size}
	for {
		meta, err := reader.Next()
		if err == nil {
			table.Packets = append(table.Packets, meta)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		return nil, err
	}
	table.Skipped = reader.Skipped()
	return table, nil
}

// ReadPayloads loads the whole file into memory for payload decoding. The
// returned buffer must outlive any decode that slices into it.
func (t *MetadataTable) ReadPayloads() ([]byte, error) {
	data, err := os.ReadFile(t.Path)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != t.FileSize {
		return nil, fmt.Errorf("file %s changed size since scan: %d, want %d", t.Path, len(data), t.FileSize)
	}
	return data, nil
}
