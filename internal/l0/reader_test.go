package l0

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// writeTestPacket appends one space packet: 6-byte primary header, the given
// secondary header (nil for none), and the payload bytes.
func writeTestPacket(t *testing.T, f *os.File, secHdr, payload []byte) {
	t.Helper()
	dataLen := len(secHdr) + len(payload)
	if dataLen == 0 {
		t.Fatalf("packet data field cannot be empty")
	}
	header := make([]byte, primaryHeaderSize)
	var w uint16
	if len(secHdr) > 0 {
		w |= 1 << 11
	}
	binary.BigEndian.PutUint16(header[0:2], w)
	binary.BigEndian.PutUint16(header[2:4], 0)
	binary.BigEndian.PutUint16(header[4:6], uint16(dataLen-1))
	for _, part := range [][]byte{header, secHdr, payload} {
		if len(part) == 0 {
			continue
		}
		if _, err := f.Write(part); err != nil {
			t.Fatalf("write packet part failed: %v", err)
		}
	}
}

func newTestFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "test.dat"))
	if err != nil {
		t.Fatalf("create temp file failed: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestScanFile(t *testing.T) {
	f := newTestFile(t)

	payloads := [][]byte{
		make([]byte, 40),
		make([]byte, 8),
		nil, // secondary header only
	}
	for i, payload := range payloads {
		sec := baseSecondaryHeader()
		binary.BigEndian.PutUint32(sec[23:27], uint32(100+i))
		binary.BigEndian.PutUint16(sec[59:61], uint16(len(payload)))
		writeTestPacket(t, f, sec, payload)
	}
	if err := f.Sync(); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	table, err := ScanFile(f.Name())
	if err != nil {
		t.Fatalf("ScanFile returned error: %v", err)
	}
	if len(table.Packets) != 3 {
		t.Fatalf("packets = %d, want 3", len(table.Packets))
	}
	if table.Skipped != 0 {
		t.Fatalf("skipped = %d, want 0", table.Skipped)
	}

	// Packet boundary closure: the reported lengths tile the file exactly.
	var total int64
	for i := range table.Packets {
		total += table.Packets[i].TotalLength()
	}
	if total != table.FileSize {
		t.Fatalf("sum of packet lengths = %d, file size = %d", total, table.FileSize)
	}

	// Payload bounds follow the headers.
	wantOffset := int64(primaryHeaderSize + secondaryHeaderSize)
	for i, payload := range payloads {
		p := &table.Packets[i]
		if p.PayloadOffset != wantOffset {
			t.Fatalf("packet %d payload offset = %d, want %d", i, p.PayloadOffset, wantOffset)
		}
		if p.PayloadLength != len(payload) {
			t.Fatalf("packet %d payload length = %d, want %d", i, p.PayloadLength, len(payload))
		}
		if p.SpacePacketCount != uint32(100+i) {
			t.Fatalf("packet %d space packet count = %d", i, p.SpacePacketCount)
		}
		wantOffset += p.TotalLength()
	}
}

func TestScanFileEmptyPayload(t *testing.T) {
	// A packet whose data field is exactly the secondary header carries no
	// samples.
	f := newTestFile(t)
	writeTestPacket(t, f, baseSecondaryHeader(), nil)
	if err := f.Sync(); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	table, err := ScanFile(f.Name())
	if err != nil {
		t.Fatalf("ScanFile returned error: %v", err)
	}
	if len(table.Packets) != 1 {
		t.Fatalf("packets = %d, want 1", len(table.Packets))
	}
	p := &table.Packets[0]
	if p.DataLength != 61 {
		t.Fatalf("DataLength = %d, want 61", p.DataLength)
	}
	if p.PayloadLength != 0 {
		t.Fatalf("PayloadLength = %d, want 0", p.PayloadLength)
	}
}

func TestScanFileTruncated(t *testing.T) {
	f := newTestFile(t)
	writeTestPacket(t, f, baseSecondaryHeader(), make([]byte, 16))
	// A second packet whose declared length extends past EOF.
	header := make([]byte, primaryHeaderSize)
	binary.BigEndian.PutUint16(header[0:2], 1<<11)
	binary.BigEndian.PutUint16(header[4:6], 200)
	if _, err := f.Write(header); err != nil {
		t.Fatalf("write header failed: %v", err)
	}
	if _, err := f.Write(make([]byte, 30)); err != nil {
		t.Fatalf("write partial data failed: %v", err)
	}
	if err := f.Sync(); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	_, err := ScanFile(f.Name())
	if !errors.Is(err, ErrTruncatedFile) {
		t.Fatalf("expected ErrTruncatedFile, got %v", err)
	}
}

func TestScanFileSkipsBadPackets(t *testing.T) {
	f := newTestFile(t)

	good := baseSecondaryHeader()
	writeTestPacket(t, f, good, nil)

	// Corrupted sync marker: packet is skipped, scan continues.
	bad := baseSecondaryHeader()
	binary.BigEndian.PutUint32(bad[6:10], 0xFFFFFFFF)
	writeTestPacket(t, f, bad, nil)

	// No secondary header flag: also skipped.
	writeTestPacket(t, f, nil, make([]byte, 10))

	writeTestPacket(t, f, good, nil)
	if err := f.Sync(); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	table, err := ScanFile(f.Name())
	if err != nil {
		t.Fatalf("ScanFile returned error: %v", err)
	}
	if len(table.Packets) != 2 {
		t.Fatalf("packets = %d, want 2", len(table.Packets))
	}
	if table.Skipped != 2 {
		t.Fatalf("skipped = %d, want 2", table.Skipped)
	}
}

func TestReaderEOFAtBoundary(t *testing.T) {
	f := newTestFile(t)
	writeTestPacket(t, f, baseSecondaryHeader(), nil)
	if err := f.Sync(); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	reader, err := NewReader(f.Name())
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	if _, err := reader.Next(); err != nil {
		t.Fatalf("first Next failed: %v", err)
	}
	if _, err := reader.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after last packet, got %v", err)
	}
}
