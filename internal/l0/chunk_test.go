package l0

import "testing"

// echoPacket builds an in-memory echo packet row with the acquisition
// parameters the chunk grouper inspects.
func echoPacket(priCount uint32, azimuth uint16) PacketMeta {
	return PacketMeta{
		SignalType:           SignalEcho,
		SwathNumber:          1,
		NumQuads:             52,
		BAQ:                  FDBAQ0,
		SWSTRaw:              0x002000,
		SWLRaw:               0x000800,
		PRIRaw:               0x010000,
		ElevationBeamAddress: 2,
		PRICount:             priCount,
		AzimuthBeamAddress:   azimuth,
	}
}

func tableOf(packets []PacketMeta) *MetadataTable {
	return &MetadataTable{Packets: packets}
}

func TestGroupChunksPRICountWrap(t *testing.T) {
	// 128 consecutive packets whose PRI count wraps through 2^32-1 stay in
	// a single chunk.
	packets := make([]PacketMeta, 128)
	pri := uint32(0xFFFFFFFE)
	for i := range packets {
		packets[i] = echoPacket(pri, uint16(i+1))
		pri++
	}
	chunks := GroupChunks(tableOf(packets))
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d, want 1", len(chunks))
	}
	if chunks[0].Start != 0 || chunks[0].End != 128 {
		t.Fatalf("chunk range = [%d, %d), want [0, 128)", chunks[0].Start, chunks[0].End)
	}
}

func TestGroupChunksParameterChange(t *testing.T) {
	packets := make([]PacketMeta, 128)
	pri := uint32(0xFFFFFFFE)
	for i := range packets {
		packets[i] = echoPacket(pri, uint16(i+1))
		if i >= 50 {
			packets[i].SwathNumber = 2
		}
		pri++
	}
	chunks := GroupChunks(tableOf(packets))
	if len(chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(chunks))
	}
	if chunks[0].Start != 0 || chunks[0].End != 50 {
		t.Fatalf("first chunk = [%d, %d), want [0, 50)", chunks[0].Start, chunks[0].End)
	}
	if chunks[1].Start != 50 || chunks[1].End != 128 {
		t.Fatalf("second chunk = [%d, %d), want [50, 128)", chunks[1].Start, chunks[1].End)
	}
}

func TestGroupChunksBoundaryConditions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PacketMeta)
	}{
		{name: "pri count gap", mutate: func(p *PacketMeta) { p.PRICount += 5 }},
		{name: "azimuth not increasing", mutate: func(p *PacketMeta) { p.AzimuthBeamAddress = 1 }},
		{name: "num quads", mutate: func(p *PacketMeta) { p.NumQuads = 99 }},
		{name: "baq mode", mutate: func(p *PacketMeta) { p.BAQ = BAQBypass }},
		{name: "swst", mutate: func(p *PacketMeta) { p.SWSTRaw++ }},
		{name: "swl", mutate: func(p *PacketMeta) { p.SWLRaw++ }},
		{name: "pri", mutate: func(p *PacketMeta) { p.PRIRaw++ }},
		{name: "signal type", mutate: func(p *PacketMeta) { p.SignalType = SignalNoise }},
		{name: "elevation beam", mutate: func(p *PacketMeta) { p.ElevationBeamAddress++ }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			packets := make([]PacketMeta, 10)
			for i := range packets {
				packets[i] = echoPacket(uint32(1000+i), uint16(i+1))
			}
			tc.mutate(&packets[5])
			chunks := GroupChunks(tableOf(packets))
			// A counter mutation can break continuity on both sides of
			// packet 5, so only the first boundary is asserted.
			if len(chunks) < 2 {
				t.Fatalf("chunks = %d, want at least 2", len(chunks))
			}
			if chunks[0].End != 5 || chunks[1].Start != 5 {
				t.Fatalf("first boundary at %d, want 5", chunks[0].End)
			}
		})
	}
}

func TestGroupChunksPartition(t *testing.T) {
	// Chunk ranges cover [0, N) without gaps or overlap regardless of where
	// the boundaries fall.
	packets := make([]PacketMeta, 40)
	for i := range packets {
		packets[i] = echoPacket(uint32(i), uint16(i%7+1))
	}
	chunks := GroupChunks(tableOf(packets))
	if len(chunks) == 0 {
		t.Fatalf("no chunks returned")
	}
	pos := 0
	for i, c := range chunks {
		if c.ID != i {
			t.Fatalf("chunk %d has ID %d", i, c.ID)
		}
		if c.Start != pos {
			t.Fatalf("chunk %d starts at %d, want %d", i, c.Start, pos)
		}
		if c.End <= c.Start {
			t.Fatalf("chunk %d is empty", i)
		}
		pos = c.End
	}
	if pos != len(packets) {
		t.Fatalf("chunks end at %d, want %d", pos, len(packets))
	}
}

func TestGroupChunksEmptyAndIdempotent(t *testing.T) {
	if chunks := GroupChunks(tableOf(nil)); chunks != nil {
		t.Fatalf("chunks for empty table = %v, want nil", chunks)
	}

	packets := make([]PacketMeta, 20)
	for i := range packets {
		packets[i] = echoPacket(uint32(i), uint16(i+1))
	}
	table := tableOf(packets)
	first := GroupChunks(table)
	second := GroupChunks(table)
	if len(first) != len(second) {
		t.Fatalf("repeated grouping differs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("chunk %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestChunkConstants(t *testing.T) {
	packets := []PacketMeta{echoPacket(7, 3)}
	table := tableOf(packets)
	chunks := GroupChunks(table)
	consts := table.Constants(chunks[0])
	if consts.SignalType != SignalEcho || consts.SwathNumber != 1 || consts.NumQuads != 52 {
		t.Fatalf("constants = %+v", consts)
	}
	if consts.BAQ != FDBAQ0 || consts.ElevationBeamAddress != 2 {
		t.Fatalf("constants = %+v", consts)
	}
}
