package l0

// GroupChunks partitions the metadata table into acquisition chunks: maximal
// runs of consecutive packets whose acquisition parameters are constant,
// whose PRI count increments by exactly one (wrapping at 2^32-1), and whose
// azimuth beam address increases monotonically. The returned ranges cover
// [0, len(Packets)) without gaps or overlap; the pass is deterministic.
func GroupChunks(table *MetadataTable) []ChunkRange {
	packets := table.Packets
	if len(packets) == 0 {
		return nil
	}

	var chunks []ChunkRange
	start := 0
	for i := 1; i < len(packets); i++ {
		if !continuesChunk(&packets[i-1], &packets[i]) {
			chunks = append(chunks, ChunkRange{ID: len(chunks), Start: start, End: i})
			start = i
		}
	}
	chunks = append(chunks, ChunkRange{ID: len(chunks), Start: start, End: len(packets)})
	return chunks
}

// continuesChunk reports whether next extends the chunk ending at prev. The
// parameter tuple and the two counter laws are checked independently: a PRI
// count wrap coinciding with a parameter change still opens a new chunk.
func continuesChunk(prev, next *PacketMeta) bool {
	if next.SignalType != prev.SignalType ||
		next.SwathNumber != prev.SwathNumber ||
		next.NumQuads != prev.NumQuads ||
		next.BAQ != prev.BAQ ||
		next.SWSTRaw != prev.SWSTRaw ||
		next.SWLRaw != prev.SWLRaw ||
		next.PRIRaw != prev.PRIRaw ||
		next.ElevationBeamAddress != prev.ElevationBeamAddress {
		return false
	}
	if next.PRICount != prev.PRICount+1 {
		return false
	}
	return next.AzimuthBeamAddress > prev.AzimuthBeamAddress
}

// Constants returns the invariant parameter tuple of the chunk, taken from
// its first packet.
func (t *MetadataTable) Constants(c ChunkRange) ChunkConstants {
	p := &t.Packets[c.Start]
	return ChunkConstants{
		SignalType:           p.SignalType,
		SwathNumber:          p.SwathNumber,
		NumQuads:             p.NumQuads,
		BAQ:                  p.BAQ,
		SWSTRaw:              p.SWSTRaw,
		SWLRaw:               p.SWLRaw,
		PRIRaw:               p.PRIRaw,
		ElevationBeamAddress: p.ElevationBeamAddress,
	}
}
