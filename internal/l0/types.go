package l0

// PacketMeta holds the decoded metadata of one space packet. Primary and
// secondary header fields are stored in their raw integer form; the raw form
// is canonical and the scaled/typed accessors in fields.go derive from it.
type PacketMeta struct {
	// Primary header (6 bytes).
	VersionNumber      uint8
	PacketType         uint8
	HasSecondaryHeader bool
	ProcessID          uint8
	PacketCategory     uint8
	SequenceFlags      uint8
	SequenceCount      uint16
	DataLength         uint16 // packet data field length minus one, as downlinked

	// Datation service.
	CoarseTime uint32
	FineTime   uint16

	// Fixed ancillary data.
	Sync               uint32
	DataTakeID         uint32
	ECC                ECCNumber
	TestMode           TestMode
	RxChannelID        RxChannelID
	InstrumentConfigID uint32

	// Sub-commutated ancillary data.
	SubcomIndex uint8
	SubcomWord  uint16

	// Counters service.
	SpacePacketCount uint32
	PRICount         uint32

	// Radar configuration support service.
	ErrorFlag        bool
	BAQ              BAQMode
	BAQBlockLength   uint8
	RangeDecimation  RangeDecimation
	RxGainCode       uint8
	TxRampRateCode   uint16
	TxStartFreqCode  uint16
	TxPulseLengthRaw uint32
	Rank             uint8
	PRIRaw           uint32
	SWSTRaw          uint32
	SWLRaw           uint32
	SSBCalibration   bool
	Polarisation     Polarisation
	TempComp         TemperatureCompensation
	// Beam addresses: elevation/azimuth when SSBCalibration is false,
	// SASTestMode/CalType/CalBeamAddress when true.
	ElevationBeamAddress uint8
	AzimuthBeamAddress   uint16
	SASTestMode          SASTestMode
	CalType              CalType
	CalBeamAddress       uint16
	CalibrationMode      CalibrationMode
	TxPulseNumber        uint8
	SignalType           SignalType
	SwapFlag             bool
	SwathNumber          uint8

	// Radar sample count service.
	NumQuads uint16

	// Location of the compressed sample payload in the file.
	PayloadOffset int64
	PayloadLength int
}

// TotalLength reports the full packet size in bytes including the primary
// header, as derived from the packet data length field alone.
func (p *PacketMeta) TotalLength() int64 {
	return primaryHeaderSize + int64(p.DataLength) + 1
}

// MetadataTable is the result of a full-file metadata scan: one PacketMeta
// per parsed packet, in file order.
type MetadataTable struct {
	Path     string
	FileSize int64
	Packets  []PacketMeta
	// Skipped counts packets whose headers could not be decoded and which
	// therefore have no row in Packets.
	Skipped int
}

// ChunkRange identifies a maximal run of packets with constant acquisition
// parameters and monotonic counters. The range is half-open: packets
// [Start, End) of the metadata table belong to chunk ID.
type ChunkRange struct {
	ID    int
	Start int
	End   int
}

// Count returns the number of packets in the chunk.
func (c ChunkRange) Count() int { return c.End - c.Start }

// ChunkConstants is the tuple of parameters held constant across an
// acquisition chunk, taken from its first packet.
type ChunkConstants struct {
	SignalType           SignalType
	SwathNumber          uint8
	NumQuads             uint16
	BAQ                  BAQMode
	SWSTRaw              uint32
	SWLRaw               uint32
	PRIRaw               uint32
	ElevationBeamAddress uint8
}
