package l0

import (
	"encoding/binary"
	"math"
	"testing"
)

func baseSecondaryHeader() []byte {
	b := make([]byte, secondaryHeaderSize)
	binary.BigEndian.PutUint32(b[6:10], syncMarker)
	return b
}

func TestParsePrimaryHeader(t *testing.T) {
	buf := make([]byte, primaryHeaderSize)
	// version 0, type 0, secondary header flag 1, PID 0x41, category 0xC
	binary.BigEndian.PutUint16(buf[0:2], 0<<13|0<<12|1<<11|0x41<<4|0xC)
	// sequence flags 3, sequence count 0x1234
	binary.BigEndian.PutUint16(buf[2:4], 3<<14|0x1234)
	binary.BigEndian.PutUint16(buf[4:6], 61)

	var meta PacketMeta
	if err := ParsePrimaryHeader(buf, &meta); err != nil {
		t.Fatalf("ParsePrimaryHeader returned error: %v", err)
	}
	if meta.VersionNumber != 0 || meta.PacketType != 0 {
		t.Fatalf("version/type = %d/%d, want 0/0", meta.VersionNumber, meta.PacketType)
	}
	if !meta.HasSecondaryHeader {
		t.Fatalf("HasSecondaryHeader = false, want true")
	}
	if meta.ProcessID != 0x41 {
		t.Fatalf("ProcessID = 0x%X, want 0x41", meta.ProcessID)
	}
	if meta.PacketCategory != 0xC {
		t.Fatalf("PacketCategory = 0x%X, want 0xC", meta.PacketCategory)
	}
	if meta.SequenceFlags != 3 {
		t.Fatalf("SequenceFlags = %d, want 3", meta.SequenceFlags)
	}
	if meta.SequenceCount != 0x1234 {
		t.Fatalf("SequenceCount = 0x%X, want 0x1234", meta.SequenceCount)
	}
	if meta.DataLength != 61 {
		t.Fatalf("DataLength = %d, want 61", meta.DataLength)
	}
	if meta.TotalLength() != 6+61+1 {
		t.Fatalf("TotalLength = %d, want 68", meta.TotalLength())
	}
}

func TestParsePrimaryHeaderShortBuffer(t *testing.T) {
	var meta PacketMeta
	if err := ParsePrimaryHeader(make([]byte, 5), &meta); err == nil {
		t.Fatalf("expected error for 5-byte buffer")
	}
}

func TestParseSecondaryHeaderFields(t *testing.T) {
	b := baseSecondaryHeader()
	binary.BigEndian.PutUint32(b[0:4], 1234567890) // coarse time
	binary.BigEndian.PutUint16(b[4:6], 0x8000)     // fine time = 0.5s
	binary.BigEndian.PutUint32(b[10:14], 0xDEADBEEF)
	b[14] = 8          // ECC: interferometric wide swath
	b[15] = 0x6<<4 | 1 // test mode 6, rx channel 1
	binary.BigEndian.PutUint32(b[16:20], 42)
	b[20] = 17 // subcom index
	binary.BigEndian.PutUint16(b[21:23], 0xBEEF)
	binary.BigEndian.PutUint32(b[23:27], 1000)
	binary.BigEndian.PutUint32(b[27:31], 2000)
	b[31] = 1<<7 | 12 // error flag, FDBAQ mode 0
	b[32] = 128       // BAQ block length
	b[34] = 4         // RGDEC 4
	b[35] = 10        // rx gain code: -5 dB
	binary.BigEndian.PutUint16(b[36:38], 1<<15|0x0400) // positive ramp rate
	binary.BigEndian.PutUint16(b[38:40], 0x0200)       // negative start freq
	b[40], b[41], b[42] = 0x00, 0x10, 0x00             // tx pulse length
	b[43] = 9                                          // rank
	b[44], b[45], b[46] = 0x01, 0x00, 0x00             // PRI
	b[47], b[48], b[49] = 0x00, 0x20, 0x00             // SWST
	b[50], b[51], b[52] = 0x00, 0x08, 0x00             // SWL
	b[53] = 0<<7 | 1<<4 | 2<<2                         // imaging, pol TxH/RxH, temp comp TA
	binary.BigEndian.PutUint16(b[54:56], 5<<12|0x123)  // elevation 5, azimuth 0x123
	b[56] = 1<<6 | 7                                   // cal mode 1, tx pulse number 7
	b[57] = 0<<4 | 1                                   // signal echo, swap flag
	b[58] = 3                                          // swath
	binary.BigEndian.PutUint16(b[59:61], 11938)

	var meta PacketMeta
	if err := ParseSecondaryHeader(b, &meta); err != nil {
		t.Fatalf("ParseSecondaryHeader returned error: %v", err)
	}

	if meta.CoarseTime != 1234567890 {
		t.Fatalf("CoarseTime = %d", meta.CoarseTime)
	}
	if got := meta.FineTimeSeconds(); got != 0.5 {
		t.Fatalf("FineTimeSeconds = %v, want 0.5", got)
	}
	if meta.DataTakeID != 0xDEADBEEF {
		t.Fatalf("DataTakeID = 0x%X", meta.DataTakeID)
	}
	if meta.ECC != ECCInterferometricWS {
		t.Fatalf("ECC = %d, want %d", meta.ECC, ECCInterferometricWS)
	}
	if meta.TestMode != TestModeOper {
		t.Fatalf("TestMode = %d, want %d", meta.TestMode, TestModeOper)
	}
	if meta.RxChannelID != RxChannelH {
		t.Fatalf("RxChannelID = %d, want %d", meta.RxChannelID, RxChannelH)
	}
	if meta.InstrumentConfigID != 42 {
		t.Fatalf("InstrumentConfigID = %d", meta.InstrumentConfigID)
	}
	if meta.SubcomIndex != 17 || meta.SubcomWord != 0xBEEF {
		t.Fatalf("subcom = %d/0x%X", meta.SubcomIndex, meta.SubcomWord)
	}
	if meta.SpacePacketCount != 1000 || meta.PRICount != 2000 {
		t.Fatalf("counters = %d/%d", meta.SpacePacketCount, meta.PRICount)
	}
	if !meta.ErrorFlag {
		t.Fatalf("ErrorFlag = false, want true")
	}
	if meta.BAQ != FDBAQ0 {
		t.Fatalf("BAQ = %d, want %d", meta.BAQ, FDBAQ0)
	}
	if meta.BAQBlockLength != 128 {
		t.Fatalf("BAQBlockLength = %d", meta.BAQBlockLength)
	}
	if meta.RangeDecimation != 4 {
		t.Fatalf("RangeDecimation = %d, want 4", meta.RangeDecimation)
	}
	if got := meta.RxGainDB(); got != -5 {
		t.Fatalf("RxGainDB = %v, want -5", got)
	}
	if meta.Rank != 9 {
		t.Fatalf("Rank = %d, want 9", meta.Rank)
	}
	if meta.ElevationBeamAddress != 5 || meta.AzimuthBeamAddress != 0x123 {
		t.Fatalf("beam addresses = %d/0x%X", meta.ElevationBeamAddress, meta.AzimuthBeamAddress)
	}
	if meta.CalibrationMode != CalModePreamble {
		t.Fatalf("CalibrationMode = %d", meta.CalibrationMode)
	}
	if meta.TxPulseNumber != 7 {
		t.Fatalf("TxPulseNumber = %d", meta.TxPulseNumber)
	}
	if meta.SignalType != SignalEcho {
		t.Fatalf("SignalType = %d", meta.SignalType)
	}
	if !meta.SwapFlag {
		t.Fatalf("SwapFlag = false, want true")
	}
	if meta.SwathNumber != 3 {
		t.Fatalf("SwathNumber = %d", meta.SwathNumber)
	}
	if meta.NumQuads != 11938 {
		t.Fatalf("NumQuads = %d", meta.NumQuads)
	}
}

func TestTimeFieldScaling(t *testing.T) {
	tests := []struct {
		name string
		raw  uint32
		get  func(*PacketMeta) float64
		set  func(*PacketMeta, uint32)
	}{
		{name: "swst", raw: 0x002000, get: (*PacketMeta).SWSTSeconds, set: func(p *PacketMeta, v uint32) { p.SWSTRaw = v }},
		{name: "swl", raw: 0x000800, get: (*PacketMeta).SWLSeconds, set: func(p *PacketMeta, v uint32) { p.SWLRaw = v }},
		{name: "pri", raw: 0x010000, get: (*PacketMeta).PRISeconds, set: func(p *PacketMeta, v uint32) { p.PRIRaw = v }},
		{name: "txpl", raw: 0x001000, get: (*PacketMeta).TxPulseLengthSeconds, set: func(p *PacketMeta, v uint32) { p.TxPulseLengthRaw = v }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var meta PacketMeta
			tc.set(&meta, tc.raw)
			want := float64(tc.raw) / FRef
			if got := tc.get(&meta); got != want {
				t.Fatalf("scaled value = %v, want %v", got, want)
			}
		})
	}
}

func TestChirpScaling(t *testing.T) {
	var meta PacketMeta

	// Sign bit set means positive magnitude.
	meta.TxRampRateCode = 1<<15 | 0x0400
	want := 1024 * FRef * FRef / (1 << 21)
	if got := meta.TxRampRateHzPerSec(); math.Abs(got-want) > 1e-6 {
		t.Fatalf("TxRampRateHzPerSec = %v, want %v", got, want)
	}

	meta.TxRampRateCode = 0x0400
	if got := meta.TxRampRateHzPerSec(); got != -want {
		t.Fatalf("negative ramp rate = %v, want %v", got, -want)
	}

	// Start frequency carries the ramp-rate additive term.
	meta.TxRampRateCode = 1<<15 | 0x0400
	meta.TxStartFreqCode = 1 << 15 // +0 magnitude
	wantFreq := meta.TxRampRateHzPerSec() / (4 * FRef)
	if got := meta.TxStartFrequencyHz(); got != wantFreq {
		t.Fatalf("TxStartFrequencyHz = %v, want %v", got, wantFreq)
	}
}

func TestSecondaryHeaderCalibrationSSB(t *testing.T) {
	b := baseSecondaryHeader()
	b[53] = 1 << 7 // calibration operation
	binary.BigEndian.PutUint16(b[54:56], 1<<15|3<<12|0x0AB)

	var meta PacketMeta
	if err := ParseSecondaryHeader(b, &meta); err != nil {
		t.Fatalf("ParseSecondaryHeader returned error: %v", err)
	}
	if !meta.SSBCalibration {
		t.Fatalf("SSBCalibration = false, want true")
	}
	if meta.SASTestMode != SASCalibration {
		t.Fatalf("SASTestMode = %d", meta.SASTestMode)
	}
	if meta.CalType != CalTypeTA {
		t.Fatalf("CalType = %d, want %d", meta.CalType, CalTypeTA)
	}
	if meta.CalBeamAddress != 0x0AB {
		t.Fatalf("CalBeamAddress = 0x%X", meta.CalBeamAddress)
	}
	if meta.ElevationBeamAddress != 0 || meta.AzimuthBeamAddress != 0 {
		t.Fatalf("imaging fields set in calibration mode")
	}
}

func TestSecondaryHeaderBadSync(t *testing.T) {
	b := baseSecondaryHeader()
	binary.BigEndian.PutUint32(b[6:10], 0x12345678)
	var meta PacketMeta
	if err := ParseSecondaryHeader(b, &meta); err == nil {
		t.Fatalf("expected sync marker error")
	}
}

func TestEnumLabels(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "baq bypass", got: BAQBypass.String(), want: "BYPASS MODE"},
		{name: "fdbaq 0", got: FDBAQ0.String(), want: "FDBAQ MODE 0"},
		{name: "baq reserved", got: BAQMode(7).String(), want: "reserved BAQ mode 7"},
		{name: "signal echo", got: SignalEcho.String(), want: "Echo"},
		{name: "pol", got: PolTxVRxVH.String(), want: "Tx V, Rx V+H"},
		{name: "ecc", got: ECCWaveMode.String(), want: "Wave Mode"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Fatalf("label = %q, want %q", tc.got, tc.want)
			}
		})
	}
}

func TestRangeDecimationReserved(t *testing.T) {
	// RGDEC code 2 is absent from the defined set: tagged reserved but not
	// an error.
	rd := RangeDecimation(2)
	if !rd.IsReserved() {
		t.Fatalf("RGDEC 2 IsReserved = false, want true")
	}
	if rd.SampleRateHz() != 0 {
		t.Fatalf("reserved RGDEC sample rate = %v, want 0", rd.SampleRateHz())
	}
	if RangeDecimation(4).IsReserved() {
		t.Fatalf("RGDEC 4 IsReserved = true, want false")
	}
	want := 4.0 / 9.0 * 4 * FRef
	if got := RangeDecimation(4).SampleRateHz(); math.Abs(got-want) > 1e-3 {
		t.Fatalf("RGDEC 4 sample rate = %v, want %v", got, want)
	}
}

func TestBAQModeClassification(t *testing.T) {
	if !FDBAQ1.IsFDBAQ() || BAQBypass.IsFDBAQ() {
		t.Fatalf("IsFDBAQ misclassified")
	}
	if BAQ3Bit.IsReserved() {
		t.Fatalf("BAQ 3-bit should not be reserved, only unsupported")
	}
	if !BAQMode(9).IsReserved() {
		t.Fatalf("BAQ mode 9 should be reserved")
	}
}
