package l0

import (
	"encoding/binary"
	"math"
	"time"
)

// The satellite ephemeris is sub-commutated across packets: each packet
// carries one 16-bit word and a 1..64 cycle counter. Sixty-four consecutive
// packets with counters 1,2,...,64 form one complete 128-byte ancillary
// block.
const subcomWords = 64

// EphemerisRecord is one decoded position/velocity/attitude solution.
type EphemerisRecord struct {
	// Index and time of the packet carrying counter value 1.
	StartPacket int
	CoarseTime  uint32
	FineTime    uint16

	PosX, PosY, PosZ float64 // metres
	VelX, VelY, VelZ float32 // m/s
	// PODSeconds is the POD solution data stamp as fixed-point seconds on
	// the GPS timescale.
	PODSeconds float64

	Q0, Q1, Q2, Q3      float32 // attitude quaternion
	RateX, RateY, RateZ float32 // angular rates, rad/s
	AttitudeSeconds     float64 // attitude data stamp, GPS seconds
}

// Time returns the datation timestamp of the record's first packet.
func (r *EphemerisRecord) Time() float64 {
	return float64(r.CoarseTime) + float64(r.FineTime)/(1<<16)
}

// PODTimeUTC places the POD data stamp on the GPS epoch for presentation.
func (r *EphemerisRecord) PODTimeUTC() time.Time {
	return gpsEpoch.Add(time.Duration(r.PODSeconds * float64(time.Second)))
}

// EphemerisTable collects the decoded records of one file.
type EphemerisTable struct {
	Records []EphemerisRecord
	// Incomplete counts accumulations abandoned because the counter
	// sequence broke before reaching 64.
	Incomplete int
}

// ReadEphemeris scans the metadata table for aligned sub-commutated runs and
// decodes one record per complete run. A run starting mid-cycle is ignored
// until the next counter value of 1; a gap in the cycle abandons the current
// accumulation.
func ReadEphemeris(table *MetadataTable) EphemerisTable {
	var out EphemerisTable
	var (
		words    [subcomWords]uint16
		expect   uint8
		startIdx int
		active   bool
	)

	for i := range table.Packets {
		p := &table.Packets[i]
		idx := p.SubcomIndex
		switch {
		case idx == 1:
			if active {
				out.Incomplete++
			}
			active = true
			startIdx = i
			words[0] = p.SubcomWord
			expect = 2
		case active && idx == expect:
			words[idx-1] = p.SubcomWord
			if idx == subcomWords {
				out.Records = append(out.Records, decodeSubcomBlock(table, startIdx, &words))
				active = false
				continue
			}
			expect++
		case active:
			out.Incomplete++
			active = false
		}
	}
	if active {
		out.Incomplete++
	}
	return out
}

func decodeSubcomBlock(table *MetadataTable, startIdx int, words *[subcomWords]uint16) EphemerisRecord {
	var block [2 * subcomWords]byte
	for i, w := range words {
		binary.BigEndian.PutUint16(block[2*i:], w)
	}

	f64 := func(word int) float64 {
		return math.Float64frombits(binary.BigEndian.Uint64(block[2*word:]))
	}
	f32 := func(word int) float32 {
		return math.Float32frombits(binary.BigEndian.Uint32(block[2*word:]))
	}

	start := &table.Packets[startIdx]
	return EphemerisRecord{
		StartPacket: startIdx,
		CoarseTime:  start.CoarseTime,
		FineTime:    start.FineTime,

		PosX: f64(0),
		PosY: f64(4),
		PosZ: f64(8),

		VelX: f32(12),
		VelY: f32(14),
		VelZ: f32(16),

		PODSeconds: fixedPointSeconds(words[18], words[19], words[20], words[21]),

		Q0: f32(22),
		Q1: f32(24),
		Q2: f32(26),
		Q3: f32(28),

		RateX: f32(30),
		RateY: f32(32),
		RateZ: f32(34),

		AttitudeSeconds: fixedPointSeconds(words[36], words[37], words[38], words[39]),
	}
}

// fixedPointSeconds assembles the four-word data stamp, weighting the words
// 2^24, 2^8, 2^-8 and 2^-24 seconds in order.
func fixedPointSeconds(w0, w1, w2, w3 uint16) float64 {
	return float64(w0)*(1<<24) + float64(w1)*(1<<8) +
		float64(w2)/(1<<8) + float64(w3)/(1<<24)
}
