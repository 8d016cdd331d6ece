package decode

import "fmt"

// blockSamples is the number of samples per BAQ block; the last block of a
// channel may be shorter.
const blockSamples = 128

// sampleCode is one Huffman-decoded sample before reconstruction.
type sampleCode struct {
	neg   bool
	mcode uint8
}

type channelKind int

const (
	// channelLeading reads the 3-bit BRC at the start of each block (IE).
	channelLeading channelKind = iota
	// channelThreshold reads the 8-bit THIDX at the start of each block (QE).
	channelThreshold
	// channelFollowing reuses both BRC and THIDX (IO, QO).
	channelFollowing
)

// decodeFDBAQ decodes one FDBAQ payload into the interleaved complex layout
// (IE0+jQE0), (IO0+jQO0), (IE1+jQE1), ... The payload carries the four
// channels in the order IE, IO, QE, QO, each split into 128-sample blocks
// and padded to a 16-bit word boundary.
func decodeFDBAQ(data []byte, numQuads int) ([]complex64, error) {
	if numQuads == 0 {
		return []complex64{}, nil
	}
	br := newBitReader(data)
	numBlocks := (numQuads + blockSamples - 1) / blockSamples
	brcs := make([]uint8, 0, numBlocks)
	thidxs := make([]uint8, 0, numBlocks)

	ie, err := decodeFDBAQChannel(br, numQuads, &brcs, &thidxs, channelLeading)
	if err != nil {
		return nil, fmt.Errorf("IE channel: %w", err)
	}
	io, err := decodeFDBAQChannel(br, numQuads, &brcs, &thidxs, channelFollowing)
	if err != nil {
		return nil, fmt.Errorf("IO channel: %w", err)
	}
	qe, err := decodeFDBAQChannel(br, numQuads, &brcs, &thidxs, channelThreshold)
	if err != nil {
		return nil, fmt.Errorf("QE channel: %w", err)
	}
	qo, err := decodeFDBAQChannel(br, numQuads, &brcs, &thidxs, channelFollowing)
	if err != nil {
		return nil, fmt.Errorf("QO channel: %w", err)
	}

	chans := [4][]float32{}
	for i, codes := range [4][]sampleCode{ie, io, qe, qo} {
		vals, err := reconstructChannel(codes, brcs, thidxs)
		if err != nil {
			return nil, err
		}
		chans[i] = vals
	}
	return interleave(chans[0], chans[1], chans[2], chans[3]), nil
}

// decodeFDBAQChannel reads one channel's blocks. The leading channel
// extracts the per-block BRC, the threshold channel extracts the per-block
// THIDX; the following channels reuse both. Every channel ends aligned to
// the next 16-bit word.
func decodeFDBAQChannel(br *bitReader, numQuads int, brcs *[]uint8, thidxs *[]uint8, kind channelKind) ([]sampleCode, error) {
	codes := make([]sampleCode, 0, numQuads)
	for block := 0; len(codes) < numQuads; block++ {
		switch kind {
		case channelLeading:
			v, err := br.readBits(3)
			if err != nil {
				return nil, err
			}
			if v > 4 {
				return nil, fmt.Errorf("block %d: bit rate code %d out of range", block, v)
			}
			*brcs = append(*brcs, uint8(v))
		case channelThreshold:
			v, err := br.readBits(8)
			if err != nil {
				return nil, err
			}
			*thidxs = append(*thidxs, uint8(v))
		}
		if block >= len(*brcs) {
			return nil, fmt.Errorf("block %d: no bit rate code", block)
		}
		lut := &brcLUTs[(*brcs)[block]]

		n := numQuads - len(codes)
		if n > blockSamples {
			n = blockSamples
		}
		for i := 0; i < n; i++ {
			neg, mcode, err := lut.decode(br)
			if err != nil {
				return nil, fmt.Errorf("block %d sample %d: %w", block, i, err)
			}
			codes = append(codes, sampleCode{neg: neg, mcode: mcode})
		}
	}
	br.alignWord()
	return codes, nil
}

// reconstructChannel maps decoded sample codes to float values using the
// per-block BRC and THIDX: plain magnitudes below the saturation code while
// the threshold is low, the threshold-dependent endpoint at saturation, and
// normalized levels scaled by the sigma factor otherwise.
func reconstructChannel(codes []sampleCode, brcs, thidxs []uint8) ([]float32, error) {
	if len(brcs) != len(thidxs) {
		return nil, fmt.Errorf("mismatched block parameters: %d BRCs, %d THIDXs", len(brcs), len(thidxs))
	}
	out := make([]float32, len(codes))
	n := 0
	for block := 0; n < len(codes); block++ {
		if block >= len(brcs) {
			return nil, fmt.Errorf("sample %d has no block parameters", n)
		}
		brc := brcs[block]
		thidx := thidxs[block]
		end := n + blockSamples
		if end > len(codes) {
			end = len(codes)
		}
		for ; n < end; n++ {
			v, err := reconstructSample(codes[n], brc, thidx)
			if err != nil {
				return nil, err
			}
			out[n] = v
		}
	}
	return out, nil
}

func reconstructSample(c sampleCode, brc, thidx uint8) (float32, error) {
	sat := saturationMcode[brc]
	if c.mcode > sat {
		return 0, fmt.Errorf("magnitude code %d exceeds BRC %d alphabet", c.mcode, brc)
	}
	var mag float32
	switch {
	case thidx <= simpleTHIDXMax[brc] && c.mcode < sat:
		mag = float32(c.mcode)
	case thidx <= simpleTHIDXMax[brc]:
		mag = brcSimpleEndpoints[brc][thidx]
	default:
		mag = normalizedLevels[brc][c.mcode] * sigmaFactors[thidx]
	}
	if c.neg {
		return -mag, nil
	}
	return mag, nil
}

func interleave(ie, io, qe, qo []float32) []complex64 {
	out := make([]complex64, 0, 2*len(ie))
	for i := range ie {
		out = append(out, complex(ie[i], qe[i]), complex(io[i], qo[i]))
	}
	return out
}
