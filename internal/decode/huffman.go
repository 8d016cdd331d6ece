package decode

import (
	"errors"
	"fmt"
)

// ErrHuffmanOverflow reports a bit pattern that matches no codeword within
// the maximum code length of the active bit rate code.
var ErrHuffmanOverflow = errors.New("bit pattern matches no Huffman code")

// huffmanCode is one codeword of a BRC table: the sign bit leads, the
// magnitude code follows. Patterns are right-aligned.
type huffmanCode struct {
	bits   uint16
	bitLen uint8
	neg    bool
	mcode  uint8
}

// The five bit rate code tables of the FDBAQ scheme, alphabet sizes
// 4, 4, 6, 8 and 10 unsigned magnitudes. Patterns are fixed by the downlink
// format and must be reproduced bit-exactly.
var brcCodes = [5][]huffmanCode{
	{
		{0b00, 2, false, 0},
		{0b10, 2, true, 0},
		{0b010, 3, false, 1},
		{0b110, 3, true, 1},
		{0b0110, 4, false, 2},
		{0b1110, 4, true, 2},
		{0b0111, 4, false, 3},
		{0b1111, 4, true, 3},
	},
	{
		{0b00, 2, false, 0},
		{0b10, 2, true, 0},
		{0b010, 3, false, 1},
		{0b110, 3, true, 1},
		{0b0110, 4, false, 2},
		{0b1110, 4, true, 2},
		{0b01110, 5, false, 3},
		{0b11110, 5, true, 3},
		{0b01111, 5, false, 4},
		{0b11111, 5, true, 4},
	},
	{
		{0b00, 2, false, 0},
		{0b10, 2, true, 0},
		{0b010, 3, false, 1},
		{0b110, 3, true, 1},
		{0b0110, 4, false, 2},
		{0b1110, 4, true, 2},
		{0b01110, 5, false, 3},
		{0b11110, 5, true, 3},
		{0b011110, 6, false, 4},
		{0b111110, 6, true, 4},
		{0b0111110, 7, false, 5},
		{0b1111110, 7, true, 5},
		{0b0111111, 7, false, 6},
		{0b1111111, 7, true, 6},
	},
	{
		{0b000, 3, false, 0},
		{0b100, 3, true, 0},
		{0b001, 3, false, 1},
		{0b101, 3, true, 1},
		{0b010, 3, false, 2},
		{0b110, 3, true, 2},
		{0b0110, 4, false, 3},
		{0b1110, 4, true, 3},
		{0b01110, 5, false, 4},
		{0b11110, 5, true, 4},
		{0b011110, 6, false, 5},
		{0b111110, 6, true, 5},
		{0b0111110, 7, false, 6},
		{0b1111110, 7, true, 6},
		{0b01111110, 8, false, 7},
		{0b11111110, 8, true, 7},
		{0b011111110, 9, false, 8},
		{0b111111110, 9, true, 8},
		{0b011111111, 9, false, 9},
		{0b111111111, 9, true, 9},
	},
	{
		{0b000, 3, false, 0},
		{0b100, 3, true, 0},
		{0b0010, 4, false, 1},
		{0b1010, 4, true, 1},
		{0b0011, 4, false, 2},
		{0b1011, 4, true, 2},
		{0b0100, 4, false, 3},
		{0b1100, 4, true, 3},
		{0b0101, 4, false, 4},
		{0b1101, 4, true, 4},
		{0b01100, 5, false, 5},
		{0b11100, 5, true, 5},
		{0b01101, 5, false, 6},
		{0b11101, 5, true, 6},
		{0b01110, 5, false, 7},
		{0b11110, 5, true, 7},
		{0b011110, 6, false, 8},
		{0b111110, 6, true, 8},
		{0b0111110, 7, false, 9},
		{0b1111110, 7, true, 9},
		{0b011111100, 9, false, 10},
		{0b111111100, 9, true, 10},
		{0b011111101, 9, false, 11},
		{0b111111101, 9, true, 11},
		{0b0111111100, 10, false, 12},
		{0b1111111100, 10, true, 12},
		{0b0111111101, 10, false, 13},
		{0b1111111101, 10, true, 13},
		{0b0111111110, 10, false, 14},
		{0b1111111110, 10, true, 14},
		{0b0111111111, 10, false, 15},
		{0b1111111111, 10, true, 15},
	},
}

// lutEntry maps a peeked maxLen-bit window to a decoded symbol.
type lutEntry struct {
	mcode  uint8
	bitLen uint8
	neg    bool
	valid  bool
}

// huffmanLUT is a flat lookup table of 2^maxLen entries: every possible peek
// window resolves a symbol in one load, eliminating per-symbol tree walks.
type huffmanLUT struct {
	maxLen  int
	entries []lutEntry
}

// brcLUTs holds one precomputed table per bit rate code. Read-only after
// initialization, shared across decoding goroutines.
var brcLUTs [5]huffmanLUT

func init() {
	for brc, codes := range brcCodes {
		brcLUTs[brc] = buildLUT(codes)
	}
}

func buildLUT(codes []huffmanCode) huffmanLUT {
	maxLen := 0
	for _, c := range codes {
		if int(c.bitLen) > maxLen {
			maxLen = int(c.bitLen)
		}
	}
	lut := huffmanLUT{maxLen: maxLen, entries: make([]lutEntry, 1<<maxLen)}
	for _, c := range codes {
		shift := uint(maxLen) - uint(c.bitLen)
		base := uint32(c.bits) << shift
		for fill := uint32(0); fill < 1<<shift; fill++ {
			lut.entries[base|fill] = lutEntry{mcode: c.mcode, bitLen: c.bitLen, neg: c.neg, valid: true}
		}
	}
	return lut
}

// decode consumes one symbol from the bit reader.
func (l *huffmanLUT) decode(br *bitReader) (neg bool, mcode uint8, err error) {
	window, avail := br.peekBits(l.maxLen)
	e := l.entries[window]
	if !e.valid {
		return false, 0, fmt.Errorf("%w: window %0*b", ErrHuffmanOverflow, l.maxLen, window)
	}
	if int(e.bitLen) > avail {
		return false, 0, fmt.Errorf("%w: %d bits left, symbol needs %d", ErrTruncatedPayload, avail, e.bitLen)
	}
	br.skip(int(e.bitLen))
	return e.neg, e.mcode, nil
}
