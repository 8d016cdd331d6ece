package decode

import "fmt"

// bypassSampleBits is the fixed sample width in bypass mode: one sign bit
// and nine magnitude bits.
const bypassSampleBits = 10

// decodeBypass decodes a bypass-mode payload. The four channels appear in
// the order IE, IO, QE, QO; each carries numQuads 10-bit sign-magnitude
// samples and is zero-padded to the next 16-bit word boundary, so every
// channel occupies the same whole number of words.
func decodeBypass(data []byte, numQuads int) ([]complex64, error) {
	if numQuads == 0 {
		return []complex64{}, nil
	}
	wordsPerChannel := (numQuads*bypassSampleBits + 15) / 16
	bytesPerChannel := wordsPerChannel * 2
	if len(data) < 4*bytesPerChannel {
		return nil, fmt.Errorf("%w: %d payload bytes, need %d", ErrTruncatedPayload, len(data), 4*bytesPerChannel)
	}

	var chans [4][]float32
	for c := range chans {
		vals, err := decodeBypassChannel(data[c*bytesPerChannel:(c+1)*bytesPerChannel], numQuads)
		if err != nil {
			return nil, err
		}
		chans[c] = vals
	}
	return interleave(chans[0], chans[1], chans[2], chans[3]), nil
}

func decodeBypassChannel(data []byte, numQuads int) ([]float32, error) {
	br := newBitReader(data)
	out := make([]float32, numQuads)
	for i := range out {
		neg, mag, err := br.readSignMagnitude(bypassSampleBits)
		if err != nil {
			return nil, err
		}
		v := float32(mag)
		if neg {
			v = -v
		}
		out[i] = v
	}
	return out, nil
}
