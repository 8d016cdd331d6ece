package decode

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"example.com/s1gate/internal/l0"
)

var (
	// ErrUnsupportedBAQ reports a packet whose BAQ mode has no payload
	// decoder (the reserved BAQ 3/4/5-bit modes and unknown codes).
	ErrUnsupportedBAQ = errors.New("unsupported BAQ mode")
	// ErrInconsistentChunk reports a selection whose packets disagree on
	// the number of quads; such selections must be split by the caller.
	ErrInconsistentChunk = errors.New("selection spans differing num_quads")
)

// SampleMatrix is a dense row-major matrix of decoded complex samples: one
// row per selected packet, 2*numQuads columns.
type SampleMatrix struct {
	Rows int
	Cols int
	Data []complex64
}

// Row returns the i-th row as a slice into the matrix storage.
func (m *SampleMatrix) Row(i int) []complex64 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// RowError ties a decode failure to its selection row.
type RowError struct {
	Index int // row index within the selection
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Options tunes the batch executor.
type Options struct {
	// BatchSize bounds the number of rows in flight at once. Defaults
	// to 256.
	BatchSize int
	// Workers is the pool size. Defaults to the number of CPUs.
	Workers int
	// OnRow, when set, is invoked once per finished row from the worker
	// goroutines. It must be safe for concurrent use.
	OnRow func(failed bool)
}

const defaultBatchSize = 256

// DecodeSelection decodes the payloads of the selected packets in parallel
// and stacks them into a SampleMatrix. Row i of the output corresponds to
// indices[i] regardless of completion order. Per-row failures are returned
// alongside the matrix and leave the other rows intact; the corresponding
// rows stay zero. data must hold the entire file the table was scanned from.
//
// Cancelling ctx abandons the decode: remaining rows are dropped and the
// partial result is discarded.
func DecodeSelection(ctx context.Context, data []byte, table *l0.MetadataTable, indices []int, opts Options) (*SampleMatrix, []RowError, error) {
	numQuads := -1
	for _, idx := range indices {
		if idx < 0 || idx >= len(table.Packets) {
			return nil, nil, fmt.Errorf("packet index %d out of range [0, %d)", idx, len(table.Packets))
		}
		nq := int(table.Packets[idx].NumQuads)
		if numQuads == -1 {
			numQuads = nq
		} else if nq != numQuads {
			return nil, nil, fmt.Errorf("%w: %d and %d", ErrInconsistentChunk, numQuads, nq)
		}
	}
	if numQuads == -1 {
		numQuads = 0
	}

	matrix := &SampleMatrix{
		Rows: len(indices),
		Cols: 2 * numQuads,
		Data: make([]complex64, len(indices)*2*numQuads),
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var (
		mu      sync.Mutex
		rowErrs []RowError
	)
	for start := 0; start < len(indices); start += batchSize {
		end := start + batchSize
		if end > len(indices) {
			end = len(indices)
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		jobs := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for row := range jobs {
					meta := &table.Packets[indices[row]]
					samples, err := decodeRow(data, meta, numQuads)
					if err != nil {
						mu.Lock()
						rowErrs = append(rowErrs, RowError{Index: row, Err: err})
						mu.Unlock()
					} else {
						copy(matrix.Row(row), samples)
					}
					if opts.OnRow != nil {
						opts.OnRow(err != nil)
					}
				}
			}()
		}

	dispatch:
		for row := start; row < end; row++ {
			select {
			case jobs <- row:
			case <-ctx.Done():
				break dispatch
			}
		}
		close(jobs)
		wg.Wait()
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
	}

	sort.Slice(rowErrs, func(i, j int) bool { return rowErrs[i].Index < rowErrs[j].Index })
	return matrix, rowErrs, nil
}

// decodeRow dispatches one packet's payload to the decoder selected by its
// BAQ mode.
func decodeRow(data []byte, meta *l0.PacketMeta, numQuads int) ([]complex64, error) {
	endOffset := meta.PayloadOffset + int64(meta.PayloadLength)
	if meta.PayloadOffset < 0 || endOffset > int64(len(data)) {
		return nil, fmt.Errorf("%w: payload [%d, %d) outside %d-byte buffer",
			ErrTruncatedPayload, meta.PayloadOffset, endOffset, len(data))
	}
	payload := data[meta.PayloadOffset:endOffset]

	switch {
	case meta.BAQ == l0.BAQBypass:
		return decodeBypass(payload, numQuads)
	case meta.BAQ.IsFDBAQ():
		return decodeFDBAQ(payload, numQuads)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBAQ, meta.BAQ)
	}
}
