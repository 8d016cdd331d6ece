package common

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Stage identifies which part of the pipeline a Progress value is tracking.
type Stage int

const (
	StageIdle Stage = iota
	StageScan
	StageDecode
)

func (s Stage) String() string {
	switch s {
	case StageScan:
		return "scan"
	case StageDecode:
		return "decode"
	}
	return "idle"
}

// Progress tracks a pipeline run through its two stages. The metadata scan
// is measured in packets and bytes against the file size; the payload
// decode is measured in rows against the selection size. The clock runs
// from the first stage entered until Finish.
type Progress struct {
	mu        sync.Mutex
	stage     Stage
	startedAt time.Time
	stoppedAt time.Time

	fileBytes int64
	bytesRead int64
	packets   int64
	skipped   int64

	totalRows   int64
	decodedRows int64
	failedRows  int64
}

func NewProgress() *Progress {
	return &Progress{}
}

// StartScan enters the scan stage against a file of the given size.
func (p *Progress) StartScan(fileBytes int64) {
	p.mu.Lock()
	p.stage = StageScan
	if fileBytes > 0 {
		p.fileBytes = fileBytes
	}
	if p.startedAt.IsZero() {
		p.startedAt = time.Now()
	}
	p.mu.Unlock()
}

// PacketIndexed records one parsed packet of the given size.
func (p *Progress) PacketIndexed(size int64) {
	if size < 0 {
		size = 0
	}
	p.mu.Lock()
	p.packets++
	p.bytesRead += size
	p.mu.Unlock()
}

// PacketSkipped records a packet stepped over because its headers could not
// be decoded. The bytes still count toward scan completion.
func (p *Progress) PacketSkipped(size int64) {
	if size < 0 {
		size = 0
	}
	p.mu.Lock()
	p.skipped++
	p.bytesRead += size
	p.mu.Unlock()
}

// StartDecode enters the decode stage with the number of selected rows.
func (p *Progress) StartDecode(totalRows int) {
	p.mu.Lock()
	p.stage = StageDecode
	p.totalRows = int64(totalRows)
	if p.startedAt.IsZero() {
		p.startedAt = time.Now()
	}
	p.mu.Unlock()
}

// RowDecoded records one successfully decoded row.
func (p *Progress) RowDecoded() {
	p.mu.Lock()
	p.decodedRows++
	p.mu.Unlock()
}

// RowFailed records one row whose payload could not be decoded.
func (p *Progress) RowFailed() {
	p.mu.Lock()
	p.failedRows++
	p.mu.Unlock()
}

// Finish stops the clock. Later counter updates still count toward the
// totals, and rates divide them by the stopped elapsed time.
func (p *Progress) Finish() {
	p.mu.Lock()
	if !p.startedAt.IsZero() && p.stoppedAt.IsZero() {
		p.stoppedAt = time.Now()
	}
	p.mu.Unlock()
}

// Summary returns a consistent snapshot of the run so far.
func (p *Progress) Summary() ProgressSummary {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := ProgressSummary{
		Stage:          p.stage,
		FileBytes:      p.fileBytes,
		BytesRead:      p.bytesRead,
		Packets:        p.packets,
		SkippedPackets: p.skipped,
		TotalRows:      p.totalRows,
		DecodedRows:    p.decodedRows,
		FailedRows:     p.failedRows,
	}
	switch {
	case p.startedAt.IsZero():
	case p.stoppedAt.IsZero():
		s.Elapsed = time.Since(p.startedAt)
	default:
		s.Elapsed = p.stoppedAt.Sub(p.startedAt)
	}
	return s
}

// ProgressSummary is an immutable view of a Progress value.
type ProgressSummary struct {
	Stage          Stage
	Elapsed        time.Duration
	FileBytes      int64
	BytesRead      int64
	Packets        int64
	SkippedPackets int64
	TotalRows      int64
	DecodedRows    int64
	FailedRows     int64
}

// Fraction reports stage completion in [0, 1]: scanned bytes against the
// file size during the scan, finished rows against the selection during the
// decode. Unknown totals report 0.
func (s ProgressSummary) Fraction() float64 {
	var done, total float64
	switch s.Stage {
	case StageScan:
		done, total = float64(s.BytesRead), float64(s.FileBytes)
	case StageDecode:
		done, total = float64(s.DecodedRows+s.FailedRows), float64(s.TotalRows)
	}
	if total <= 0 {
		return 0
	}
	if done > total {
		return 1
	}
	return done / total
}

// PacketsPerSecond reports the scan rate including skipped packets.
func (s ProgressSummary) PacketsPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Packets+s.SkippedPackets) / s.Elapsed.Seconds()
}

// RowsPerSecond reports the decode rate including failed rows.
func (s ProgressSummary) RowsPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.DecodedRows+s.FailedRows) / s.Elapsed.Seconds()
}

func (s ProgressSummary) line() string {
	switch s.Stage {
	case StageScan:
		if s.FileBytes > 0 {
			return fmt.Sprintf("scan: %d packets, %s of %s (%.1f%%)",
				s.Packets, FormatBytes(s.BytesRead), FormatBytes(s.FileBytes), 100*s.Fraction())
		}
		return fmt.Sprintf("scan: %d packets, %s", s.Packets, FormatBytes(s.BytesRead))
	case StageDecode:
		line := fmt.Sprintf("decode: %d/%d rows (%.1f%%)",
			s.DecodedRows+s.FailedRows, s.TotalRows, 100*s.Fraction())
		if s.FailedRows > 0 {
			line += fmt.Sprintf(", %d failed", s.FailedRows)
		}
		return line
	}
	return ""
}

var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

func FormatBytes(n int64) string {
	v := float64(n)
	unit := 0
	for v >= 1024 && unit < len(byteUnits)-1 {
		v /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.1f %s", v, byteUnits[unit])
}

// WatchProgress redraws a one-line stage status on w every interval until
// the returned stop function is called. Stopping clears the line.
func WatchProgress(w io.Writer, p *Progress, interval time.Duration) func() {
	if w == nil || p == nil {
		return func() {}
	}
	if interval <= 0 {
		interval = time.Second
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		width := 0
		for {
			select {
			case <-ticker.C:
				width = redrawLine(w, p.Summary().line(), width)
			case <-done:
				if width > 0 {
					fmt.Fprintf(w, "\r%*s\r", width, "")
				}
				return
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

// redrawLine repaints the status line in place, padding on the right to the
// widest line drawn so far so a shrinking line leaves no residue.
func redrawLine(w io.Writer, line string, width int) int {
	if len(line) > width {
		width = len(line)
	}
	fmt.Fprintf(w, "\r%-*s", width, line)
	return width
}
