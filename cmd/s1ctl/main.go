package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"

	"example.com/s1gate/internal/cache"
	"example.com/s1gate/internal/common"
	"example.com/s1gate/internal/decode"
	"example.com/s1gate/internal/l0"
	"example.com/s1gate/internal/manifest"
	"example.com/s1gate/internal/report"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	switch os.Args[1] {
	case "scan":
		scanCmd(os.Args[2:])
	case "chunks":
		chunksCmd(os.Args[2:])
	case "decode":
		decodeCmd(os.Args[2:])
	case "ephemeris":
		ephemerisCmd(os.Args[2:])
	case "report":
		reportCmd(os.Args[2:])
	case "manifest":
		manifestCmd(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Printf(`s1ctl %s (built %s) <command> [options]

Commands:
  scan      --in <file.dat> [--ndjson <packets.ndjson>] [--metrics] [--progress]
  chunks    --in <file.dat>
  decode    --in <file.dat> (--chunk <id> | --start <i> --end <j>) --out <samples.s1cx> [--report <report.json>] [--config <config.yaml>] [--batch <n>] [--workers <n>] [--metrics] [--progress]
  ephemeris --in <file.dat> --out <ephemeris.ndjson>
  report    --report <report.json> --pdf <report.pdf> [--manifest <manifest.json>]
  manifest  --inputs <comma-separated> --out <manifest.json>
`, version, buildDate)
}

type logConfig struct {
	Directory  string `yaml:"directory"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	MaxBackups int    `yaml:"maxBackups"`
	Compress   bool   `yaml:"compress"`
}

type decodeConfig struct {
	BatchSize int    `yaml:"batchSize"`
	Workers   int    `yaml:"workers"`
	OutDir    string `yaml:"outDir"`
}

type config struct {
	Decode decodeConfig `yaml:"decode"`
	Logs   logConfig    `yaml:"logs"`
}

func loadConfig(path string) (config, error) {
	var cfg config
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, err
	}
	if cfg.Decode.BatchSize <= 0 {
		cfg.Decode.BatchSize = 256
	}
	if cfg.Decode.Workers <= 0 {
		cfg.Decode.Workers = runtime.NumCPU()
	}
	if cfg.Logs.MaxSizeMB <= 0 {
		cfg.Logs.MaxSizeMB = 25
	}
	if cfg.Logs.MaxAgeDays <= 0 {
		cfg.Logs.MaxAgeDays = 7
	}
	if cfg.Logs.MaxBackups <= 0 {
		cfg.Logs.MaxBackups = 5
	}
	return cfg, nil
}

func setupLogging(cfg logConfig) error {
	if cfg.Directory == "" {
		return nil
	}
	if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.Directory, "s1ctl.log"),
		MaxSize:    cfg.MaxSizeMB,
		MaxAge:     cfg.MaxAgeDays,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return nil
}

func scanCmd(args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	in := fs.String("in", "", "input Level 0 file")
	ndjsonOut := fs.String("ndjson", "", "write per-packet metadata as NDJSON")
	metricsFlag := fs.Bool("metrics", false, "print scan throughput metrics")
	progressFlag := fs.Bool("progress", false, "display scan progress updates")
	fs.Parse(args)

	if *in == "" {
		fmt.Println("required: --in")
		os.Exit(1)
	}

	prog, stopWatch := startProgress(*metricsFlag, *progressFlag)
	table, err := l0.ScanFileProgress(*in, prog)
	stopProgress(prog, stopWatch)
	if err != nil {
		fmt.Println("scan:", err)
		os.Exit(1)
	}

	chunks := l0.GroupChunks(table)
	eph := l0.ReadEphemeris(table)
	fmt.Printf("Packets=%d skipped=%d chunks=%d ephemeris=%d (incomplete %d)\n",
		len(table.Packets), table.Skipped, len(chunks), len(eph.Records), eph.Incomplete)

	if *ndjsonOut != "" {
		if err := writePacketNDJSON(table, *ndjsonOut); err != nil {
			fmt.Println("write ndjson:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote", *ndjsonOut)
	}
	printSummary(prog, *metricsFlag)
}

func chunksCmd(args []string) {
	fs := flag.NewFlagSet("chunks", flag.ExitOnError)
	in := fs.String("in", "", "input Level 0 file")
	fs.Parse(args)

	if *in == "" {
		fmt.Println("required: --in")
		os.Exit(1)
	}
	table, err := l0.ScanFile(*in)
	if err != nil {
		fmt.Println("scan:", err)
		os.Exit(1)
	}

	chunks := l0.GroupChunks(table)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CHUNK\tPACKETS\tRANGE\tSIGNAL\tSWATH\tQUADS\tBAQ\tSWST")
	for _, c := range chunks {
		consts := table.Constants(c)
		first := &table.Packets[c.Start]
		fmt.Fprintf(w, "%d\t%d\t[%d, %d)\t%s\t%d\t%d\t%s\t%.6gs\n",
			c.ID, c.Count(), c.Start, c.End,
			consts.SignalType, consts.SwathNumber, consts.NumQuads, consts.BAQ,
			first.SWSTSeconds())
	}
	w.Flush()
}

func decodeCmd(args []string) {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	in := fs.String("in", "", "input Level 0 file")
	chunkID := fs.Int("chunk", -1, "acquisition chunk to decode")
	startIdx := fs.Int("start", -1, "first packet index of an explicit selection")
	endIdx := fs.Int("end", -1, "one past the last packet index of an explicit selection")
	out := fs.String("out", "", "output sample cache file")
	reportOut := fs.String("report", "", "write a decode report JSON")
	configPath := fs.String("config", "", "configuration file")
	batchSize := fs.Int("batch", 0, "batch size (overrides config)")
	workers := fs.Int("workers", 0, "worker count (overrides config)")
	metricsFlag := fs.Bool("metrics", false, "print decode throughput metrics")
	progressFlag := fs.Bool("progress", false, "display decode progress updates")
	fs.Parse(args)

	if *in == "" || *out == "" {
		fmt.Println("required: --in, --out")
		os.Exit(1)
	}

	var cfg config
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			fmt.Println("load config:", err)
			os.Exit(1)
		}
		cfg = loaded
		if err := setupLogging(cfg.Logs); err != nil {
			fmt.Println("setup logging:", err)
			os.Exit(1)
		}
	}
	opts := decode.Options{BatchSize: cfg.Decode.BatchSize, Workers: cfg.Decode.Workers}
	if *batchSize > 0 {
		opts.BatchSize = *batchSize
	}
	if *workers > 0 {
		opts.Workers = *workers
	}

	table, err := l0.ScanFile(*in)
	if err != nil {
		fmt.Println("scan:", err)
		os.Exit(1)
	}
	chunks := l0.GroupChunks(table)

	var sel []int
	switch {
	case *chunkID >= 0:
		if *chunkID >= len(chunks) {
			fmt.Printf("chunk %d not found (%d chunks)\n", *chunkID, len(chunks))
			os.Exit(1)
		}
		c := chunks[*chunkID]
		for i := c.Start; i < c.End; i++ {
			sel = append(sel, i)
		}
	case *startIdx >= 0 && *endIdx > *startIdx:
		if *endIdx > len(table.Packets) {
			fmt.Printf("selection end %d beyond %d packets\n", *endIdx, len(table.Packets))
			os.Exit(1)
		}
		for i := *startIdx; i < *endIdx; i++ {
			sel = append(sel, i)
		}
	default:
		fmt.Println("required: --chunk or --start/--end")
		os.Exit(1)
	}

	data, err := table.ReadPayloads()
	if err != nil {
		fmt.Println("read payloads:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prog, stopWatch := startProgress(*metricsFlag, *progressFlag)
	if prog != nil {
		prog.StartDecode(len(sel))
		opts.OnRow = func(failed bool) {
			if failed {
				prog.RowFailed()
			} else {
				prog.RowDecoded()
			}
		}
	}
	matrix, rowErrs, err := decode.DecodeSelection(ctx, data, table, sel, opts)
	stopProgress(prog, stopWatch)
	if err != nil {
		fmt.Println("decode:", err)
		os.Exit(1)
	}
	for _, re := range rowErrs {
		common.Logf("row %d (packet %d): %v", re.Index, sel[re.Index], re.Err)
	}

	if err := cache.Write(*out, matrix); err != nil {
		fmt.Println("write cache:", err)
		os.Exit(1)
	}
	fmt.Printf("Decoded %d rows (%d failed) into %s\n", matrix.Rows, len(rowErrs), *out)

	if *reportOut != "" {
		rep := buildReport(table, chunks, sel, rowErrs)
		if err := report.SaveJSON(rep, *reportOut); err != nil {
			fmt.Println("write report:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote", *reportOut)
	}
	printSummary(prog, *metricsFlag)
}

func buildReport(table *l0.MetadataTable, chunks []l0.ChunkRange, sel []int, rowErrs []decode.RowError) report.DecodeReport {
	eph := l0.ReadEphemeris(table)
	rep := report.DecodeReport{Ts: time.Now().UTC()}
	rep.Summary = report.Summary{
		File:                table.Path,
		FileSizeBytes:       table.FileSize,
		Packets:             len(table.Packets),
		SkippedPackets:      table.Skipped,
		Chunks:              len(chunks),
		EphemerisRecords:    len(eph.Records),
		EphemerisIncomplete: eph.Incomplete,
		DecodedRows:         len(sel) - len(rowErrs),
		FailedRows:          len(rowErrs),
		Pass:                len(rowErrs) == 0 && table.Skipped == 0,
	}
	for _, c := range chunks {
		consts := table.Constants(c)
		rep.Chunks = append(rep.Chunks, report.ChunkSummary{
			ChunkID:     c.ID,
			Start:       c.Start,
			End:         c.End,
			Packets:     c.Count(),
			SignalType:  consts.SignalType.String(),
			BAQMode:     consts.BAQ.String(),
			SwathNumber: consts.SwathNumber,
			NumQuads:    consts.NumQuads,
		})
	}
	for _, re := range rowErrs {
		rep.Failures = append(rep.Failures, report.RowFailure{
			Row:         re.Index,
			PacketIndex: sel[re.Index],
			Cause:       re.Err.Error(),
		})
	}
	return rep
}

func ephemerisCmd(args []string) {
	fs := flag.NewFlagSet("ephemeris", flag.ExitOnError)
	in := fs.String("in", "", "input Level 0 file")
	out := fs.String("out", "", "output NDJSON file")
	fs.Parse(args)

	if *in == "" || *out == "" {
		fmt.Println("required: --in, --out")
		os.Exit(1)
	}
	table, err := l0.ScanFile(*in)
	if err != nil {
		fmt.Println("scan:", err)
		os.Exit(1)
	}
	eph := l0.ReadEphemeris(table)

	f, err := os.Create(*out)
	if err != nil {
		fmt.Println("create output:", err)
		os.Exit(1)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	for i := range eph.Records {
		if err := enc.Encode(&eph.Records[i]); err != nil {
			fmt.Println("write record:", err)
			os.Exit(1)
		}
	}
	fmt.Printf("Wrote %d ephemeris records (%d incomplete runs) to %s\n",
		len(eph.Records), eph.Incomplete, *out)
}

func reportCmd(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	reportPath := fs.String("report", "", "decode report JSON")
	pdfPath := fs.String("pdf", "", "output report PDF")
	manifestPath := fs.String("manifest", "", "artifact manifest to reference")
	fs.Parse(args)

	if *reportPath == "" || *pdfPath == "" {
		fmt.Println("required: --report, --pdf")
		os.Exit(1)
	}
	rep, err := report.LoadJSON(*reportPath)
	if err != nil {
		fmt.Println("load report:", err)
		os.Exit(1)
	}

	var qrPNG []byte
	if *manifestPath != "" {
		hash, _, err := common.Sha256OfFile(*manifestPath)
		if err != nil {
			fmt.Println("hash manifest:", err)
			os.Exit(1)
		}
		rep.ManifestSha256 = hash
		qrPNG, err = report.VerificationQR(rep, 256)
		if err != nil {
			fmt.Println("verification qr:", err)
			os.Exit(1)
		}
	}

	if err := report.SaveDecodePDF(rep, *pdfPath, qrPNG); err != nil {
		fmt.Println("write pdf:", err)
		os.Exit(1)
	}
	fmt.Println("Wrote PDF:", *pdfPath)
}

func manifestCmd(args []string) {
	fs := flag.NewFlagSet("manifest", flag.ExitOnError)
	inputs := fs.String("inputs", "", "comma-separated paths")
	out := fs.String("out", "manifest.json", "output json")
	fs.Parse(args)

	if *inputs == "" {
		fmt.Println("required: --inputs")
		os.Exit(1)
	}
	var paths []string
	for _, p := range strings.Split(*inputs, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		fmt.Println("no input paths specified")
		os.Exit(1)
	}

	m, err := manifest.Build(paths)
	if err != nil {
		fmt.Println("manifest build:", err)
		os.Exit(1)
	}
	if err := manifest.Save(m, *out); err != nil {
		fmt.Println("manifest save:", err)
		os.Exit(1)
	}
	fmt.Println("Wrote", *out)
}

func writePacketNDJSON(table *l0.MetadataTable, out string) error {
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	for i := range table.Packets {
		p := &table.Packets[i]
		row := map[string]any{
			"index":            i,
			"time":             p.Time(),
			"spacePacketCount": p.SpacePacketCount,
			"priCount":         p.PRICount,
			"signalType":       p.SignalType.String(),
			"swathNumber":      p.SwathNumber,
			"numQuads":         p.NumQuads,
			"baqMode":          p.BAQ.String(),
			"swst":             p.SWSTSeconds(),
			"swl":              p.SWLSeconds(),
			"pri":              p.PRISeconds(),
			"payloadOffset":    p.PayloadOffset,
			"payloadLength":    p.PayloadLength,
		}
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

func startProgress(metricsFlag, progressFlag bool) (*common.Progress, func()) {
	if !metricsFlag && !progressFlag {
		return nil, nil
	}
	p := common.NewProgress()
	var stopWatch func()
	if progressFlag {
		stopWatch = common.WatchProgress(os.Stderr, p, 500*time.Millisecond)
	}
	return p, stopWatch
}

func stopProgress(p *common.Progress, stopWatch func()) {
	if stopWatch != nil {
		stopWatch()
	}
	if p != nil {
		p.Finish()
	}
}

func printSummary(p *common.Progress, enabled bool) {
	if p == nil || !enabled {
		return
	}
	s := p.Summary()
	if s.Packets+s.SkippedPackets > 0 {
		fmt.Printf("Metrics: duration=%s packets=%d skipped=%d processed=%s (%.0f packets/s)\n",
			s.Elapsed.Round(10*time.Millisecond),
			s.Packets,
			s.SkippedPackets,
			common.FormatBytes(s.BytesRead),
			s.PacketsPerSecond(),
		)
	}
	if s.TotalRows > 0 {
		fmt.Printf("Metrics: rows=%d failed=%d of %d in %s (%.0f rows/s)\n",
			s.DecodedRows, s.FailedRows, s.TotalRows,
			s.Elapsed.Round(10*time.Millisecond), s.RowsPerSecond())
	}
}
