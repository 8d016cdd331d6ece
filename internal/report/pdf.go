package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// SaveDecodePDF renders the decode report into a PDF document. qrPNG, when
// non-nil, is embedded as a verification code for the artifact manifest.
func SaveDecodePDF(rep DecodeReport, out string, qrPNG []byte) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Level 0 Decode Report", false)
	pdf.SetAuthor("s1ctl", false)
	pdf.SetCreator("s1ctl", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	addPDFTitle(pdf, "Level 0 Decode Report")
	addSummarySection(pdf, rep)
	addChunkSection(pdf, rep.Chunks)
	addFailureSection(pdf, rep.Failures)
	addManifestSection(pdf, rep, qrPNG)

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.OutputFileAndClose(out)
}

func addPDFTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)
}

func addSummarySection(pdf *gofpdf.Fpdf, rep DecodeReport) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label string
		value string
	}{
		{label: "Input File", value: rep.Summary.File},
		{label: "File Size", value: fmt.Sprintf("%d bytes", rep.Summary.FileSizeBytes)},
		{label: "Packets", value: strconv.Itoa(rep.Summary.Packets)},
		{label: "Skipped Packets", value: strconv.Itoa(rep.Summary.SkippedPackets)},
		{label: "Acquisition Chunks", value: strconv.Itoa(rep.Summary.Chunks)},
		{label: "Ephemeris Records", value: strconv.Itoa(rep.Summary.EphemerisRecords)},
		{label: "Decoded Rows", value: strconv.Itoa(rep.Summary.DecodedRows)},
		{label: "Failed Rows", value: strconv.Itoa(rep.Summary.FailedRows)},
		{label: "Overall", value: passLabel(rep.Summary.Pass)},
	}
	for _, item := range items {
		pdf.CellFormat(50, 6, item.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, item.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func addChunkSection(pdf *gofpdf.Fpdf, chunks []ChunkSummary) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Acquisition Chunks")
	pdf.Ln(9)

	if len(chunks) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, "No chunks recorded.", "", "L", false)
		pdf.Ln(4)
		return
	}

	headers := []string{"Chunk", "Packets", "Range", "Signal", "Swath", "Quads", "BAQ"}
	widths := []float64{16, 20, 30, 34, 16, 18, 46}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	lineHeight := 5.0
	for _, c := range chunks {
		values := []string{
			strconv.Itoa(c.ChunkID),
			strconv.Itoa(c.Packets),
			fmt.Sprintf("[%d, %d)", c.Start, c.End),
			c.SignalType,
			strconv.Itoa(int(c.SwathNumber)),
			strconv.Itoa(int(c.NumQuads)),
			c.BAQMode,
		}
		renderTableRow(pdf, widths, values, lineHeight)
	}
	pdf.Ln(4)
}

func addFailureSection(pdf *gofpdf.Fpdf, failures []RowFailure) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Row Failures")
	pdf.Ln(9)

	if len(failures) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, "No failures recorded.", "", "L", false)
		pdf.Ln(4)
		return
	}

	for i, f := range failures {
		pdf.SetFont("Helvetica", "B", 10)
		header := fmt.Sprintf("%d. row %d (packet %d)", i+1, f.Row, f.PacketIndex)
		pdf.MultiCell(0, 5, header, "", "L", false)
		if msg := strings.TrimSpace(f.Cause); msg != "" {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, msg, "", "L", false)
		}
		pdf.Ln(2)
	}
	pdf.Ln(2)
}

func addManifestSection(pdf *gofpdf.Fpdf, rep DecodeReport, qrPNG []byte) {
	if rep.ManifestSha256 == "" {
		return
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Artifact Manifest")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5, "SHA-256: "+rep.ManifestSha256, "", "L", false)
	if len(qrPNG) > 0 {
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("manifest-qr", opts, bytes.NewReader(qrPNG))
		pdf.ImageOptions("manifest-qr", pdf.GetX(), pdf.GetY()+2, 32, 32, false, opts, 0, "")
		pdf.Ln(36)
	}
}

func renderTableRow(pdf *gofpdf.Fpdf, widths []float64, values []string, lineHeight float64) {
	xStart := pdf.GetX()
	yStart := pdf.GetY()
	maxLines := 1
	splitCols := make([][]string, len(values))
	for i, val := range values {
		text := strings.TrimSpace(val)
		if text == "" {
			text = "-"
		}
		lines := pdf.SplitText(text, widths[i]-2)
		if len(lines) == 0 {
			lines = []string{""}
		}
		splitCols[i] = lines
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}
	rowHeight := float64(maxLines) * lineHeight
	x := xStart
	for i, lines := range splitCols {
		pdf.SetXY(x, yStart)
		cellText := strings.Join(lines, "\n")
		pdf.MultiCell(widths[i], lineHeight, cellText, "1", "L", false)
		x += widths[i]
	}
	pdf.SetXY(xStart, yStart+rowHeight)
}

func passLabel(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}
