package report

import (
	"errors"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const sha256HexLen = 64

var errNoManifestHash = errors.New("report carries no manifest hash")

// VerificationQR renders the decode run's verification payload as a QR PNG.
// The payload is an s1gate URI binding the artifact manifest digest to the
// run's packet and row totals, so a scanned report can be checked against
// its artifacts without retyping the digest.
func VerificationQR(rep DecodeReport, size int) ([]byte, error) {
	payload, err := verificationPayload(rep)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 128
	}
	return qrcode.Encode(payload, qrcode.Medium, size)
}

func verificationPayload(rep DecodeReport) (string, error) {
	digest, err := normalizeDigest(rep.ManifestSha256)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("s1gate:v1;manifest=%s;packets=%d;rows=%d;failed=%d",
		digest, rep.Summary.Packets, rep.Summary.DecodedRows, rep.Summary.FailedRows), nil
}

// normalizeDigest lowercases a sha256 hex digest and rejects anything that
// is not exactly 64 hex characters.
func normalizeDigest(digest string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(digest))
	if d == "" {
		return "", errNoManifestHash
	}
	if len(d) != sha256HexLen {
		return "", fmt.Errorf("manifest hash has %d characters, want %d", len(d), sha256HexLen)
	}
	for _, r := range d {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", fmt.Errorf("manifest hash contains non-hex character %q", r)
		}
	}
	return d, nil
}
