// Package manifest builds sha256 inventories of the artifacts a decode run
// produces, so downstream consumers can verify what they received.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"example.com/s1gate/internal/common"
)

type Item struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Sha256 string `json:"sha256"`
	Type   string `json:"type"`
}

type Manifest struct {
	CreatedAt time.Time `json:"createdAt"`
	ShaAlgo   string    `json:"shaAlgo"`
	Items     []Item    `json:"items"`
}

// Build hashes every path and classifies it by extension.
func Build(paths []string) (Manifest, error) {
	m := Manifest{CreatedAt: time.Now().UTC(), ShaAlgo: "sha256"}
	for _, p := range paths {
		hash, size, err := common.Sha256OfFile(p)
		if err != nil {
			return m, err
		}
		m.Items = append(m.Items, Item{Path: p, Size: size, Sha256: hash, Type: artifactType(p)})
	}
	return m, nil
}

func artifactType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dat", ".raw", ".bin":
		return "level0"
	case ".s1cx":
		return "samples"
	case ".json":
		return "report"
	case ".ndjson", ".jsonl":
		return "records"
	case ".pdf":
		return "document"
	default:
		return "other"
	}
}

func Save(m Manifest, path string) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func Load(path string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}
