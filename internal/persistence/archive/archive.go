// Package archive persists progress snapshots as zstd-compressed files: a
// one-line JSON header for cheap inspection, then the snapshot blob itself.
package archive

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/LuizLoyola/AATool/internal/tracker/progress"
)

const fileSuffix = ".progress.zst"

type Header struct {
	Version  int    `json:"version"`
	Category string `json:"category"`
	Game     string `json:"game_version"`
	SavedAt  string `json:"saved_at"`
}

// Write stores an encoded snapshot blob under dir, named by timestamp, and
// returns the file path.
func Write(dir string, blob []byte, category, gameVersion string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	now := time.Now().UTC()
	path := filepath.Join(dir, now.Format("20060102-150405")+fileSuffix)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return "", err
	}
	defer enc.Close()

	bw := bufio.NewWriter(enc)
	defer bw.Flush()

	hb, _ := json.Marshal(Header{
		Version:  1,
		Category: category,
		Game:     gameVersion,
		SavedAt:  now.Format(time.RFC3339),
	})
	if _, err := bw.Write(hb); err != nil {
		return "", err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return "", err
	}
	if _, err := bw.Write(blob); err != nil {
		return "", err
	}
	return path, nil
}

// Read loads an archived snapshot. File and compression errors are real
// errors; a corrupt payload inside an intact archive degrades to the empty
// state per the codec's fail-soft contract.
func Read(path string) (*progress.WorldState, Header, error) {
	var hdr Header

	f, err := os.Open(path)
	if err != nil {
		return nil, hdr, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, hdr, err
	}
	defer dec.Close()

	br := bufio.NewReader(dec)
	headerLine, err := br.ReadBytes('\n')
	if err != nil {
		return nil, hdr, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(headerLine, &hdr); err != nil {
		return nil, hdr, fmt.Errorf("parse header: %w", err)
	}

	blob, err := io.ReadAll(br)
	if err != nil {
		return nil, hdr, fmt.Errorf("read payload: %w", err)
	}
	return progress.Decode(blob), hdr, nil
}

// Latest returns the newest archive file in dir, or "" when none exist.
func Latest(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), fileSuffix) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return ""
	}
	// Timestamped names sort chronologically.
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1])
}
