package saves

import (
	"os"
	"path/filepath"
)

// LogReader serves the active game instance's live log file.
type LogReader struct {
	instanceDir string
}

func NewLogReader(instanceDir string) *LogReader {
	return &LogReader{instanceDir: instanceDir}
}

// CurrentLog reads logs/latest.log under the instance directory. A missing
// or unreadable log reports ok=false; callers treat that as "nothing to
// scan", not a failure.
func (r *LogReader) CurrentLog() (string, bool) {
	if r == nil || r.instanceDir == "" {
		return "", false
	}
	raw, err := os.ReadFile(filepath.Join(r.instanceDir, "logs", "latest.log"))
	if err != nil {
		return "", false
	}
	return string(raw), true
}
