package saves

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLogReader_CurrentLog(t *testing.T) {
	dir := t.TempDir()
	if _, ok := NewLogReader(dir).CurrentLog(); ok {
		t.Fatalf("missing log should report ok=false")
	}

	if err := os.MkdirAll(filepath.Join(dir, "logs"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	body := "[12:00:00] [Server thread/INFO]: Steve joined the game\n"
	if err := os.WriteFile(filepath.Join(dir, "logs", "latest.log"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	text, ok := NewLogReader(dir).CurrentLog()
	if !ok || text != body {
		t.Fatalf("log = %q ok=%v", text, ok)
	}

	if _, ok := NewLogReader("").CurrentLog(); ok {
		t.Fatalf("unconfigured reader should report ok=false")
	}
}
