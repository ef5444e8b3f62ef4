package backends

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestDebugLogsAndDelegates(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	disk, err := NewDisk(afero.NewMemMapFs(), "/root")
	if err != nil {
		t.Fatalf("NewDisk failed: %v", err)
	}
	d := NewDebug(disk, logger)

	if _, ok, err := d.Read("k"); ok || err != nil {
		t.Fatalf("Expected clean miss, got ok=%v err=%v", ok, err)
	}
	if err := d.Write("k", []byte("v")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, ok, err := d.Read("k")
	if err != nil || !ok || string(data) != "v" {
		t.Fatalf("Read: data=%q ok=%v err=%v", data, ok, err)
	}
	if err := d.Remove("k"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := d.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"read miss", "write stored", "read hit", "remove", "cache cleared successfully"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log output to contain %q, got:\n%s", want, out)
		}
	}
	if d.Path("k") != disk.Path("k") {
		t.Errorf("Path not delegated: %s vs %s", d.Path("k"), disk.Path("k"))
	}
}
