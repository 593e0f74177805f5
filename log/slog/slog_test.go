package slog

import (
	"bytes"
	"encoding/json"
	stdslog "log/slog"
	"testing"

	"github.com/unkn0wn-root/tiercache"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(stdslog.New(stdslog.NewJSONHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo})))

	l.Debug("hidden", tiercache.Fields{"k": 1})
	if buf.Len() != 0 {
		t.Fatalf("debug logged below level: %s", buf.String())
	}

	l.Warn("commit incomplete", tiercache.Fields{"pending": 2})
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rec["msg"] != "commit incomplete" || rec["level"] != "WARN" || rec["pending"] != float64(2) {
		t.Fatalf("record = %v", rec)
	}
}
