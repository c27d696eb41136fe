package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q)=%v,%v，期望 %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("期望未知级别报错")
	}
}

func TestNew_JSONFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelWarn, FormatJSON)
	l.Info("hidden")
	l.Warn("shown", "site", "javdb.com")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info 不应输出：%s", out)
	}
	if !strings.Contains(out, `"site":"javdb.com"`) {
		t.Fatalf("期望 JSON 属性，实际：%s", out)
	}
}
