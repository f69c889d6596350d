package app

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func renderPretty(t *testing.T, color bool, fn func(*slog.Logger)) string {
	t.Helper()

	var buf bytes.Buffer
	fn(slog.New(newPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}, color)))
	return strings.TrimSuffix(buf.String(), "\n")
}

func TestPrettyHandler_RequestLine(t *testing.T) {
	t.Parallel()

	line := renderPretty(t, false, func(log *slog.Logger) {
		log.Info("http.request",
			"method", "get",
			"path", "/api/books",
			"status", 200,
			"status_class", "2xx",
			"duration_ms", int64(12),
			"result", "success",
		)
	})

	for _, want := range []string{
		"lvl=[INFO]",
		"msg=http.request",
		"method=GET",
		"path=/api/books",
		"status=200",
		"class=2xx",
		"duration=12ms",
		"result=success",
	} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %q in %q", want, line)
		}
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("plain output must not carry escape codes: %q", line)
	}
}

func TestPrettyHandler_GroupsAndQuoting(t *testing.T) {
	t.Parallel()

	line := renderPretty(t, false, func(log *slog.Logger) {
		log.WithGroup("auth").With("user_id", 3).Debug("check", "note", "two words", "empty", "")
	})

	if !strings.HasPrefix(line[strings.Index(line, "lvl="):], "lvl=[DEBUG] msg=check") {
		t.Fatalf("unexpected header: %q", line)
	}
	for _, want := range []string{`auth.user_id=3`, `auth.note="two words"`, `auth.empty=""`} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %q in %q", want, line)
		}
	}
}

func TestPrettyHandler_ColorizesByStatus(t *testing.T) {
	t.Parallel()

	line := renderPretty(t, true, func(log *slog.Logger) {
		log.Error("http.request", "status", 503)
	})

	if !strings.Contains(line, ansiRed+"[ERROR]"+ansiReset) {
		t.Fatalf("error tag not red: %q", line)
	}
	if !strings.Contains(line, "status="+ansiRed+"503"+ansiReset) {
		t.Fatalf("5xx status not red: %q", line)
	}
}

func TestPrettyHandler_Enabled(t *testing.T) {
	t.Parallel()

	h := newPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}, false)
	if h.Enabled(t.Context(), slog.LevelInfo) {
		t.Fatalf("info must be disabled at warn level")
	}
	if !h.Enabled(t.Context(), slog.LevelError) {
		t.Fatalf("error must be enabled at warn level")
	}
}
