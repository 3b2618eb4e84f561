package internal

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewApplication_RequiresConfig(t *testing.T) {
	if _, err := newApplication(&bytes.Buffer{}, nil); err == nil {
		t.Fatal("missing config should fail")
	}
}

func TestNewApplication_DefaultLoggerHonoursLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg := NewDefaultConfig()
	cfg.App.LogLevel = slog.LevelWarn
	var buf bytes.Buffer

	app, err := newApplication(&buf, []Option{WithConfig(cfg)})
	if err != nil {
		t.Fatal(err)
	}
	app.logger.Info("hidden")
	slog.Warn("shown", slog.String("k", "v"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"k":"v"`) {
		t.Errorf("warn record missing or not JSON: %s", out)
	}
}

func TestNewApplication_WithLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	app, err := newApplication(&bytes.Buffer{}, []Option{WithConfig(NewDefaultConfig()), WithLogger(logger)})
	if err != nil {
		t.Fatal(err)
	}
	if app.logger != logger || slog.Default() != logger {
		t.Error("WithLogger should install the given logger")
	}
}

func TestNewHeadlessNavigator(t *testing.T) {
	cfg := NewDefaultConfig()
	nav, page, err := newHeadlessNavigator(cfg, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if nav == nil || page == nil || nav.Current() != "" {
		t.Errorf("navigator = %v page = %v", nav, page)
	}

	cfg.Backend.URL = "relative/path"
	if _, _, err := newHeadlessNavigator(cfg, slog.Default()); err == nil {
		t.Error("relative backend URL should fail")
	}
}
