package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestLogRotation(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "mesh.log")

	// lumberjack's smallest rotation size is 1MB.
	cfg := FileConfig{
		Path:       logFile,
		MaxSizeMB:  1,
		MaxBackups: 2,
		MaxAgeDays: 1,
		Compress:   false,
	}

	if err := InitWithFileConfig("debug", cfg, nil); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	defer Sync()

	longMessage := strings.Repeat("x", 200)
	for i := 0; i < 15000; i++ {
		Sugar.Infof("mesh %d: %s", i, longMessage)
	}
	Sync()

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		t.Error("main log file does not exist")
	}

	files, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("failed to read temp dir: %v", err)
	}

	rotated := 0
	for _, f := range files {
		name := f.Name()
		if name == "mesh.log" || !strings.HasPrefix(name, "mesh") {
			continue
		}
		rotated++
		// Rotated files look like mesh-YYYY-MM-DDTHH-MM-SS.SSS.log
		if !strings.Contains(name, "-20") {
			t.Errorf("rotated file %s doesn't have expected timestamp format", name)
		}
	}
	if rotated == 0 {
		t.Error("no rotated files found")
	}
}

func TestLogLevels(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{level: "error", expected: []string{"ERROR"}, excluded: []string{"WARN", "INFO", "DEBUG"}},
		{level: "warn", expected: []string{"ERROR", "WARN"}, excluded: []string{"INFO", "DEBUG"}},
		{level: "info", expected: []string{"ERROR", "WARN", "INFO"}, excluded: []string{"DEBUG"}},
		{level: "debug", expected: []string{"ERROR", "WARN", "INFO", "DEBUG"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logFile := filepath.Join(tempDir, tt.level+".log")
			cfg := FileConfig{Path: logFile, MaxSizeMB: 10, MaxBackups: 1, MaxAgeDays: 1}

			if err := InitWithFileConfig(tt.level, cfg, nil); err != nil {
				t.Fatalf("failed to init logger: %v", err)
			}

			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")
			Sync()

			content, err := os.ReadFile(logFile)
			if err != nil {
				t.Fatalf("failed to read log file: %v", err)
			}
			logContent := string(content)

			for _, exp := range tt.expected {
				if !strings.Contains(logContent, `"level":"`+exp+`"`) {
					t.Errorf("expected %s in log output", exp)
				}
			}
			for _, exc := range tt.excluded {
				if strings.Contains(logContent, `"level":"`+exc+`"`) {
					t.Errorf("unexpected %s in log output for level %s", exc, tt.level)
				}
			}
		})
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("info", FileConfig{}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Named("batch").Info("grid meshed", zap.Int("triangles", 12))
	_ = l.Sync()

	out := buf.String()
	if !strings.Contains(out, "grid meshed") {
		t.Errorf("console output missing message: %q", out)
	}
	if !strings.Contains(out, "batch") {
		t.Errorf("console output missing logger name: %q", out)
	}
	if !strings.Contains(out, "12") {
		t.Errorf("console output missing field: %q", out)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, err := New("chatty", FileConfig{}, nil); err == nil {
		t.Error("expected error for unknown level, got nil")
	}
}

func TestNewNoOutputs(t *testing.T) {
	l, err := New("debug", FileConfig{}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if l.Core().Enabled(zap.DebugLevel) {
		t.Error("logger without outputs should be disabled")
	}
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/test.log")

	if cfg.Path != "/tmp/test.log" {
		t.Errorf("expected path /tmp/test.log, got %s", cfg.Path)
	}
	if cfg.MaxSizeMB != 50 {
		t.Errorf("expected MaxSizeMB 50, got %d", cfg.MaxSizeMB)
	}
	if cfg.MaxBackups != 3 {
		t.Errorf("expected MaxBackups 3, got %d", cfg.MaxBackups)
	}
	if cfg.MaxAgeDays != 7 {
		t.Errorf("expected MaxAgeDays 7, got %d", cfg.MaxAgeDays)
	}
	if !cfg.Compress {
		t.Error("expected Compress to be true")
	}
}

func TestHelperCaller(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "caller.log")
	if err := InitWithFileConfig("debug", FileConfig{Path: logFile, MaxSizeMB: 1}, nil); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}

	Info("from test")
	Log.Info("direct")
	Sync()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 records, got %d: %q", len(lines), content)
	}
	for _, line := range lines {
		if !strings.Contains(line, `"caller":"logger/logger_test.go:`) {
			t.Errorf("caller should be the test file, got %s", line)
		}
	}
}
