package config_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/plearn/pstream/pkg/config"
	"github.com/plearn/pstream/pkg/pstream"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadStreamConfig_YAML(t *testing.T) {
	path := writeFile(t, "pstream.yaml", `
input_mode: plearn_binary
output_mode: pretty_ascii
double_format: "%.3f"
compression: float
byte_order: big
buffer_size: 8192
unget_reserve: 16
`)

	cfg, err := config.LoadStreamConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.InputMode != "plearn_binary" {
		t.Errorf("unexpected input_mode: %s", cfg.InputMode)
	}
	if cfg.OutputMode != "pretty_ascii" {
		t.Errorf("unexpected output_mode: %s", cfg.OutputMode)
	}
	if cfg.DoubleFormat != "%.3f" {
		t.Errorf("unexpected double_format: %s", cfg.DoubleFormat)
	}
	if cfg.BufferSize != 8192 || cfg.UngetReserve != 16 {
		t.Errorf("unexpected buffer settings: %d %d", cfg.BufferSize, cfg.UngetReserve)
	}
	if n := len(cfg.ChannelOptions()); n != 3 {
		t.Errorf("expected 3 channel options, got %d", n)
	}
}

func TestLoadStreamConfig_Defaults(t *testing.T) {
	path := writeFile(t, "pstream.json", `{}`)

	cfg, err := config.LoadStreamConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if *cfg != *config.DefaultStreamConfig() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if n := len(cfg.ChannelOptions()); n != 0 {
		t.Errorf("expected no channel options, got %d", n)
	}
}

func TestLoadStreamConfig_CUE(t *testing.T) {
	path := writeFile(t, "pstream.cue", `
input_mode:  "raw_ascii"
output_mode: "plearn_" + "binary"
`)

	cfg, err := config.LoadStreamConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.OutputMode != "plearn_binary" {
		t.Errorf("unexpected output_mode: %s", cfg.OutputMode)
	}
}

func TestLoadStreamConfig_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown mode":        "input_mode: xml\n",
		"unknown compression": "compression: gzip\n",
		"unknown field":       "verbose: true\n",
		"zero buffer":         "buffer_size: 0\n",
		"zero reserve":        "unget_reserve: 0\n",
		"wrong type":          "float_format: 3\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, "pstream.yaml", content)
			if _, err := config.LoadStreamConfig(path); err == nil {
				t.Errorf("expected an error for %q", content)
			}
		})
	}
}

func TestReadStreamConfig(t *testing.T) {
	cfg, err := config.ReadStreamConfig(strings.NewReader("output_mode: raw_binary\nbyte_order: little\n"))
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	opts, err := cfg.StreamOptions()
	if err != nil {
		t.Fatalf("failed to build options: %v", err)
	}

	w := pstream.NewStream(nil, opts...)
	if w.OutputMode() != pstream.RawBinary {
		t.Errorf("unexpected output mode: %s", w.OutputMode())
	}
	if w.InputMode() != pstream.PlearnASCII {
		t.Errorf("unexpected input mode: %s", w.InputMode())
	}
	if w.ByteOrder() != binary.LittleEndian {
		t.Errorf("unexpected byte order: %s", w.ByteOrder())
	}
}

func TestStreamOptions_Invalid(t *testing.T) {
	cfg := config.DefaultStreamConfig()
	cfg.ByteOrder = "middle"
	if _, err := cfg.StreamOptions(); err == nil {
		t.Error("expected an error for an unknown byte order")
	}
	cfg = config.DefaultStreamConfig()
	cfg.InputMode = "text"
	if _, err := cfg.StreamOptions(); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}

func TestLoadStreamConfig_Directory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.cue": "package cfg\n\ninput_mode: \"plearn_binary\"\n",
		"b.cue": "package cfg\n\noutput_mode: input_mode\nbuffer_size: len(input_mode) * 1024\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	cfg, err := config.LoadStreamConfig(dir)
	if err != nil {
		t.Fatalf("failed to load directory: %v", err)
	}
	if cfg.OutputMode != "plearn_binary" {
		t.Errorf("unexpected output mode: %s", cfg.OutputMode)
	}
	if cfg.BufferSize != 13*1024 {
		t.Errorf("expected buffer size %d, got %d", 13*1024, cfg.BufferSize)
	}
}

func TestLoadStreamConfig_Missing(t *testing.T) {
	if _, err := config.LoadStreamConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestReadStreamConfig_Invalid(t *testing.T) {
	for _, content := range []string{"input_mode: [1, 2", "input_mode: xml\n"} {
		if _, err := config.ReadStreamConfig(strings.NewReader(content)); err == nil {
			t.Errorf("expected an error for %q", content)
		}
	}
}
