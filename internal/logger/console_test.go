package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{"trace", []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}},
		{"debug", []string{"DEBUG", "INFO", "WARN", "ERROR"}},
		{"info", []string{"INFO", "WARN", "ERROR"}},
		{"warn", []string{"WARN", "ERROR"}},
		{"error", []string{"ERROR"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(&buf, tt.level)

			log.Tracef("t")
			log.Debugf("d")
			log.Infof("i")
			log.Warnf("w")
			log.Errorf("e")

			out := buf.String()
			for _, tag := range []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"} {
				contains := strings.Contains(out, tag+": ")
				expected := false
				for _, want := range tt.want {
					if tag == want {
						expected = true
					}
				}
				if contains != expected {
					t.Errorf("level %s: %s logged = %v, want %v\noutput:\n%s",
						tt.level, tag, contains, expected, out)
				}
			}
		})
	}
}

func TestMessageFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")

	log.Infof("scanned %d files", 3)

	if got := buf.String(); got != "INFO: scanned 3 files\n" {
		t.Errorf("output = %q, want %q", got, "INFO: scanned 3 files\n")
	}
}

func TestNilWriterDiscards(t *testing.T) {
	log := New(nil, "trace")
	// must not panic
	log.Errorf("dropped")
}

func TestUnknownLevelDefaultsToWarn(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "shout")

	log.Infof("hidden")
	log.Warnf("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message logged under default warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn message missing under default warn level")
	}
}

func TestNormalizeLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", "debug"},
		{"DEBUG", "debug"},
		{" Error ", "error"},
		{"", "warn"},
		{"verbose", "warn"},
	}

	for _, tt := range tests {
		if got := NormalizeLevel(tt.input); got != tt.want {
			t.Errorf("NormalizeLevel(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsValidLevel(t *testing.T) {
	for _, level := range ValidLevels {
		if !IsValidLevel(level) {
			t.Errorf("IsValidLevel(%q) = false, want true", level)
		}
	}
	for _, level := range []string{"", "fatal", "loud"} {
		if IsValidLevel(level) {
			t.Errorf("IsValidLevel(%q) = true, want false", level)
		}
	}
}
