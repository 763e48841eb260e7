package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// TestNew_LevelParsing tests log level configuration
func TestNew_LevelParsing(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	tests := []struct {
		level    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"not-a-level", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			New(Config{Level: tt.level})

			if zerolog.GlobalLevel() != tt.expected {
				t.Errorf("expected level %s, got %s", tt.expected, zerolog.GlobalLevel())
			}
		})
	}
}

// TestNew_FileOutput tests that entries reach the optional output file
func TestNew_FileOutput(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	path := filepath.Join(t.TempDir(), "app.log")
	log := New(Config{Level: "info", OutputFile: path})

	log.WithComponent("CEPService").WithCEP("01310100").Info().Msg("resolved")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	content := string(data)
	for _, want := range []string{`"component":"CEPService"`, `"cep":"01310100"`, `"message":"resolved"`} {
		if !strings.Contains(content, want) {
			t.Errorf("expected log file to contain %s, got %s", want, content)
		}
	}
}
