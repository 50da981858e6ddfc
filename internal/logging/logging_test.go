package logging

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetup_Level(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"chatty", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		Setup(tt.in, "json")
		if got := log.Logger.GetLevel(); got != tt.want {
			t.Errorf("Setup(%q) level = %s, want %s", tt.in, got, tt.want)
		}
	}
}
