package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/carechat/internal/config"
)

func TestSetupWriterLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := SetupWriter(config.LogConfig{Level: "warn"}, &buf)

	logger.Info().Msg("[test] hidden")
	logger.Warn().Msg("[test] shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected log output %q", out)
	}
}

func TestSetupWriterUnknownLevelFallsBackToInfo(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := SetupWriter(config.LogConfig{Level: "chatty"}, &buf)
	logger.Debug().Msg("[test] debug")
	logger.Info().Msg("[test] info")

	if strings.Contains(buf.String(), "debug") || !strings.Contains(buf.String(), "info") {
		t.Fatalf("unexpected log output %q", buf.String())
	}
}
