package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetupWritesJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	if err := Setup(Config{Level: "debug", Format: "json", Output: &buf}); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(nil)
	})

	l := WithComponent("store")
	l.Debug().Str("collection", "products").Msg("seeded")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a JSON line, got %q: %v", buf.String(), err)
	}
	if entry["component"] != "store" || entry["collection"] != "products" || entry["message"] != "seeded" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	if err := Setup(Config{Level: "loud"}); err == nil {
		t.Fatalf("expected unknown level to be rejected")
	}
}
