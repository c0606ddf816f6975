package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "workflow", Level: zerolog.InfoLevel, Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-123")
	ctx = logg.WithActorRole(ctx, "checker")
	ctx = logg.WithEntity(ctx, "request", "abc")
	logg.Info(ctx, "transition applied")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["service"] != "workflow" {
		t.Fatalf("service field = %v", entry["service"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("request_id field = %v", entry["request_id"])
	}
	if entry["actor_role"] != "checker" {
		t.Fatalf("actor_role field = %v", entry["actor_role"])
	}
	if entry["entity_type"] != "request" {
		t.Fatalf("entity_type field = %v", entry["entity_type"])
	}
	if entry["message"] != "transition applied" {
		t.Fatalf("message field = %v", entry["message"])
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != zerolog.DebugLevel {
		t.Fatal("debug should parse")
	}
	if ParseLevel("") != zerolog.InfoLevel {
		t.Fatal("empty should default to info")
	}
	if ParseLevel("bogus") != zerolog.InfoLevel {
		t.Fatal("unknown should default to info")
	}
}
