package config

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateSink_Stdout(t *testing.T) {
	s, err := CreateSink(&SinkConfig{Type: "stdout"})
	if err != nil {
		t.Fatalf("CreateSink: %v", err)
	}
	if s.Name() != "stdout" {
		t.Errorf("Name() = %q, want stdout", s.Name())
	}
}

func TestCreateSink_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.out")
	s, err := CreateSink(&SinkConfig{
		Type: "file",
		File: map[string]any{"path": path},
	})
	if err != nil {
		t.Fatalf("CreateSink: %v", err)
	}
	defer s.Close()
	if s.Name() != path {
		t.Errorf("Name() = %q, want %q", s.Name(), path)
	}
}

func TestCreateSink_FileMissingPath(t *testing.T) {
	_, err := CreateSink(&SinkConfig{Type: "file", File: map[string]any{}})
	if err == nil {
		t.Fatal("expected error for missing path")
	}
	if !strings.Contains(err.Error(), "path") {
		t.Errorf("error = %v, want mention of path", err)
	}
}

func TestCreateSink_Memory(t *testing.T) {
	s, err := CreateSink(&SinkConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("CreateSink: %v", err)
	}
	if s.Name() != "memory" {
		t.Errorf("Name() = %q, want memory", s.Name())
	}
}

func TestCreateSink_UnknownType(t *testing.T) {
	_, err := CreateSink(&SinkConfig{Type: "s3"})
	if err == nil {
		t.Fatal("expected error for unknown sink type")
	}
	if !strings.Contains(err.Error(), "unknown sink type") {
		t.Errorf("error = %v, want 'unknown sink type'", err)
	}
}

func TestCreateJournal_None(t *testing.T) {
	j, err := CreateJournal(context.Background(), &JournalConfig{Type: "none"})
	if err != nil {
		t.Fatalf("CreateJournal: %v", err)
	}
	if j == nil {
		t.Fatal("expected non-nil journal")
	}
}

func TestCreateJournal_Memory(t *testing.T) {
	j, err := CreateJournal(context.Background(), &JournalConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("CreateJournal: %v", err)
	}
	if j == nil {
		t.Fatal("expected non-nil journal")
	}
}

func TestCreateJournal_Badger(t *testing.T) {
	j, err := CreateJournal(context.Background(), &JournalConfig{
		Type:   "badger",
		Badger: map[string]any{"db_path": t.TempDir()},
	})
	if err != nil {
		t.Fatalf("CreateJournal: %v", err)
	}
	defer j.Close()
}

func TestCreateJournal_BadgerMissingPath(t *testing.T) {
	_, err := CreateJournal(context.Background(), &JournalConfig{Type: "badger"})
	if err == nil {
		t.Fatal("expected error for missing db_path")
	}
	if !strings.Contains(err.Error(), "db_path") {
		t.Errorf("error = %v, want mention of db_path", err)
	}
}

func TestCreateJournal_UnknownType(t *testing.T) {
	_, err := CreateJournal(context.Background(), &JournalConfig{Type: "postgres"})
	if err == nil {
		t.Fatal("expected error for unknown journal type")
	}
	if !strings.Contains(err.Error(), "unknown journal type") {
		t.Errorf("error = %v, want 'unknown journal type'", err)
	}
}
