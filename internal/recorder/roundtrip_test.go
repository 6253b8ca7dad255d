package recorder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"main/internal/schema"
)

func writeTestEvents(t *testing.T, dir string, events []schema.EventHeader, payloads [][]byte) {
	t.Helper()
	w, err := NewWriter(DefaultConfig(dir))
	if err != nil {
		t.Fatalf("NewWriter failed: %+v", err)
	}
	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start failed: %+v", err)
	}
	for i, h := range events {
		if err := w.TryAppend(h, payloads[i]); err != nil {
			t.Fatalf("TryAppend failed: %+v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %+v", err)
	}
}

func TestWriterReaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	events := []schema.EventHeader{
		schema.NewHeader(schema.EventOrderAck, 1, 1, 100, 101),
		schema.NewHeader(schema.EventFill, 1, 2, 200, 201),
	}
	payloads := [][]byte{[]byte("ack-payload"), []byte("fill-payload")}
	writeTestEvents(t, dir, events, payloads)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %+v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one WAL segment, got %d", len(entries))
	}

	file, err := os.Open(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("Open failed: %+v", err)
	}
	defer file.Close()

	reader := NewReader(file, ReaderOptions{})
	for i, want := range events {
		header, payload, err := reader.Next()
		if err != nil {
			t.Fatalf("Next failed at record %d: %+v", i, err)
		}
		if header.Type != want.Type || header.Seq != want.Seq || header.TraceID != want.TraceID {
			t.Fatalf("record %d header mismatch: got %+v, want %+v", i, header, want)
		}
		if string(payload) != string(payloads[i]) {
			t.Fatalf("record %d payload mismatch: got %q, want %q", i, payload, payloads[i])
		}
	}
	if _, _, err := reader.Next(); err == nil {
		t.Fatal("expected EOF after the last record")
	}
}

func TestPlaybackReplaysWrittenEvents(t *testing.T) {
	dir := t.TempDir()
	events := []schema.EventHeader{
		schema.NewHeader(schema.EventOrderAck, 1, 1, 0, 0),
		schema.NewHeader(schema.EventOrderCompleted, 1, 2, 0, 0),
	}
	payloads := [][]byte{[]byte("a"), []byte("b")}
	writeTestEvents(t, dir, events, payloads)

	playback, err := NewPlayback(PlaybackConfig{Dir: dir})
	if err != nil {
		t.Fatalf("NewPlayback failed: %+v", err)
	}

	var replayed []schema.EventType
	err = playback.Run(context.Background(), func(header schema.EventHeader, payload []byte) error {
		replayed = append(replayed, header.Type)
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %+v", err)
	}
	if len(replayed) != 2 || replayed[0] != schema.EventOrderAck || replayed[1] != schema.EventOrderCompleted {
		t.Fatalf("unexpected replay sequence: %+v", replayed)
	}
}
