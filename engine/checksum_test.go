package engine

import (
	"bytes"
	"io"
	"testing"
)

func TestChecksumReader(t *testing.T) {
	data := []byte("hello transfer world")

	cr := NewChecksumReader(bytes.NewReader(data))
	out, err := io.ReadAll(cr)
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}

	if !bytes.Equal(out, data) {
		t.Errorf("reader altered the data: got %q, want %q", out, data)
	}
	if cr.BytesRead() != int64(len(data)) {
		t.Errorf("expected %d bytes read, got %d", len(data), cr.BytesRead())
	}
	if cr.Checksum() == 0 {
		t.Error("expected a non-zero checksum for non-empty data")
	}
}

func TestChecksumReader_Deterministic(t *testing.T) {
	data := []byte("same bytes, same digest")

	cr1 := NewChecksumReader(bytes.NewReader(data))
	cr2 := NewChecksumReader(bytes.NewReader(data))

	if _, err := io.ReadAll(cr1); err != nil {
		t.Fatal(err)
	}
	if _, err := io.ReadAll(cr2); err != nil {
		t.Fatal(err)
	}

	if cr1.Checksum() != cr2.Checksum() {
		t.Errorf("checksums differ: %d vs %d", cr1.Checksum(), cr2.Checksum())
	}
}
