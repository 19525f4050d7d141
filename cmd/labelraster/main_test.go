package main

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeDecode(t *testing.T) {
	ids := []uint32{1, 1, 2, 0, 3, 3, 3, 2}
	packed := make([]byte, 4*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint32(packed[i*4:], id)
	}

	var encoded bytes.Buffer
	if err := encode(bytes.NewReader(packed), &encoded, "4,2,1", "snappy"); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	var decoded bytes.Buffer
	if err := decode(&encoded, &decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if diff := cmp.Diff(packed, decoded.Bytes()); diff != "" {
		t.Errorf("decoded labels (-want +got):\n%s", diff)
	}

	if err := encode(bytes.NewReader(packed), &encoded, "4,2", "none"); err == nil {
		t.Errorf("expected error on bad dimensions")
	}
	if err := encode(bytes.NewReader(packed), &encoded, "3,2,1", "none"); err == nil {
		t.Errorf("expected error on size mismatch")
	}
	if err := encode(bytes.NewReader(packed), &encoded, "4,2,1", "lz4"); err == nil {
		t.Errorf("expected error on unknown compression")
	}
	if err := decode(bytes.NewReader([]byte{1, 2, 3}), &decoded); err == nil {
		t.Errorf("expected error decoding garbage")
	}
}
