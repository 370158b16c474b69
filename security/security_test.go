package security

import (
	"bytes"
	"testing"
)

func TestNoEncryptionPassesThrough(t *testing.T) {
	var h Handler = NoEncryption{}
	if h.IsEncrypted() {
		t.Fatalf("pass-through handler reports encryption")
	}
	in := []byte("BT ET")
	out, err := h.Encrypt(3, 0, in, DataClassStream)
	if err != nil || !bytes.Equal(in, out) {
		t.Fatalf("data changed: %q %v", out, err)
	}
	if h.EncryptDict([]byte("id")) != nil {
		t.Fatalf("unexpected encrypt dictionary")
	}
}
