package filters

import (
	"bytes"
	"context"
	"testing"
)

func TestFlateRoundTrip(t *testing.T) {
	in := bytes.Repeat([]byte("BT /F1 12 Tf ET\n"), 50)
	enc, err := NewFlate(9).Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(enc) >= len(in) {
		t.Fatalf("repetitive input did not compress: %d >= %d", len(enc), len(in))
	}
	if enc[0] != 0x78 {
		t.Fatalf("missing zlib header: %x", enc[0])
	}
	out, err := Flate{}.Decode(context.Background(), enc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(out, in) {
		t.Fatalf("round trip mismatch")
	}
}

func TestASCIIHex(t *testing.T) {
	enc, _ := ASCIIHex{}.Encode([]byte{0x01, 0xAB})
	if string(enc) != "01ab>" {
		t.Fatalf("encode = %q", enc)
	}
	out, err := ASCIIHex{}.Decode(context.Background(), []byte("01 A>"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(out, []byte{0x01, 0xA0}) {
		t.Fatalf("odd-length decode = %x", out)
	}
}

func TestPipelineOrder(t *testing.T) {
	p := NewPipeline(NewFlate(-1), ASCII85{})
	data, names, err := p.Encode([]byte("hello world"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(names) != 2 || names[0] != "ASCII85Decode" || names[1] != "FlateDecode" {
		t.Fatalf("filter names = %v", names)
	}
	out, err := NewRegistry().Decode(context.Background(), data, names)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(out) != "hello world" {
		t.Fatalf("got %q", out)
	}
	if _, err := NewRegistry().Decode(context.Background(), data, []string{"JBIG2Decode"}); err == nil {
		t.Fatalf("expected unknown filter error")
	}
	if !(*Pipeline)(nil).Empty() || NewPipeline().Empty() != true {
		t.Fatalf("empty pipeline")
	}
}
