package xref_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wudi/pdfflow/recovery"
	"github.com/wudi/pdfflow/xref"
)

func buildSimplePDF(t *testing.T) ([]byte, map[int]int64) {
	t.Helper()
	buf := &bytes.Buffer{}
	buf.WriteString("%PDF-1.7\n")

	offsets := make(map[int]int64)
	table := xref.New()
	for _, num := range []int{1, 2, 3, 200000, 200001} {
		offsets[num] = int64(buf.Len())
		if err := table.Add(num, int64(buf.Len())); err != nil {
			t.Fatalf("add %d: %v", num, err)
		}
		fmt.Fprintf(buf, "%d 0 obj\n<< /N %d >>\nendobj\n", num, num)
	}
	xrefOffset := buf.Len()
	if _, err := table.WriteTo(buf); err != nil {
		t.Fatalf("write xref: %v", err)
	}
	fmt.Fprintf(buf, "trailer\n<< /Size %d /Root 3 0 R >>\nstartxref\n%d\n%%%%EOF\n", table.Size(), xrefOffset)
	return buf.Bytes(), offsets
}

func TestWriteSubsections(t *testing.T) {
	pdf, offsets := buildSimplePDF(t)
	want := fmt.Sprintf("xref\n0 4\n0000000000 65535 f \n%010d 00000 n \n%010d 00000 n \n%010d 00000 n \n200000 2\n%010d 00000 n \n%010d 00000 n \ntrailer",
		offsets[1], offsets[2], offsets[3], offsets[200000], offsets[200001])
	if !bytes.Contains(pdf, []byte(want)) {
		t.Fatalf("xref section not found in:\n%s", pdf)
	}
	if !bytes.Contains(pdf, []byte("/Size 200002")) {
		t.Fatalf("trailer size wrong")
	}
}

func TestParseRoundTrip(t *testing.T) {
	pdf, offsets := buildSimplePDF(t)
	table, err := xref.Parse(pdf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := map[int]int64{}
	for _, num := range table.Objects() {
		got[num], _ = table.Lookup(num)
	}
	if diff := cmp.Diff(offsets, got); diff != "" {
		t.Fatalf("offsets mismatch (-want +got):\n%s", diff)
	}
}

func TestScanMatchesParse(t *testing.T) {
	pdf, _ := buildSimplePDF(t)
	parsed, err := xref.Parse(pdf)
	if err != nil {
		t.Fatal(err)
	}
	scanned, err := xref.Scan(pdf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(parsed.Objects(), scanned.Objects()); diff != "" {
		t.Fatalf("object sets differ:\n%s", diff)
	}
	for _, num := range parsed.Objects() {
		a, _ := parsed.Lookup(num)
		b, _ := scanned.Lookup(num)
		if a != b {
			t.Fatalf("object %d: xref %d, header at %d", num, a, b)
		}
	}
}

func TestAddRejectsDuplicates(t *testing.T) {
	table := xref.New()
	if err := table.Add(3, 10); err != nil {
		t.Fatal(err)
	}
	if err := table.Add(3, 20); !errors.Is(err, recovery.InvalidFormat) {
		t.Fatalf("duplicate object: %v", err)
	}
	if err := table.Add(0, 20); err == nil {
		t.Fatalf("object 0 accepted")
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"no startxref": "%PDF-1.7\n1 0 obj\nnull\nendobj\n",
		"bad offset":   "%PDF-1.7\nstartxref\n999999\n%%EOF\n",
		"no keyword":   "%PDF-1.7\nxxxx\nstartxref\n9\n%%EOF\n",
		"truncated":    "%PDF-1.7\nxref\n0 3\n0000000000 65535 f \nstartxref\n9\n%%EOF\n",
	}
	for name, src := range cases {
		if _, err := xref.Parse([]byte(src)); !errors.Is(err, recovery.InvalidFormat) {
			t.Fatalf("%s: expected InvalidFormat, got %v", name, err)
		}
	}
	if _, err := xref.Scan([]byte("%PDF-1.7\n")); err == nil {
		t.Fatalf("scan of empty file succeeded")
	}
}
