package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFlagsDetectsMarkdown(t *testing.T) {
	opts, err := parseFlags([]string{"-o", "out.pdf", "notes.MD"})
	require.NoError(t, err)
	require.True(t, opts.markdown)
	require.Equal(t, "out.pdf", opts.output)
	require.Equal(t, "A4", opts.format)

	_, err = parseFlags(nil)
	require.Error(t, err)
	_, err = parseFlags([]string{"-size", "0", "a.html"})
	require.Error(t, err)
}

func TestRunHTMLToStdout(t *testing.T) {
	opts, err := parseFlags([]string{"-compress=false", "-reproducible", "-font", "helvetica", "-"})
	require.NoError(t, err)
	var out, logs bytes.Buffer
	in := strings.NewReader("<h1>Report</h1><p>Hello <b>world</b></p>")
	require.NoError(t, run(context.Background(), opts, in, &out, &logs))
	require.True(t, bytes.HasPrefix(out.Bytes(), []byte("%PDF-1.7\n")))
	require.Contains(t, out.String(), "(Report)")
	require.Contains(t, out.String(), "/Creator (pdfflow)")
}

func TestRunMarkdownToFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(in, []byte("# Title\n\n- one\n- two\n"), 0o644))
	out := filepath.Join(dir, "doc.pdf")
	opts, err := parseFlags([]string{"-o", out, "-v", in})
	require.NoError(t, err)
	var logs bytes.Buffer
	require.NoError(t, run(context.Background(), opts, nil, nil, &logs))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.True(t, bytes.HasSuffix(data, []byte("%%EOF\n")))
	require.Contains(t, logs.String(), "wrote pdf")
}

func TestRunMissingInput(t *testing.T) {
	opts := options{input: filepath.Join(t.TempDir(), "absent.html"), format: "A4", orientation: "P", unit: "mm", font: "go", size: 11}
	require.Error(t, run(context.Background(), opts, nil, nil, &bytes.Buffer{}))
}
