// Command pdfflow renders an HTML or Markdown file as a PDF.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/wudi/pdfflow/builder"
	"github.com/wudi/pdfflow/observability"
	"github.com/wudi/pdfflow/recovery"
)

type options struct {
	input       string
	output      string
	format      string
	orientation string
	unit        string
	font        string
	size        float64
	markdown    bool
	compress    bool
	subset      bool
	strict      bool
	verbose     bool
	diskCache   bool
	reproduce   bool
	title       string
	author      string
	lang        string
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfflow: %v\n", err)
		os.Exit(2)
	}
	if opts.output == "" && term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "pdfflow: refusing to write a PDF to a terminal; use -o or redirect stdout")
		os.Exit(2)
	}
	if err := run(context.Background(), opts, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "pdfflow: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("pdfflow", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: pdfflow [flags] <input.html|input.md|->\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.output, "o", "", "Output file (default stdout)")
	fs.StringVar(&opts.format, "format", "A4", "Page format, e.g. A4 or Letter")
	fs.StringVar(&opts.orientation, "orientation", "P", "Page orientation, P or L")
	fs.StringVar(&opts.unit, "unit", "mm", "User unit: pt, mm, cm or in")
	fs.StringVar(&opts.font, "font", "go", "Body font family")
	fs.Float64Var(&opts.size, "size", 11, "Body font size in points")
	fs.BoolVar(&opts.markdown, "markdown", false, "Treat input as Markdown (implied by .md and .markdown)")
	fs.BoolVar(&opts.compress, "compress", true, "Flate-compress content streams")
	fs.BoolVar(&opts.subset, "subset", true, "embed only the glyphs used from TrueType fonts")
	fs.BoolVar(&opts.strict, "strict", false, "Fail on degraded input instead of substituting")
	fs.BoolVar(&opts.verbose, "v", false, "Log to stderr")
	fs.BoolVar(&opts.diskCache, "disk-cache", false, "Buffer pages in temporary files")
	fs.BoolVar(&opts.reproduce, "reproducible", false, "Produce byte-identical output across runs")
	fs.StringVar(&opts.title, "title", "", "Document title")
	fs.StringVar(&opts.author, "author", "", "Document author")
	fs.StringVar(&opts.lang, "lang", "", "Document language, e.g. en-US")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return options{}, errors.New("missing input file")
	}
	opts.input = fs.Arg(0)
	switch strings.ToLower(filepath.Ext(opts.input)) {
	case ".md", ".markdown":
		opts.markdown = true
	}
	if opts.size <= 0 {
		return options{}, fmt.Errorf("invalid font size %v", opts.size)
	}
	return opts, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func run(ctx context.Context, opts options, stdin io.Reader, stdout, stderr io.Writer) error {
	src, err := readInput(opts.input, stdin)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := observability.NewSlogLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	bopts := []builder.Option{
		builder.WithUnit(opts.unit),
		builder.WithFormat(opts.format),
		builder.WithOrientation(opts.orientation),
		builder.WithUnicode(true),
		builder.WithLogger(logger),
		builder.WithLanguage(opts.lang),
	}
	if opts.input != "-" {
		bopts = append(bopts, builder.WithImageFS(os.DirFS(filepath.Dir(opts.input))))
	}
	if opts.subset {
		bopts = append(bopts, builder.WithFontSubsetting(true))
	}
	if opts.compress {
		bopts = append(bopts, builder.WithCompression(0))
	}
	if opts.strict {
		bopts = append(bopts, builder.WithStrategy(recovery.NewStrictStrategy()))
	}
	if opts.diskCache {
		bopts = append(bopts, builder.WithDiskCache(""))
	}
	if opts.reproduce {
		bopts = append(bopts, builder.WithDeterministic())
	}
	pdf, err := builder.New(bopts...)
	if err != nil {
		return err
	}
	pdf.SetTitle(opts.title)
	pdf.SetAuthor(opts.author)
	pdf.SetCreator("pdfflow")
	pdf.SetFont(opts.font, "", opts.size)
	pdf.AddPage()
	if opts.markdown {
		pdf.WriteMarkdown(src)
	} else {
		pdf.WriteHTML(string(src))
	}

	if opts.output == "" {
		return pdf.OutputContext(ctx, stdout)
	}
	if err := pdf.OutputFile(opts.output); err != nil {
		return err
	}
	logger.Info("wrote pdf", observability.String("path", opts.output), observability.Int("pages", pdf.Document().NumPages()))
	return nil
}
