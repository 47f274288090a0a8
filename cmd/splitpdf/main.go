package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/blanksplit/internal/archive"
	"github.com/local/blanksplit/internal/config"
	"github.com/local/blanksplit/internal/logger"
	"github.com/local/blanksplit/internal/pipeline"
)

type options struct {
	inPath      string
	outDir      string
	zip         bool
	report      bool
	concurrency int
	verbose     bool
}

type splitter interface {
	Split(ctx context.Context, data []byte) (pipeline.Result, error)
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "splitpdf: %v\n", err)
		os.Exit(2)
	}

	cfg := config.Load()
	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	_ = logger.Init(logger.Options{Level: level, Pretty: true, Console: os.Stderr})
	defer logger.Close()

	if opts.concurrency > 0 {
		cfg.Split.ClassifyConcurrency = opts.concurrency
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, pipeline.NewFromConfig(cfg.Split), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "splitpdf: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("splitpdf", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: splitpdf -in bundle.pdf [-out dir] [-zip] [-report]\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.inPath, "in", "", "Input PDF")
	fs.StringVar(&opts.outDir, "out", "", "Output directory (default: <input name>_split)")
	fs.BoolVar(&opts.zip, "zip", false, "Also write <out>.zip with every document")
	fs.BoolVar(&opts.report, "report", false, "Print per-page classifications and segments as JSON")
	fs.IntVar(&opts.concurrency, "concurrency", 0, "Pages classified in parallel (default from SPLIT_CLASSIFY_CONCURRENCY)")
	fs.BoolVar(&opts.verbose, "v", false, "Debug logging")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.inPath == "" && fs.NArg() == 1 {
		opts.inPath = fs.Arg(0)
	}
	if opts.inPath == "" {
		fs.Usage()
		return options{}, fmt.Errorf("missing input pdf")
	}
	if opts.outDir == "" {
		base := strings.TrimSuffix(filepath.Base(opts.inPath), filepath.Ext(opts.inPath))
		opts.outDir = filepath.Join(filepath.Dir(opts.inPath), base+"_split")
	}
	return opts, nil
}

func run(ctx context.Context, opts options, s splitter, stdout io.Writer) error {
	data, err := os.ReadFile(opts.inPath)
	if err != nil {
		return err
	}
	res, err := s.Split(ctx, data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return err
	}
	for _, doc := range res.Documents {
		p := filepath.Join(opts.outDir, doc.Name)
		if err := os.WriteFile(p, doc.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", doc.Name, err)
		}
		log.Debug().Str("file", p).Str("pages", doc.Segment.String()).Msg("wrote document")
	}
	if opts.zip {
		zipPath := strings.TrimRight(opts.outDir, string(filepath.Separator)) + ".zip"
		f, err := os.Create(zipPath)
		if err != nil {
			return err
		}
		if err := archive.WriteZip(f, res.Documents); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}

	if opts.report {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Fprintf(stdout, "%d pages, %d documents written to %s\n", res.Pages, len(res.Documents), opts.outDir)
	return nil
}
