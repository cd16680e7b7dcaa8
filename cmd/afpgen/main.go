// afpgen converts a Markdown or HTML file into an AFP print file.
//
// Settings come from the YAML file named by --config or AFPKIT_CONFIG;
// flags override the stream settings of the file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/wudi/afpkit/builder"
	"github.com/wudi/afpkit/config"
	"github.com/wudi/afpkit/layout"
	"github.com/wudi/afpkit/modca"
	"github.com/wudi/afpkit/observability"
	"github.com/wudi/afpkit/resources"
)

type options struct {
	input          string
	output         string
	configPath     string
	format         string
	name           string
	resourceLevel  string
	interchangeSet string
	external       string
	pageSegments   bool
	verbose        bool
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "afpgen: %v\n", err)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, opts, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "afpgen: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("afpgen", pflag.ContinueOnError)
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: afpgen [flags] <input.md|input.html>\n")
		flagSet.PrintDefaults()
	}
	flagSet.StringVarP(&opts.output, "output", "o", "", "output file (default: input with .afp extension)")
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "YAML config file (default: $"+config.EnvVar+")")
	flagSet.StringVarP(&opts.format, "format", "f", "", "input format: markdown or html (default: from extension)")
	flagSet.StringVar(&opts.name, "name", "", "document name")
	flagSet.StringVar(&opts.resourceLevel, "resource-level", "", "default resource level: inline, page, page-group, document, print-file or external")
	flagSet.StringVar(&opts.interchangeSet, "interchange-set", "", "MO:DCA-P interchange set: IS/1, IS/2 or IS/3")
	flagSet.StringVar(&opts.external, "external", "", "external resource group file")
	flagSet.BoolVar(&opts.pageSegments, "page-segments", false, "wrap shared images in page segments")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")
	if err := flagSet.Parse(args); err != nil {
		return opts, err
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return opts, fmt.Errorf("expected one input file")
	}
	opts.input = flagSet.Arg(0)
	if opts.output == "" {
		opts.output = strings.TrimSuffix(opts.input, filepath.Ext(opts.input)) + ".afp"
	}
	if opts.format == "" {
		switch strings.ToLower(filepath.Ext(opts.input)) {
		case ".html", ".htm":
			opts.format = "html"
		default:
			opts.format = "markdown"
		}
	}
	return opts, nil
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts options) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if opts.resourceLevel != "" {
		if cfg.Stream.ResourceLevel, err = resources.ParseLevel(opts.resourceLevel); err != nil {
			return nil, err
		}
	}
	if opts.interchangeSet != "" {
		if cfg.Stream.InterchangeSet, err = resources.ParseInterchangeSet(opts.interchangeSet); err != nil {
			return nil, err
		}
	}
	if opts.external != "" {
		cfg.Stream.ExternalResourceGroup = opts.external
	}
	if opts.pageSegments {
		cfg.Stream.PageSegments = true
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func run(ctx context.Context, opts options, logOutput io.Writer) (err error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := observability.NewSlogLogger(newLogger(cfg.Log, logOutput))

	source, err := os.ReadFile(opts.input)
	if err != nil {
		return err
	}
	size, err := cfg.Page.PaperSize()
	if err != nil {
		return err
	}

	out, err := os.Create(opts.output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(opts.output)
		}
	}()

	ds, err := modca.NewDataStream(out, modca.Options{Config: cfg.Stream, Logger: logger})
	if err != nil {
		return err
	}
	b := builder.NewBuilder(ds)
	for name, f := range cfg.Page.Fonts {
		b.RegisterFont(name, builder.FontSpec{CharacterSet: f.CharacterSet, CodePage: f.CodePage, Monospace: f.Monospace})
	}
	if opts.name != "" {
		b.SetName(opts.name)
	}

	m := cfg.Page.Margins
	engine := layout.NewEngine(b,
		layout.WithPaperSize(size),
		layout.WithMargins(layout.Margins{Top: m.Top, Bottom: m.Bottom, Left: m.Left, Right: m.Right}),
		layout.WithDefaultFont(cfg.Page.Font),
		layout.WithDefaultFontSize(cfg.Page.FontSize),
		layout.WithLineHeight(cfg.Page.LineHeight),
		layout.WithBaseDir(filepath.Dir(opts.input)),
	)
	switch opts.format {
	case "markdown", "md":
		err = engine.RenderMarkdown(string(source))
	case "html":
		err = engine.RenderHTML(string(source))
	default:
		err = fmt.Errorf("unknown input format %q", opts.format)
	}
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.Build(ctx); err != nil {
		return err
	}
	logger.Info("afp file written",
		observability.String("input", opts.input),
		observability.String("output", opts.output))
	return nil
}
