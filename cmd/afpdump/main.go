// afpdump lists the structured fields of an AFP file: offset, acronym,
// length and flags, indented by Begin/End nesting.
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/wudi/afpkit/field"
)

type options struct {
	path    string
	hexLen  int
	summary bool
	flat    bool
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "afpdump: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "afpdump: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("afpdump", pflag.ContinueOnError)
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: afpdump [flags] <file.afp|->\n")
		flagSet.PrintDefaults()
	}
	flagSet.IntVarP(&opts.hexLen, "hex", "x", 0, "print up to this many data bytes of each field")
	flagSet.BoolVarP(&opts.summary, "summary", "s", false, "print field counts after the listing")
	flagSet.BoolVar(&opts.flat, "flat", false, "do not indent nested fields")
	if err := flagSet.Parse(args); err != nil {
		return opts, err
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return opts, fmt.Errorf("expected one input file")
	}
	opts.path = flagSet.Arg(0)
	return opts, nil
}

func run(opts options, w io.Writer) error {
	in := io.Reader(os.Stdin)
	if opts.path != "-" {
		f, err := os.Open(opts.path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	return dump(w, in, opts)
}

func dump(w io.Writer, in io.Reader, opts options) error {
	r := field.NewReader(in)
	counts := make(map[string]int)
	depth := 0
	for {
		offset := r.Offset()
		f, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		name := f.ID.String()
		counts[name]++
		if f.ID.Type == field.TypeEnd && depth > 0 {
			depth--
		}
		indent := ""
		if !opts.flat {
			indent = strings.Repeat("  ", depth)
		}
		fmt.Fprintf(w, "%08X  %s%-6s len=%-5d flags=%02X", offset, indent, name, f.Len()-1, f.Flags)
		if opts.hexLen > 0 && len(f.Data) > 0 {
			data := f.Data
			if len(data) > opts.hexLen {
				data = data[:opts.hexLen]
			}
			fmt.Fprintf(w, "  %s", hex.EncodeToString(data))
			if len(f.Data) > opts.hexLen {
				fmt.Fprint(w, "...")
			}
		}
		fmt.Fprintln(w)
		if f.ID.Type == field.TypeBegin {
			depth++
		}
	}
	if opts.summary {
		names := make([]string, 0, len(counts))
		for n := range counts {
			names = append(names, n)
		}
		sort.Strings(names)
		fmt.Fprintln(w)
		for _, n := range names {
			fmt.Fprintf(w, "%-6s %d\n", n, counts[n])
		}
	}
	return nil
}
