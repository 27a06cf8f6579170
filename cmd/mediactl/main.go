// Command mediactl — консольный клиент медиасервиса.
//
//	mediactl compress audio-files/a.mp3 images/b.png
//	mediactl compress-single audio-files/a.wav
//	mediactl get --range bytes=0-1023 --out part.bin audio-files/a.mp3
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/sir_venger/media_lite/pkg/mediaclient"
)

const defaultServer = "http://localhost:9005"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil && !errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		printUsage()
		return errors.New("missing command")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "compress":
		return runCompress(ctx, rest, stdout)
	case "compress-single":
		return runCompressSingle(ctx, rest, stdout)
	case "get":
		return runGet(ctx, rest, stdout)
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// commonFlags добавляет --server, общий для всех команд.
func commonFlags(name string) (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	server := fs.StringP("server", "s", envOr("MEDIA_SERVER", defaultServer), "media service base URL")
	return fs, server
}

func runCompress(ctx context.Context, args []string, stdout io.Writer) error {
	fs, server := commonFlags("compress")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("compress: at least one file path is required")
	}

	res, err := mediaclient.New(*server, mediaclient.Options{}).Compress(ctx, fs.Args())
	if err != nil {
		return err
	}
	return printJSON(stdout, res)
}

func runCompressSingle(ctx context.Context, args []string, stdout io.Writer) error {
	fs, server := commonFlags("compress-single")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("compress-single: exactly one file path is required")
	}

	res, err := mediaclient.New(*server, mediaclient.Options{}).CompressSingle(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	return printJSON(stdout, res)
}

func runGet(ctx context.Context, args []string, stdout io.Writer) error {
	fs, server := commonFlags("get")
	rangeHeader := fs.StringP("range", "r", "", `byte range, e.g. "bytes=0-1023"`)
	out := fs.StringP("out", "o", "", "write body to this file (default: file name from URL)")
	quiet := fs.BoolP("quiet", "q", false, "do not draw progress")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("get: exactly one file path or URL is required")
	}

	opts := mediaclient.Options{}
	if !*quiet {
		opts.Progress = os.Stderr
	}

	d, err := mediaclient.New(*server, opts).Fetch(ctx, fs.Arg(0), *rangeHeader)
	if err != nil {
		return err
	}
	defer d.Body.Close()

	dst := *out
	if dst == "" {
		dst = baseName(fs.Arg(0))
	}

	var w io.Writer = stdout
	if dst != "-" {
		f, err := os.Create(dst)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	n, err := io.Copy(w, d.Body)
	if err != nil {
		return err
	}

	if dst != "-" {
		fmt.Fprintf(stdout, "%s: %d bytes (status %d", dst, n, d.Status)
		if d.ContentRange != "" {
			fmt.Fprintf(stdout, ", %s", d.ContentRange)
		}
		fmt.Fprintln(stdout, ")")
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func baseName(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			p = p[i+1:]
			break
		}
	}
	if p == "" {
		return "download.bin"
	}
	return p
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func printUsage() {
	fmt.Fprint(os.Stderr, `usage: mediactl <command> [flags] args

commands:
  compress PATH...          pack several files into one ZIP
  compress-single PATH      pack one file
  get [--range R] PATH|URL  download a file or a byte range

common flags:
  -s, --server URL          media service base URL (env MEDIA_SERVER)
`)
}
