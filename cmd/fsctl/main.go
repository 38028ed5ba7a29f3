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
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/GriffinCanCode/fileserver/internal/client"
	"github.com/GriffinCanCode/fileserver/internal/providers/auth"
	"github.com/GriffinCanCode/fileserver/internal/providers/filesystem"
)

const usage = `Usage: fsctl [flags] <command> [args]

Commands:
  health                 show server health
  validate               check the API key
  ls [path]              list a directory
  get [-o file] <path>   download a file
  mkdir <path>           create a directory
  rm <path>              delete a file or empty directory
  put [-path dir] <file> upload a local file
  find [-path dir] [-limit n] <pattern>
                         search by glob
  hash [-cost n] <key>   print a bcrypt hash for API_KEY_BCRYPT

Flags:
`

func main() {
	serverURL := flag.String("server", envOr("FILESERVER_URL", "http://localhost:5000"), "File server base URL")
	token := flag.String("token", os.Getenv("API_KEY"), "API key for mutating commands")
	timeout := flag.Duration("timeout", 30*time.Second, "Request timeout")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(*serverURL, client.Options{
		Token:      *token,
		Timeout:    *timeout,
		RetryCount: 2,
	})

	if err := run(ctx, c, os.Stdout, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fsctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client.Client, out io.Writer, command string, args []string) error {
	switch command {
	case "health":
		health, err := c.Health(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, health)

	case "validate":
		msg, err := c.ValidateToken(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, msg)
		return nil

	case "ls":
		dir := ""
		if len(args) > 0 {
			dir = args[0]
		}
		entries, err := c.List(ctx, dir)
		if err != nil {
			return err
		}
		return printEntries(out, entries)

	case "get":
		fs := flag.NewFlagSet("get", flag.ContinueOnError)
		output := fs.String("o", "", "write to file instead of stdout")
		target, err := parseOne(fs, args)
		if err != nil {
			return err
		}
		content, err := c.Get(ctx, target)
		if err != nil {
			return err
		}
		if *output == "" {
			_, err = out.Write(content.Data)
			return err
		}
		return os.WriteFile(*output, content.Data, 0o644)

	case "mkdir":
		target, err := parseOne(flag.NewFlagSet("mkdir", flag.ContinueOnError), args)
		if err != nil {
			return err
		}
		location, err := c.CreateDir(ctx, target)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created %s\n", location)
		return nil

	case "rm":
		target, err := parseOne(flag.NewFlagSet("rm", flag.ContinueOnError), args)
		if err != nil {
			return err
		}
		msg, err := c.Delete(ctx, target)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, msg)
		return nil

	case "put":
		fs := flag.NewFlagSet("put", flag.ContinueOnError)
		dir := fs.String("path", "", "directory to upload into")
		local, err := parseOne(fs, args)
		if err != nil {
			return err
		}
		f, err := os.Open(local)
		if err != nil {
			return err
		}
		defer f.Close()
		uploaded, err := c.Upload(ctx, *dir, filepath.Base(local), f)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "uploaded %s (%d bytes)\n", uploaded.Path, uploaded.Size)
		return nil

	case "find":
		fs := flag.NewFlagSet("find", flag.ContinueOnError)
		dir := fs.String("path", "", "directory to search under")
		limit := fs.Int("limit", 0, "maximum results (0 = server default)")
		pattern, err := parseOne(fs, args)
		if err != nil {
			return err
		}
		result, err := c.Search(ctx, *dir, pattern, *limit)
		if err != nil {
			return err
		}
		if err := printEntries(out, result.Entries); err != nil {
			return err
		}
		if result.Truncated {
			fmt.Fprintln(out, "(results truncated)")
		}
		return nil

	case "hash":
		fs := flag.NewFlagSet("hash", flag.ContinueOnError)
		cost := fs.Int("cost", 0, "bcrypt cost (0 = default)")
		key, err := parseOne(fs, args)
		if err != nil {
			return err
		}
		hash, err := auth.HashToken(key, *cost)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, hash)
		return nil
	}

	return fmt.Errorf("unknown command %q", command)
}

func parseOne(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: expected exactly one argument", fs.Name())
	}
	return fs.Arg(0), nil
}

func printEntries(out io.Writer, entries []filesystem.FileEntry) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		size, mime := "-", "-"
		if e.Size != nil {
			size = fmt.Sprint(*e.Size)
		}
		if e.MimeType != nil {
			mime = *e.MimeType
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Type, size, mime, e.Path)
	}
	return w.Flush()
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
