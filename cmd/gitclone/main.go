// Command gitclone clones a single branch of a remote Git repository
// over the smart HTTP protocol.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"

	"github.com/example-labs/gitclone/clone"
	"github.com/example-labs/gitclone/fetch"
)

func main() {
	var (
		timeout  time.Duration
		dumpPack string
		verbose  bool
	)
	pflag.DurationVar(&timeout, "timeout", 60*time.Second, "abort the clone if it runs longer than this")
	pflag.StringVar(&dumpPack, "dump-pack", "", "copy the fetched packfile to this path as it is decoded")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "log each clone phase")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <repository-url> <target-dir>\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() != 2 {
		pflag.Usage()
		os.Exit(2)
	}
	repoURL, targetDir := pflag.Arg(0), pflag.Arg(1)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := clone.Options{
		Transport: &fetch.HTTPTransport{
			Client: &http.Client{Timeout: timeout},
		},
		DumpPackPath: dumpPack,
	}
	if verbose {
		opts.Progress = func(msg string) { log.Print(msg) }
	}

	if err := clone.Clone(ctx, repoURL, targetDir, opts); err != nil {
		log.Fatalf("gitclone: %v", err)
	}
}
