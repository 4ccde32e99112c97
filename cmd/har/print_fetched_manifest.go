package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/harbackup/har/pkg/harconfig"
	"github.com/harbackup/har/pkg/manifest"
)

func printFetchedManifestProcess(_ context.Context, args []string) {
	flagSet := flag.NewFlagSet("print-fetched-manifest", flag.ExitOnError)
	flagSet.Usage = func() {
		fmt.Fprintf(flagSet.Output(), "Pretty-prints the cached manifest's tree and stats.\n\n")
		fmt.Fprintf(flagSet.Output(), "Usage: har print-fetched-manifest\n")
	}
	if err := flagSet.Parse(args); err != nil {
		flagSet.Usage()
		os.Exit(1)
	}

	d, err := harconfig.FindCwdOrAncestor()
	exitOnError(err)
	fetched, err := d.CachedManifest()
	exitOnError(err)

	stats := fetched.GetStats()
	fmt.Printf("%+v\n", stats)
	manifest.PrintTree(os.Stdout, fetched)
}
