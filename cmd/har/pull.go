package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/harbackup/har/pkg/harconfig"
	"github.com/harbackup/har/pkg/mirror"
)

func pullProcess(ctx context.Context, args []string) {
	flagSet := flag.NewFlagSet("pull", flag.ExitOnError)
	flagSet.Usage = func() {
		fmt.Fprintf(flagSet.Output(), "Downloads every file in the cached remote manifest missing locally.\n\n")
		fmt.Fprintf(flagSet.Output(), "Usage: har pull\n")
	}
	if err := flagSet.Parse(args); err != nil {
		flagSet.Usage()
		os.Exit(1)
	}

	d, err := harconfig.FindCwdOrAncestor()
	exitOnError(err)
	storage, err := openBlobStorage(ctx, d)
	exitOnError(err)
	cachedBytes, err := d.CachedManifestBytes()
	exitOnError(err)

	archiveRoot := d.ArchiveRoot()
	result, err := mirror.New(storage).Pull(archiveRoot, cachedBytes, mirror.DefaultTransferConfig())
	exitOnError(err)

	if result.FilesPulled == 0 {
		fmt.Println("Nothing to pull.")
		return
	}
	fmt.Printf("Pulled %d files.\n", result.FilesPulled)
}
