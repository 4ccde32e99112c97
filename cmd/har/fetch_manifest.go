package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/harbackup/har/pkg/harconfig"
	"github.com/harbackup/har/pkg/mirror"
)

func fetchManifestProcess(ctx context.Context, args []string) {
	flagSet := flag.NewFlagSet("fetch-manifest", flag.ExitOnError)
	flagSet.Usage = func() {
		fmt.Fprintf(flagSet.Output(), "Downloads the current remote manifest and caches it locally.\n\n")
		fmt.Fprintf(flagSet.Output(), "Usage: har fetch-manifest\n")
	}
	if err := flagSet.Parse(args); err != nil {
		flagSet.Usage()
		os.Exit(1)
	}

	d, err := harconfig.FindCwdOrAncestor()
	exitOnError(err)
	storage, err := openBlobStorage(ctx, d)
	exitOnError(err)

	data, err := mirror.New(storage).GetManifestBlob()
	exitOnError(err)
	exitOnError(d.StoreManifest(data))

	fmt.Println("Fetched manifest.")
}
