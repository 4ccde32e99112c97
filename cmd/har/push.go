package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/harbackup/har/pkg/harconfig"
	"github.com/harbackup/har/pkg/mirror"
)

func pushProcess(ctx context.Context, args []string) {
	flagSet := flag.NewFlagSet("push", flag.ExitOnError)
	flagSet.Usage = func() {
		fmt.Fprintf(flagSet.Output(), "Uploads every local file missing from the current remote manifest.\n\n")
		fmt.Fprintf(flagSet.Output(), "Usage: har push\n")
	}
	if err := flagSet.Parse(args); err != nil {
		flagSet.Usage()
		os.Exit(1)
	}

	d, err := harconfig.FindCwdOrAncestor()
	exitOnError(err)
	storage, err := openBlobStorage(ctx, d)
	exitOnError(err)
	spec, err := d.RemoteSpec()
	exitOnError(err)

	archiveRoot := d.ArchiveRoot()
	result, err := mirror.New(storage).Push(archiveRoot, hashScope(spec), mirror.DefaultTransferConfig())
	exitOnError(err)

	if result.RemoteManifestBytes == nil {
		fmt.Println("Nothing to push.")
		return
	}

	fmt.Printf("Pushed %d files. Updating cached manifest.\n", result.FilesPushed)
	exitOnError(d.StoreManifestWithBackup(result.RemoteManifestBytes))
	fmt.Println("Remote manifest updated.")
}
