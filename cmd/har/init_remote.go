package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/harbackup/har/pkg/harconfig"
	"github.com/harbackup/har/pkg/mirror"
)

func initRemoteProcess(ctx context.Context, args []string) {
	flagSet := flag.NewFlagSet("init-remote", flag.ExitOnError)
	flagSet.Usage = func() {
		fmt.Fprintf(flagSet.Output(), "Creates an empty manifest at the remote configured by .har.\n\n")
		fmt.Fprintf(flagSet.Output(), "Usage: har init-remote\n")
	}
	if err := flagSet.Parse(args); err != nil {
		flagSet.Usage()
		os.Exit(1)
	}

	d, err := harconfig.FindCwdOrAncestor()
	exitOnError(err)
	storage, err := openBlobStorage(ctx, d)
	exitOnError(err)

	exitOnError(mirror.New(storage).Init())
	fmt.Println("Remote initialized.")
}
