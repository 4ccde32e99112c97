package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/harbackup/har/pkg/blobcrypt"
)

func createKeyProcess(_ context.Context, args []string) {
	flagSet := flag.NewFlagSet("create-key", flag.ExitOnError)
	flagSet.Usage = func() {
		fmt.Fprintf(flagSet.Output(), "Writes a fresh random encryption key to a file.\n\n")
		fmt.Fprintf(flagSet.Output(), "Usage: har create-key <path>\n")
	}

	if err := flagSet.Parse(args); err != nil {
		flagSet.Usage()
		os.Exit(1)
	}

	if flagSet.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: exactly one argument (the output path) is required\n")
		flagSet.Usage()
		os.Exit(1)
	}
	path := flagSet.Arg(0)

	key, err := blobcrypt.CreateKey()
	exitOnError(err)

	exitOnError(os.WriteFile(path, key, 0o600))
	fmt.Printf("Wrote key to %s\n", path)
}
