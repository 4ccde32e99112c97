package main

import (
	"context"
	"fmt"
	"os"
)

var subcommands = map[string]func(ctx context.Context, args []string){
	"create-key":             createKeyProcess,
	"init-local":             initLocalProcess,
	"init-remote":            initRemoteProcess,
	"fetch-manifest":         fetchManifestProcess,
	"print-fetched-manifest": printFetchedManifestProcess,
	"diff":                   diffProcess,
	"push":                   pushProcess,
	"pull":                   pullProcess,
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	process, ok := subcommands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown subcommand %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	process(context.Background(), os.Args[2:])
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: har <subcommand> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Subcommands:\n")
	for _, name := range []string{
		"create-key", "init-local", "init-remote", "fetch-manifest",
		"print-fetched-manifest", "diff", "push", "pull",
	} {
		fmt.Fprintf(os.Stderr, "  %s\n", name)
	}
}
