package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/harbackup/har/pkg/harconfig"
	"github.com/harbackup/har/pkg/manifest"
)

func diffProcess(_ context.Context, args []string) {
	var remote bool
	var hashCheck bool

	flagSet := flag.NewFlagSet("diff", flag.ExitOnError)
	flagSet.Usage = func() {
		fmt.Fprintf(flagSet.Output(), "Prints the entries present in the local tree but not the cached remote manifest.\n\n")
		fmt.Fprintf(flagSet.Output(), "Usage: har diff [--remote] [--hash]\n")
		flagSet.PrintDefaults()
	}
	flagSet.BoolVar(&remote, "remote", false, "Diff the other way: remote's extra entries versus local")
	flagSet.BoolVar(&hashCheck, "hash", false, "Re-hash files present on both sides and report content mismatches")

	if err := flagSet.Parse(args); err != nil {
		flagSet.Usage()
		os.Exit(1)
	}

	d, err := harconfig.FindCwdOrAncestor()
	exitOnError(err)

	archiveRoot := d.ArchiveRoot()
	local, err := manifest.FromFS(archiveRoot)
	exitOnError(err)
	remoteManifest, err := d.CachedManifest()
	exitOnError(err)

	var opts []manifest.DiffOption
	if hashCheck {
		spec, err := d.RemoteSpec()
		exitOnError(err)
		opts = append(opts, manifest.WithHashCheck(archiveRoot, hashScope(spec)))
	}

	var diff *manifest.DiffResult
	if remote {
		fmt.Println("Remote has the additional entries:")
		diff, err = manifest.Diff(remoteManifest, local, opts...)
	} else {
		fmt.Println("Local tree has the additional entries:")
		diff, err = manifest.Diff(local, remoteManifest, opts...)
	}
	exitOnError(err)

	for _, path := range diff.PathsOfTopExtraInA {
		fmt.Println(path)
	}
	fmt.Printf("Total extra files: %d, total extra dirs: %d\n", diff.ExtraFilesInA, diff.ExtraDirsInA)

	if hashCheck && len(diff.PathsOfDifferentFiles) > 0 {
		fmt.Println("Files differing in content despite matching names:")
		for _, path := range diff.PathsOfDifferentFiles {
			fmt.Println(path)
		}
	}
}
