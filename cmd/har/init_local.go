package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/harbackup/har/pkg/harconfig"
)

func initLocalProcess(_ context.Context, args []string) {
	var keyPath string
	var remoteKind string
	var fsPath string
	var s3Endpoint, s3Bucket, s3Key, s3Secret string

	flagSet := flag.NewFlagSet("init-local", flag.ExitOnError)
	flagSet.Usage = func() {
		fmt.Fprintf(flagSet.Output(), "Creates <archive-root>/.har and records the encryption keypath and remote.\n\n")
		fmt.Fprintf(flagSet.Output(), "Usage: har init-local [OPTIONS] <archive-root>\n")
		flagSet.PrintDefaults()
		fmt.Fprintf(flagSet.Output(), "\nExamples:\n")
		fmt.Fprintf(flagSet.Output(), "  $ har init-local --key /secrets/har.key --remote-kind fs --fs-path /srv/backups ./my-archive\n")
		fmt.Fprintf(flagSet.Output(), "  $ har init-local --key /secrets/har.key --remote-kind s3 --s3-endpoint https://s3.example.com --s3-bucket backups --s3-key AKIA... --s3-secret ... ./my-archive\n")
	}

	flagSet.StringVar(&keyPath, "key", "", "Path to the encryption key file (required)")
	flagSet.StringVar(&remoteKind, "remote-kind", "", "Remote kind: fs or s3 (required)")
	flagSet.StringVar(&fsPath, "fs-path", "", "Remote directory path (remote-kind=fs)")
	flagSet.StringVar(&s3Endpoint, "s3-endpoint", "", "S3 endpoint URL (remote-kind=s3)")
	flagSet.StringVar(&s3Bucket, "s3-bucket", "", "S3 bucket name (remote-kind=s3)")
	flagSet.StringVar(&s3Key, "s3-key", "", "S3 access key (remote-kind=s3)")
	flagSet.StringVar(&s3Secret, "s3-secret", "", "S3 secret key (remote-kind=s3)")

	if err := flagSet.Parse(args); err != nil {
		flagSet.Usage()
		os.Exit(1)
	}

	if flagSet.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: exactly one argument (the archive root) is required\n")
		flagSet.Usage()
		os.Exit(1)
	}
	archiveRoot := flagSet.Arg(0)

	if keyPath == "" {
		fmt.Fprintf(os.Stderr, "Error: --key is required\n")
		flagSet.Usage()
		os.Exit(1)
	}

	var spec harconfig.RemoteSpec
	switch remoteKind {
	case "fs":
		if fsPath == "" {
			fmt.Fprintf(os.Stderr, "Error: --fs-path is required when --remote-kind=fs\n")
			flagSet.Usage()
			os.Exit(1)
		}
		spec = harconfig.RemoteSpec{Kind: harconfig.KindLocalFileSystem, Path: fsPath}
	case "s3":
		if s3Endpoint == "" || s3Bucket == "" || s3Key == "" || s3Secret == "" {
			fmt.Fprintf(os.Stderr, "Error: --s3-endpoint, --s3-bucket, --s3-key and --s3-secret are all required when --remote-kind=s3\n")
			flagSet.Usage()
			os.Exit(1)
		}
		spec = harconfig.RemoteSpec{Kind: harconfig.KindS3, Endpoint: s3Endpoint, BucketName: s3Bucket, Key: s3Key, Secret: s3Secret}
	default:
		fmt.Fprintf(os.Stderr, "Error: --remote-kind must be fs or s3\n")
		flagSet.Usage()
		os.Exit(1)
	}

	d, err := harconfig.Init(archiveRoot)
	exitOnError(err)
	exitOnError(d.SetKeyFile(keyPath))
	exitOnError(d.SetRemoteSpec(spec))

	fmt.Printf("Initialized %s/%s\n", archiveRoot, harconfig.DotHarName)
}
