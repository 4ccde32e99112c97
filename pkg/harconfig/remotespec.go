package harconfig

import (
	"strings"

	"github.com/harbackup/har/pkg/harerr"
)

// RemoteKind discriminates RemoteSpec.
type RemoteKind int

const (
	KindLocalFileSystem RemoteKind = iota
	KindS3
)

// RemoteSpec is the parsed form of the .har remote file's "scheme://..."
// contents. Unlike the original's S3Spec, which slices a shared underlying
// string via byte ranges to avoid allocating four strings, this stores the
// four S3 fields directly: Go's garbage collector makes that optimization
// unnecessary, and four plain strings read far more clearly than ranges.
type RemoteSpec struct {
	Kind RemoteKind

	// KindLocalFileSystem only.
	Path string

	// KindS3 only.
	Endpoint   string
	BucketName string
	Key        string
	Secret     string
}

// ParseRemoteSpec parses the remote file's contents: "fs://<path>" for a
// local-directory remote, or "s3://<endpoint>\n<bucket>\n<key>\n<secret>"
// (four newline-separated lines right after the scheme) for an S3 remote.
func ParseRemoteSpec(spec string) (RemoteSpec, error) {
	scheme, rest, ok := strings.Cut(spec, "://")
	if !ok {
		return RemoteSpec{}, harerr.New(harerr.Parse, "remote spec does not have format A://B")
	}

	switch scheme {
	case "fs":
		return RemoteSpec{Kind: KindLocalFileSystem, Path: rest}, nil
	case "s3":
		lines := strings.Split(rest, "\n")
		if len(lines) < 4 {
			return RemoteSpec{}, harerr.New(harerr.Parse, "parsing s3 spec: expected 4 lines (endpoint, bucket, key, secret)")
		}
		return RemoteSpec{
			Kind:       KindS3,
			Endpoint:   lines[0],
			BucketName: lines[1],
			Key:        lines[2],
			Secret:     lines[3],
		}, nil
	default:
		return RemoteSpec{}, harerr.Newf(harerr.Parse, "unknown remote scheme %q", scheme)
	}
}

// String renders spec back into the on-disk remote-file form.
func (s RemoteSpec) String() string {
	switch s.Kind {
	case KindLocalFileSystem:
		return "fs://" + s.Path
	case KindS3:
		return "s3://" + strings.Join([]string{s.Endpoint, s.BucketName, s.Key, s.Secret}, "\n")
	default:
		return ""
	}
}
