// Package blobhash derives content-addressed blob keys, mirroring the
// original's blob_storage::get_hash_name: BLAKE3("har_backup" || scope ||
// plaintext), rendered as lowercase hex.
package blobhash

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

const domainPrefix = "har_backup"

// Name computes the hex-encoded blob key for plaintext under scope (the
// bucket name for S3 backends, the absolute directory path for
// local-directory backends).
func Name(scope string, plaintext []byte) string {
	h := blake3.New(32, nil)
	h.Write([]byte(domainPrefix))
	h.Write([]byte(scope))
	h.Write(plaintext)
	return hex.EncodeToString(h.Sum(nil))
}
