package mirror

import (
	"fmt"
	"os"
)

// printProgress mirrors pkg/push/progress.go's throttled stderr line: clear
// to end-of-line, print, return the cursor with \r so the next print
// overwrites it in place.
func printProgress(done, total int, bytesTransferred int64) {
	fmt.Fprintf(os.Stderr, "\033[KTransferring: %d / %d files (%d bytes)\r", done, total, bytesTransferred)
}

// clearProgressLine wipes the in-place progress line once a transfer
// finishes, matching progressPrinter's post-loop cleanup.
func clearProgressLine() {
	fmt.Fprintf(os.Stderr, "\033[K")
}
