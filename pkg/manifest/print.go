package manifest

import (
	"fmt"
	"io"
	"strings"
)

// PrintTree writes m's tree to w, indenting two spaces per directory level,
// mirroring the original's print_tree/print_entry.
func PrintTree(w io.Writer, m *Manifest) {
	printEntry(w, m, m.Root, 0)
}

func printEntry(w io.Writer, m *Manifest, id EntryId, indent int) {
	entry := m.GetEntry(id)
	pad := strings.Repeat(" ", indent)
	if entry.IsFile() {
		fmt.Fprintf(w, "%s%s (size=%d, key=%s)\n", pad, entry.Name(), entry.Size(), entry.BlobKey())
		return
	}
	fmt.Fprintf(w, "%s%s\n", pad, entry.Name())
	for _, childId := range entry.Children() {
		printEntry(w, m, childId, indent+2)
	}
}
