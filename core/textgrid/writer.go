package textgrid

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	cserrors "github.com/FocuswithJustin/changescheme/core/errors"
)

// Indentation per nesting depth: item, item field, interval field.
var (
	indent1 = strings.Repeat(" ", 4)
	indent2 = strings.Repeat(" ", 8)
	indent3 = strings.Repeat(" ", 12)
)

// Serialize renders d in the long text format.
func Serialize(d *Document) []byte {
	var buf bytes.Buffer
	// bytes.Buffer writes cannot fail
	_ = Write(&buf, d)
	return buf.Bytes()
}

// Write renders d to w in the long text format. Tier and interval indices
// are 1-based. A document without tiers is written as "tiers? <absent>".
func Write(w io.Writer, d *Document) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "File type = %s\n", quote(FileType))
	fmt.Fprintf(bw, "Object class = %s\n", quote(ObjectClass))
	bw.WriteString("\n")
	fmt.Fprintf(bw, "xmin = %s\n", formatNumber(d.MinTime))
	fmt.Fprintf(bw, "xmax = %s\n", formatNumber(d.MaxTime))

	if len(d.Items) == 0 {
		bw.WriteString("tiers? <absent>\n")
		return bw.Flush()
	}

	bw.WriteString("tiers? <exists>\n")
	fmt.Fprintf(bw, "size = %d\n", len(d.Items))
	bw.WriteString("item []:\n")

	for i := range d.Items {
		t := &d.Items[i]
		fmt.Fprintf(bw, "%sitem [%d]:\n", indent1, i+1)
		fmt.Fprintf(bw, "%sclass = %s\n", indent2, quote(IntervalTierClass))
		fmt.Fprintf(bw, "%sname = %s\n", indent2, quote(t.Name))
		fmt.Fprintf(bw, "%sxmin = %s\n", indent2, formatNumber(t.MinTime))
		fmt.Fprintf(bw, "%sxmax = %s\n", indent2, formatNumber(t.MaxTime))
		fmt.Fprintf(bw, "%sintervals: size = %d\n", indent2, len(t.Intervals))
		for j, iv := range t.Intervals {
			fmt.Fprintf(bw, "%sintervals [%d]:\n", indent2, j+1)
			fmt.Fprintf(bw, "%sxmin = %s\n", indent3, formatNumber(iv.MinTime))
			fmt.Fprintf(bw, "%sxmax = %s\n", indent3, formatNumber(iv.MaxTime))
			fmt.Fprintf(bw, "%stext = %s\n", indent3, quote(iv.Text))
		}
	}
	return bw.Flush()
}

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

// WriteFile writes a serialized document to path atomically via a temp file
// in the same directory. It takes bytes rather than a Document so callers
// can hash exactly what reaches disk.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tempFile, err := os.CreateTemp(dir, ".textgrid-*")
	if err != nil {
		return cserrors.NewIO("create temp file in", dir, err)
	}
	tempPath := tempFile.Name()

	if err := tempFile.Chmod(0644); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return cserrors.NewIO("chmod", tempPath, err)
	}
	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return cserrors.NewIO("write", path, err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return cserrors.NewIO("close", path, err)
	}
	if err := osRename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return cserrors.NewIO("rename", path, err)
	}
	return nil
}

// formatNumber uses the shortest decimal that parses back to v.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
