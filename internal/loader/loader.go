// Package loader merges property-tree files into a destination tree,
// resolving the reserved IncludeFile key so one file can pull in and merge
// another, whatever the format. Include paths resolve relative to the
// including file's directory; cycles are cut off by a fixed depth limit; and
// every failure is recoverable, recorded in an ordered diagnostic log
// instead of returned to the caller.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/omarluq/ptree-loader/internal/format"
	"github.com/omarluq/ptree-loader/internal/ptree"
)

const (
	// IncludeKey is the reserved child key whose value names another file to
	// load and merge, resolved relative to the including file's directory.
	IncludeKey = "IncludeFile"

	// DepthLimit bounds the number of files loaded per Load call. It stands
	// in for cycle detection: mutual includes stop once the counter runs
	// out, at the cost of also rejecting acyclic chains deeper than this.
	DepthLimit = 20

	delimWidth = 80
)

// Loader merges files of one fixed format into one destination tree. The
// destination is only ever appended to: existing children are never replaced,
// and duplicate keys accumulate. A Loader is not safe for concurrent use.
type Loader struct {
	root  *ptree.Tree
	codec format.Codec
	diag  []string
	depth int
}

// New returns a Loader that merges files of format f into root.
func New(root *ptree.Tree, f format.Format) *Loader {
	return &Loader{root: root, codec: format.ForFormat(f)}
}

// Load merges the file at path, and everything it includes, into the
// destination tree. path may be absolute or relative to the working
// directory. Load never fails: a missing file, a parse error or an include
// loop abandons only the affected branch, leaves everything merged before it
// in place, and shows up in the diagnostic log.
func (l *Loader) Load(path string) {
	l.depth = 0
	l.diag = l.diag[:0]

	parent := ""
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			l.diagf("Error: %v", err)
			return
		}
		parent = wd
	}
	l.load(path, parent)
}

func (l *Loader) load(path, parentPath string) {
	l.depth++
	if l.depth > DepthLimit {
		l.diagf("Recursive include loop detected. Exiting...")
		return
	}

	effective := path
	if !filepath.IsAbs(effective) {
		effective = filepath.Join(parentPath, effective)
	}
	effective = filepath.Clean(effective)

	// A malformed include value (empty, or a subtree instead of a scalar)
	// resolves to its parent directory; requiring a regular file makes it
	// degrade to the same recoverable branch as a missing path.
	if info, err := os.Stat(effective); err != nil || !info.Mode().IsRegular() {
		l.diagf("Path not found: %s", effective)
		return
	}

	l.diagf("Loading: %s", effective)

	data, err := os.ReadFile(effective)
	if err != nil {
		l.diagf("Error: %v", err)
		return
	}
	subtree, err := l.codec.Parse(data)
	if err != nil {
		l.diagf("Error: %v", err)
		return
	}

	// Merge top-level children in order. Duplicates are appended, never
	// replaced, and the include key itself stays in the destination tree.
	for _, c := range subtree.Children() {
		l.root.Add(c.Key, c.Node)
		if c.Key == IncludeKey {
			l.load(c.Node.Value(), filepath.Dir(effective))
		}
	}
}

func (l *Loader) diagf(msg string, args ...any) {
	l.diag = append(l.diag, fmt.Sprintf(msg, args...))
}

// Diagnostics returns the diagnostic lines in the order they were recorded.
func (l *Loader) Diagnostics() []string {
	return slices.Clone(l.diag)
}

// DumpDiag returns the diagnostic log framed by delimiter lines.
func (l *Loader) DumpDiag() string {
	delim := strings.Repeat("=", delimWidth)
	var b strings.Builder
	b.WriteString(delim)
	b.WriteByte('\n')
	for _, line := range l.diag {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(delim)
	b.WriteByte('\n')
	return b.String()
}

// DumpTree returns the destination tree serialized in the loader's bound
// format, framed by delimiter lines.
func (l *Loader) DumpTree() string {
	delim := strings.Repeat("=", delimWidth)
	var b strings.Builder
	b.WriteString(delim)
	b.WriteByte('\n')
	if err := l.codec.Serialize(&b, l.root); err != nil {
		fmt.Fprintf(&b, "Error: %v\n", err)
	}
	b.WriteString(delim)
	b.WriteByte('\n')
	return b.String()
}
