package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/omarluq/ptree-loader/internal/format"
	"github.com/omarluq/ptree-loader/internal/ptree"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func childValue(t *testing.T, tr *ptree.Tree, key string) string {
	t.Helper()
	node, ok := tr.Get(key).Get()
	if !ok {
		t.Fatalf("key %q not found in tree (keys: %v)", key, tr.Keys())
	}
	return node.Value()
}

func TestLoadSingleFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	writeFile(t, path, `{"x":"1","y":"2","x":"3"}`)

	root := ptree.New()
	ld := New(root, format.JSON)
	ld.Load(path)

	wantKeys := []string{"x", "y", "x"}
	if !reflect.DeepEqual(root.Keys(), wantKeys) {
		t.Errorf("Keys() = %v, want %v", root.Keys(), wantKeys)
	}
	if got := root.Children()[2].Node.Value(); got != "3" {
		t.Errorf("duplicate key value = %q, want %q", got, "3")
	}

	wantDiag := []string{"Loading: " + path}
	if !reflect.DeepEqual(ld.Diagnostics(), wantDiag) {
		t.Errorf("Diagnostics() = %v, want %v", ld.Diagnostics(), wantDiag)
	}
}

// The scenario from the include contract: the include key line is retained
// in the output, not replaced by its expansion, and the included children
// follow it.
func TestLoadInclude(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `{"x":1,"IncludeFile":"b.json"}`)
	writeFile(t, filepath.Join(dir, "b.json"), `{"y":2}`)

	root := ptree.New()
	ld := New(root, format.JSON)
	ld.Load(filepath.Join(dir, "a.json"))

	wantKeys := []string{"x", IncludeKey, "y"}
	if !reflect.DeepEqual(root.Keys(), wantKeys) {
		t.Fatalf("Keys() = %v, want %v", root.Keys(), wantKeys)
	}
	if got := childValue(t, root, "x"); got != "1" {
		t.Errorf("x = %q, want %q", got, "1")
	}
	if got := childValue(t, root, IncludeKey); got != "b.json" {
		t.Errorf("%s = %q, want %q", IncludeKey, got, "b.json")
	}
	if got := childValue(t, root, "y"); got != "2" {
		t.Errorf("y = %q, want %q", got, "2")
	}

	wantDiag := []string{
		"Loading: " + filepath.Join(dir, "a.json"),
		"Loading: " + filepath.Join(dir, "b.json"),
	}
	if !reflect.DeepEqual(ld.Diagnostics(), wantDiag) {
		t.Errorf("Diagnostics() = %v, want %v", ld.Diagnostics(), wantDiag)
	}
}

func TestIncludeResolvesRelativeToIncludingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// a.json sits at the top, pulls in sub/b.json, which pulls in c.json
	// relative to its own directory, not to a.json's or the working dir.
	writeFile(t, filepath.Join(dir, "a.json"), `{"IncludeFile":"sub/b.json"}`)
	writeFile(t, filepath.Join(dir, "sub", "b.json"), `{"IncludeFile":"c.json","y":"2"}`)
	writeFile(t, filepath.Join(dir, "sub", "c.json"), `{"z":"3"}`)

	root := ptree.New()
	ld := New(root, format.JSON)
	ld.Load(filepath.Join(dir, "a.json"))

	wantKeys := []string{IncludeKey, IncludeKey, "z", "y"}
	if !reflect.DeepEqual(root.Keys(), wantKeys) {
		t.Fatalf("Keys() = %v, want %v", root.Keys(), wantKeys)
	}
	if got := childValue(t, root, "z"); got != "3" {
		t.Errorf("z = %q, want %q", got, "3")
	}

	wantDiag := []string{
		"Loading: " + filepath.Join(dir, "a.json"),
		"Loading: " + filepath.Join(dir, "sub", "b.json"),
		"Loading: " + filepath.Join(dir, "sub", "c.json"),
	}
	if !reflect.DeepEqual(ld.Diagnostics(), wantDiag) {
		t.Errorf("Diagnostics() = %v, want %v", ld.Diagnostics(), wantDiag)
	}
}

func TestMissingRootFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	missing := filepath.Join(dir, "nope.json")

	root := ptree.New()
	ld := New(root, format.JSON)
	ld.Load(missing)

	if !root.Empty() {
		t.Errorf("tree should be empty, got keys %v", root.Keys())
	}
	wantDiag := []string{"Path not found: " + missing}
	if !reflect.DeepEqual(ld.Diagnostics(), wantDiag) {
		t.Errorf("Diagnostics() = %v, want %v", ld.Diagnostics(), wantDiag)
	}
}

func TestMissingIncludeLeavesPriorMergesIntact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `{"x":"1","IncludeFile":"missing.json","y":"2"}`)

	root := ptree.New()
	ld := New(root, format.JSON)
	ld.Load(filepath.Join(dir, "a.json"))

	// The whole file still merges; only the include branch is abandoned.
	wantKeys := []string{"x", IncludeKey, "y"}
	if !reflect.DeepEqual(root.Keys(), wantKeys) {
		t.Errorf("Keys() = %v, want %v", root.Keys(), wantKeys)
	}

	wantLine := "Path not found: " + filepath.Join(dir, "missing.json")
	diag := ld.Diagnostics()
	if len(diag) != 2 || diag[1] != wantLine {
		t.Errorf("Diagnostics() = %v, want second line %q", diag, wantLine)
	}
}

func TestParseErrorIsRecoverable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `{"x":"1","IncludeFile":"bad.json","y":"2"}`)
	writeFile(t, filepath.Join(dir, "bad.json"), `{"broken":`)

	root := ptree.New()
	ld := New(root, format.JSON)
	ld.Load(filepath.Join(dir, "a.json"))

	wantKeys := []string{"x", IncludeKey, "y"}
	if !reflect.DeepEqual(root.Keys(), wantKeys) {
		t.Errorf("Keys() = %v, want %v", root.Keys(), wantKeys)
	}

	diag := ld.Diagnostics()
	if len(diag) != 3 {
		t.Fatalf("Diagnostics() = %v, want 3 lines", diag)
	}
	if !strings.HasPrefix(diag[2], "Error: ") {
		t.Errorf("third diagnostic = %q, want Error prefix", diag[2])
	}
}

func TestDepthLimitStopsIncludeChain(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	const chain = 25
	for i := 0; i < chain; i++ {
		content := fmt.Sprintf(`{"v":"%d"}`, i)
		if i < chain-1 {
			content = fmt.Sprintf(`{"v":"%d","IncludeFile":"f%d.json"}`, i, i+1)
		}
		writeFile(t, filepath.Join(dir, fmt.Sprintf("f%d.json", i)), content)
	}

	root := ptree.New()
	ld := New(root, format.JSON)
	ld.Load(filepath.Join(dir, "f0.json"))

	diag := ld.Diagnostics()
	var loaded int
	for _, line := range diag {
		if strings.HasPrefix(line, "Loading: ") {
			loaded++
		}
	}
	if loaded != DepthLimit {
		t.Errorf("loaded %d files, want %d", loaded, DepthLimit)
	}
	if diag[len(diag)-1] != "Recursive include loop detected. Exiting..." {
		t.Errorf("last diagnostic = %q, want loop detection line", diag[len(diag)-1])
	}

	// Everything up to the limit is still merged.
	var values int
	for _, c := range root.Children() {
		if c.Key == "v" {
			values++
		}
	}
	if values != DepthLimit {
		t.Errorf("merged %d v children, want %d", values, DepthLimit)
	}
}

func TestMutualIncludeTerminates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `{"IncludeFile":"b.json"}`)
	writeFile(t, filepath.Join(dir, "b.json"), `{"IncludeFile":"a.json"}`)

	root := ptree.New()
	ld := New(root, format.JSON)
	ld.Load(filepath.Join(dir, "a.json"))

	diag := ld.Diagnostics()
	if diag[len(diag)-1] != "Recursive include loop detected. Exiting..." {
		t.Errorf("last diagnostic = %q, want loop detection line", diag[len(diag)-1])
	}
	if root.Len() != DepthLimit {
		t.Errorf("merged %d children, want %d", root.Len(), DepthLimit)
	}
}

// A subtree under the include key cannot name a file; it degrades to the
// path-not-found branch rather than failing the load.
func TestNonScalarIncludeValueDegradesToPathNotFound(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `{"IncludeFile":{"nested":"x"},"y":"2"}`)

	root := ptree.New()
	ld := New(root, format.JSON)
	ld.Load(filepath.Join(dir, "a.json"))

	wantKeys := []string{IncludeKey, "y"}
	if !reflect.DeepEqual(root.Keys(), wantKeys) {
		t.Errorf("Keys() = %v, want %v", root.Keys(), wantKeys)
	}

	diag := ld.Diagnostics()
	if len(diag) != 2 || !strings.HasPrefix(diag[1], "Path not found: ") {
		t.Errorf("Diagnostics() = %v, want a path-not-found second line", diag)
	}
}

func TestLoadResetsSessionState(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `{"x":"1"}`)

	root := ptree.New()
	ld := New(root, format.JSON)
	ld.Load(filepath.Join(dir, "a.json"))
	ld.Load(filepath.Join(dir, "a.json"))

	// Diagnostics are per-session; the destination tree accumulates.
	if got := len(ld.Diagnostics()); got != 1 {
		t.Errorf("Diagnostics() has %d lines after reload, want 1", got)
	}
	if root.Len() != 2 {
		t.Errorf("tree has %d children after two loads, want 2", root.Len())
	}
}

func TestDumpDiagFraming(t *testing.T) {
	t.Parallel()

	root := ptree.New()
	ld := New(root, format.JSON)
	ld.Load(filepath.Join(t.TempDir(), "nope.json"))

	delim := strings.Repeat("=", 80)
	out := ld.DumpDiag()
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 3 || lines[0] != delim || lines[2] != delim {
		t.Errorf("DumpDiag() = %q, want delimiter framing", out)
	}
	if !strings.HasPrefix(lines[1], "Path not found: ") {
		t.Errorf("DumpDiag() body = %q, want path-not-found line", lines[1])
	}
}

func TestDumpTreeRoundTrips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	content := `{"x":"1","group":{"y":"2"},"x":"3"}`
	writeFile(t, path, content)

	root := ptree.New()
	ld := New(root, format.JSON)
	ld.Load(path)

	delim := strings.Repeat("=", 80)
	out := ld.DumpTree()
	if !strings.HasPrefix(out, delim+"\n") || !strings.HasSuffix(out, delim+"\n") {
		t.Fatalf("DumpTree() = %q, want delimiter framing", out)
	}
	body := strings.TrimSuffix(strings.TrimPrefix(out, delim+"\n"), delim+"\n")

	reparsed, err := format.ForFormat(format.JSON).Parse([]byte(body))
	if err != nil {
		t.Fatalf("reparsing dump failed: %v", err)
	}
	want, err := format.ForFormat(format.JSON).Parse([]byte(content))
	if err != nil {
		t.Fatalf("parsing original failed: %v", err)
	}
	if !reparsed.Equal(want) {
		t.Errorf("dump does not round-trip:\n%s", body)
	}
}

func TestLoadRelativePathResolvesAgainstWorkingDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.info"), "x 1\n")

	t.Chdir(dir)

	root := ptree.New()
	ld := New(root, format.INFO)
	ld.Load("a.info")

	if got := childValue(t, root, "x"); got != "1" {
		t.Errorf("x = %q, want %q", got, "1")
	}
	diag := ld.Diagnostics()
	if len(diag) != 1 || !strings.HasPrefix(diag[0], "Loading: ") ||
		!filepath.IsAbs(strings.TrimPrefix(diag[0], "Loading: ")) {
		t.Errorf("Diagnostics() = %v, want one absolute Loading line", diag)
	}
}

func TestLoadIncludeAcrossFormats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "root.info"), "x 1\nIncludeFile extra.info\n")
	writeFile(t, filepath.Join(dir, "extra.info"), "y 2\n")

	root := ptree.New()
	ld := New(root, format.INFO)
	ld.Load(filepath.Join(dir, "root.info"))

	wantKeys := []string{"x", IncludeKey, "y"}
	if !reflect.DeepEqual(root.Keys(), wantKeys) {
		t.Errorf("Keys() = %v, want %v", root.Keys(), wantKeys)
	}
}
