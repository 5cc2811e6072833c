package cli

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/lineagewalk/pkg/cache"
	"github.com/matzehuels/lineagewalk/pkg/config"
	"github.com/matzehuels/lineagewalk/pkg/errors"
	pkgio "github.com/matzehuels/lineagewalk/pkg/io"
	"github.com/matzehuels/lineagewalk/pkg/lineage"
	"github.com/matzehuels/lineagewalk/pkg/snowflake"
)

// fakeWarehouse reports DB.S.B feeding DB.S.A. DB.S.MYSTERY has an
// unsupported type.
type fakeWarehouse struct {
	lookups   atomic.Int32
	classifys atomic.Int32
}

func (f *fakeWarehouse) connect(context.Context, snowflake.Config) (*warehouse, error) {
	classify := lineage.ClassifierFunc(func(_ context.Context, k lineage.ObjectKey) (lineage.ObjectType, error) {
		f.classifys.Add(1)
		if k.Name == "MYSTERY" {
			return lineage.TypeUnknown, nil
		}
		return lineage.TypeBaseTable, nil
	})
	source := lineage.SourceFunc(func(_ context.Context, req lineage.Request) ([]lineage.Edge, error) {
		f.lookups.Add(1)
		a, b := lineage.MustParseObjectKey("DB.S.A"), lineage.MustParseObjectKey("DB.S.B")
		if req.Object != a || req.Direction != lineage.Upstream {
			return nil, nil
		}
		return []lineage.Edge{{
			Distance: req.Distance,
			Source:   lineage.EndpointOf(b, req.Domain, "ACTIVE"),
			Target:   lineage.EndpointOf(a, req.Domain, "ACTIVE"),
			Input:    req.Root,
		}}, nil
	})
	return &warehouse{classifier: classify, source: source}, nil
}

// newTestCLI returns a CLI backed by wh, running in an empty working
// directory with status output captured in the returned buffer.
func newTestCLI(t *testing.T, connect connectFunc) (*CLI, *bytes.Buffer) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	var status bytes.Buffer
	prev := statusOut
	statusOut = &status
	t.Cleanup(func() { statusOut = prev })

	c := New(io.Discard, LogInfo)
	c.connect = connect
	return c, &status
}

func execute(c *CLI, args ...string) (string, error) {
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestExtractCommandCSV(t *testing.T) {
	wh := &fakeWarehouse{}
	c, status := newTestCLI(t, wh.connect)

	out, err := execute(c, "extract", "DB.S.A", "-f", "csv", "--no-cache")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	if lines[0] != strings.Join(lineage.Columns, ",") {
		t.Errorf("header = %q", lines[0])
	}
	if want := "0,TABLE,DB,S,A,ACTIVE,,,,,,DB,S,A"; lines[1] != want {
		t.Errorf("self row = %q, want %q", lines[1], want)
	}
	if want := "1,TABLE,DB,S,B,ACTIVE,TABLE,DB,S,A,ACTIVE,DB,S,A"; lines[2] != want {
		t.Errorf("edge row = %q, want %q", lines[2], want)
	}
	if !strings.Contains(status.String(), "2 rows") {
		t.Errorf("status missing summary:\n%s", status.String())
	}
}

func TestExtractCommandObjectsFromConfig(t *testing.T) {
	wh := &fakeWarehouse{}
	c, _ := newTestCLI(t, wh.connect)

	cfg := "objects:\n  - DB.S.A\nformat: json\ncache:\n  backend: none\n"
	if err := os.WriteFile("lineagewalk.yaml", []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(c, "extract")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	res, err := pkgio.ReadJSON(strings.NewReader(out))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if res.Table.Len() != 2 {
		t.Errorf("rows = %d, want 2", res.Table.Len())
	}
	if len(res.Roots) != 1 || res.Roots[0].Root.String() != "DB.S.A" {
		t.Errorf("roots = %+v", res.Roots)
	}
	if res.RunID == "" {
		t.Error("run id should be set")
	}
}

func TestExtractCommandNoObjects(t *testing.T) {
	wh := &fakeWarehouse{}
	c, _ := newTestCLI(t, wh.connect)

	_, err := execute(c, "extract", "--no-cache")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("err = %v, want INVALID_INPUT", err)
	}
	if wh.lookups.Load() != 0 {
		t.Error("no lookups expected")
	}
}

func TestExtractCommandInvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"direction", []string{"--direction", "sideways"}, errors.ErrCodeInvalidInput},
		{"distance", []string{"--max-distance", "9"}, errors.ErrCodeInvalidInput},
		{"format", []string{"-f", "xml"}, errors.ErrCodeInvalidFormat},
		{"identifier", []string{"NOT_QUALIFIED"}, errors.ErrCodeInvalidIdentifier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wh := &fakeWarehouse{}
			c, _ := newTestCLI(t, wh.connect)
			args := append([]string{"extract", "DB.S.A", "--no-cache"}, tt.args...)
			if tt.name == "identifier" {
				args = append([]string{"extract", "--no-cache"}, tt.args...)
			}
			_, err := execute(c, args...)
			if !errors.Is(err, tt.code) {
				t.Fatalf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestExtractCommandSkipsUnknown(t *testing.T) {
	wh := &fakeWarehouse{}
	c, status := newTestCLI(t, wh.connect)

	out, err := execute(c, "extract", "DB.S.MYSTERY", "-f", "csv", "--no-cache")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(status.String(), "Skipped DB.S.MYSTERY") {
		t.Errorf("status missing skip warning:\n%s", status.String())
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("want header plus placeholder row, got:\n%s", out)
	}
	if want := strings.Repeat(",", len(lineage.Columns)-1); lines[1] != want {
		t.Errorf("placeholder row = %q, want %q", lines[1], want)
	}
	if wh.lookups.Load() != 0 {
		t.Error("skipped root should not be expanded")
	}
}

func TestExtractCommandOutputFile(t *testing.T) {
	wh := &fakeWarehouse{}
	c, status := newTestCLI(t, wh.connect)
	path := filepath.Join(t.TempDir(), "lineage.json")

	out, err := execute(c, "extract", "DB.S.A", "-f", "json", "-o", path, "--no-cache")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if out != "" {
		t.Errorf("stdout should be empty when writing a file, got %q", out)
	}
	res, err := pkgio.ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if res.Table.Len() != 2 {
		t.Errorf("rows = %d, want 2", res.Table.Len())
	}
	if !strings.Contains(status.String(), "render "+path) {
		t.Errorf("status missing next step:\n%s", status.String())
	}
}

func TestExtractCommandDOT(t *testing.T) {
	wh := &fakeWarehouse{}
	c, status := newTestCLI(t, wh.connect)

	out, err := execute(c, "extract", "DB.S.A", "-f", "dot", "--no-cache")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	for _, want := range []string{"digraph", "DB.S.A", "DB.S.B"} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(status.String(), iconArrow) {
		t.Errorf("stdout output should not print a file line:\n%s", status.String())
	}
}

func TestExtractCommandUsesFileCache(t *testing.T) {
	wh := &fakeWarehouse{}
	c, _ := newTestCLI(t, wh.connect)
	dir := t.TempDir()

	first, err := execute(c, "extract", "DB.S.A", "-f", "csv", "--cache-dir", dir)
	if err != nil {
		t.Fatalf("first extract: %v", err)
	}
	lookups, classifys := wh.lookups.Load(), wh.classifys.Load()
	if lookups == 0 || classifys == 0 {
		t.Fatal("first run should reach the warehouse")
	}

	second, err := execute(c, "extract", "DB.S.A", "-f", "csv", "--cache-dir", dir)
	if err != nil {
		t.Fatalf("second extract: %v", err)
	}
	if first != second {
		t.Errorf("cached run differs:\n%s\nvs\n%s", first, second)
	}
	if wh.lookups.Load() != lookups || wh.classifys.Load() != classifys {
		t.Error("second run should be served from the cache")
	}

	if _, err := execute(c, "extract", "DB.S.A", "-f", "csv", "--cache-dir", dir, "--refresh"); err != nil {
		t.Fatalf("refresh extract: %v", err)
	}
	if wh.lookups.Load() == lookups {
		t.Error("--refresh should bypass cached lookups")
	}
}

func TestExtractCommandConnectError(t *testing.T) {
	boom := errors.New(errors.ErrCodeNetwork, "connect to snowflake")
	c, _ := newTestCLI(t, func(context.Context, snowflake.Config) (*warehouse, error) {
		return nil, boom
	})

	_, err := execute(c, "extract", "DB.S.A", "--no-cache")
	if !stderrors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestRenderCommand(t *testing.T) {
	wh := &fakeWarehouse{}
	c, _ := newTestCLI(t, wh.connect)
	path := filepath.Join(t.TempDir(), "lineage.json")

	if _, err := execute(c, "extract", "DB.S.A", "-f", "json", "-o", path, "--no-cache"); err != nil {
		t.Fatalf("extract: %v", err)
	}
	calls := wh.lookups.Load()

	out, err := execute(c, "render", path, "-f", "dot")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "digraph") {
		t.Errorf("render output is not DOT:\n%s", out)
	}

	out, err = execute(c, "render", path, "-f", "json")
	if err != nil {
		t.Fatalf("render json: %v", err)
	}
	var doc struct {
		Rows []json.RawMessage `json:"rows"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Rows) != 2 {
		t.Errorf("rows = %d, want 2", len(doc.Rows))
	}
	if wh.lookups.Load() != calls {
		t.Error("render must not query the warehouse")
	}
}

func TestRenderCommandErrors(t *testing.T) {
	c, _ := newTestCLI(t, (&fakeWarehouse{}).connect)

	if _, err := execute(c, "render", "missing.json", "-f", "dot"); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := execute(c, "render", "missing.json", "-f", "pdf"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestCacheCommands(t *testing.T) {
	wh := &fakeWarehouse{}
	c, status := newTestCLI(t, wh.connect)
	dir := t.TempDir()

	out, err := execute(c, "cache", "path", "--cache-dir", dir)
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if strings.TrimSpace(out) != dir {
		t.Errorf("cache path = %q, want %q", out, dir)
	}

	if _, err := execute(c, "extract", "DB.S.A", "-f", "csv", "--cache-dir", dir); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if _, err := execute(c, "cache", "clear", "--cache-dir", dir); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(status.String(), "Cleared") {
		t.Errorf("status missing clear summary:\n%s", status.String())
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("cache dir not empty after clear: %d entries", len(entries))
	}
}

func TestNewCache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	c, err := newCache(ctx, config.CacheConfig{Backend: config.CacheFile, Dir: dir}, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*cache.NullCache); !ok {
		t.Errorf("no-cache: got %T, want *cache.NullCache", c)
	}

	c, err = newCache(ctx, config.CacheConfig{Backend: config.CacheNone}, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*cache.NullCache); !ok {
		t.Errorf("none backend: got %T, want *cache.NullCache", c)
	}

	c, err = newCache(ctx, config.CacheConfig{Backend: config.CacheFile, Dir: dir}, false)
	if err != nil {
		t.Fatal(err)
	}
	fc, ok := c.(*cache.FileCache)
	if !ok {
		t.Fatalf("file backend: got %T, want *cache.FileCache", c)
	}
	if fc.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", fc.Dir(), dir)
	}
}

func TestCacheScope(t *testing.T) {
	a := cacheScope(snowflake.Config{Account: "Acme", Role: "analyst"})
	if a != "acme:ANALYST:" {
		t.Errorf("cacheScope = %q", a)
	}
	b := cacheScope(snowflake.Config{Account: "acme", Role: "ADMIN"})
	if a == b {
		t.Error("roles should not share a scope")
	}
	d := cacheScope(snowflake.Config{DSN: "user@acme/db"})
	if !strings.HasPrefix(d, "dsn-") || !strings.HasSuffix(d, ":") {
		t.Errorf("dsn scope = %q", d)
	}
}
