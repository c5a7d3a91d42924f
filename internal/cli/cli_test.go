package cli

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/pivotframe/pkg/codec"
	"github.com/matzehuels/pivotframe/pkg/config"
	"github.com/matzehuels/pivotframe/pkg/core/frame"
	"github.com/matzehuels/pivotframe/pkg/scene"
	"github.com/matzehuels/pivotframe/pkg/storage"
)

// testEnv runs root commands against a config that keeps the library in a
// temp dir and disables caching.
type testEnv struct {
	t          *testing.T
	dir        string
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Cache.Backend = config.BackendNone
	cfg.Cache.Dir = filepath.Join(dir, "cache")
	cfg.Storage.Dir = filepath.Join(dir, "library")
	cfg.Editor.SessionDir = filepath.Join(dir, "sessions")
	cfg.Server.ShareBase = "https://example.com/editor"
	path := filepath.Join(dir, "config.toml")
	if err := config.Write(path, cfg); err != nil {
		t.Fatal(err)
	}
	return &testEnv{t: t, dir: dir, configPath: path}
}

func (e *testEnv) run(stdin string, args ...string) (string, error) {
	e.t.Helper()
	var out, logs bytes.Buffer
	c := New(&logs, LogInfo)
	c.Out = &out
	c.In = strings.NewReader(stdin)

	root := c.RootCommand()
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	root.SetOut(&out)
	root.SetErr(&logs)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) mustRun(stdin string, args ...string) string {
	e.t.Helper()
	out, err := e.run(stdin, args...)
	if err != nil {
		e.t.Fatalf("%v: %v", args, err)
	}
	return out
}

func TestEncodeDecode(t *testing.T) {
	env := newTestEnv(t)

	packed := strings.TrimSpace(env.mustRun("", "encode", "demo"))
	f, err := codec.Unpack(packed)
	if err != nil {
		t.Fatalf("Unpack(encode output): %v", err)
	}
	if f.PivotCount() != 6 || f.ShapeCount() != 3 {
		t.Errorf("got %d pivots, %d shapes; want 6, 3", f.PivotCount(), f.ShapeCount())
	}

	doc := env.mustRun(packed, "decode", "-")
	if !strings.Contains(doc, `"pivots"`) || !strings.Contains(doc, `"name": "stdin"`) {
		t.Errorf("decode output is not a scene document:\n%s", doc)
	}

	record := strings.TrimSpace(env.mustRun("", "encode", "demo", "--record"))
	if !strings.HasPrefix(record, "6,") {
		t.Errorf("record = %q, want pivot count first", record)
	}

	url := strings.TrimSpace(env.mustRun("", "encode", "demo", "--url"))
	if !strings.HasPrefix(url, "https://example.com/editor?") {
		t.Errorf("url = %q, want configured share base", url)
	}
	if _, err := codec.ParseShareURL(url); err != nil {
		t.Errorf("ParseShareURL: %v", err)
	}
}

func TestDecodeToSceneFile(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "demo.toml")
	env.mustRun("", "decode", "demo", "-o", path)

	doc, err := scene.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "demo" || len(doc.Shapes) != 3 {
		t.Errorf("doc = %q with %d shapes", doc.Name, len(doc.Shapes))
	}
}

func TestSimulate(t *testing.T) {
	env := newTestEnv(t)

	out := strings.TrimSpace(env.mustRun("", "simulate", "demo", "-n", "5"))
	if _, err := codec.Unpack(out); err != nil {
		t.Errorf("simulate output does not unpack: %v", err)
	}

	path := filepath.Join(env.dir, "out.json")
	env.mustRun("", "simulate", "demo", "-n", "5", "-o", path)
	if _, err := scene.Load(path); err != nil {
		t.Errorf("simulate -o scene: %v", err)
	}

	if _, err := env.run("", "simulate", "demo", "--ticks=-1"); err == nil {
		t.Error("negative ticks accepted")
	}
}

func TestSimulateSceneRestoresRestLength(t *testing.T) {
	env := newTestEnv(t)

	// A line of rest length 100 whose far pivot was dragged to 50.
	f := frame.New()
	a, b := f.MustAddPivot(0, 0), f.MustAddPivot(100, 0)
	if _, err := f.AddLine(a, b, "#12ab34", 1); err != nil {
		t.Fatal(err)
	}
	if err := f.SetPosition(b, 50, 0); err != nil {
		t.Fatal(err)
	}
	in := filepath.Join(env.dir, "dragged.json")
	if err := scene.Save(in, scene.FromFrame(f, "dragged")); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(env.dir, "relaxed.toml")
	env.mustRun("", "simulate", in, "-n", "10", "-o", out)
	doc, err := scene.Load(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Pivots) != 2 || len(doc.Shapes) != 1 {
		t.Fatalf("doc = %+v", doc)
	}
	if dx := doc.Pivots[1].X - doc.Pivots[0].X; math.Abs(dx-100) > 1e-9 {
		t.Errorf("pivot spacing = %v, want 100", dx)
	}
	if s := doc.Shapes[0]; s.RestLength != 100 || s.Color != "#12ab34" {
		t.Errorf("shape = %+v, want rest length 100 and the saved color", s)
	}
}

func TestRenderWritesEachFormat(t *testing.T) {
	env := newTestEnv(t)
	base := filepath.Join(env.dir, "frame")

	env.mustRun("", "render", "demo", "-f", "svg,dot,json", "-o", base)
	for _, name := range []string{"frame.svg", "frame.dot", "frame.json"} {
		data, err := os.ReadFile(filepath.Join(env.dir, name))
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if len(data) == 0 {
			t.Errorf("%s is empty", name)
		}
	}

	single := filepath.Join(env.dir, "single.svg")
	env.mustRun("", "render", "demo", "-o", single, "--pivots")
	data, err := os.ReadFile(single)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Error("single render is not SVG")
	}

	if _, err := env.run("", "render", "demo", "-f", "png"); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestRenderSceneKeepsColors(t *testing.T) {
	env := newTestEnv(t)
	in := filepath.Join(env.dir, "red.json")
	doc := scene.FromFrame(sampleFrame(t), "red")
	if err := scene.Save(in, doc); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(env.dir, "red.svg")
	env.mustRun("", "render", in, "-o", out)

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "#12ab34") {
		t.Error("scene color lost in render")
	}
}

func TestInspect(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun("", "inspect", "demo")
	for _, want := range []string{"demo", "Pivots", "Shapes", "circle", "line"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}
}

func TestLibraryLifecycle(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("", "library", "save", "demo", "--name", "starter")
	if !strings.Contains(out, "starter") {
		t.Errorf("save output = %q", out)
	}

	store, err := storage.NewFileStore(filepath.Join(env.dir, "library"))
	if err != nil {
		t.Fatal(err)
	}
	list, err := store.List(context.Background())
	if err != nil || len(list) != 1 {
		t.Fatalf("List() = %v, %v; want one entry", list, err)
	}
	id := list[0].ID

	if out := env.mustRun("", "library", "list"); !strings.Contains(out, "starter") {
		t.Errorf("list output missing name:\n%s", out)
	}
	if out := env.mustRun("", "library", "get", id); !strings.Contains(out, `"starter"`) {
		t.Errorf("get output:\n%s", out)
	}
	env.mustRun("", "library", "delete", id)
	if _, err := env.run("", "library", "get", id); err == nil {
		t.Error("get after delete succeeded")
	}
	if out := env.mustRun("", "library", "list"); !strings.Contains(out, "empty") {
		t.Errorf("list after delete = %q", out)
	}
}

func TestCachePath(t *testing.T) {
	env := newTestEnv(t)
	if out := strings.TrimSpace(env.mustRun("", "cache", "path")); out != "none" {
		t.Errorf("cache path = %q, want none", out)
	}
	env.mustRun("", "cache", "clear")
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	if out := env.mustRun("", "version"); !strings.Contains(out, "version:") {
		t.Errorf("version output = %q", out)
	}
}

func TestBadConfigFails(t *testing.T) {
	env := newTestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[solver\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := env.run("", "encode", "demo"); err == nil {
		t.Error("malformed config accepted")
	}
}

func TestExampleFrames(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "examples", "frames", "*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Skip("no example frames")
	}
	env := newTestEnv(t)
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			out := filepath.Join(env.dir, baseName(path)+".svg")
			env.mustRun("", "render", path, "-n", "20", "-o", out)
			if _, err := os.Stat(out); err != nil {
				t.Error(err)
			}
			env.mustRun("", "inspect", path)
		})
	}
}
