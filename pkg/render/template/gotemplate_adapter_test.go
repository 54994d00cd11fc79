package template_test

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-formmessages/pkg/render/template"
	"github.com/goliatone/go-formmessages/pkg/render/template/gotemplate"
	"github.com/goliatone/go-formmessages/pkg/testsupport"
)

//go:embed testdata/templates/*.tpl
var embeddedTemplates embed.FS

func TestGoTemplateEngine_CompileFile(t *testing.T) {
	engine := newEngine(t)

	compiled, err := engine.CompileFile("required")
	if err != nil {
		t.Fatalf("compile file: %v", err)
	}
	assertGolden(t, "required.golden", compiled, map[string]any{"key": "email"})

	again, err := engine.CompileFile("required.tpl")
	if err != nil {
		t.Fatalf("compile file: %v", err)
	}
	if again != compiled {
		t.Fatalf("expected loaded templates to be cached")
	}
	if got := again.(*gotemplate.Template).Source(); got != "required.tpl" {
		t.Fatalf("unexpected source %q", got)
	}

	if _, err := engine.CompileFile("missing"); err == nil {
		t.Fatalf("expected error for missing template")
	}
	if _, err := engine.CompileFile(" "); err == nil {
		t.Fatalf("expected error for empty template name")
	}
}

func TestGoTemplateEngine_GlobalData(t *testing.T) {
	engine := newEngine(t, gotemplate.WithGlobalData(map[string]any{
		"settings": map[string]any{"env": "staging", "field": "Email"},
	}))

	compiled, err := engine.CompileFile("use-global")
	if err != nil {
		t.Fatalf("compile file: %v", err)
	}
	assertGolden(t, "use-global.golden", compiled, nil)
}

func TestGoTemplateEngine_TemplateFuncFilter(t *testing.T) {
	engine := newEngine(t, gotemplate.WithTemplateFunc(map[string]any{
		"shout": func(input any, _ any) (any, error) {
			if input == nil {
				return "", nil
			}
			return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
		},
	}))

	compiled, err := engine.CompileFile("use-filter")
	if err != nil {
		t.Fatalf("compile file: %v", err)
	}
	assertGolden(t, "use-filter.golden", compiled, map[string]any{"key": "minlength"})
}

func TestGoTemplateEngine_TemplateFuncGlobal(t *testing.T) {
	engine, err := gotemplate.New(gotemplate.WithTemplateFunc(map[string]any{
		"plural": func(n any, word string) string {
			if fmt.Sprint(n) == "1" {
				return word
			}
			return word + "s"
		},
	}))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	compiled, err := engine.Compile("At least {{ control }} {{ plural(control, \"character\") }}")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got, err := compiled.Execute(map[string]any{"control": 3})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if want := "At least 3 characters"; got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestGoTemplateEngine_Extension(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "pattern.msg"), []byte("{{ key }} has the wrong format"), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	engine, err := gotemplate.New(gotemplate.WithBaseDir(dir), gotemplate.WithExtension("msg"))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	compiled, err := engine.CompileFile("pattern")
	if err != nil {
		t.Fatalf("compile file: %v", err)
	}
	got, err := compiled.Execute(map[string]any{"key": "zip"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if want := "zip has the wrong format"; got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestGoTemplateEngine_CompileCachesSource(t *testing.T) {
	engine, err := gotemplate.New()
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	first, err := engine.Compile("Must be at least {{ control.min }} characters")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	second, err := engine.Compile("Must be at least {{ control.min }} characters")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if first != second {
		t.Fatalf("expected compiled templates to be cached")
	}

	got, err := first.Execute(map[string]any{"control": map[string]any{"min": 8}})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if want := "Must be at least 8 characters"; got != want {
		t.Fatalf("want %q, got %q", want, got)
	}

	if _, err := engine.Compile("{% if %}"); err == nil {
		t.Fatalf("expected parse error for malformed template")
	}
}

func TestGoTemplateEngine_BannedTags(t *testing.T) {
	engine, err := gotemplate.New(gotemplate.WithFS(mustSub(t)), gotemplate.WithBannedTags(gotemplate.FileAccessTags...))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	if _, err := engine.Compile(`{% include "required.tpl" %}`); err == nil {
		t.Fatalf("expected include to be rejected")
	}
	compiled, err := engine.Compile("{{ key|upper }}")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got, err := compiled.Execute(map[string]any{"key": "pattern"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != "PATTERN" {
		t.Fatalf("want %q, got %q", "PATTERN", got)
	}
}

func TestGoTemplateEngine_EscapesData(t *testing.T) {
	engine, err := gotemplate.New()
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	compiled, err := engine.Compile("<b>{{ control }}</b>")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got, err := compiled.Execute(map[string]any{"control": "<script>"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if want := "<b>&lt;script&gt;</b>"; got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func newEngine(t *testing.T, options ...gotemplate.Option) *gotemplate.Engine {
	t.Helper()

	engine, err := gotemplate.New(append([]gotemplate.Option{gotemplate.WithFS(mustSub(t))}, options...)...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func assertGolden(t *testing.T, name string, compiled template.Compiled, data any) {
	t.Helper()

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return compiled.Execute(data, w)
	})

	golden := filepath.Join("testdata", name)
	if testsupport.WriteMaybeGolden(t, golden, []byte(result)) {
		return
	}
	want := testsupport.MustReadGoldenString(t, golden)
	if result != want {
		t.Fatalf("render template mismatch result\nwant: %q\n got: %q", want, result)
	}
	if written != want {
		t.Fatalf("render template mismatch writer\nwant: %q\n got: %q", want, written)
	}
}

func mustSub(t *testing.T) fs.FS {
	t.Helper()

	templatesFS, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}
	return templatesFS
}
