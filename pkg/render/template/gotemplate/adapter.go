package gotemplate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formmessages/pkg/render/template"
)

// Option configures the adapter before construction.
type Option func(*config)

type config struct {
	name       string
	baseDir    string
	templates  fs.FS
	extension  string
	templateFn map[string]any
	globalData map[string]any
	bannedTags []string
}

// WithBaseDir configures the underlying engine to load templates from a base
// directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS configures the underlying engine to load templates from an fs.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides the default template extension used by the engine.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithTemplateFunc registers helper functions or filters when the engine loads.
// pongo2.FilterFunction values and func(input, param any) (any, error) values
// become filters; other functions are exposed as globals. Filters are process
// wide in pongo2, so a name that is already registered keeps its first
// definition.
func WithTemplateFunc(funcs map[string]any) Option {
	return func(cfg *config) {
		if len(funcs) == 0 {
			return
		}
		if cfg.templateFn == nil {
			cfg.templateFn = make(map[string]any, len(funcs))
		}
		for name, fn := range funcs {
			cfg.templateFn[strings.TrimSpace(name)] = fn
		}
	}
}

// WithGlobalData seeds global context values available to every template.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// WithBannedTags forbids template tags for every template of the engine.
// Engines compiling downloaded templates ban file access tags by default.
func WithBannedTags(tags ...string) Option {
	return func(cfg *config) {
		cfg.bannedTags = append(cfg.bannedTags, tags...)
	}
}

// WithName names the underlying pongo2 template set.
func WithName(name string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cfg.name = trimmed
		}
	}
}

// FileAccessTags are the pongo2 tags that read other templates or files.
var FileAccessTags = []string{"include", "import", "extends", "ssi"}

// Engine satisfies template.Compiler and template.FileCompiler using a
// pongo2-backed template set.
type Engine struct {
	mu sync.RWMutex

	templateSet *pongo2.TemplateSet
	templates   map[string]*Template
	compiled    map[string]*Template
	tplExt      string
}

// Ensure Engine implements the template contracts.
var (
	_ template.Compiler     = (*Engine)(nil)
	_ template.FileCompiler = (*Engine)(nil)
)

// New constructs an Engine using the provided configuration options. Without
// a base dir or fs.FS only string templates can be compiled.
func New(options ...Option) (*Engine, error) {
	cfg := &config{
		name:      "formmessages",
		extension: ".tpl",
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("gotemplate: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}
	if len(loaders) == 0 {
		loaders = append(loaders, pongo2.NewFSLoader(emptyFS{}))
	}

	engine := &Engine{
		templateSet: pongo2.NewSet(cfg.name, loaders...),
		templates:   make(map[string]*Template),
		compiled:    make(map[string]*Template),
		tplExt:      cfg.extension,
	}
	registerDefaultFilters()

	banned := make(map[string]bool, len(cfg.bannedTags))
	for _, tag := range cfg.bannedTags {
		tag = strings.TrimSpace(tag)
		if tag == "" || banned[tag] {
			continue
		}
		banned[tag] = true
		if err := engine.templateSet.BanTag(tag); err != nil {
			return nil, fmt.Errorf("gotemplate: ban tag %q: %w", tag, err)
		}
	}

	if err := engine.setGlobals(cfg.globalData); err != nil {
		return nil, fmt.Errorf("gotemplate: apply global data: %w", err)
	}
	if len(cfg.templateFn) > 0 {
		for name, fn := range cfg.templateFn {
			if err := engine.registerTemplateFunc(name, fn); err != nil {
				return nil, fmt.Errorf("gotemplate: register template func %q: %w", name, err)
			}
		}
	}

	return engine, nil
}

// CompileFile loads a template by name from the configured base dir or
// fs.FS. The engine extension is appended when name has none. Loaded files
// are cached for the lifetime of the engine.
func (e *Engine) CompileFile(name string) (template.Compiled, error) {
	if e == nil || e.templateSet == nil {
		return nil, errors.New("gotemplate: engine is nil")
	}
	templatePath := strings.TrimSpace(name)
	if templatePath == "" {
		return nil, errors.New("gotemplate: template name required")
	}
	if !strings.HasSuffix(templatePath, e.tplExt) {
		templatePath += e.tplExt
	}
	tmpl, err := e.getTemplate(templatePath)
	if err != nil {
		return nil, err
	}
	return tmpl, nil
}

// Compile parses source once and caches the result for the lifetime of the
// engine.
func (e *Engine) Compile(source string) (template.Compiled, error) {
	compiled, err := e.compile(source)
	if err != nil {
		return nil, err
	}
	return compiled, nil
}

func (e *Engine) compile(source string) (*Template, error) {
	if e == nil || e.templateSet == nil {
		return nil, errors.New("gotemplate: engine is nil")
	}

	e.mu.RLock()
	if compiled, ok := e.compiled[source]; ok {
		e.mu.RUnlock()
		return compiled, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if compiled, ok := e.compiled[source]; ok {
		return compiled, nil
	}
	tmpl, err := e.templateSet.FromString(source)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: parse template string: %w", err)
	}
	compiled := &Template{engine: e, tmpl: tmpl, source: source}
	e.compiled[source] = compiled
	return compiled, nil
}

func (e *Engine) setGlobals(data map[string]any) error {
	if len(data) == 0 {
		return nil
	}
	globalCtx, err := convertMapToContext(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.templateSet.Globals == nil {
		e.templateSet.Globals = make(pongo2.Context)
	}
	e.templateSet.Globals.Update(globalCtx)
	return nil
}

// Template is a compiled template bound to its engine.
type Template struct {
	engine *Engine
	tmpl   *pongo2.Template
	source string
}

// Source returns the template text, or the file path for templates loaded by
// CompileFile.
func (t *Template) Source() string {
	return t.source
}

// Execute renders the template with data.
func (t *Template) Execute(data any, out ...io.Writer) (string, error) {
	if t == nil || t.tmpl == nil {
		return "", errors.New("gotemplate: template is nil")
	}
	rendered, err := t.engine.execute(t.tmpl, data)
	if err != nil {
		return "", fmt.Errorf("gotemplate: execute template: %w", err)
	}
	return emit(rendered, out)
}

func (e *Engine) execute(tmpl *pongo2.Template, data any) (string, error) {
	viewContext, err := convertToContext(data)
	if err != nil {
		return "", fmt.Errorf("convert data: %w", err)
	}

	var buf bytes.Buffer

	e.mu.RLock()
	err = tmpl.ExecuteWriter(viewContext, &buf)
	e.mu.RUnlock()

	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func emit(rendered string, out []io.Writer) (string, error) {
	for _, w := range out {
		if _, err := w.Write([]byte(rendered)); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

func (e *Engine) registerTemplateFunc(name string, fn any) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || fn == nil {
		return nil
	}

	switch filter := fn.(type) {
	case pongo2.FilterFunction:
		if pongo2.FilterExists(trimmed) {
			return nil
		}
		return pongo2.RegisterFilter(trimmed, filter)
	case func(input any, param any) (any, error):
		if pongo2.FilterExists(trimmed) {
			return nil
		}
		return pongo2.RegisterFilter(trimmed, wrapFilter(filter))
	}

	if !isCallable(fn) {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.templateSet.Globals == nil {
		e.templateSet.Globals = make(pongo2.Context)
	}
	e.templateSet.Globals[trimmed] = fn
	return nil
}

func (e *Engine) getTemplate(path string) (*Template, error) {
	e.mu.RLock()
	if tmpl, ok := e.templates[path]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.templates[path]; ok {
		return tmpl, nil
	}

	tmpl, err := e.templateSet.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: load template %q: %w", path, err)
	}

	compiled := &Template{engine: e, tmpl: tmpl, source: path}
	e.templates[path] = compiled
	return compiled, nil
}

// wrapFilter adapts a plain Go function into a pongo2 filter.
func wrapFilter(fn func(input any, param any) (any, error)) pongo2.FilterFunction {
	return func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var paramVal any
		if param != nil {
			paramVal = param.Interface()
		}
		result, err := fn(in.Interface(), paramVal)
		if err != nil {
			return nil, &pongo2.Error{Sender: "custom_filter", OrigError: err}
		}
		return pongo2.AsValue(result), nil
	}
}

type emptyFS struct{}

func (emptyFS) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

func isCallable(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.IsValid() && rv.Kind() == reflect.Func
}

func convertToContext(data any) (pongo2.Context, error) {
	switch v := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case pongo2.Context:
		return convertMapToContext(map[string]any(v))
	case map[string]any:
		return convertMapToContext(v)
	default:
		m, err := jsonToMap(v)
		if err != nil {
			return nil, err
		}
		return convertMapToContext(m)
	}
}

func convertMapToContext(in map[string]any) (pongo2.Context, error) {
	out := make(pongo2.Context, len(in))
	for key, value := range in {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return out, nil
}

// convertValue normalises values to JSON shapes so templates see maps and
// slices regardless of the Go types callers pass. Scalars pass through.
func convertValue(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if isCallable(value) {
		return value, nil
	}

	switch v := value.(type) {
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return v, nil
	case float32:
		return integral(float64(v)), nil
	case float64:
		return integral(v), nil
	case pongo2.Context:
		return convertMap(map[string]any(v))
	case map[string]any:
		return convertMap(v)
	case []any:
		return convertSlice(v)
	default:
		raw, err := jsonToAny(v)
		if err != nil {
			return nil, err
		}
		switch decoded := raw.(type) {
		case map[string]any:
			return convertMap(decoded)
		case []any:
			return convertSlice(decoded)
		case float64:
			return integral(decoded), nil
		default:
			return decoded, nil
		}
	}
}

// integral turns whole floats (as decoded from JSON) into ints so templates
// print 8 rather than 8.000000.
func integral(v float64) any {
	if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
		return int64(v)
	}
	return v
}

func convertMap(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for key, value := range in {
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return out, nil
}

func convertSlice(in []any) ([]any, error) {
	out := make([]any, 0, len(in))
	for _, value := range in {
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

func jsonToMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func jsonToAny(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func registerDefaultFilters() {
	if !pongo2.FilterExists("trim") {
		_ = pongo2.RegisterFilter("trim", filterTrim)
	}
	if !pongo2.FilterExists("lowerfirst") {
		_ = pongo2.RegisterFilter("lowerfirst", filterLowerFirst)
	}
}

func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

func filterLowerFirst(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.Len() <= 0 {
		return pongo2.AsValue(""), nil
	}
	t := in.String()

	var (
		firstNonWhitespaceIndex int
		firstRune               rune
		firstRuneSize           int
	)

	for i, r := range t {
		if !strings.ContainsRune(" \t\n\r", r) {
			firstNonWhitespaceIndex = i
			firstRune = r
			firstRuneSize = utf8.RuneLen(r)
			break
		}
	}

	if firstRune == 0 {
		return pongo2.AsValue(t), nil
	}

	prefix := t[:firstNonWhitespaceIndex]
	loweredRune := strings.ToLower(string(firstRune))
	rest := t[firstNonWhitespaceIndex+firstRuneSize:]

	return pongo2.AsValue(prefix + loweredRune + rest), nil
}
