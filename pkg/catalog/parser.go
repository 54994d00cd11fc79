package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
	"github.com/zeebo/blake3"

	"github.com/goliatone/go-formmessages/pkg/messages"
	"github.com/goliatone/go-formmessages/pkg/render/template"
	"github.com/goliatone/go-formmessages/pkg/render/template/gotemplate"
)

// ErrNoMessages is returned when a body declares no message entries.
var ErrNoMessages = errors.New("catalog: template declares no messages")

// ErrFileTemplate is returned when a downloaded catalog names a template
// file, or a declaration names one and the local engine cannot load files.
var ErrFileTemplate = errors.New("catalog: file templates are not available")

// Declaration is an inline message declared at the point of use. File names
// a template in the local template directory and takes precedence over
// Template.
type Declaration struct {
	Key      string
	Template string
	File     string
}

// Declare builds an inline declaration.
func Declare(key, template string) Declaration {
	return Declaration{Key: key, Template: template}
}

// DeclareFile builds an inline declaration rendered from a template file.
func DeclareFile(key, name string) Declaration {
	return Declaration{Key: key, File: name}
}

// Option customises a Parser.
type Option func(*Parser)

// WithAttribute overrides the markup attribute naming the condition key.
func WithAttribute(name string) Option {
	return func(p *Parser) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			p.attribute = trimmed
		}
	}
}

// WithPolicy replaces the sanitizer applied to rendered remote messages.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(p *Parser) {
		p.policy = policy
	}
}

// WithRemoteEngine sets the engine downloaded templates compile against.
func WithRemoteEngine(engine template.Compiler) Option {
	return func(p *Parser) {
		p.remote = engine
	}
}

// WithLocalEngine sets the engine inline declarations compile against. The
// template directory, filter and global options below only configure the
// default local engine.
func WithLocalEngine(engine template.Compiler) Option {
	return func(p *Parser) {
		p.local = engine
	}
}

// WithTemplateDir lets inline declarations name template files under dir.
func WithTemplateDir(dir string) Option {
	return func(p *Parser) {
		if trimmed := strings.TrimSpace(dir); trimmed != "" {
			p.localOptions = append(p.localOptions, gotemplate.WithBaseDir(trimmed))
		}
	}
}

// WithTemplateFS lets inline declarations name template files in files.
func WithTemplateFS(files fs.FS) Option {
	return func(p *Parser) {
		if files != nil {
			p.localOptions = append(p.localOptions, gotemplate.WithFS(files))
		}
	}
}

// WithTemplateExtension sets the extension appended to template file names.
func WithTemplateExtension(ext string) Option {
	return func(p *Parser) {
		p.localOptions = append(p.localOptions, gotemplate.WithExtension(ext))
	}
}

// WithFilters registers filters and helper functions for inline templates.
// See gotemplate.WithTemplateFunc for the accepted shapes.
func WithFilters(funcs map[string]any) Option {
	return func(p *Parser) {
		p.localOptions = append(p.localOptions, gotemplate.WithTemplateFunc(funcs))
	}
}

// WithGlobals seeds values visible to every inline template.
func WithGlobals(data map[string]any) Option {
	return func(p *Parser) {
		p.localOptions = append(p.localOptions, gotemplate.WithGlobalData(data))
	}
}

// WithLogger injects a logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

type digest [32]byte

// Parser compiles template bodies and inline declarations into entry lists.
// It is safe for concurrent use.
type Parser struct {
	attribute string
	policy    *bluemonday.Policy
	remote    template.Compiler
	local     template.Compiler
	logger    logrus.FieldLogger

	localOptions []gotemplate.Option

	mu   sync.Mutex
	memo map[digest]messages.EntryList
}

// NewParser constructs a Parser. Downloaded templates compile against an
// engine with file access tags banned and their output is sanitized with the
// bluemonday UGC policy.
func NewParser(options ...Option) (*Parser, error) {
	p := &Parser{
		attribute: DefaultAttribute,
		memo:      make(map[digest]messages.EntryList),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}

	if p.remote == nil {
		engine, err := gotemplate.New(
			gotemplate.WithName("formmessages-remote"),
			gotemplate.WithBannedTags(gotemplate.FileAccessTags...),
		)
		if err != nil {
			return nil, fmt.Errorf("catalog: remote engine: %w", err)
		}
		p.remote = engine
	}
	if p.local == nil {
		engine, err := gotemplate.New(append([]gotemplate.Option{gotemplate.WithName("formmessages-local")}, p.localOptions...)...)
		if err != nil {
			return nil, fmt.Errorf("catalog: local engine: %w", err)
		}
		p.local = engine
	}
	if p.policy == nil {
		p.policy = bluemonday.UGCPolicy()
	}
	if p.logger == nil {
		p.logger = logrus.StandardLogger()
	}
	return p, nil
}

// MustNewParser is NewParser for package-level defaults. It panics on error.
func MustNewParser(options ...Option) *Parser {
	p, err := NewParser(options...)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse converts a downloaded template body into a remote entry list. Calls
// with the same identifier and body return the same list.
func (p *Parser) Parse(id string, body []byte) (messages.EntryList, error) {
	key := digestOf(id, body)

	p.mu.Lock()
	if list, ok := p.memo[key]; ok {
		p.mu.Unlock()
		return list, nil
	}
	p.mu.Unlock()

	doc, err := parseDocument(body, p.attribute)
	if err != nil {
		return nil, fmt.Errorf("catalog: template %q: %w", id, err)
	}

	entries := make([]*messages.Entry, 0, len(doc.Messages))
	for _, msg := range doc.Messages {
		if msg.On == "" {
			continue
		}
		if msg.File != "" {
			return nil, fmt.Errorf("catalog: template %q message %q: %w", id, msg.On, ErrFileTemplate)
		}
		compiled, err := p.remote.Compile(msg.Template)
		if err != nil {
			return nil, fmt.Errorf("catalog: template %q message %q: %w", id, msg.On, err)
		}
		entries = append(entries, &messages.Entry{
			Key:      msg.On,
			Renderer: &compiledRenderer{compiled: compiled, sanitize: p.policy.Sanitize},
		})
	}
	list := messages.NewEntryList(messages.OriginRemote, id, entries...)
	if len(list) == 0 {
		return nil, fmt.Errorf("catalog: template %q: %w", id, ErrNoMessages)
	}

	p.mu.Lock()
	if existing, ok := p.memo[key]; ok {
		list = existing
	} else {
		p.memo[key] = list
	}
	p.mu.Unlock()

	p.logger.WithFields(logrus.Fields{"template": id, "entries": len(list)}).Debug("catalog: parsed template")
	return list, nil
}

// Local compiles inline declarations into a local entry list. Inline
// templates are trusted and rendered without sanitizing.
func (p *Parser) Local(decls ...Declaration) (messages.EntryList, error) {
	entries := make([]*messages.Entry, 0, len(decls))
	for _, decl := range decls {
		key := strings.TrimSpace(decl.Key)
		if key == "" {
			continue
		}
		compiled, err := p.compileLocal(decl)
		if err != nil {
			return nil, fmt.Errorf("catalog: inline message %q: %w", key, err)
		}
		entries = append(entries, &messages.Entry{
			Key:      key,
			Renderer: &compiledRenderer{compiled: compiled},
		})
	}
	return messages.NewEntryList(messages.OriginLocal, "", entries...), nil
}

func (p *Parser) compileLocal(decl Declaration) (template.Compiled, error) {
	name := strings.TrimSpace(decl.File)
	if name == "" {
		return p.local.Compile(decl.Template)
	}
	files, ok := p.local.(template.FileCompiler)
	if !ok {
		return nil, ErrFileTemplate
	}
	return files.CompileFile(name)
}

// Forget drops every memoized parse.
func (p *Parser) Forget() {
	p.mu.Lock()
	p.memo = make(map[digest]messages.EntryList)
	p.mu.Unlock()
}

func digestOf(id string, body []byte) digest {
	h := blake3.New()
	_, _ = h.Write([]byte(id))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(body)

	var out digest
	copy(out[:], h.Sum(nil))
	return out
}

type compiledRenderer struct {
	compiled template.Compiled
	sanitize func(string) string
}

func (r *compiledRenderer) Render(data messages.RenderData) (string, error) {
	out, err := r.compiled.Execute(map[string]any{
		"key":     data.Key,
		"control": data.Control,
	})
	if err != nil {
		return "", fmt.Errorf("catalog: render %q: %w", data.Key, err)
	}
	out = strings.TrimSpace(out)
	if r.sanitize != nil {
		out = r.sanitize(out)
	}
	return out, nil
}
