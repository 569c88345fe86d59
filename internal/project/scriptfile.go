package project

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// ScriptFile is the on-disk description of one or more script units: their
// declarations, already split by an earlier parser, and their body
// expressions.
type ScriptFile struct {
	Path    string         `toml:"-" yaml:"-"`
	Digest  Digest         `toml:"-" yaml:"-"`
	Scripts []ScriptSource `toml:"script" yaml:"script"`
}

type ScriptSource struct {
	Name  string       `toml:"name" yaml:"name"`
	Decls []DeclSource `toml:"decl" yaml:"decl"`
	Body  *ExprSource  `toml:"body" yaml:"body"`
}

// DeclSource is one top-level declaration.
//
//	kind      val | var | fun
//	type      written annotation, omitted when absent
//	body      block | expr | none (functions only)
type DeclSource struct {
	Kind      string      `toml:"kind" yaml:"kind"`
	Name      string      `toml:"name" yaml:"name"`
	Type      string      `toml:"type" yaml:"type"`
	Init      *ExprSource `toml:"init" yaml:"init"`
	Body      string      `toml:"body" yaml:"body"`
	BodyExpr  *ExprSource `toml:"body_expr" yaml:"body_expr"`
	Modifiers []string    `toml:"modifiers" yaml:"modifiers"`
}

// ExprSource is an expression tree.
//
//	kind  int | string | bool | unit | name | call | block
type ExprSource struct {
	Kind  string       `toml:"kind" yaml:"kind"`
	Value string       `toml:"value" yaml:"value"`
	Name  string       `toml:"name" yaml:"name"`
	Args  []ExprSource `toml:"args" yaml:"args"`
	Stmts []ExprSource `toml:"stmts" yaml:"stmts"`
	Tail  *ExprSource  `toml:"tail" yaml:"tail"`
}

var (
	declKinds = map[string]bool{"val": true, "var": true, "fun": true}
	bodyKinds = map[string]bool{"": true, "block": true, "expr": true, "none": true}
	exprKinds = map[string]bool{"int": true, "string": true, "bool": true, "unit": true, "name": true, "call": true, "block": true}
	modifiers = map[string]bool{
		"public": true, "internal": true, "private": true,
		"final": true, "open": true, "abstract": true, "override": true,
	}
)

// LoadScriptFile reads a .toml, .yaml or .yml script file.
func LoadScriptFile(path string) (*ScriptFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseScriptFile(path, content)
}

// ParseScriptFile decodes content according to the extension of path.
func ParseScriptFile(path string, content []byte) (*ScriptFile, error) {
	file := &ScriptFile{Path: path, Digest: Sum(content)}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.NewDecoder(bytes.NewReader(content)).Decode(file)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(content))
		dec.KnownFields(true)
		if err := dec.Decode(file); err != nil {
			return nil, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported script file extension", path)
	}
	file.normalize()
	if err := file.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// normalize puts identifiers into NFC so visually equal names intern to the
// same ID.
func (f *ScriptFile) normalize() {
	for i := range f.Scripts {
		s := &f.Scripts[i]
		s.Name = norm.NFC.String(strings.TrimSpace(s.Name))
		for j := range s.Decls {
			d := &s.Decls[j]
			d.Kind = strings.ToLower(strings.TrimSpace(d.Kind))
			d.Name = norm.NFC.String(strings.TrimSpace(d.Name))
			d.Type = norm.NFC.String(strings.TrimSpace(d.Type))
			d.Body = strings.ToLower(strings.TrimSpace(d.Body))
			for k := range d.Modifiers {
				d.Modifiers[k] = strings.ToLower(strings.TrimSpace(d.Modifiers[k]))
			}
			d.Init.normalize()
			d.BodyExpr.normalize()
		}
		s.Body.normalize()
	}
}

func (e *ExprSource) normalize() {
	if e == nil {
		return
	}
	e.Kind = strings.ToLower(strings.TrimSpace(e.Kind))
	e.Name = norm.NFC.String(strings.TrimSpace(e.Name))
	for i := range e.Args {
		e.Args[i].normalize()
	}
	for i := range e.Stmts {
		e.Stmts[i].normalize()
	}
	e.Tail.normalize()
}

func (f *ScriptFile) validate() error {
	if len(f.Scripts) == 0 {
		return fmt.Errorf("no [[script]] entries")
	}
	names := make(map[string]bool, len(f.Scripts))
	for i := range f.Scripts {
		s := &f.Scripts[i]
		if s.Name == "" {
			return fmt.Errorf("script #%d has no name", i+1)
		}
		if names[s.Name] {
			return fmt.Errorf("duplicate script %q", s.Name)
		}
		names[s.Name] = true
		if s.Body == nil {
			return fmt.Errorf("script %q has no body", s.Name)
		}
		if err := s.Body.validate(); err != nil {
			return fmt.Errorf("script %q body: %w", s.Name, err)
		}
		for j := range s.Decls {
			if err := s.Decls[j].validate(); err != nil {
				return fmt.Errorf("script %q decl #%d: %w", s.Name, j+1, err)
			}
		}
	}
	return nil
}

func (d *DeclSource) validate() error {
	if !declKinds[d.Kind] {
		return fmt.Errorf("unknown declaration kind %q", d.Kind)
	}
	if d.Name == "" {
		return fmt.Errorf("%s without a name", d.Kind)
	}
	if d.Kind == "fun" {
		if !bodyKinds[d.Body] {
			return fmt.Errorf("%s: unknown body kind %q", d.Name, d.Body)
		}
		if d.Init != nil {
			return fmt.Errorf("%s: functions have no initializer", d.Name)
		}
		if d.Body == "expr" && d.BodyExpr == nil {
			return fmt.Errorf("%s: expression body missing body_expr", d.Name)
		}
	} else if d.Body != "" || d.BodyExpr != nil {
		return fmt.Errorf("%s: properties have no body", d.Name)
	}
	for _, m := range d.Modifiers {
		if !modifiers[m] {
			return fmt.Errorf("%s: unknown modifier %q", d.Name, m)
		}
	}
	if err := d.Init.validate(); err != nil {
		return fmt.Errorf("%s init: %w", d.Name, err)
	}
	if err := d.BodyExpr.validate(); err != nil {
		return fmt.Errorf("%s body: %w", d.Name, err)
	}
	return nil
}

func (e *ExprSource) validate() error {
	if e == nil {
		return nil
	}
	if !exprKinds[e.Kind] {
		return fmt.Errorf("unknown expression kind %q", e.Kind)
	}
	if (e.Kind == "name" || e.Kind == "call") && e.Name == "" {
		return fmt.Errorf("%s expression without a name", e.Kind)
	}
	for i := range e.Args {
		if err := e.Args[i].validate(); err != nil {
			return err
		}
	}
	for i := range e.Stmts {
		if err := e.Stmts[i].validate(); err != nil {
			return err
		}
	}
	return e.Tail.validate()
}
