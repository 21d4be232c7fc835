// Package config declares the flat key/value option surface, loads it from
// TOML files, and validates every value at startup. Option keys use "." as
// the path separator; a config file is the nested form of the same keys.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Kind is the expected type of an option value.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	}
	return "unknown"
}

// Condition is a named validation predicate attached to an option.
type Condition struct {
	Check   func(value any) bool
	Message string
}

// Option is one declared configuration key.
type Option struct {
	Kind       Kind
	Default    any
	Conditions []Condition
}

func (o Option) check(value any) error {
	if !o.matches(value) {
		return fmt.Errorf("value %v does not match kind %s", value, o.Kind)
	}
	for _, cond := range o.Conditions {
		if !cond.Check(value) {
			return errors.New(cond.Message)
		}
	}
	return nil
}

func (o Option) matches(value any) bool {
	switch o.Kind {
	case KindBool:
		_, ok := value.(bool)
		return ok
	case KindInt:
		_, ok := value.(int)
		return ok
	case KindFloat:
		_, ok := value.(float64)
		return ok
	case KindString:
		_, ok := value.(string)
		return ok
	}
	return false
}

// Style is one named entry of the styles table: either a foreground plus
// background pair, or an alias for another style.
type Style struct {
	FG    string
	BG    string
	Alias string
}

// Registry declares the full option surface: flat keys with kinds, defaults
// and validators, plus which keys name styles.
type Registry struct {
	names     []string
	options   map[string]Option
	styleKeys map[string]bool

	defaultStyles map[string]Style
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		options:       make(map[string]Option),
		styleKeys:     make(map[string]bool),
		defaultStyles: make(map[string]Style),
	}
}

// Add declares an option.
func (r *Registry) Add(name string, kind Kind, def any, conds ...Condition) {
	if _, ok := r.options[name]; !ok {
		r.names = append(r.names, name)
	}
	r.options[name] = Option{Kind: kind, Default: def, Conditions: conds}
}

// AddStyle declares a string option whose value must name an entry of the
// styles table.
func (r *Registry) AddStyle(name, def string) {
	r.Add(name, KindString, def)
	r.styleKeys[name] = true
}

// AddDefaultStyle declares a built-in entry of the styles table. Config
// files may override or extend these.
func (r *Registry) AddDefaultStyle(name string, style Style) {
	r.defaultStyles[name] = style
}

// Config is a validated set of option values plus the merged styles table.
type Config struct {
	values map[string]any
	styles map[string]Style
}

// Defaults returns a Config holding every option's default value.
func (r *Registry) Defaults() *Config {
	cfg := &Config{
		values: make(map[string]any, len(r.options)),
		styles: make(map[string]Style, len(r.defaultStyles)),
	}
	for name, opt := range r.options {
		cfg.values[name] = opt.Default
	}
	for name, style := range r.defaultStyles {
		cfg.styles[name] = style
	}
	return cfg
}

// Load reads the TOML file at path and overlays it onto the defaults.
// Unknown keys, kind mismatches, failed validators and unresolvable style
// references are collected and returned joined.
func (r *Registry) Load(path string) (*Config, error) {
	var tree map[string]any
	if _, err := toml.DecodeFile(path, &tree); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return r.load(tree)
}

func (r *Registry) load(tree map[string]any) (*Config, error) {
	cfg := r.Defaults()
	var errs []error

	styles, rest, err := splitStyles(tree)
	if err != nil {
		errs = append(errs, err)
	}
	for name, style := range styles {
		cfg.styles[name] = style
	}

	flat := flatten(rest)
	for _, key := range sortedKeys(flat) {
		opt, ok := r.options[key]
		if !ok {
			errs = append(errs, fmt.Errorf("%s: unrecognized option", key))
			continue
		}
		value := normalize(flat[key])
		if err := opt.check(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		cfg.values[key] = value
	}

	errs = append(errs, r.checkStyleRefs(cfg)...)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// checkStyleRefs verifies that every style-valued option resolves, aliases
// included, without cycles.
func (r *Registry) checkStyleRefs(cfg *Config) []error {
	var errs []error
	for _, key := range r.names {
		if !r.styleKeys[key] {
			continue
		}
		name, _ := cfg.values[key].(string)
		if err := resolveStyle(cfg.styles, name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	return errs
}

func resolveStyle(styles map[string]Style, name string) error {
	seen := make(map[string]bool)
	for {
		if seen[name] {
			return fmt.Errorf("style %q is an alias cycle", name)
		}
		seen[name] = true
		style, ok := styles[name]
		if !ok {
			return fmt.Errorf("style %q is not declared in the styles table", name)
		}
		if style.Alias == "" {
			return nil
		}
		name = style.Alias
	}
}

// ExportDefaults writes the default configuration, styles table included,
// as TOML to path.
func (r *Registry) ExportDefaults(path string) error {
	tree := make(map[string]any)
	for name, opt := range r.options {
		insert(tree, name, opt.Default)
	}

	styles := make(map[string]any, len(r.defaultStyles))
	for name, style := range r.defaultStyles {
		entry := make(map[string]any)
		if style.Alias != "" {
			entry["alias"] = style.Alias
		} else {
			if style.FG != "" {
				entry["fg"] = style.FG
			}
			if style.BG != "" {
				entry["bg"] = style.BG
			}
		}
		styles[name] = entry
	}
	tree["styles"] = styles

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(tree)
}

// Bool returns a bool option's value.
func (c *Config) Bool(name string) bool {
	v, _ := c.values[name].(bool)
	return v
}

// Int returns an int option's value.
func (c *Config) Int(name string) int {
	v, _ := c.values[name].(int)
	return v
}

// Float returns a float option's value.
func (c *Config) Float(name string) float64 {
	v, _ := c.values[name].(float64)
	return v
}

// Str returns a string option's value.
func (c *Config) Str(name string) string {
	v, _ := c.values[name].(string)
	return v
}

// Styles returns the merged styles table.
func (c *Config) Styles() map[string]Style {
	out := make(map[string]Style, len(c.styles))
	for name, style := range c.styles {
		out[name] = style
	}
	return out
}

// ResolveStyle follows aliases to the concrete style named by name. Unknown
// names resolve to the zero style; Load already rejected dangling
// references on declared options.
func (c *Config) ResolveStyle(name string) Style {
	seen := make(map[string]bool)
	for {
		if seen[name] {
			return Style{}
		}
		seen[name] = true
		style, ok := c.styles[name]
		if !ok {
			return Style{}
		}
		if style.Alias == "" {
			return style
		}
		name = style.Alias
	}
}

// Tree helpers

// splitStyles extracts and validates the "styles" table from the decoded
// tree, returning the remaining tree untouched.
func splitStyles(tree map[string]any) (map[string]Style, map[string]any, error) {
	raw, ok := tree["styles"]
	if !ok {
		return nil, tree, nil
	}

	rest := make(map[string]any, len(tree)-1)
	for k, v := range tree {
		if k != "styles" {
			rest[k] = v
		}
	}

	table, ok := raw.(map[string]any)
	if !ok {
		return nil, rest, errors.New("styles: must be a table")
	}

	styles := make(map[string]Style, len(table))
	for name, entry := range table {
		fields, ok := entry.(map[string]any)
		if !ok {
			return nil, rest, fmt.Errorf("styles.%s: must be a table", name)
		}
		var style Style
		for field, value := range fields {
			text, ok := value.(string)
			if !ok {
				return nil, rest, fmt.Errorf("styles.%s.%s: must be a string", name, field)
			}
			switch field {
			case "fg":
				style.FG = text
			case "bg":
				style.BG = text
			case "alias":
				style.Alias = text
			default:
				return nil, rest, fmt.Errorf("styles.%s.%s: unrecognized field", name, field)
			}
		}
		if style.Alias != "" && (style.FG != "" || style.BG != "") {
			return nil, rest, fmt.Errorf("styles.%s: alias excludes fg/bg", name)
		}
		styles[name] = style
	}
	return styles, rest, nil
}

// flatten turns a nested tree into "a.b.c" keys.
func flatten(tree map[string]any) map[string]any {
	flat := make(map[string]any)
	var walk func(prefix string, node map[string]any)
	walk = func(prefix string, node map[string]any) {
		for key, value := range node {
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			if sub, ok := value.(map[string]any); ok {
				walk(path, sub)
				continue
			}
			flat[path] = value
		}
	}
	walk("", tree)
	return flat
}

// insert places value into tree at the "."-separated path.
func insert(tree map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	node := tree
	for _, part := range parts[:len(parts)-1] {
		sub, ok := node[part].(map[string]any)
		if !ok {
			sub = make(map[string]any)
			node[part] = sub
		}
		node = sub
	}
	node[parts[len(parts)-1]] = value
}

// normalize converts TOML decode types to option value types.
func normalize(value any) any {
	if v, ok := value.(int64); ok {
		return int(v)
	}
	return value
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
