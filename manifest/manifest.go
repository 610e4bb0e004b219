package manifest

import (
	"io"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/bindkit"
	"github.com/wippyai/bindkit/errors"
)

// validate is a package-level singleton; constructing a validator per
// call is expensive.
var validate = validator.New()

// Manifest is a declarative description of a binding set.
type Manifest struct {
	Version   int        `yaml:"version"   json:"version"   validate:"required,eq=1" jsonschema:"enum=1"`
	Types     []TypeDecl `yaml:"types"     json:"types"     validate:"dive"`
	Rules     []RuleDecl `yaml:"rules"     json:"rules,omitempty"     validate:"dive"`
	Functions []FuncDecl `yaml:"functions" json:"functions,omitempty" validate:"dive"`
}

// TypeDecl declares one exposed type.
type TypeDecl struct {
	Name         string            `yaml:"name"         json:"name"         validate:"required"`
	Strategy     string            `yaml:"strategy"     json:"strategy"     validate:"required,oneof=raw_owned ref_counted shared_external" jsonschema:"enum=raw_owned,enum=ref_counted,enum=shared_external"`
	Prototype    string            `yaml:"prototype"    json:"prototype"    validate:"required"`
	Base         string            `yaml:"base"         json:"base,omitempty"`
	Constructors []string          `yaml:"constructors" json:"constructors,omitempty"`
	Methods      map[string]string `yaml:"methods"      json:"methods,omitempty"`
}

// RuleDecl declares one directed conversion rule.
type RuleDecl struct {
	Source    string `yaml:"source"    json:"source"    validate:"required"`
	Target    string `yaml:"target"    json:"target"    validate:"required"`
	Converter string `yaml:"converter" json:"converter" validate:"required"`
}

// FuncDecl declares one function to expose through the adapter.
type FuncDecl struct {
	Name   string      `yaml:"name"   json:"name"   validate:"required"`
	Func   string      `yaml:"func"   json:"func"   validate:"required"`
	Params []ParamDecl `yaml:"params" json:"params,omitempty" validate:"dive"`
}

// ParamDecl names the exposed type of a handle-typed parameter.
type ParamDecl struct {
	Index int    `yaml:"index" json:"index" validate:"gte=0"`
	Type  string `yaml:"type"  json:"type"  validate:"required"`
}

// strategies maps manifest strategy names to their runtime values.
var strategies = map[string]bindkit.Strategy{
	"raw_owned":       bindkit.RawOwned,
	"ref_counted":     bindkit.RefCounted,
	"shared_external": bindkit.SharedExternal,
}

// Parse reads a YAML manifest and validates its structure.
func Parse(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.New(errors.PhaseManifest, errors.KindInvalidInput).
			Cause(err).
			Detail("read manifest").
			Build()
	}
	return ParseBytes(data)
}

// ParseBytes parses and validates a YAML manifest held in memory.
func ParseBytes(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.New(errors.PhaseManifest, errors.KindInvalidInput).
			Cause(err).
			Detail("decode manifest YAML").
			Build()
	}
	if err := validate.Struct(&m); err != nil {
		return nil, errors.New(errors.PhaseManifest, errors.KindInvalidInput).
			Cause(err).
			Detail("manifest failed validation").
			Build()
	}
	return &m, nil
}
