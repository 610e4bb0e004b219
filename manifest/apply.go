package manifest

import (
	"fmt"

	"github.com/wippyai/bindkit/call"
	"github.com/wippyai/bindkit/errors"
	"github.com/wippyai/bindkit/registry"
)

// Env resolves the manifest's symbolic names to Go entities. Every
// name a manifest uses must be present; a missing name fails Apply
// before the offending declaration is registered.
type Env struct {
	// Prototypes maps prototype names to representative values of the
	// Go representation, typically typed nil pointers: (*num)(nil).
	Prototypes map[string]any
	// Funcs maps names to constructors, methods, and exposed functions.
	Funcs map[string]any
	// Converters maps names to conversion rule implementations.
	Converters map[string]registry.ConvertFunc
}

func (e Env) prototype(name string) (any, error) {
	p, ok := e.Prototypes[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseManifest, "prototype", name)
	}
	return p, nil
}

func (e Env) fn(name string) (any, error) {
	f, ok := e.Funcs[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseManifest, "func", name)
	}
	return f, nil
}

func (e Env) converter(name string) (registry.ConvertFunc, error) {
	c, ok := e.Converters[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseManifest, "converter", name)
	}
	return c, nil
}

// Apply registers the manifest's types, rules, and functions. Every
// environment name the manifest references is resolved up front, so a
// missing name fails before anything is registered. Types register in
// declaration order, so a base type must be declared before its
// subtypes. Apply does not freeze the registry; callers freeze once
// all manifests are applied.
func Apply(m *Manifest, reg *registry.Registry, adapter *call.Adapter, env Env) error {
	if err := preflight(m, env); err != nil {
		return err
	}
	for i, td := range m.Types {
		if err := applyType(td, reg, env); err != nil {
			return annotate(err, "types", fmt.Sprint(i), td.Name)
		}
	}
	for i, rd := range m.Rules {
		if err := applyRule(rd, reg, env); err != nil {
			return annotate(err, "rules", fmt.Sprint(i))
		}
	}
	for i, fd := range m.Functions {
		if err := applyFunc(fd, adapter, env); err != nil {
			return annotate(err, "functions", fmt.Sprint(i), fd.Name)
		}
	}
	return nil
}

// preflight resolves every Env name the manifest mentions without
// touching the registry or adapter.
func preflight(m *Manifest, env Env) error {
	for i, td := range m.Types {
		if _, err := env.prototype(td.Prototype); err != nil {
			return annotate(err, "types", fmt.Sprint(i), td.Name)
		}
		for _, cname := range td.Constructors {
			if _, err := env.fn(cname); err != nil {
				return annotate(err, "types", fmt.Sprint(i), td.Name)
			}
		}
		for _, fname := range td.Methods {
			if _, err := env.fn(fname); err != nil {
				return annotate(err, "types", fmt.Sprint(i), td.Name)
			}
		}
	}
	for i, rd := range m.Rules {
		if _, err := env.converter(rd.Converter); err != nil {
			return annotate(err, "rules", fmt.Sprint(i))
		}
	}
	for i, fd := range m.Functions {
		if _, err := env.fn(fd.Func); err != nil {
			return annotate(err, "functions", fmt.Sprint(i), fd.Name)
		}
	}
	return nil
}

func applyType(td TypeDecl, reg *registry.Registry, env Env) error {
	proto, err := env.prototype(td.Prototype)
	if err != nil {
		return err
	}

	opts := make([]registry.Option, 0, 2+len(td.Constructors)+len(td.Methods))
	if td.Base != "" {
		base, err := reg.Resolve(td.Base)
		if err != nil {
			return err
		}
		opts = append(opts, registry.WithBase(base))
	}
	for _, cname := range td.Constructors {
		ctor, err := env.fn(cname)
		if err != nil {
			return err
		}
		opts = append(opts, registry.WithConstructor(ctor))
	}
	for mname, fname := range td.Methods {
		method, err := env.fn(fname)
		if err != nil {
			return err
		}
		opts = append(opts, registry.WithMethod(mname, method))
	}

	_, err = reg.RegisterPrototype(td.Name, strategies[td.Strategy], proto, opts...)
	return err
}

func applyRule(rd RuleDecl, reg *registry.Registry, env Env) error {
	src, err := reg.Resolve(rd.Source)
	if err != nil {
		return err
	}
	dst, err := reg.Resolve(rd.Target)
	if err != nil {
		return err
	}
	conv, err := env.converter(rd.Converter)
	if err != nil {
		return err
	}
	return reg.Rules().Register(src.ID, dst.ID, conv)
}

func applyFunc(fd FuncDecl, adapter *call.Adapter, env Env) error {
	fn, err := env.fn(fd.Func)
	if err != nil {
		return err
	}
	opts := make([]call.FuncOption, 0, len(fd.Params))
	for _, p := range fd.Params {
		opts = append(opts, call.WithParamType(p.Index, p.Type))
	}
	return adapter.RegisterFunc(fd.Name, fn, opts...)
}

// annotate prefixes the manifest path onto structured errors so a
// failing declaration is addressable in the source document.
func annotate(err error, path ...string) error {
	if e, ok := err.(*errors.Error); ok {
		e.Path = append(path, e.Path...)
		return e
	}
	return err
}
