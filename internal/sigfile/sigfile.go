// Package sigfile loads signature files: TOML documents declaring a target,
// struct and alias types, and the function signatures to lower.
package sigfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"rvabi/internal/layout"
	"rvabi/internal/types"
)

// DefaultTriple is used when a file has no [target] table.
const DefaultTriple = "riscv64-unknown-linux-gnu"

// File is a loaded signature file. Each File owns its interner and layout
// engine.
type File struct {
	Path   string
	Target layout.Target
	Types  *types.Interner
	Layout *layout.LayoutEngine
	Funcs  []Func
}

// Func is one declared function.
type Func struct {
	Name string
	Type types.TypeID
	// Varargs are the extra argument types of the analysed call site.
	Varargs []types.TypeID
}

// Info returns the function type metadata.
func (f *File) Info(fn Func) *types.FnInfo {
	info, ok := f.Types.FnInfo(fn.Type)
	if !ok {
		panic(fmt.Sprintf("sigfile: %s is not a function type", fn.Name))
	}
	return info
}

// Lookup returns the function declared under name.
func (f *File) Lookup(name string) (Func, bool) {
	for _, fn := range f.Funcs {
		if fn.Name == name {
			return fn, true
		}
	}
	return Func{}, false
}

type rawFile struct {
	Target  rawTarget   `toml:"target"`
	Structs []rawStruct `toml:"struct"`
	Aliases []rawAlias  `toml:"alias"`
	Funcs   []rawFunc   `toml:"func"`
}

type rawTarget struct {
	Triple        string `toml:"triple"`
	RealPrecision string `toml:"real_precision"`
}

type rawStruct struct {
	Name   string     `toml:"name"`
	Fields []rawField `toml:"fields"`
	POD    *bool      `toml:"pod"`
	Packed bool       `toml:"packed"`
	Align  int        `toml:"align"`
}

type rawField struct {
	Name  string `toml:"name"`
	Type  string `toml:"type"`
	Align int    `toml:"align"`
}

type rawAlias struct {
	Name   string `toml:"name"`
	Target string `toml:"target"`
}

type rawFunc struct {
	Name     string   `toml:"name"`
	Params   []string `toml:"params"`
	Result   string   `toml:"result"`
	Variadic bool     `toml:"variadic"`
	Varargs  []string `toml:"varargs"`
}

// Load reads and resolves the signature file at path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open signature file: %w", err)
	}
	defer f.Close()
	return Decode(path, f)
}

// Decode reads a signature file from r; path is used in error messages.
func Decode(path string, r io.Reader) (*File, error) {
	var raw rawFile
	meta, err := toml.NewDecoder(r).Decode(&raw)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	out, err := resolve(path, &raw, meta)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

func resolve(path string, raw *rawFile, meta toml.MetaData) (*File, error) {
	triple := DefaultTriple
	if meta.IsDefined("target") {
		if !meta.IsDefined("target", "triple") || strings.TrimSpace(raw.Target.Triple) == "" {
			return nil, errors.New("missing [target].triple")
		}
		triple = strings.TrimSpace(raw.Target.Triple)
	}
	precision, err := layout.ParseRealPrecision(raw.Target.RealPrecision)
	if err != nil {
		return nil, fmt.Errorf("[target].real_precision: %w", err)
	}
	target, err := layout.ParseTriple(triple, precision)
	if err != nil {
		return nil, fmt.Errorf("[target].triple: %w", err)
	}

	in := types.NewInterner()
	out := &File{Path: path, Target: target, Types: in, Layout: layout.New(target, in)}

	// names first so declarations may refer to each other in any order
	seen := make(map[string]string)
	declare := func(kind, name string) error {
		if !isIdent(name) {
			return fmt.Errorf("%s has invalid name %q", kind, name)
		}
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("%s %s already declared as %s", kind, name, prev)
		}
		if _, err := parseName(in, name); err == nil {
			return fmt.Errorf("%s %s redeclares a type", kind, name)
		}
		seen[name] = kind
		return nil
	}
	structIDs := make([]types.TypeID, len(raw.Structs))
	for i, s := range raw.Structs {
		if err := declare("struct", s.Name); err != nil {
			return nil, err
		}
		structIDs[i] = in.RegisterStruct(s.Name)
	}
	aliasIDs := make([]types.TypeID, len(raw.Aliases))
	for i, a := range raw.Aliases {
		if err := declare("alias", a.Name); err != nil {
			return nil, err
		}
		aliasIDs[i] = in.RegisterAlias(a.Name)
	}

	for i, a := range raw.Aliases {
		aliased, err := ParseType(in, a.Target)
		if err != nil {
			return nil, fmt.Errorf("alias %s: %w", a.Name, err)
		}
		in.SetAliasTarget(aliasIDs[i], aliased)
	}
	for _, id := range aliasIDs {
		if _, tt := in.Base(id); tt.Kind == types.KindAlias {
			return nil, fmt.Errorf("alias %s: cycle", types.Label(in, id))
		}
	}

	for i, s := range raw.Structs {
		if err := defineStruct(in, structIDs[i], s); err != nil {
			return nil, fmt.Errorf("struct %s: %w", s.Name, err)
		}
	}
	for _, id := range structIDs {
		if _, err := out.Layout.LayoutOf(id); err != nil {
			return nil, fmt.Errorf("struct %s: %w", types.Label(in, id), err)
		}
	}

	names := make(map[string]struct{}, len(raw.Funcs))
	for _, f := range raw.Funcs {
		if _, dup := names[f.Name]; dup {
			return nil, fmt.Errorf("func %s declared twice", f.Name)
		}
		names[f.Name] = struct{}{}
		fn, err := defineFunc(out, f)
		if err != nil {
			return nil, fmt.Errorf("func %s: %w", f.Name, err)
		}
		out.Funcs = append(out.Funcs, fn)
	}
	return out, nil
}

func defineStruct(in *types.Interner, id types.TypeID, s rawStruct) error {
	fields := make([]types.StructField, len(s.Fields))
	for i, f := range s.Fields {
		ft, err := ParseType(in, f.Type)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		if _, tt := in.Base(ft); tt.Kind == types.KindVoid {
			return fmt.Errorf("field %s: void has no values", f.Name)
		}
		fields[i] = types.StructField{Name: f.Name, Type: ft}
		if f.Align != 0 {
			if err := checkAlign(f.Align); err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
			fields[i].Layout.AlignOverride = types.Align(f.Align)
		}
	}
	in.SetStructFields(id, fields)
	if s.POD != nil && !*s.POD {
		in.SetStructNonPOD(id, true)
	}
	attrs := types.LayoutAttrs{Packed: s.Packed}
	if s.Align != 0 {
		if err := checkAlign(s.Align); err != nil {
			return err
		}
		attrs.AlignOverride = types.Align(s.Align)
	}
	return in.SetTypeLayoutAttrs(id, attrs)
}

func checkAlign(n int) error {
	if n <= 0 || n&(n-1) != 0 {
		return fmt.Errorf("align(%d) is not a positive power of two", n)
	}
	return nil
}

func defineFunc(file *File, f rawFunc) (Func, error) {
	if !isIdent(f.Name) {
		return Func{}, fmt.Errorf("invalid name %q", f.Name)
	}
	in := file.Types
	info := types.FnInfo{CVariadic: f.Variadic, Result: in.Builtins().Void}
	for i, p := range f.Params {
		param, err := parseParam(in, p)
		if err == nil {
			err = file.checkLayout(param.Type)
		}
		if err != nil {
			return Func{}, fmt.Errorf("param %d: %w", i, err)
		}
		info.Params = append(info.Params, param)
	}
	if res := strings.TrimSpace(f.Result); res != "" {
		if rest, ok := strings.CutPrefix(res, "ref "); ok {
			res = rest
			info.RefResult = true
		}
		rt, err := ParseType(in, res)
		if err == nil {
			err = file.checkLayout(rt)
		}
		if err != nil {
			return Func{}, fmt.Errorf("result: %w", err)
		}
		info.Result = rt
	}
	if len(f.Varargs) > 0 && !f.Variadic {
		return Func{}, errors.New("varargs given but variadic is false")
	}
	fn := Func{Name: f.Name, Type: in.RegisterFn(info)}
	for i, v := range f.Varargs {
		vt, err := parseValueType(in, v, 0)
		if err == nil {
			err = file.checkLayout(vt)
		}
		if err != nil {
			return Func{}, fmt.Errorf("vararg %d: %w", i, err)
		}
		fn.Varargs = append(fn.Varargs, vt)
	}
	return fn, nil
}

// checkLayout rejects types the layout engine cannot size.
func (f *File) checkLayout(id types.TypeID) error {
	if _, err := f.Layout.LayoutOf(id); err != nil {
		return err
	}
	return nil
}

func parseParam(in *types.Interner, s string) (types.Param, error) {
	s = strings.TrimSpace(s)
	ref := false
	if rest, ok := strings.CutPrefix(s, "ref "); ok {
		s, ref = rest, true
	}
	id, err := ParseType(in, s)
	if err != nil {
		return types.Param{}, err
	}
	if _, tt := in.Base(id); tt.Kind == types.KindVoid {
		return types.Param{}, fmt.Errorf("void parameter")
	}
	return types.Param{Type: id, Ref: ref}, nil
}
