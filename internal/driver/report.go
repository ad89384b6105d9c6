package driver

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"rvabi/internal/abi"
	"rvabi/internal/observ"
	"rvabi/internal/sigfile"
	"rvabi/internal/types"
)

// Report is the result of one classify run.
type Report struct {
	Files   []*FileReport  `json:"files" msgpack:"files"`
	Timings *observ.Report `json:"timings,omitempty" msgpack:"timings,omitempty"`
}

// Failed reports whether any file could not be classified.
func (r *Report) Failed() bool {
	for _, f := range r.Files {
		if f.Error != "" {
			return true
		}
	}
	return false
}

// FileReport holds the decisions for one signature file. Error is set
// instead of Funcs when the file failed to load.
type FileReport struct {
	Path     string       `json:"path" msgpack:"path"`
	Triple   string       `json:"triple,omitempty" msgpack:"triple,omitempty"`
	RealSize int          `json:"real_size,omitempty" msgpack:"real_size,omitempty"`
	Unwind   string       `json:"unwind,omitempty" msgpack:"unwind,omitempty"`
	VaList   string       `json:"va_list,omitempty" msgpack:"va_list,omitempty"`
	Funcs    []FuncReport `json:"funcs,omitempty" msgpack:"funcs,omitempty"`
	Error    string       `json:"error,omitempty" msgpack:"error,omitempty"`
}

// FuncReport is one lowered function signature.
type FuncReport struct {
	Name     string      `json:"name" msgpack:"name"`
	Declare  string      `json:"declare" msgpack:"declare"`
	Variadic bool        `json:"variadic,omitempty" msgpack:"variadic,omitempty"`
	Ret      ArgReport   `json:"ret" msgpack:"ret"`
	SRet     *ArgReport  `json:"sret,omitempty" msgpack:"sret,omitempty"`
	Params   []ArgReport `json:"params,omitempty" msgpack:"params,omitempty"`
	Varargs  []ArgReport `json:"varargs,omitempty" msgpack:"varargs,omitempty"`
}

// ArgReport is the decision taken for one argument.
type ArgReport struct {
	Name    string `json:"name" msgpack:"name"`
	Type    string `json:"type" msgpack:"type"`
	Rewrite string `json:"rewrite" msgpack:"rewrite"`
	IRType  string `json:"ir_type" msgpack:"ir_type"`
	Pointee string `json:"pointee,omitempty" msgpack:"pointee,omitempty"`
	ByRef   bool   `json:"by_ref,omitempty" msgpack:"by_ref,omitempty"`
	Attrs   string `json:"attrs,omitempty" msgpack:"attrs,omitempty"`
	Size    int    `json:"size" msgpack:"size"`
	Align   int    `json:"align" msgpack:"align"`
}

func newFuncReport(file *sigfile.File, fn sigfile.Func, fty *abi.FuncTy) FuncReport {
	out := FuncReport{
		Name:     fn.Name,
		Declare:  fty.Declare(fn.Name),
		Variadic: fty.CVariadic,
		Ret:      newArgReport(file, fty.Ret),
	}
	if fty.SRet != nil {
		sret := newArgReport(file, fty.SRet)
		out.SRet = &sret
	}
	for _, a := range fty.Args {
		out.Params = append(out.Params, newArgReport(file, a))
	}
	for _, a := range fty.Varargs {
		out.Varargs = append(out.Varargs, newArgReport(file, a))
	}
	return out
}

func newArgReport(file *sigfile.File, a *abi.Arg) ArgReport {
	out := ArgReport{
		Name:    a.Name,
		Type:    types.Label(file.Types, a.Type),
		Rewrite: a.Rewrite.String(),
		IRType:  a.LLType.String(),
		ByRef:   a.ByRef,
		Attrs:   a.Attrs.String(),
	}
	if a.Pointee != nil {
		out.Pointee = a.Pointee.String()
	}
	// void has no layout
	if size, err := file.Layout.SizeOf(a.Type); err == nil {
		out.Size = size
	}
	if align, err := file.Layout.AlignOf(a.Type); err == nil {
		out.Align = align
	}
	return out
}

// Encoding selects a machine-readable report format.
type Encoding uint8

const (
	EncodingJSON Encoding = iota + 1
	EncodingMsgpack
)

// Encode writes r to w.
func (r *Report) Encode(w io.Writer, enc Encoding) error {
	switch enc {
	case EncodingJSON:
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return e.Encode(r)
	case EncodingMsgpack:
		return msgpack.NewEncoder(w).Encode(r)
	default:
		return fmt.Errorf("unknown report encoding %d", enc)
	}
}

// DecodeMsgpack reads a report written with EncodingMsgpack.
func DecodeMsgpack(rd io.Reader) (*Report, error) {
	var r Report
	if err := msgpack.NewDecoder(rd).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &r, nil
}
