package driver

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"scriptc/internal/observ"
	"scriptc/internal/sema"
	"scriptc/internal/symbols"
	"scriptc/internal/types"
)

// Bump when the Summary layout changes; older cache entries are then misses.
const summarySchemaVersion uint16 = 1

// Summary is the exported view of a resolved script descriptor.
type Summary struct {
	Schema        uint16          `json:"-" msgpack:"schema"`
	Script        string          `json:"script" msgpack:"script"`
	Path          string          `json:"path,omitempty" msgpack:"path"`
	ResultType    string          `json:"result_type" msgpack:"result_type"`
	ResultUnknown bool            `json:"result_unknown,omitempty" msgpack:"result_unknown"`
	Properties    []MemberSummary `json:"properties" msgpack:"properties"`
	Functions     []MemberSummary `json:"functions" msgpack:"functions"`
	Timings       observ.Report   `json:"timings,omitempty" msgpack:"timings"`
}

// MemberSummary describes one member symbol of the script class.
type MemberSummary struct {
	Name       string `json:"name" msgpack:"name"`
	Type       string `json:"type" msgpack:"type"`
	Owner      string `json:"owner" msgpack:"owner"`
	Modality   string `json:"modality" msgpack:"modality"`
	Visibility string `json:"visibility" msgpack:"visibility"`
	Mutable    bool   `json:"mutable,omitempty" msgpack:"mutable"`
	Override   bool   `json:"override,omitempty" msgpack:"override"`
}

// Summarize exports an initialized unit.
func Summarize(env *sema.Env, u *Unit) *Summary {
	d := u.Descriptor
	ret := d.ReturnType()
	s := &Summary{
		Schema:     summarySchemaVersion,
		Script:     u.Name,
		Path:       u.Path,
		ResultType: env.Types.Label(ret),
	}
	if msg, ok := env.Types.ErrorMessage(ret); ok && msg == sema.ScriptResultUnknown {
		s.ResultUnknown = true
	}
	s.Properties = members(env, d.Properties())
	s.Functions = members(env, d.Functions())
	return s
}

func members(env *sema.Env, ids []symbols.SymbolID) []MemberSummary {
	out := make([]MemberSummary, 0, len(ids))
	for _, id := range ids {
		sym, ok := env.Table.Symbols.Get(id)
		if !ok {
			continue
		}
		out = append(out, MemberSummary{
			Name:       env.Builder.Name(sym.Name),
			Type:       typeLabel(env.Types, sym.Type),
			Owner:      typeLabel(env.Types, sym.Owner),
			Modality:   sym.Modality.String(),
			Visibility: sym.Visibility.String(),
			Mutable:    sym.Mutable,
			Override:   sym.Override,
		})
	}
	return out
}

func typeLabel(in *types.Interner, id types.TypeID) string {
	if id == types.NoTypeID {
		return "?"
	}
	return in.Label(id)
}

// EncodeSummary serializes s with msgpack.
func EncodeSummary(s *Summary) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encode summary %q: %w", s.Script, err)
	}
	return buf.Bytes(), nil
}

// DecodeSummary is the inverse of EncodeSummary. Payloads written with another
// schema version are rejected.
func DecodeSummary(data []byte) (*Summary, error) {
	var s Summary
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	if s.Schema != summarySchemaVersion {
		return nil, fmt.Errorf("decode summary: schema %d, want %d", s.Schema, summarySchemaVersion)
	}
	return &s, nil
}
