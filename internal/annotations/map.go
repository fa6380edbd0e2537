package annotations

import (
	"sort"

	"nullcheck/internal/symbols"
)

// Kind letters of documentation-comment IDs.
const (
	KindType      byte = 'T'
	KindMethod    byte = 'M'
	KindField     byte = 'F'
	KindProperty  byte = 'P'
	KindEvent     byte = 'E'
	KindNamespace byte = 'N'
)

// MemberInfo carries the nullability facts of one member.
type MemberInfo struct {
	Kind                  byte            `msgpack:"t"`
	HasNullabilityDefined bool            `msgpack:"n"`
	Parameters            map[string]bool `msgpack:"p"`
}

// Map is keyed by documentation-comment ID without the "X:" prefix.
type Map map[string]*MemberInfo

// SplitID splits "X:rest" into kind and key. It fails for IDs shorter than
// two characters or without the colon separator.
func SplitID(id string) (byte, string, bool) {
	if len(id) < 2 || id[1] != ':' {
		return 0, "", false
	}
	return id[0], id[2:], true
}

// Lookup returns the entry for a full documentation-comment ID whose stored
// kind matches the ID's kind letter.
func (m Map) Lookup(id string) (*MemberInfo, bool) {
	kind, key, ok := SplitID(id)
	if !ok {
		return nil, false
	}
	info, ok := m[key]
	if !ok || info == nil || info.Kind != kind {
		return nil, false
	}
	return info, true
}

// Entry returns the entry for id, creating it when absent. It returns nil
// for malformed IDs or when the key is already taken by another kind.
func (m Map) Entry(id string) *MemberInfo {
	kind, key, ok := SplitID(id)
	if !ok {
		return nil
	}
	if info, exists := m[key]; exists {
		if info.Kind != kind {
			return nil
		}
		return info
	}
	info := &MemberInfo{Kind: kind}
	m[key] = info
	return info
}

// SetParameter records a parameter fact on the entry for id.
func (m Map) SetParameter(id, name string, notNullOrCanBeNull bool) {
	info := m.Entry(id)
	if info == nil {
		return
	}
	if info.Parameters == nil {
		info.Parameters = make(map[string]bool)
	}
	info.Parameters[name] = info.Parameters[name] || notNullOrCanBeNull
}

// Merge folds other into m. Facts only accumulate: a member or parameter
// annotated in either map stays annotated. Entries whose kind disagrees with
// an existing key are dropped.
func (m Map) Merge(other Map) {
	for key, src := range other {
		if src == nil {
			continue
		}
		dst, ok := m[key]
		if !ok {
			cp := &MemberInfo{Kind: src.Kind, HasNullabilityDefined: src.HasNullabilityDefined}
			if len(src.Parameters) > 0 {
				cp.Parameters = make(map[string]bool, len(src.Parameters))
				for name, v := range src.Parameters {
					cp.Parameters[name] = v
				}
			}
			m[key] = cp
			continue
		}
		if dst.Kind != src.Kind {
			continue
		}
		dst.HasNullabilityDefined = dst.HasNullabilityDefined || src.HasNullabilityDefined
		for name, v := range src.Parameters {
			if dst.Parameters == nil {
				dst.Parameters = make(map[string]bool)
			}
			dst.Parameters[name] = dst.Parameters[name] || v
		}
	}
}

// Compact removes entries without nullability facts. It returns the number
// of removed entries. Compacting a compacted map is a no-op.
func (m Map) Compact() int {
	removed := 0
	for key, info := range m {
		if info == nil || (!info.HasNullabilityDefined && len(info.Parameters) == 0) {
			delete(m, key)
			removed++
		}
	}
	return removed
}

// Keys returns the sorted keys, for stable output.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Contains reports whether the map annotates sym. Item-mode lookups never
// match: the external annotation sources carry no item-level facts.
func (m Map) Contains(sym symbols.Symbol, appliesToItem bool) bool {
	if appliesToItem || len(m) == 0 || sym == nil {
		return false
	}

	if p, ok := sym.(*symbols.Parameter); ok {
		return m.containsParameter(p)
	}
	if method, ok := sym.(*symbols.Method); ok {
		sym = method.AsUnboundGenericMethodOrThis()
	}
	id, ok := sym.DocumentationCommentID()
	if !ok {
		return false
	}
	info, ok := m.Lookup(id)
	return ok && info.HasNullabilityDefined
}

func (m Map) containsParameter(p *symbols.Parameter) bool {
	name := p.Name()
	p = p.AsUnboundGenericParameterOrThis()
	method := p.ContainingMethod()

	var owner symbols.Symbol = method
	if prop := method.ContainingProperty(); prop != nil {
		owner = prop
	}
	id, ok := owner.DocumentationCommentID()
	if !ok {
		return false
	}
	info, ok := m.Lookup(id)
	return ok && info.Parameters[name]
}
