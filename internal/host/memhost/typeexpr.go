package memhost

import (
	"fmt"
	"strings"
)

// typeExpr is a parsed type reference: Name`N<Args...> followed by array
// ranks and an optional by-ref marker.
type typeExpr struct {
	name   string
	args   []*typeExpr
	arrays int
	byRef  bool
}

var keywordAliases = map[string]string{
	"object":  "System.Object",
	"string":  "System.String",
	"void":    "System.Void",
	"bool":    "System.Boolean",
	"byte":    "System.Byte",
	"sbyte":   "System.SByte",
	"char":    "System.Char",
	"short":   "System.Int16",
	"ushort":  "System.UInt16",
	"int":     "System.Int32",
	"uint":    "System.UInt32",
	"long":    "System.Int64",
	"ulong":   "System.UInt64",
	"float":   "System.Single",
	"double":  "System.Double",
	"decimal": "System.Decimal",
}

func parseTypeExpr(src string) (*typeExpr, error) {
	p := exprParser{src: src}
	expr, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("type %q: %w", src, err)
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("type %q: unexpected %q at %d", src, p.src[p.pos], p.pos)
	}
	return expr, nil
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) parse() (*typeExpr, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune("<>,[]& ", rune(p.src[p.pos])) {
		p.pos++
	}
	if p.pos == start {
		return nil, fmt.Errorf("expected type name at %d", start)
	}
	expr := &typeExpr{name: p.src[start:p.pos]}
	if alias, ok := keywordAliases[expr.name]; ok {
		expr.name = alias
	}

	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '<' {
		p.pos++
		for {
			arg, err := p.parse()
			if err != nil {
				return nil, err
			}
			expr.args = append(expr.args, arg)
			p.skipSpace()
			if p.pos >= len(p.src) {
				return nil, fmt.Errorf("unterminated type argument list")
			}
			if p.src[p.pos] == ',' {
				p.pos++
				continue
			}
			if p.src[p.pos] == '>' {
				p.pos++
				break
			}
			return nil, fmt.Errorf("unexpected %q at %d", p.src[p.pos], p.pos)
		}
		// allow List<T> as shorthand for List`1<T>
		if !strings.Contains(expr.name, "`") {
			expr.name = fmt.Sprintf("%s`%d", expr.name, len(expr.args))
		}
	}

	for {
		p.skipSpace()
		if strings.HasPrefix(p.src[p.pos:], "[]") {
			expr.arrays++
			p.pos += 2
			continue
		}
		if p.pos < len(p.src) && p.src[p.pos] == '&' {
			if expr.byRef {
				return nil, fmt.Errorf("duplicate by-ref marker at %d", p.pos)
			}
			expr.byRef = true
			p.pos++
			continue
		}
		break
	}
	return expr, nil
}
