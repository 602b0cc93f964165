// Package textparse parses the addon's saved-variables text format: a
// restricted, typed subset of the host game's table-literal syntax with
// `--` end-of-line comments. It is a hand-rolled recursive-descent scanner
// rather than a parser-combinator library: the grammar is small enough
// that a combinator dependency would not buy readability.
//
// Every string and identifier returned in the tree is a substring slice of
// the input: Go string slicing never copies, so this automatically
// satisfies the no-copy invariant without any extra bookkeeping.
package textparse

import (
	"fmt"
	"strconv"

	"github.com/emallson/profiling2-decode/internal/perr"
	"github.com/emallson/profiling2-decode/internal/value"
)

// Parse parses a complete saved-variables text buffer and returns the
// right-hand-side Value of its top-level assignment (the identifier is
// discarded), or a bare value when no assignment is present.
func Parse(text string) (value.Value, error) {
	p := &parser{src: text}
	p.skipSpace()

	v, err := p.parseAssignmentOrValue()
	if err != nil {
		return value.Value{}, err
	}

	p.skipSpace()
	if p.pos != len(p.src) {
		return value.Value{}, p.fail("trailing data after top-level value")
	}
	return v, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) fail(format string, args ...any) error {
	return &perr.TextParseError{Offset: p.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peekByte() (byte, bool) {
	if p.eof() {
		return 0, false
	}
	return p.src[p.pos], true
}

// skipSpace consumes whitespace and `--`-to-end-of-line comments. It is
// called between every token, including inside tables before `}`.
func (p *parser) skipSpace() {
	for {
		c, ok := p.peekByte()
		if !ok {
			return
		}
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\v' || c == '\f':
			p.pos++
		case c == '-' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '-':
			p.pos += 2
			for !p.eof() && p.src[p.pos] != '\n' {
				p.pos++
			}
			// leave the newline itself for the whitespace branch above,
			// or stop at EOF if the comment runs to the end of input.
		default:
			return
		}
	}
}

func isIdentByte(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_'
}

// parseAssignmentOrValue implements `file := ws assignment? eof` where
// `assignment := identifier "=" value`, falling back to a bare value if no
// identifier/"=" prefix is present.
func (p *parser) parseAssignmentOrValue() (value.Value, error) {
	save := p.pos
	if c, ok := p.peekByte(); ok && isIdentByte(c) {
		for !p.eof() && isIdentByte(p.src[p.pos]) {
			p.pos++
		}
		// identifier name discarded
		p.skipSpace()
		if c, ok := p.peekByte(); ok && c == '=' {
			p.pos++
			p.skipSpace()
			return p.parseValue()
		}
		// Not actually "identifier =" — rewind and parse as a bare value.
		p.pos = save
	}
	return p.parseValue()
}

func (p *parser) parseValue() (value.Value, error) {
	p.skipSpace()
	c, ok := p.peekByte()
	if !ok {
		return value.Value{}, p.fail("unexpected end of input, expected a value")
	}

	switch {
	case c == '{':
		return p.parseTable()
	case c == '"' || c == '\'':
		s, err := p.parseQuotedString(c)
		if err != nil {
			return value.Value{}, err
		}
		return value.String(s), nil
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		word, wok := p.peekWord()
		if wok {
			switch word {
			case "nil":
				p.pos += len(word)
				return value.Nil, nil
			case "true":
				p.pos += len(word)
				return value.Bool(true), nil
			case "false":
				p.pos += len(word)
				return value.Bool(false), nil
			}
		}
		return value.Value{}, p.fail("unexpected byte %q, expected a value", c)
	}
}

func (p *parser) peekWord() (string, bool) {
	start := p.pos
	i := p.pos
	for i < len(p.src) && isIdentByte(p.src[i]) {
		i++
	}
	if i == start {
		return "", false
	}
	return p.src[start:i], true
}

// parseQuotedString reads a `"..."` or `'...'` string literal. Only the
// delimiter itself is escapable with a backslash; other backslash
// sequences pass through literally and are not interpreted. The returned
// string is the raw source span between the delimiters (backslashes
// included), matching the reference parser's `escaped` combinator, which
// recognizes but does not unescape its span.
func (p *parser) parseQuotedString(delim byte) (string, error) {
	start := p.pos
	p.pos++ // opening delimiter
	contentStart := p.pos
	for {
		if p.eof() {
			return "", &perr.TextParseError{Offset: start, Message: "unterminated string literal"}
		}
		c := p.src[p.pos]
		if c == '\\' && p.pos+1 < len(p.src) && p.src[p.pos+1] == delim {
			p.pos += 2
			continue
		}
		if c == delim {
			s := p.src[contentStart:p.pos]
			p.pos++ // closing delimiter
			return s, nil
		}
		p.pos++
	}
}

// parseNumber reads a signed decimal literal, producing Int when there is
// no decimal point and Float otherwise.
func (p *parser) parseNumber() (value.Value, error) {
	start := p.pos
	if c, ok := p.peekByte(); ok && c == '-' {
		p.pos++
	}
	digitsStart := p.pos
	for !p.eof() && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == digitsStart {
		return value.Value{}, p.fail("expected digits in number literal")
	}

	isFloat := false
	if c, ok := p.peekByte(); ok && c == '.' {
		isFloat = true
		p.pos++
		fracStart := p.pos
		for !p.eof() && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		if p.pos == fracStart {
			return value.Value{}, p.fail("expected digits after decimal point")
		}
	}
	if c, ok := p.peekByte(); ok && (c == 'e' || c == 'E') {
		isFloat = true
		p.pos++
		if c, ok := p.peekByte(); ok && (c == '+' || c == '-') {
			p.pos++
		}
		expStart := p.pos
		for !p.eof() && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		if p.pos == expStart {
			return value.Value{}, p.fail("expected digits in exponent")
		}
	}

	lit := p.src[start:p.pos]
	if isFloat {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return value.Value{}, &perr.TextParseError{Offset: start, Message: fmt.Sprintf("invalid float literal %q: %s", lit, err)}
		}
		return value.Float(f), nil
	}
	i, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return value.Value{}, &perr.TextParseError{Offset: start, Message: fmt.Sprintf("invalid int literal %q: %s", lit, err)}
	}
	return value.Int(i), nil
}

// parseTable reads `"{" ws "}"` (Empty) or `"{" entries ","? "}"`. It
// commits to the Array production first, and falls back to Named only if
// the Array attempt fails before consuming the closing brace; mixing
// array and named entries is not accepted at this layer.
func (p *parser) parseTable() (value.Value, error) {
	openPos := p.pos
	p.pos++ // '{'
	p.skipSpace()
	if c, ok := p.peekByte(); ok && c == '}' {
		p.pos++
		return value.TableValue(value.EmptyTable()), nil
	}

	if arr, ok := p.tryArray(); ok {
		return value.TableValue(value.ArrayTable(arr)), nil
	}

	named, err := p.parseNamedEntries()
	if err != nil {
		return value.Value{}, err
	}
	p.skipSpace()
	if c, ok := p.peekByte(); !ok || c != '}' {
		return value.Value{}, p.fail("expected '}' to close table opened at byte %d", openPos)
	}
	p.pos++
	return value.TableValue(value.NamedTable(named)), nil
}

// tryArray attempts the Array production starting right after the opening
// brace (and any leading whitespace already skipped by the caller). It
// backtracks to the saved position and returns ok=false if the input does
// not parse as a comma-separated value list, so the caller can retry as
// Named without having consumed anything.
func (p *parser) tryArray() ([]value.Value, bool) {
	save := p.pos
	var out []value.Value
	for {
		p.skipSpace()
		if c, ok := p.peekByte(); ok && c == '}' {
			// trailing comma before close, or (if out is empty) this branch
			// is unreachable since the empty-table case is handled earlier.
			p.pos++
			return out, true
		}
		v, err := p.parseValue()
		if err != nil {
			p.pos = save
			return nil, false
		}
		out = append(out, v)
		p.skipSpace()
		c, ok := p.peekByte()
		if !ok {
			p.pos = save
			return nil, false
		}
		switch c {
		case ',':
			p.pos++
			continue
		case '}':
			p.pos++
			return out, true
		default:
			p.pos = save
			return nil, false
		}
	}
}

// parseNamedEntries reads a comma-separated `key = value` list up to (but
// not consuming) the closing `}`.
func (p *parser) parseNamedEntries() (map[string]value.Value, error) {
	named := make(map[string]value.Value)
	for {
		p.skipSpace()
		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if c, ok := p.peekByte(); !ok || c != '=' {
			return nil, p.fail("expected '=' after table key %q", key)
		}
		p.pos++
		p.skipSpace()
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		named[key] = v

		p.skipSpace()
		c, ok := p.peekByte()
		if !ok {
			return nil, p.fail("unterminated table")
		}
		if c == ',' {
			p.pos++
			p.skipSpace()
			if c, ok := p.peekByte(); ok && c == '}' {
				return named, nil
			}
			continue
		}
		return named, nil
	}
}

// parseKey reads `identifier | "[" string "]"`.
func (p *parser) parseKey() (string, error) {
	if c, ok := p.peekByte(); ok && c == '[' {
		p.pos++
		p.skipSpace()
		qc, ok := p.peekByte()
		if !ok || (qc != '"' && qc != '\'') {
			return "", p.fail("expected quoted string in key brackets")
		}
		s, err := p.parseQuotedString(qc)
		if err != nil {
			return "", err
		}
		p.skipSpace()
		if c, ok := p.peekByte(); !ok || c != ']' {
			return "", p.fail("expected ']' to close bracketed key")
		}
		p.pos++
		return s, nil
	}

	// identifier production is deliberately lax: [A-Za-z0-9_]+, leading
	// digit permitted.
	word, ok := p.peekWord()
	if !ok {
		return "", p.fail("expected an identifier or bracketed key")
	}
	p.pos += len(word)
	return word, nil
}
