package vdf

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokString
	tokOpen
	tokClose
	tokCondition
)

type token struct {
	kind tokenKind
	text string
	line int
}

type textParser struct {
	data []byte
	pos  int
	line int
}

// ParseText decodes text KeyValues. Brace mismatch, unterminated strings and
// keys without values fail with domain.ErrMalformedManifest.
func ParseText(r io.Reader) (*Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read keyvalues: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	p := &textParser{data: data, line: 1}
	return p.parseFields(0)
}

func (p *textParser) malformed(line int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", domain.ErrMalformedManifest, line, fmt.Sprintf(format, args...))
}

func (p *textParser) parseFields(depth int) (*Object, error) {
	nested := depth > 0
	obj := &Object{}
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}

		switch tok.kind {
		case tokEOF:
			if nested {
				return nil, p.malformed(tok.line, "unexpected end of input, missing '}'")
			}
			return obj, nil
		case tokClose:
			if !nested {
				return nil, p.malformed(tok.line, "unexpected '}'")
			}
			return obj, nil
		case tokOpen:
			return nil, p.malformed(tok.line, "'{' without key")
		case tokCondition:
			continue
		}

		key := tok.text
		val, err := p.next()
		if err != nil {
			return nil, err
		}
		// A platform condition may sit between a key and its block.
		if val.kind == tokCondition {
			if val, err = p.next(); err != nil {
				return nil, err
			}
		}

		switch val.kind {
		case tokString:
			obj.add(Field{Key: key, Kind: KindString, Str: val.text})
		case tokOpen:
			if depth+1 > maxDepth {
				return nil, p.malformed(val.line, "blocks nested deeper than %d", maxDepth)
			}
			child, err := p.parseFields(depth + 1)
			if err != nil {
				return nil, err
			}
			obj.add(Field{Key: key, Kind: KindObject, Object: child})
		default:
			return nil, p.malformed(val.line, "key %q has no value", key)
		}
	}
}

func (p *textParser) next() (token, error) {
	p.skipSpaceAndComments()
	if p.pos >= len(p.data) {
		return token{kind: tokEOF, line: p.line}, nil
	}

	line := p.line
	switch c := p.data[p.pos]; c {
	case '{':
		p.pos++
		return token{kind: tokOpen, line: line}, nil
	case '}':
		p.pos++
		return token{kind: tokClose, line: line}, nil
	case '"':
		s, err := p.readQuoted()
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, text: s, line: line}, nil
	case '[':
		end := bytes.IndexByte(p.data[p.pos:], ']')
		if end < 0 {
			return token{}, p.malformed(line, "unterminated condition")
		}
		text := string(p.data[p.pos : p.pos+end+1])
		p.pos += end + 1
		return token{kind: tokCondition, text: text, line: line}, nil
	default:
		start := p.pos
		for p.pos < len(p.data) && !isDelimiter(p.data[p.pos]) {
			p.pos++
		}
		return token{kind: tokString, text: string(p.data[start:p.pos]), line: line}, nil
	}
}

func (p *textParser) readQuoted() (string, error) {
	line := p.line
	p.pos++ // opening quote

	var b strings.Builder
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		switch c {
		case '"':
			p.pos++
			return b.String(), nil
		case '\\':
			if p.pos+1 >= len(p.data) {
				return "", p.malformed(line, "unterminated string")
			}
			p.pos++
			switch e := p.data[p.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"', '\\':
				b.WriteByte(e)
			default:
				// Windows paths keep their backslashes.
				b.WriteByte('\\')
				b.WriteByte(e)
			}
		case '\n':
			p.line++
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
		p.pos++
	}
	return "", p.malformed(line, "unterminated string")
}

func (p *textParser) skipSpaceAndComments() {
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		switch {
		case c == '\n':
			p.line++
			p.pos++
		case c == ' ' || c == '\t' || c == '\r':
			p.pos++
		case c == '/' && p.pos+1 < len(p.data) && p.data[p.pos+1] == '/':
			for p.pos < len(p.data) && p.data[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '{', '}', '"':
		return true
	}
	return false
}
