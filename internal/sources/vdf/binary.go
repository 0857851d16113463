package vdf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
)

// Binary KeyValues type tags.
const (
	tagMap     byte = 0x00
	tagString  byte = 0x01
	tagInt32   byte = 0x02
	tagFloat32 byte = 0x03
	tagUint64  byte = 0x07
	tagEnd     byte = 0x08
)

// maxDepth bounds object nesting in both encodings.
const maxDepth = 64

type binaryParser struct {
	data []byte
	pos  int
}

// ParseBinary decodes binary KeyValues. Unknown type tags and truncated
// input fail with domain.ErrMalformedShortcutStore.
func ParseBinary(r io.Reader) (*Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read binary keyvalues: %w", err)
	}
	p := &binaryParser{data: data}
	return p.parseObject(0)
}

func (p *binaryParser) malformed(format string, args ...any) error {
	return fmt.Errorf("%w: offset %d: %s", domain.ErrMalformedShortcutStore, p.pos, fmt.Sprintf(format, args...))
}

func (p *binaryParser) parseObject(depth int) (*Object, error) {
	obj := &Object{}
	for {
		if p.pos >= len(p.data) {
			if depth == 0 {
				return obj, nil
			}
			return nil, p.malformed("truncated map at depth %d", depth)
		}

		tag := p.data[p.pos]
		p.pos++
		switch tag {
		case tagEnd:
			return obj, nil
		case tagMap, tagString, tagInt32, tagFloat32, tagUint64:
		default:
			p.pos--
			return nil, p.malformed("unknown type tag 0x%02x", tag)
		}

		key, err := p.cstring()
		if err != nil {
			return nil, err
		}

		switch tag {
		case tagMap:
			if depth+1 > maxDepth {
				return nil, p.malformed("maps nested deeper than %d", maxDepth)
			}
			child, err := p.parseObject(depth + 1)
			if err != nil {
				return nil, err
			}
			obj.add(Field{Key: key, Kind: KindObject, Object: child})
		case tagString:
			s, err := p.cstring()
			if err != nil {
				return nil, err
			}
			obj.add(Field{Key: key, Kind: KindString, Str: s})
		case tagInt32:
			b, err := p.take(4)
			if err != nil {
				return nil, err
			}
			obj.add(Field{Key: key, Kind: KindInt32, Int: int64(int32(binary.LittleEndian.Uint32(b)))})
		case tagFloat32:
			b, err := p.take(4)
			if err != nil {
				return nil, err
			}
			obj.add(Field{Key: key, Kind: KindFloat32, Float: float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))})
		case tagUint64:
			b, err := p.take(8)
			if err != nil {
				return nil, err
			}
			obj.add(Field{Key: key, Kind: KindUint64, Uint: binary.LittleEndian.Uint64(b)})
		}
	}
}

func (p *binaryParser) cstring() (string, error) {
	end := bytes.IndexByte(p.data[p.pos:], 0)
	if end < 0 {
		return "", p.malformed("unterminated string")
	}
	s := string(p.data[p.pos : p.pos+end])
	p.pos += end + 1
	return s, nil
}

func (p *binaryParser) take(n int) ([]byte, error) {
	if p.pos+n > len(p.data) {
		return nil, p.malformed("truncated value, need %d bytes", n)
	}
	b := p.data[p.pos : p.pos+n]
	p.pos += n
	return b, nil
}
