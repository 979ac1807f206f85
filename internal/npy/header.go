// Package npy reads and writes NumPy .npy files as tensor buffers.
//
// Format Structure:
//
//	[6 bytes: Magic "\x93NUMPY"]
//	[2 bytes: Version major, minor]
//	[2 or 4 bytes: Header length (uint16 LE for 1.0, uint32 LE for 2.0/3.0)]
//	[Header: Python dict literal, space padded, newline terminated]
//	[Data: raw elements in C or Fortran order]
//
// Floating point dtypes of 2, 4 and 8 bytes are supported in either byte
// order. Writers always emit version 1.0, little-endian, C order.
package npy

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/born-ml/gradtape/internal/tensor"
)

const (
	magic     = "\x93NUMPY"
	alignment = 64
)

// Dtype describes the element encoding of a file.
type Dtype struct {
	Size  int // bytes per element: 2, 4 or 8
	Order binary.ByteOrder
}

// String returns the dtype in NumPy descr notation.
func (d Dtype) String() string {
	order := "<"
	if d.Order == binary.BigEndian {
		order = ">"
	}
	return fmt.Sprintf("%sf%d", order, d.Size)
}

// nativeOrder resolves NumPy's native byte order marker.
func nativeOrder() binary.ByteOrder {
	if binary.NativeEndian.Uint16([]byte{1, 0}) == 1 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// parseDescr parses a NumPy descr string such as "<f8".
func parseDescr(descr string) (Dtype, error) {
	if len(descr) != 3 || descr[1] != 'f' {
		return Dtype{}, fmt.Errorf("%w: %q", ErrWrongDtype, descr)
	}
	var d Dtype
	switch descr[0] {
	case '<':
		d.Order = binary.LittleEndian
	case '>':
		d.Order = binary.BigEndian
	case '|', '=':
		d.Order = nativeOrder()
	default:
		return Dtype{}, fmt.Errorf("%w: %q", ErrWrongDtype, descr)
	}
	switch descr[2] {
	case '2', '4', '8':
		d.Size = int(descr[2] - '0')
	default:
		return Dtype{}, fmt.Errorf("%w: %q", ErrWrongDtype, descr)
	}
	return d, nil
}

// Header is the metadata of an .npy file.
type Header struct {
	Major, Minor byte
	Dtype        Dtype
	FortranOrder bool
	Shape        tensor.Shape
}

// ReadHeader reads the preamble and header dict from r, leaving r
// positioned at the first data byte.
func ReadHeader(r io.Reader) (Header, error) {
	var pre [8]byte
	if _, err := io.ReadFull(r, pre[:]); err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrInvalidMagic, err)
	}
	if string(pre[:6]) != magic {
		return Header{}, ErrInvalidMagic
	}
	h := Header{Major: pre[6], Minor: pre[7]}

	var size int
	switch h.Major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return Header{}, fmt.Errorf("%w: length: %w", ErrHeader, err)
		}
		size = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return Header{}, fmt.Errorf("%w: length: %w", ErrHeader, err)
		}
		size = int(n)
	default:
		return Header{}, fmt.Errorf("%w: %d.%d", ErrUnsupportedVersion, h.Major, h.Minor)
	}

	raw := make([]byte, size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrHeader, err)
	}
	if err := h.parseDict(string(raw)); err != nil {
		return Header{}, err
	}
	return h, nil
}

// parseDict fills h from the header dict literal.
func (h *Header) parseDict(s string) error {
	p := &dictParser{s: strings.TrimRightFunc(s, unicode.IsSpace)}
	fields, err := p.parse()
	if err != nil {
		return err
	}

	descr, ok := fields["descr"].(string)
	if !ok {
		return fmt.Errorf("%w: missing or invalid 'descr'", ErrHeader)
	}
	if h.Dtype, err = parseDescr(descr); err != nil {
		return err
	}
	if h.FortranOrder, ok = fields["fortran_order"].(bool); !ok {
		return fmt.Errorf("%w: missing or invalid 'fortran_order'", ErrHeader)
	}
	dims, ok := fields["shape"].([]int)
	if !ok {
		return fmt.Errorf("%w: missing or invalid 'shape'", ErrHeader)
	}
	h.Shape = tensor.Shape(dims)
	if err := h.Shape.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrHeader, err)
	}
	return nil
}

// dictParser parses the subset of Python literals used by .npy headers:
// a dict with string keys whose values are strings, booleans or tuples of
// integers.
type dictParser struct {
	s   string
	pos int
}

func (p *dictParser) parse() (map[string]any, error) {
	fields := make(map[string]any)
	if err := p.expect('{'); err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			break
		}
		key, err := p.str()
		if err != nil {
			return nil, err
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		if fields[key], err = p.value(); err != nil {
			return nil, fmt.Errorf("%w (key %q)", err, key)
		}
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
		default:
			return nil, p.errorf("expected ',' or '}'")
		}
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, p.errorf("trailing data")
	}
	return fields, nil
}

func (p *dictParser) value() (any, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == '\'' || c == '"':
		return p.str()
	case c == '(':
		return p.tuple()
	case strings.HasPrefix(p.s[p.pos:], "True"):
		p.pos += len("True")
		return true, nil
	case strings.HasPrefix(p.s[p.pos:], "False"):
		p.pos += len("False")
		return false, nil
	default:
		return nil, p.errorf("unsupported value")
	}
}

func (p *dictParser) str() (string, error) {
	p.skipSpace()
	quote := p.peek()
	if quote != '\'' && quote != '"' {
		return "", p.errorf("expected string")
	}
	end := strings.IndexByte(p.s[p.pos+1:], quote)
	if end < 0 {
		return "", p.errorf("unterminated string")
	}
	out := p.s[p.pos+1 : p.pos+1+end]
	p.pos += end + 2
	return out, nil
}

func (p *dictParser) tuple() ([]int, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	dims := []int{}
	for {
		p.skipSpace()
		if p.peek() == ')' {
			p.pos++
			return dims, nil
		}
		start := p.pos
		for p.pos < len(p.s) && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
			p.pos++
		}
		n, err := strconv.Atoi(p.s[start:p.pos])
		if err != nil {
			return nil, p.errorf("expected integer")
		}
		dims = append(dims, n)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
		default:
			return nil, p.errorf("expected ',' or ')'")
		}
	}
}

func (p *dictParser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *dictParser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *dictParser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t') {
		p.pos++
	}
}

func (p *dictParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d", ErrHeader, fmt.Sprintf(format, args...), p.pos)
}
