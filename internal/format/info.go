package format

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/omarluq/ptree-loader/internal/ptree"
)

// infoCodec implements the INFO property-tree format: one `key [value]`
// statement per line, `{`/`}` child blocks, `;` line comments, and quoted
// strings with backslash escapes. No Go library exists for this grammar, so
// the codec carries its own tokenizer and writer.
type infoCodec struct{}

func (infoCodec) String() string { return "info" }

func (infoCodec) Parse(data []byte) (*ptree.Tree, error) {
	root := ptree.New()
	p := &infoParser{stack: []*ptree.Tree{root}}
	for i, line := range strings.Split(string(data), "\n") {
		if err := p.line(line); err != nil {
			return nil, fmt.Errorf("%w (line %d)", err, i+1)
		}
	}
	if len(p.stack) != 1 {
		return nil, ErrUnbalancedBrace
	}
	return root, nil
}

type infoParser struct {
	stack []*ptree.Tree
	last  *ptree.Tree // most recently added node; target of a following '{'
	value *ptree.Tree // node still expecting its data token on this line
}

func (p *infoParser) line(line string) error {
	// A key and its data must share a line; a pending key left without data
	// at end of line simply has the empty value.
	p.value = nil

	rest := line
	for {
		rest = strings.TrimLeft(rest, " \t\r")
		if rest == "" || rest[0] == ';' {
			return nil
		}
		switch rest[0] {
		case '{':
			if p.last == nil {
				return ErrUnexpectedBrace
			}
			p.stack = append(p.stack, p.last)
			p.last = nil
			p.value = nil
			rest = rest[1:]
		case '}':
			if len(p.stack) == 1 {
				return ErrUnbalancedBrace
			}
			p.stack = p.stack[:len(p.stack)-1]
			p.last = nil
			p.value = nil
			rest = rest[1:]
		default:
			tok, remaining, err := infoToken(rest)
			if err != nil {
				return err
			}
			rest = remaining
			if p.value != nil {
				p.value.SetValue(tok)
				p.value = nil
				continue
			}
			node := p.stack[len(p.stack)-1].AddValue(tok, "")
			p.last = node
			p.value = node
		}
	}
}

// infoToken consumes one token from the front of s, which is known to start
// with a non-space character that is not '{', '}' or ';'.
func infoToken(s string) (tok, rest string, err error) {
	if s[0] != '"' {
		end := strings.IndexAny(s, " \t\r{};")
		if end < 0 {
			return s, "", nil
		}
		return s[:end], s[end:], nil
	}

	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '"':
			return b.String(), s[i+1:], nil
		case '\\':
			if i+1 == len(s) {
				return "", "", ErrUnterminatedString
			}
			i++
			b.WriteByte(infoUnescape(s[i]))
		default:
			b.WriteByte(s[i])
		}
	}
	return "", "", ErrUnterminatedString
}

func infoUnescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	case 'a':
		return '\a'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	case 'v':
		return '\v'
	default:
		// Unknown escapes keep the escaped character itself.
		return c
	}
}

func (infoCodec) Serialize(w io.Writer, t *ptree.Tree) error {
	var b bytes.Buffer
	writeINFO(&b, t, 0)
	_, err := w.Write(b.Bytes())
	return err
}

const infoIndent = "    "

func writeINFO(b *bytes.Buffer, t *ptree.Tree, depth int) {
	pad := strings.Repeat(infoIndent, depth)
	for _, c := range t.Children() {
		b.WriteString(pad)
		b.WriteString(infoQuote(c.Key))
		if v := c.Node.Value(); v != "" {
			b.WriteByte(' ')
			b.WriteString(infoQuote(v))
		}
		b.WriteByte('\n')
		if c.Node.Len() > 0 {
			b.WriteString(pad)
			b.WriteString("{\n")
			writeINFO(b, c.Node, depth+1)
			b.WriteString(pad)
			b.WriteString("}\n")
		}
	}
}

// infoQuote returns s as a bare token when it needs no quoting, otherwise as
// a quoted string with escapes.
func infoQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\r\n\"\\{};") {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case 0:
			b.WriteString(`\0`)
		default:
			b.WriteByte(s[i])
		}
	}
	b.WriteByte('"')
	return b.String()
}
