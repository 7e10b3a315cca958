package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Marshal writes v with the given indent width. Object member order is kept,
// number literals are written verbatim and non-ASCII text is never escaped.
// The output has no trailing newline.
func Marshal(v any, indent int) ([]byte, error) {
	e := &encoder{indent: strings.Repeat(" ", indent)}
	if err := e.value(v, 0); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

type encoder struct {
	buf    bytes.Buffer
	indent string
	str    bytes.Buffer
}

func (e *encoder) value(v any, depth int) error {
	switch t := v.(type) {
	case nil:
		e.buf.WriteString("null")
	case bool:
		if t {
			e.buf.WriteString("true")
		} else {
			e.buf.WriteString("false")
		}
	case json.Number:
		e.buf.WriteString(t.String())
	case string:
		return e.string(t)
	case []any:
		return e.array(t, depth)
	case *Object:
		return e.object(t, depth)
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	return nil
}

func (e *encoder) array(arr []any, depth int) error {
	if len(arr) == 0 {
		e.buf.WriteString("[]")
		return nil
	}
	e.buf.WriteByte('[')
	for i, item := range arr {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.newline(depth + 1)
		if err := e.value(item, depth+1); err != nil {
			return err
		}
	}
	e.newline(depth)
	e.buf.WriteByte(']')
	return nil
}

func (e *encoder) object(obj *Object, depth int) error {
	if obj == nil || obj.Len() == 0 {
		e.buf.WriteString("{}")
		return nil
	}
	e.buf.WriteByte('{')
	for i, key := range obj.keys {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.newline(depth + 1)
		if err := e.string(key); err != nil {
			return err
		}
		e.buf.WriteString(": ")
		if err := e.value(obj.values[key], depth+1); err != nil {
			return err
		}
	}
	e.newline(depth)
	e.buf.WriteByte('}')
	return nil
}

// newline breaks the line even for a zero indent.
func (e *encoder) newline(depth int) {
	e.buf.WriteByte('\n')
	for range depth {
		e.buf.WriteString(e.indent)
	}
}

// string quotes s with encoding/json rules minus HTML escaping.
func (e *encoder) string(s string) error {
	e.str.Reset()
	enc := json.NewEncoder(&e.str)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	e.buf.Write(bytes.TrimSuffix(e.str.Bytes(), []byte("\n")))
	return nil
}
