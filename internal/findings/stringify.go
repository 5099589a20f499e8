package findings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Stringify re-encodes a JSON document the way a JavaScript runtime prints
// JSON.stringify(JSON.parse(raw), null, 2): numbers are rewritten as
// JavaScript numbers, strings are unescaped except where JSON requires it,
// and array-index keys move to the front of each object in ascending order.
func Stringify(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("failed to parse JSON: trailing data after document")
	}

	var buf bytes.Buffer
	v.write(&buf, "")
	return buf.Bytes(), nil
}

type valueKind int

const (
	kindNull valueKind = iota
	kindBool
	kindNumber
	kindString
	kindArray
	kindObject
)

type value struct {
	kind   valueKind
	b      bool
	num    float64
	str    string
	items  []*value
	keys   []string
	fields map[string]*value
}

func decodeValue(dec *json.Decoder) (*value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case nil:
		return &value{kind: kindNull}, nil
	case bool:
		return &value{kind: kindBool, b: t}, nil
	case string:
		return &value{kind: kindString, str: t}, nil
	case json.Number:
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, err
		}
		return &value{kind: kindNumber, num: f}, nil
	case json.Delim:
		switch t {
		case '[':
			arr := &value{kind: kindArray}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr.items = append(arr.items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		case '{':
			obj := &value{kind: kindObject, fields: make(map[string]*value)}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				field, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				// A repeated key keeps its first position and its last value.
				if _, seen := obj.fields[key]; !seen {
					obj.keys = append(obj.keys, key)
				}
				obj.fields[key] = field
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		}
	}

	return nil, fmt.Errorf("unexpected token %v", tok)
}

func (v *value) write(buf *bytes.Buffer, indent string) {
	switch v.kind {
	case kindNull:
		buf.WriteString("null")
	case kindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case kindNumber:
		buf.WriteString(formatNumber(v.num))
	case kindString:
		writeString(buf, v.str)
	case kindArray:
		if len(v.items) == 0 {
			buf.WriteString("[]")
			return
		}
		inner := indent + "  "
		buf.WriteString("[\n")
		for i, item := range v.items {
			buf.WriteString(inner)
			item.write(buf, inner)
			if i < len(v.items)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(indent)
		buf.WriteByte(']')
	case kindObject:
		if len(v.keys) == 0 {
			buf.WriteString("{}")
			return
		}
		inner := indent + "  "
		keys := orderKeys(v.keys)
		buf.WriteString("{\n")
		for i, key := range keys {
			buf.WriteString(inner)
			writeString(buf, key)
			buf.WriteString(": ")
			v.fields[key].write(buf, inner)
			if i < len(keys)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		buf.WriteString(indent)
		buf.WriteByte('}')
	}
}

// orderKeys puts array-index keys first in ascending numeric order, then the
// remaining keys in insertion order.
func orderKeys(keys []string) []string {
	type indexKey struct {
		key string
		n   uint64
	}

	var indexes []indexKey
	var names []string
	for _, key := range keys {
		if n, ok := arrayIndex(key); ok {
			indexes = append(indexes, indexKey{key, n})
		} else {
			names = append(names, key)
		}
	}

	sort.Slice(indexes, func(i, j int) bool { return indexes[i].n < indexes[j].n })

	ordered := make([]string, 0, len(keys))
	for _, ik := range indexes {
		ordered = append(ordered, ik.key)
	}
	return append(ordered, names...)
}

func arrayIndex(key string) (uint64, bool) {
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil || n == math.MaxUint32 || strconv.FormatUint(n, 10) != key {
		return 0, false
	}
	return n, true
}

// formatNumber prints f as JavaScript's Number.prototype.toString does.
func formatNumber(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "null"
	}
	if f == 0 {
		return "0"
	}

	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}

	mantissa, exponent, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	digits := strings.Replace(mantissa, ".", "", 1)
	e, _ := strconv.Atoi(exponent)

	k := len(digits)
	n := e + 1

	var s string
	switch {
	case k <= n && n <= 21:
		s = digits + strings.Repeat("0", n-k)
	case 0 < n && n <= 21:
		s = digits[:n] + "." + digits[n:]
	case -6 < n && n <= 0:
		s = "0." + strings.Repeat("0", -n) + digits
	default:
		expSign := "+"
		if n-1 < 0 {
			expSign = "-"
		}
		exp := strconv.Itoa(abs(n - 1))
		if k == 1 {
			s = digits + "e" + expSign + exp
		} else {
			s = digits[:1] + "." + digits[1:] + "e" + expSign + exp
		}
	}

	return sign + s
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

const hexDigits = "0123456789abcdef"

// writeString quotes s escaping only quote, backslash and control characters.
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[r>>4])
				buf.WriteByte(hexDigits[r&0xf])
				continue
			}
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}
