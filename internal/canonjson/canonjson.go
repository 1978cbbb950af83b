// Package canonjson provides a deterministic JSON encoder for baseline files.
//
// Baseline files are diffed by humans and by version control, so encoding the
// same logical value must always produce the same bytes. The standard library
// marshaler does not guarantee this for the general value universe used here,
// so mapping keys are sorted explicitly and numbers use fixed formatting.
package canonjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"apiguard/internal/errors"
)

// Encode serializes a value from the closed universe {map[string]interface{},
// []interface{}, string, int, int64, float64, bool, nil} into canonical bytes.
// Mapping keys are emitted in lexicographic order; sequence order is preserved.
func Encode(value interface{}) ([]byte, error) {
	var b bytes.Buffer
	if err := encodeValue(&b, value); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func encodeValue(b *bytes.Buffer, value interface{}) error {
	switch v := value.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if v {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case string:
		encodeString(b, v)
	case int:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case int64:
		b.WriteString(strconv.FormatInt(v, 10))
	case float64:
		// Integral floats render without a fractional part so values that
		// round-trip through standard JSON decoding stay byte-stable.
		if v == float64(int64(v)) {
			b.WriteString(strconv.FormatInt(int64(v), 10))
		} else {
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
	case []interface{}:
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := encodeValue(b, item); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			encodeString(b, k)
			b.WriteByte(':')
			if err := encodeValue(b, v[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			encodeString(b, k)
			b.WriteByte(':')
			encodeString(b, v[k])
		}
		b.WriteByte('}')
	default:
		return errors.New(errors.SerializationError,
			fmt.Sprintf("unsupported value of type %T", value), nil)
	}
	return nil
}

func encodeString(b *bytes.Buffer, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(b, `\u%04x`, r)
			} else if r == utf8.RuneError {
				// Invalid UTF-8 input bytes degrade to the replacement rune.
				b.WriteRune(utf8.RuneError)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}

// Decode parses canonical bytes back into the generic value universe.
// Canonical output is valid JSON, so standard decoding suffices here;
// determinism only matters on the encode side.
func Decode(data []byte) (interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, errors.New(errors.SerializationError, "invalid canonical document", err)
	}
	return normalizeDecoded(value), nil
}

// normalizeDecoded maps json.Number back into the encoder's value universe.
func normalizeDecoded(value interface{}) interface{} {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		f, _ := v.Float64()
		return f
	case []interface{}:
		for i, item := range v {
			v[i] = normalizeDecoded(item)
		}
		return v
	case map[string]interface{}:
		for k, item := range v {
			v[k] = normalizeDecoded(item)
		}
		return v
	default:
		return v
	}
}
