package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// MaxNesting bounds the container depth accepted by Decode.
const MaxNesting = 10000

// Parse decodes a single JSON value from data.
func Parse(data []byte) (Node, error) {
	return Decode(bytes.NewReader(data))
}

// MustParse is Parse for fixtures; it panics on invalid input.
func MustParse(data string) Node {
	n, err := Parse([]byte(data))
	if err != nil {
		panic(err)
	}
	return n
}

// Decode reads the first JSON value from r. Trailing content after that
// value is ignored so callers can point it at the middle of an HTML page.
// Every decoding failure matches ErrMalformed.
func Decode(r io.Reader) (Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	n, err := decodeValue(dec, 0)
	if errors.Is(err, ErrMalformed) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return n, nil
}

func decodeValue(dec *json.Decoder, depth int) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return Scalar{Value: tok}, nil
	}
	if depth >= MaxNesting {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrMalformed, MaxNesting)
	}

	switch delim {
	case '{':
		m := NewMapping()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("read key: %w", err)
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("%w: non-string key %v", ErrMalformed, keyTok)
			}
			value, err := decodeValue(dec, depth+1)
			if err != nil {
				return nil, err
			}
			m.Set(key, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("close object: %w", err)
		}
		return m, nil
	case '[':
		seq := Sequence{}
		for dec.More() {
			value, err := decodeValue(dec, depth+1)
			if err != nil {
				return nil, err
			}
			seq = append(seq, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("close array: %w", err)
		}
		return seq, nil
	}

	return nil, fmt.Errorf("%w: unexpected delimiter %q", ErrMalformed, delim)
}

// FromValue converts a tree produced by encoding/json (map[string]any,
// []any and scalars) into a Node. Go maps carry no order, so mapping keys
// are sorted to keep traversal deterministic.
func FromValue(v any) Node {
	switch typed := v.(type) {
	case Node:
		return typed
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for k := range typed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMapping()
		for _, k := range keys {
			m.Set(k, FromValue(typed[k]))
		}
		return m
	case []any:
		seq := make(Sequence, 0, len(typed))
		for _, e := range typed {
			seq = append(seq, FromValue(e))
		}
		return seq
	}
	return Scalar{Value: v}
}
