package config

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/keyplate/pkg/errors"
)

// LoadFile reads a keyboard description from disk. The format is chosen by
// extension: .toml, or .json.
func LoadFile(path string) (Value, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Value{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
	}
	if err != nil {
		return Value{}, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return ParseTOML(data)
	case ".json":
		return ParseJSON(data)
	}
	return Value{}, errors.New(errors.ErrCodeInvalidFormat, "unsupported config format %q (want .toml or .json)", filepath.Ext(path))
}

// ParseTOML decodes a TOML document. Key order is recovered from the
// decoder's metadata, which lists keys in the order they appear.
func ParseTOML(data []byte) (Value, error) {
	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return Value{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse TOML")
	}
	positions := make(map[string]int)
	for i, k := range md.Keys() {
		p := strings.Join(k, "\x00")
		if _, ok := positions[p]; !ok {
			positions[p] = i
		}
	}
	order := func(path []string) (int, bool) {
		i, ok := positions[strings.Join(path, "\x00")]
		return i, ok
	}
	v, err := fromAny(raw, order)
	if err != nil {
		return Value{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "convert TOML")
	}
	return v, nil
}

// ParseJSON decodes a JSON document token by token so object key order
// survives.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSON(dec)
	if err != nil {
		return Value{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse JSON")
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, errors.New(errors.ErrCodeInvalidFormat, "parse JSON: trailing data")
	}
	return v, nil
}

func decodeJSON(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			out := EmptyMap()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, _ := kt.(string)
				v, err := decodeJSON(dec)
				if err != nil {
					return Value{}, err
				}
				out = out.With(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return out, nil
		case '[':
			var items []Value
			for dec.More() {
				v, err := decodeJSON(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, v)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Seq(items...), nil
		}
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return Value{}, err
		}
		return Number(n), nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	}
	return Value{}, errors.New(errors.ErrCodeInvalidFormat, "unexpected JSON token %v", tok)
}
