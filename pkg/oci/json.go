package oci

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
)

// FromFile decodes the JSON document at path into v.
func FromFile(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return IO("open "+path, err)
	}
	defer f.Close()
	return FromReader(f, v)
}

// FromReader decodes a single JSON document from r into v.
func FromReader(r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return SerDe("decode", err)
	}
	return nil
}

// FromBytes decodes b into v.
func FromBytes(b []byte, v any) error {
	if err := json.Unmarshal(b, v); err != nil {
		return SerDe("decode", err)
	}
	return nil
}

// ToFile writes v to path, creating or truncating the file.
func ToFile(path string, v any, pretty bool) error {
	f, err := os.Create(path)
	if err != nil {
		return IO("create "+path, err)
	}
	if err := ToWriter(f, v, pretty); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return IO("close "+path, err)
	}
	return nil
}

// ToWriter encodes v to w without a trailing newline.
func ToWriter(w io.Writer, v any, pretty bool) error {
	b, err := Marshal(v, pretty)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return IO("write", err)
	}
	return nil
}

func ToString(v any, pretty bool) (string, error) {
	b, err := Marshal(v, pretty)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Marshal encodes v as compact or two-space indented JSON. HTML characters
// are not escaped so annotations round-trip byte for byte.
func Marshal(v any, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, SerDe("encode", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
