package util

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncoding is used for sources and output when none is configured.
const DefaultEncoding = "utf-8"

// LookupEncoding resolves a WHATWG encoding label such as "utf-8", "gbk" or
// "iso-8859-1". An empty label means DefaultEncoding.
func LookupEncoding(label string) (encoding.Encoding, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		label = DefaultEncoding
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	return enc, nil
}

// ReadFileEncoded reads path and decodes it to UTF-8.
func ReadFileEncoded(path, label string) ([]byte, error) {
	enc, err := LookupEncoding(label)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if enc == unicode.UTF8 {
		return raw, nil
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s as %s: %w", path, label, err)
	}
	return decoded, nil
}

// WriteFileEncoded encodes UTF-8 data with label and writes it, creating
// parent directories.
func WriteFileEncoded(path string, data []byte, label string) error {
	enc, err := LookupEncoding(label)
	if err != nil {
		return err
	}
	if enc != unicode.UTF8 {
		data, err = enc.NewEncoder().Bytes(data)
		if err != nil {
			return fmt.Errorf("encode %s as %s: %w", path, label, err)
		}
	}
	return WriteFileWithDirs(path, data, 0o644)
}
