// Package charset converts subtitle and lyric files to UTF-8.
package charset

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// ToUTF8 detects the encoding of data and transcodes it to UTF-8. Valid
// UTF-8 input is returned as is, minus a leading byte order mark.
func ToUTF8(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	if utf8.Valid(data) {
		return bytes.TrimPrefix(data, utf8BOM), nil
	}

	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil {
		return nil, fmt.Errorf("failed to detect charset: %w", err)
	}
	if result.Charset == "UTF-8" {
		return bytes.TrimPrefix(data, utf8BOM), nil
	}

	enc, err := lookup(result.Charset)
	if err != nil {
		return nil, err
	}

	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", result.Charset, err)
	}
	return bytes.TrimPrefix(out, utf8BOM), nil
}

// lookup resolves a detector charset name, trying IANA names before MIB
// identifiers.
func lookup(name string) (encoding.Encoding, error) {
	for _, index := range []*ianaindex.Index{ianaindex.IANA, ianaindex.MIB} {
		enc, err := index.Encoding(name)
		if err == nil && enc != nil {
			return enc, nil
		}
	}
	return nil, fmt.Errorf("unsupported charset %s", name)
}
