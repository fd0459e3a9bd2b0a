// Package connectjson lets Connect handlers carry plain JSON-RPC structs.
package connectjson

import (
	"bytes"
	"encoding/json"

	"github.com/bufbuild/connect-go"
)

// Codec encodes JSON without HTML escaping, since tool output is Markdown.
type Codec struct{}

func (Codec) Name() string {
	return "json"
}

func (Codec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Unmarshal leaves v untouched for an empty body.
func (Codec) Unmarshal(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

var _ connect.Codec = (*Codec)(nil)
