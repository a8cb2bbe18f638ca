package atomq

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Codec defines the serialization contract for dehydrated state. Hydrator
// uses the Unmarshal side to decode snapshots from a Source; Persister uses
// the Marshal side to write them back out. Implement this interface to
// round-trip snapshots in alternative formats.
type Codec interface {
	// Marshal serializes a value into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal deserializes bytes into a value.
	Unmarshal(data []byte, v any) error

	// ContentType returns the MIME type for observability and debugging.
	ContentType() string
}

// JSONCodec implements Codec using encoding/json. This is the default
// codec for both hydration and persistence.
type JSONCodec struct{}

// Marshal serializes v as indented JSON so persisted snapshots stay
// readable when inspected or hand-edited.
func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// Unmarshal deserializes JSON bytes into v.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// ContentType returns the JSON MIME type.
func (JSONCodec) ContentType() string {
	return "application/json"
}

var _ Codec = JSONCodec{}

// YAMLCodec implements Codec using gopkg.in/yaml.v3. YAML also accepts
// plain JSON, so it suits hand-maintained snapshot files.
type YAMLCodec struct{}

// Marshal serializes v as YAML.
func (YAMLCodec) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

// Unmarshal deserializes YAML bytes into v.
func (YAMLCodec) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

// ContentType returns the YAML MIME type.
func (YAMLCodec) ContentType() string {
	return "application/x-yaml"
}

var _ Codec = YAMLCodec{}
