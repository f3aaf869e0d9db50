package persist

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Codec serialises snapshot envelopes for the file store.
type Codec interface {
	Name() string
	Extension() string
	Marshal(value any) ([]byte, error)
	Unmarshal(payload []byte, target any) error
}

// JSONCodec encodes envelopes as indented JSON. It is the default codec.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Extension() string { return ".json" }

func (JSONCodec) Marshal(value any) ([]byte, error) {
	return json.MarshalIndent(value, "", "  ")
}

func (JSONCodec) Unmarshal(payload []byte, target any) error {
	return json.Unmarshal(payload, target)
}

// YAMLCodec encodes envelopes as YAML for hand-edited snapshot files.
type YAMLCodec struct{}

func (YAMLCodec) Name() string { return "yaml" }

func (YAMLCodec) Extension() string { return ".yaml" }

func (YAMLCodec) Marshal(value any) ([]byte, error) {
	return yaml.Marshal(value)
}

func (YAMLCodec) Unmarshal(payload []byte, target any) error {
	return yaml.Unmarshal(payload, target)
}
