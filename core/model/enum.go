package model

import "encoding/json"

func marshalEnum(s string) ([]byte, error) { return json.Marshal(s) }

// unmarshalEnum decodes a JSON string and parses it with the given parser.
// Unknown values surface as ValidationError so API handlers can map them
// to a 400 response.
func unmarshalEnum[T any](b []byte, dst *T, parse func(string) (T, error)) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := parse(s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// unmarshalEnumText parses a bare text value, as yaml.v3 and other text
// decoders hand it over via encoding.TextUnmarshaler.
func unmarshalEnumText[T any](b []byte, dst *T, parse func(string) (T, error)) error {
	v, err := parse(string(b))
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
