package utils

import (
	"encoding/json"
)

// Marshal generic struct to JSON
func MarshalToJSON[T any](input T) (string, error) {
	jsonData, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

// Unmarshal JSON to generic struct
func UnmarshalFromJSON[T any](data []byte, output *T) error {
	return json.Unmarshal(data, output)
}

// FlexString decodes CMDB-style fields that arrive either as a plain JSON
// string or as a reference object {"value": "...", "display_value": "..."}.
// Everything downstream of the decode sees a plain string; no caller should
// ever branch on the wire shape.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}

	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*f = FlexString(plain)
		return nil
	}

	var ref struct {
		Value        string `json:"value"`
		DisplayValue string `json:"display_value"`
	}
	if err := json.Unmarshal(data, &ref); err != nil {
		return err
	}
	if ref.DisplayValue != "" {
		*f = FlexString(ref.DisplayValue)
	} else {
		*f = FlexString(ref.Value)
	}
	return nil
}

func (f FlexString) String() string {
	return string(f)
}
