package sample

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Unmarshal decodes the reconstructed value into out, honoring json struct
// tags the same way the schema builder does.
func (e *Engine) Unmarshal(out any) error {
	v, err := e.FinalValue()
	if err != nil {
		return err
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("sample: %w", err)
	}
	return dec.Decode(v)
}
