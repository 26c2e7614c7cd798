package models

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// DecodeForm fills dst from multipart/urlencoded form values. Keys listed in
// flags are parsed with ParseFlag; every other known key is taken verbatim.
// Server-assigned keys are ignored.
func DecodeForm(values url.Values, flags []string, dst any) error {
	isFlag := make(map[string]bool, len(flags))
	for _, f := range flags {
		isFlag[f] = true
	}
	doc := make(map[string]any, len(values))
	for key, vs := range values {
		if key == "id" || key == "dateEnregistrement" || len(vs) == 0 {
			continue
		}
		if isFlag[key] {
			doc[key] = bool(ParseFlag(vs[0]))
			continue
		}
		doc[key] = vs[0]
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode form: %w", err)
	}
	return nil
}
