package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MergeJSON writes the typed user over base, the JSON object the API sent,
// and returns the result. Fields base carries that User does not model are
// kept at every nesting level. A typed string equal to a base number keeps
// the number.
func (u *User) MergeJSON(base json.RawMessage) (json.RawMessage, error) {
	typed, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user: %w", err)
	}
	if len(bytes.TrimSpace(base)) == 0 {
		return typed, nil
	}

	baseObj, err := decodeObject(base)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored user: %w", err)
	}
	typedObj, err := decodeObject(typed)
	if err != nil {
		return nil, err
	}

	merged, err := json.Marshal(mergeObjects(baseObj, typedObj))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user: %w", err)
	}
	return merged, nil
}

func decodeObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		obj = map[string]any{}
	}
	return obj, nil
}

func mergeObjects(base, over map[string]any) map[string]any {
	for key, v := range over {
		switch ov := v.(type) {
		case map[string]any:
			if bv, ok := base[key].(map[string]any); ok {
				base[key] = mergeObjects(bv, ov)
				continue
			}
		case []any:
			if bv, ok := base[key].([]any); ok && len(bv) == len(ov) {
				base[key] = mergeLists(bv, ov)
				continue
			}
		case string:
			if bn, ok := base[key].(json.Number); ok && bn.String() == ov {
				continue
			}
		}
		base[key] = v
	}
	return base
}

// mergeLists merges element-wise; objects merge, anything else is replaced
func mergeLists(base, over []any) []any {
	for i, v := range over {
		bm, bok := base[i].(map[string]any)
		om, ook := v.(map[string]any)
		if bok && ook {
			base[i] = mergeObjects(bm, om)
			continue
		}
		base[i] = v
	}
	return base
}
