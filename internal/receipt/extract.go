package receipt

import "strings"

// Field extraction over the schema-free OCR result. The wire shape of each
// field varies between service versions (bare scalar, typed value object,
// wrapped arrays), so every accessor tries the observed shapes in a fixed
// order and reports absence instead of failing.

// pickString returns the first candidate field that yields a non-blank
// string, or "".
func pickString(fields map[string]any, candidates ...string) string {
	for _, key := range candidates {
		node, ok := fields[key]
		if !ok {
			continue
		}
		if s := stringValue(node); strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// pickNumber returns the first candidate field that yields a number, or nil.
func pickNumber(fields map[string]any, candidates ...string) *float64 {
	for _, key := range candidates {
		node, ok := fields[key]
		if !ok {
			continue
		}
		if n := numberValue(node); n != nil {
			return n
		}
	}
	return nil
}

// stringValue unwraps a string from a node. Precedence inside a value
// object: valueString, content, value, valueDate, valueTime.
func stringValue(node any) string {
	switch v := node.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		for _, key := range []string{"valueString", "content", "value", "valueDate", "valueTime"} {
			if s, ok := v[key].(string); ok {
				return s
			}
		}
	}
	return ""
}

// numberValue unwraps a number from a node. Currency objects contribute
// only their amount.
func numberValue(node any) *float64 {
	switch v := node.(type) {
	case nil:
		return nil
	case float64:
		f := v
		return &f
	case int:
		f := float64(v)
		return &f
	case map[string]any:
		if n, ok := asFloat(v["valueNumber"]); ok {
			return &n
		}
		if cur, ok := v["valueCurrency"].(map[string]any); ok {
			if n, ok := asFloat(cur["amount"]); ok {
				return &n
			}
		}
		if n, ok := asFloat(v["value"]); ok {
			return &n
		}
	}
	return nil
}

// valueArray unwraps the line-item collection from its three observed wire
// shapes: a bare array, {"valueArray": [...]}, or {"value": [...]} where
// the inner value may itself carry one more valueArray wrapper.
func valueArray(node any) []any {
	switch v := node.(type) {
	case nil:
		return nil
	case []any:
		return v
	case map[string]any:
		if va, ok := v["valueArray"].([]any); ok {
			return va
		}
		switch inner := v["value"].(type) {
		case []any:
			return inner
		case map[string]any:
			if va, ok := inner["valueArray"].([]any); ok {
				return va
			}
		}
	}
	return nil
}

// valueObject unwraps one array element's detail object from either a
// "valueObject" or a "value" wrapper.
func valueObject(elem any) map[string]any {
	m, ok := elem.(map[string]any)
	if !ok {
		return nil
	}
	if vo, ok := m["valueObject"].(map[string]any); ok {
		return vo
	}
	if v, ok := m["value"].(map[string]any); ok {
		return v
	}
	return nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int: // unlikely from encoding/json, but harmless to support
		return float64(n), true
	}
	return 0, false
}
