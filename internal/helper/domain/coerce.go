package helper

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is the canonical, kind-typed reading of a helper.
type Value struct {
	Kind   Kind
	Bool   bool
	Number float64
	Text   string
}

// Native returns the canonical Go representation of the value.
func (v Value) Native() any {
	switch v.Kind {
	case KindBoolean:
		return v.Bool
	case KindNumber:
		return v.Number
	default:
		return v.Text
	}
}

// Float returns the value as a float64 when it is numeric.
func (v Value) Float() (float64, bool) {
	if v.Kind == KindNumber {
		return v.Number, true
	}
	return 0, false
}

// String renders the value the way Home Assistant states render it.
func (v Value) String() string {
	switch v.Kind {
	case KindBoolean:
		if v.Bool {
			return "on"
		}
		return "off"
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	default:
		return v.Text
	}
}

// Equal reports whether two values are the same reading.
func (v Value) Equal(other Value) bool {
	return v == other
}

// MarshalJSON emits the native representation.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Native())
}

var (
	trueTokens  = map[string]bool{"true": true, "on": true, "1": true, "yes": true}
	falseTokens = map[string]bool{"false": true, "off": true, "0": true, "no": true}
)

// Coerce converts a raw input value to the canonical value for a helper kind,
// validating select-option membership. It has no side effects and is
// idempotent over its own output.
func Coerce(kind Kind, raw any, options []string) (Value, error) {
	if raw == nil {
		return Value{}, NewValidationError("value must not be null")
	}
	if v, ok := raw.(Value); ok {
		raw = v.Native()
	}

	switch kind {
	case KindBoolean:
		return coerceBoolean(raw)
	case KindNumber:
		return coerceNumber(raw)
	case KindSelect:
		return coerceSelect(raw, options)
	case KindText:
		return Value{Kind: KindText, Text: stringify(raw)}, nil
	default:
		return Value{}, NewValidationError("unknown kind %q", kind)
	}
}

func coerceBoolean(raw any) (Value, error) {
	switch v := raw.(type) {
	case bool:
		return Value{Kind: KindBoolean, Bool: v}, nil
	case string:
		token := strings.ToLower(strings.TrimSpace(v))
		if trueTokens[token] {
			return Value{Kind: KindBoolean, Bool: true}, nil
		}
		if falseTokens[token] {
			return Value{Kind: KindBoolean, Bool: false}, nil
		}
		return Value{}, NewValidationError("%q is not a boolean value", v)
	default:
		return Value{}, NewValidationError("%v is not a boolean value", raw)
	}
}

func coerceNumber(raw any) (Value, error) {
	switch v := raw.(type) {
	case float64:
		return numberValue(v)
	case float32:
		return numberValue(float64(v))
	case int:
		return numberValue(float64(v))
	case int64:
		return numberValue(float64(v))
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return Value{}, NewValidationError("%q is not a number", v.String())
		}
		return numberValue(parsed)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return Value{}, NewValidationError("%q is not a number", v)
		}
		return numberValue(parsed)
	default:
		return Value{}, NewValidationError("%v is not a number", raw)
	}
}

func numberValue(v float64) (Value, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}, NewValidationError("number must be finite")
	}
	return Value{Kind: KindNumber, Number: v}, nil
}

func coerceSelect(raw any, options []string) (Value, error) {
	if len(options) == 0 {
		return Value{}, NewValidationError("select helper has no options")
	}
	candidate := stringify(raw)
	for _, option := range options {
		if option == candidate {
			return Value{Kind: KindSelect, Text: candidate}, nil
		}
	}
	return Value{}, NewValidationError("%q is not one of the allowed options", candidate)
}

func stringify(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", raw)
	}
}
