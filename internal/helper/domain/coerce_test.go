package helper

import (
	"encoding/json"
	"math"
	"testing"
)

func TestCoerceBooleanTokens(t *testing.T) {
	for _, raw := range []any{true, "true", "on", "1", "yes", " ON "} {
		value, err := Coerce(KindBoolean, raw, nil)
		if err != nil {
			t.Fatalf("coerce %v: %v", raw, err)
		}
		if !value.Bool {
			t.Fatalf("expected %v to coerce to true", raw)
		}
	}
	for _, raw := range []any{false, "false", "off", "0", "no"} {
		value, err := Coerce(KindBoolean, raw, nil)
		if err != nil {
			t.Fatalf("coerce %v: %v", raw, err)
		}
		if value.Bool {
			t.Fatalf("expected %v to coerce to false", raw)
		}
	}
	if _, err := Coerce(KindBoolean, "maybe", nil); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := Coerce(KindBoolean, 3.14, nil); !IsValidation(err) {
		t.Fatalf("expected validation error for float, got %v", err)
	}
}

func TestCoerceNumber(t *testing.T) {
	cases := map[any]float64{
		42:                   42,
		int64(7):             7,
		3.5:                  3.5,
		"12.25":              12.25,
		json.Number("100.5"): 100.5,
	}
	for raw, want := range cases {
		value, err := Coerce(KindNumber, raw, nil)
		if err != nil {
			t.Fatalf("coerce %v: %v", raw, err)
		}
		if value.Number != want {
			t.Fatalf("coerce %v: got %v want %v", raw, value.Number, want)
		}
	}

	if _, err := Coerce(KindNumber, "abc", nil); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := Coerce(KindNumber, math.NaN(), nil); !IsValidation(err) {
		t.Fatalf("expected NaN to be rejected, got %v", err)
	}
	if _, err := Coerce(KindNumber, math.Inf(1), nil); !IsValidation(err) {
		t.Fatalf("expected Inf to be rejected, got %v", err)
	}
}

func TestCoerceSelect(t *testing.T) {
	options := []string{"low", "medium", "high"}

	value, err := Coerce(KindSelect, "medium", options)
	if err != nil {
		t.Fatalf("coerce: %v", err)
	}
	if value.Text != "medium" {
		t.Fatalf("got %q", value.Text)
	}

	if _, err := Coerce(KindSelect, "extreme", options); !IsValidation(err) {
		t.Fatalf("expected validation error for non-member, got %v", err)
	}
	if _, err := Coerce(KindSelect, "low", nil); !IsValidation(err) {
		t.Fatalf("expected validation error for empty options, got %v", err)
	}
}

func TestCoerceNilRejected(t *testing.T) {
	if _, err := Coerce(KindText, nil, nil); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCoerceIdempotent(t *testing.T) {
	first, err := Coerce(KindNumber, "21.5", nil)
	if err != nil {
		t.Fatalf("coerce: %v", err)
	}
	second, err := Coerce(KindNumber, first, nil)
	if err != nil {
		t.Fatalf("recoerce: %v", err)
	}
	if !first.Equal(second) {
		t.Fatalf("coercion not idempotent: %v vs %v", first, second)
	}
}

func TestValueString(t *testing.T) {
	on := Value{Kind: KindBoolean, Bool: true}
	if on.String() != "on" {
		t.Fatalf("got %q", on.String())
	}
	off := Value{Kind: KindBoolean}
	if off.String() != "off" {
		t.Fatalf("got %q", off.String())
	}
	num := Value{Kind: KindNumber, Number: 21.5}
	if num.String() != "21.5" {
		t.Fatalf("got %q", num.String())
	}
}
