package httpserver

import (
	"reflect"
	"testing"
)

func TestParseJSON(t *testing.T) {
	body := `{"name":"Ada","count":2}`

	value, err := ParseJSON(&body)
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}

	want := map[string]any{"name": "Ada", "count": float64(2)}
	if !reflect.DeepEqual(value, want) {
		t.Errorf("ParseJSON() = %v, want %v", value, want)
	}
}

func TestParseJSON_Array(t *testing.T) {
	body := `[1, 2, 3]`

	value, err := ParseJSON(&body)
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	if _, ok := value.([]any); !ok {
		t.Errorf("ParseJSON() type = %T, want array", value)
	}
}

func TestParseJSON_NilBody(t *testing.T) {
	if _, err := ParseJSON(nil); err == nil {
		t.Error("ParseJSON(nil) expected error, got nil")
	}
}

func TestParseJSON_Invalid(t *testing.T) {
	body := `{"unterminated`
	if _, err := ParseJSON(&body); err == nil {
		t.Error("ParseJSON() expected error for invalid JSON, got nil")
	}
}
