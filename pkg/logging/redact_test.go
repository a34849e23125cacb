package logging

import (
	"reflect"
	"testing"
)

func TestRedactConfig(t *testing.T) {
	config := map[string]any{
		"api_key":  "sk-secret",
		"endpoint": "https://api.example.com",
		"nested": map[string]any{
			"token": "abc",
			"model": "mock-xl",
		},
		"list": []any{
			map[string]any{"api_key": "another"},
			"plain",
		},
	}

	got := RedactConfig(config, RedactionPolicy{RedactKeys: []string{"api_key", "token"}})

	want := map[string]any{
		"api_key":  RedactedText,
		"endpoint": "https://api.example.com",
		"nested": map[string]any{
			"token": RedactedText,
			"model": "mock-xl",
		},
		"list": []any{
			map[string]any{"api_key": RedactedText},
			"plain",
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RedactConfig() = %#v, want %#v", got, want)
	}

	// Original must not be mutated.
	if config["api_key"] != "sk-secret" {
		t.Error("RedactConfig mutated its input")
	}
}

func TestRedactConfigNil(t *testing.T) {
	got := RedactConfig(nil, RedactionPolicy{RedactKeys: []string{"x"}})
	if got == nil || len(got) != 0 {
		t.Errorf("RedactConfig(nil) = %#v, want empty map", got)
	}
}

func TestRedactConfigEmptyPolicy(t *testing.T) {
	config := map[string]any{"api_key": "keep"}
	got := RedactConfig(config, RedactionPolicy{})
	if got["api_key"] != "keep" {
		t.Errorf("empty policy redacted a value: %#v", got)
	}
}
