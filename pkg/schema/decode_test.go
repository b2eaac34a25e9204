package schema

import "testing"

type decodeArgs struct {
	Name    string   `json:"name"`
	Retries int      `json:"retries"`
	Tags    []string `json:"tags"`
}

func TestDecode_Struct(t *testing.T) {
	args := map[string]any{
		"name":    "alice",
		"retries": float64(3), // JSON numbers arrive as float64
		"tags":    []any{"a", "b"},
	}

	var out decodeArgs
	if err := Decode(args, &out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if out.Name != "alice" || out.Retries != 3 || len(out.Tags) != 2 {
		t.Errorf("Decode() = %+v, want populated struct", out)
	}
}

func TestDecode_IgnoresExtraFields(t *testing.T) {
	args := map[string]any{
		"name":  "alice",
		"extra": "ignored",
	}

	var out decodeArgs
	if err := Decode(args, &out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if out.Name != "alice" {
		t.Errorf("Decode() Name = %q, want alice", out.Name)
	}
}
