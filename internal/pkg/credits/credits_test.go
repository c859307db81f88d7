package credits

import "testing"

func TestParseType(t *testing.T) {
	t.Parallel()

	valid := map[string]Type{
		"image":   TypeImage,
		"video":   TypeVideo,
		"text":    TypeText,
		" Image ": TypeImage,
		"TEXT":    TypeText,
	}
	for raw, want := range valid {
		got, err := ParseType(raw)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("%q: expected %s, got %s", raw, want, got)
		}
	}

	for _, raw := range []string{"", "gold", "images", "credits"} {
		if _, err := ParseType(raw); err == nil {
			t.Fatalf("%q: expected error", raw)
		}
	}
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	got, err := ParseAmount(" 500 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 500 {
		t.Fatalf("expected 500, got %d", got)
	}

	for _, raw := range []string{"", "0", "-1", "abc", "1.5"} {
		if _, err := ParseAmount(raw); err == nil {
			t.Fatalf("%q: expected error", raw)
		}
	}
}
