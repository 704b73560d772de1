package command

import (
	"reflect"
	"testing"
)

func TestParseMissingPrefix(t *testing.T) {
	if _, _, _, err := Parse("say hi"); err != ErrMissingPrefix {
		t.Fatalf("err = %v, want ErrMissingPrefix", err)
	}
}

func TestParseSplitsPositionalAndNamed(t *testing.T) {
	name, positional, named, err := Parse(`/attack goblin style:aggressive`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if name != "attack" {
		t.Fatalf("name = %q", name)
	}
	if !reflect.DeepEqual(positional, []string{"goblin"}) {
		t.Fatalf("positional = %v", positional)
	}
	if named["style"] != "aggressive" {
		t.Fatalf("named = %v", named)
	}
}

func TestParseQuotedSpanPreservesWhitespace(t *testing.T) {
	_, positional, _, err := Parse(`/say "hello there friend"`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(positional, []string{"hello there friend"}) {
		t.Fatalf("positional = %v", positional)
	}
}

func TestParseInvalidName(t *testing.T) {
	if _, _, _, err := Parse(`/Say hi`); err != ErrInvalidName {
		t.Fatalf("err = %v, want ErrInvalidName", err)
	}
}

func TestParseRenderRoundTrip(t *testing.T) {
	cases := []string{
		`/say hello`,
		`/say "hello there"`,
		`/attack goblin ability:fireball`,
	}
	for _, line := range cases {
		name, positional, named, err := Parse(line)
		if err != nil {
			t.Fatalf("Parse(%q): %v", line, err)
		}
		rendered := Render(name, positional, named)
		name2, positional2, named2, err := Parse(rendered)
		if err != nil {
			t.Fatalf("Parse(Render(%q)) = %q: %v", line, rendered, err)
		}
		if name2 != name || !reflect.DeepEqual(positional2, positional) || !reflect.DeepEqual(named2, named) {
			t.Fatalf("round-trip mismatch: %q -> %q", line, rendered)
		}
	}
}
