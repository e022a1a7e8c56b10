package domain

import "testing"

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "capitalized noun", input: "Haus", want: "haus"},
		{name: "all caps", input: "SCHULE", want: "schule"},
		{name: "surrounding whitespace", input: "  Baum \t", want: "baum"},
		{name: "inner whitespace collapsed", input: "sich   freuen\tauf", want: "sich freuen auf"},
		{name: "newline and no-break space", input: "zu\nHause\u00a0sein", want: "zu hause sein"},
		{name: "umlauts", input: "Ärger Über", want: "ärger über"},
		{name: "decomposed umlaut", input: "Gro\u0308\u00dfe", want: "größe"},
		{name: "eszett preserved", input: "Straße", want: "straße"},
		{name: "capital eszett", input: "STRA\u1e9eE", want: "straße"},
		{name: "hyphen preserved", input: "E-Mail", want: "e-mail"},
		{name: "empty", input: "", want: ""},
		{name: "only whitespace", input: " \t\n", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeText(tt.input); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
