package textnorm

import "testing"

func TestClean_Table(t *testing.T) {
	tests := []struct {
		name string
		in   string
		out  string
	}{
		{
			name: "identity ascii",
			in:   "hello world",
			out:  "hello world",
		},
		{
			name: "utf8 repair drops invalid bytes",
			in:   string([]byte{0xff, 'f', 'o', 'o', 0x80, ' ', 'b', 'a', 'r'}),
			out:  "foo bar",
		},
		{
			name: "casing preserved",
			in:   "Hook Line CTA",
			out:  "Hook Line CTA",
		},
		{
			name: "remove zero-widths",
			in:   "wa​tch un‍til the end",
			out:  "watch until the end",
		},
		{
			name: "nfkc ligature",
			in:   "oﬃce vlog",
			out:  "office vlog",
		},
		{
			name: "collapse spaces and tabs",
			in:   "a\t\tb   c",
			out:  "a b c",
		},
		{
			name: "single newline preserved",
			in:   "line one\nline two",
			out:  "line one\nline two",
		},
		{
			name: "blank line capped at one",
			in:   "para one\n\n\n\npara two",
			out:  "para one\n\npara two",
		},
		{
			name: "crlf folds to lf",
			in:   "a\r\nb",
			out:  "a\nb",
		},
		{
			name: "trim surrounding whitespace",
			in:   "  \n hello \n ",
			out:  "hello",
		},
		{
			name: "empty",
			in:   "",
			out:  "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Clean(tc.in); got != tc.out {
				t.Fatalf("got %q, want %q", got, tc.out)
			}
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	in := "  Hook​ line\t one \n\n\n and   more  "
	once := Clean(in)
	if twice := Clean(once); twice != once {
		t.Fatalf("not idempotent: %q vs %q", twice, once)
	}
}
