package sanitize

import "testing"

func TestTextStripsMarkup(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain note", "plain note"},
		{"<script>alert(1)</script>high usage", "high usage"},
		{"<b>bold</b> reading", "bold reading"},
		{"  padded  ", "padded"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Text(tc.in); got != tc.want {
			t.Fatalf("Text(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
