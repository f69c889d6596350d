package identity

import "testing"

func TestNormalizeUsername(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in       string
		want     string
		tooShort bool
	}{
		{in: "alice", want: "alice"},
		{in: "  Alice  ", want: "Alice"},
		{in: "  ab  ", want: "ab", tooShort: true},
		{in: "äöü", want: "äöü"},
		{in: " \t ", want: "", tooShort: true},
	}

	for _, tc := range cases {
		got := NormalizeUsername(tc.in)
		if got != tc.want {
			t.Fatalf("NormalizeUsername(%q)=%q want=%q", tc.in, got, tc.want)
		}
		if UsernameTooShort(got) != tc.tooShort {
			t.Fatalf("UsernameTooShort(%q)=%v want=%v", got, !tc.tooShort, tc.tooShort)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	if got := NormalizeEmail("  Bob@Example.COM "); got != "bob@example.com" {
		t.Fatalf("NormalizeEmail=%q", got)
	}
}
