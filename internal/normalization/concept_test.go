package normalization

import "testing"

func TestConceptName(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "lowercases",
			raw:  "Deadlock",
			want: "deadlock",
		},
		{
			name: "strips_punctuation",
			raw:  "Dijkstra's Algorithm!",
			want: "dijkstras algorithm",
		},
		{
			name: "collapses_whitespace",
			raw:  "  Binary \t Search \n Tree  ",
			want: "binary search tree",
		},
		{
			name: "keeps_digits",
			raw:  "IPv4 Addressing",
			want: "ipv4 addressing",
		},
		{
			name: "unicode_dropped",
			raw:  "caché",
			want: "cach",
		},
		{
			name: "empty",
			raw:  "",
			want: "",
		},
		{
			name: "only_punctuation",
			raw:  "***",
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ConceptName(tc.raw)
			if got != tc.want {
				t.Fatalf("ConceptName(%q)=%q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestConceptNameIdempotent(t *testing.T) {
	inputs := []string{"Deadlock", "  Binary   Search  ", "TCP/IP Model", "semaphore"}
	for _, raw := range inputs {
		once := ConceptName(raw)
		twice := ConceptName(once)
		if once != twice {
			t.Fatalf("ConceptName not idempotent for %q: first %q, second %q", raw, once, twice)
		}
	}
}

func TestDisplayName(t *testing.T) {
	got := DisplayName("  Dijkstra's\n Algorithm ")
	if got != "Dijkstra's Algorithm" {
		t.Fatalf("DisplayName=%q, want %q", got, "Dijkstra's Algorithm")
	}
}

func TestTooShort(t *testing.T) {
	cases := []struct {
		normalized string
		want       bool
	}{
		{"", true},
		{"a", true},
		{"ab", true},
		{"abc", false},
		{"deadlock", false},
	}
	for _, tc := range cases {
		if got := TooShort(tc.normalized); got != tc.want {
			t.Fatalf("TooShort(%q)=%v, want %v", tc.normalized, got, tc.want)
		}
	}
}

func TestStoplistContains(t *testing.T) {
	s := NewStoplist("Course Outcomes")
	if !s.Contains(ConceptName("Introduction")) {
		t.Fatalf("expected default entry to be stoplisted")
	}
	if !s.Contains(ConceptName("course outcomes")) {
		t.Fatalf("expected extra entry to be stoplisted")
	}
	if s.Contains(ConceptName("Deadlock")) {
		t.Fatalf("deadlock must not be stoplisted")
	}
	var nilList *Stoplist
	if nilList.Contains("anything") {
		t.Fatalf("nil stoplist must contain nothing")
	}
}
