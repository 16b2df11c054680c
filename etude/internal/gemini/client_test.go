package gemini

import "testing"

func TestStripFences(t *testing.T) {
	// WHAT: Markdown fences around JSON are removed.
	// WHY: The model sometimes wraps schema-constrained output in ```json blocks.
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n[1,2]\n```", `[1,2]`},
		{"whitespace", "  \n {\"a\":1} \n", `{"a":1}`},
		{"empty", "```json\n```", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripFences(tc.in); got != tc.want {
				t.Errorf("stripFences(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCitations_DedupeByURL(t *testing.T) {
	// WHAT: Duplicate grounding URLs collapse to the first occurrence.
	// WHY: The provider routinely cites the same page from multiple passages.
	g := &Grounded{Chunks: []Chunk{
		{Web: &WebSource{URI: "https://a.example/x", Title: "First"}},
		{Web: &WebSource{URI: "https://b.example/y", Title: "Second"}},
		{Web: &WebSource{URI: "https://a.example/x", Title: "Duplicate"}},
		{Web: nil},
		{Web: &WebSource{URI: "", Title: "No URI"}},
	}}

	got := g.Citations()
	if len(got) != 2 {
		t.Fatalf("citations = %d, want 2", len(got))
	}
	if got[0].Title != "First" || got[0].URL != "https://a.example/x" {
		t.Errorf("first citation = %+v, want the first occurrence", got[0])
	}
	if got[1].URL != "https://b.example/y" {
		t.Errorf("second citation = %+v, want ranking order preserved", got[1])
	}
}

func TestCitations_Empty(t *testing.T) {
	// WHAT: No usable chunks yields an empty citation list.
	// WHY: Callers decide whether zero citations is a hard failure.
	g := &Grounded{Text: "some text"}
	if got := g.Citations(); len(got) != 0 {
		t.Errorf("citations = %d, want 0", len(got))
	}
}

func TestMalformedError_Unwrap(t *testing.T) {
	// WHAT: MalformedError carries the raw text and unwraps its cause.
	// WHY: Handlers surface the unparsable payload as the details string.
	e := &MalformedError{Raw: "not json", Err: errSentinel}
	if e.Raw != "not json" {
		t.Errorf("Raw = %q", e.Raw)
	}
	if e.Unwrap() != errSentinel {
		t.Error("Unwrap did not return the cause")
	}
}

var errSentinel = errTest("boom")

type errTest string

func (e errTest) Error() string { return string(e) }
