package llm

import "testing"

func TestExtractJSONArray(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `[1, 2, 3]`, `[1, 2, 3]`},
		{"fenced", "```json\n[\"a\"]\n```", "[\"a\"]"},
		{"prose around", `Here you go: [{"q": "x"}] hope it helps`, `[{"q": "x"}]`},
		{"nested arrays", `[[1], [2]] trailing`, `[[1], [2]]`},
		{"bracket inside string", `[{"q": "use arr[0] here"}]`, `[{"q": "use arr[0] here"}]`},
		{"escaped quote", `[{"q": "he said \"hi[\" loudly"}]`, `[{"q": "he said \"hi[\" loudly"}]`},
		{"none", `no json here`, ``},
		{"unbalanced", `[1, 2`, ``},
	}
	for _, tc := range cases {
		if got := ExtractJSONArray(tc.in); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"ok\": true}\n```", `{"ok": true}`},
		{"nested", `result: {"a": {"b": 2}} done`, `{"a": {"b": 2}}`},
		{"brace inside string", `{"text": "use {x} here"}`, `{"text": "use {x} here"}`},
		{"none", `nothing`, ``},
	}
	for _, tc := range cases {
		if got := ExtractJSONObject(tc.in); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}
