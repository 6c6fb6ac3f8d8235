package pricing

import "testing"

func TestFormat(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"0":       "0,00",
		"10":      "10,00",
		"1234.5":  "1234,50",
		"33.3333": "33,33",
		"0.005":   "0,01",
	}
	for in, want := range cases {
		if got := Format(dec(in)); got != want {
			t.Fatalf("Format(%s) = %q, want %q", in, got, want)
		}
	}
	if got := FormatBRL(dec("7.5")); got != "R$ 7,50" {
		t.Fatalf("unexpected BRL format %q", got)
	}
}
