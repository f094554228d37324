package deck

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUnits(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *Request
	}{
		{
			name:  "bare array",
			input: `[{"title":"Tokyo","bodyLines":["Population: 14M"],"imageReference":"https://x/t.png"}]`,
			want: &Request{Units: []ContentUnit{{
				Title:          "Tokyo",
				BodyLines:      []string{"Population: 14M"},
				ImageReference: "https://x/t.png",
			}}},
		},
		{
			name:  "envelope",
			input: ` {"units":[{"title":"A"}],"style":"dark","fileName":"cities","cover":{"title":"Cover"}}`,
			want: &Request{
				Units:    []ContentUnit{{Title: "A"}},
				Style:    "dark",
				FileName: "cities",
				Cover:    &ContentUnit{Title: "Cover"},
			},
		},
		{
			name:  "empty array",
			input: `[]`,
			want:  &Request{Units: []ContentUnit{}},
		},
		{
			name:  "envelope with no units",
			input: `{"units":[],"style":"dark"}`,
			want:  &Request{Units: []ContentUnit{}, Style: "dark"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeUnits(strings.NewReader(tt.input))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeUnits() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeUnits_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"empty", "  ", "body"},
		{"scalar", `"hello"`, "body"},
		{"syntax", `[{"title":}]`, "body"},
		{"wrong type", `[{"title":42}]`, "title"},
		{"wrong lines type", `{"units":[{"title":"a","bodyLines":"x"}]}`, "units.bodyLines"},
		{"empty object", `{}`, "units"},
		{"null units", `{"units":null}`, "units"},
		{"single unit", `{"title":"Tokyo","bodyLines":["a"]}`, "body"},
		{"misspelled envelope", `{"unit":[{"title":"x"}]}`, "body"},
		{"unknown unit field", `[{"title":"a","notes":"x"}]`, "body"},
		{"trailing value", `[{"title":"a"}] [{"title":"b"}]`, "body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeUnits(strings.NewReader(tt.input))
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Issues, 1)
			assert.Equal(t, tt.field, verr.Issues[0].Field)
		})
	}
}

func TestDecodeUnits_SingleUnitMessage(t *testing.T) {
	_, err := DecodeUnits(strings.NewReader(`{"title":"Tokyo","bodyLines":["a"]}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, `expected a JSON array of units or an object with a units field (unknown field "title")`, verr.Issues[0].Message)
}

func TestNormalizeUnit(t *testing.T) {
	tests := []struct {
		name string
		in   ContentUnit
		want ContentUnit
	}{
		{
			name: "trims title and reference",
			in:   ContentUnit{Title: "  Tokyo \n", ImageReference: " https://x/a.png "},
			want: ContentUnit{Title: "Tokyo", ImageReference: "https://x/a.png"},
		},
		{
			name: "title is single line",
			in:   ContentUnit{Title: "Two\r\nlines"},
			want: ContentUnit{Title: "Two lines"},
		},
		{
			name: "splits body lines",
			in:   ContentUnit{BodyLines: []string{"a\r\nb", "c\rd", "e\n\nf"}},
			want: ContentUnit{BodyLines: []string{"a", "b", "c", "d", "e", "", "f"}},
		},
		{
			name: "drops control characters",
			in:   ContentUnit{Title: "bell\x07", BodyLines: []string{"nul\x00 here", "tab\tkept"}},
			want: ContentUnit{Title: "bell", BodyLines: []string{"nul here", "tab\tkept"}},
		},
		{
			name: "composes to NFC",
			in:   ContentUnit{Title: "Cafe\u0301"},
			want: ContentUnit{Title: "Caf\u00e9"},
		},
		{
			name: "repairs invalid UTF-8",
			in:   ContentUnit{Title: "a\xffb"},
			want: ContentUnit{Title: "a�b"},
		},
		{
			name: "keeps empty lines",
			in:   ContentUnit{BodyLines: []string{"", "x  "}},
			want: ContentUnit{BodyLines: []string{"", "x"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeUnit(tt.in))
		})
	}
}

func TestCheckFileName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"presentation", true},
		{"Quarterly report.pptx", true},
		{"Präsentation 2024", true},
		{"", false},
		{".pptx", false},
		{"a/b", false},
		{`a\b`, false},
		{`say "hi"`, false},
		{"tab\there", false},
		{strings.Repeat("x", maxFileNameLength+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := checkFileName(tt.name)
			if tt.valid {
				assert.Empty(t, msg)
			} else {
				assert.NotEmpty(t, msg)
			}
		})
	}
	assert.Equal(t, "deck.pptx", attachmentName("deck"))
	assert.Equal(t, "deck.pptx", attachmentName("deck.pptx"))
}
