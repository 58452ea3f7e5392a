package modeltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare", in: `{"money": 1}`, want: `{"money": 1}`},
		{name: "bare partial", in: `{"remark": "a`, want: `{"remark": "a`},
		{name: "fenced", in: "```json\n{\"money\": 1}\n```", want: "{\"money\": 1}\n"},
		{name: "fenced no info", in: "```\n{\"a\": 2}\n```\n", want: "{\"a\": 2}\n"},
		{name: "unterminated", in: "```json\n{\"money\": 12", want: "{\"money\": 12"},
		{name: "opening line only", in: "```json", want: ""},
		{name: "prose around", in: "Here you go:\n\n```json\n{\"t\": 1}\n```\n\nDone.", want: "{\"t\": 1}\n"},
		{name: "first fence wins", in: "```\n1\n```\n```\n2\n```", want: "1\n"},
		{name: "tilde fence", in: "~~~\n[1]\n~~~", want: "[1]\n"},
		{name: "inline code is not a fence", in: "`{}`", want: "`{}`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}

func TestFenced(t *testing.T) {
	assert.True(t, Fenced("```json\n{}"))
	assert.False(t, Fenced(`{"a": "b"}`))
	assert.False(t, Fenced(""))
}
