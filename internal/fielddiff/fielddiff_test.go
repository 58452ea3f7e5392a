package fielddiff

import (
	"testing"

	"github.com/codalotl/streamfill/internal/partialjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obj(t *testing.T, text string) *partialjson.Object {
	t.Helper()
	v, err := partialjson.DecodeComplete(text)
	require.NoError(t, err)
	o, ok := v.Object()
	require.True(t, ok)
	return o
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name string
		prev string
		cur  string
		want string
	}{
		{name: "unchanged", prev: `{"money":1}`, cur: `{"money":1}`, want: `{}`},
		{name: "changed to zero", prev: `{"money":1}`, cur: `{"money":0}`, want: `{}`},
		{name: "new field", prev: `{}`, cur: `{"money":5}`, want: `{"money":5}`},
		{name: "null pending", prev: `{}`, cur: `{"time":null}`, want: `{}`},
		{name: "booleans never zero", prev: `{}`, cur: `{"ok":false}`, want: `{"ok":false}`},
		{name: "empty collections", prev: `{}`, cur: `{"a":[],"o":{},"s":""}`, want: `{}`},
		{name: "string grows", prev: `{"remark":"cof"}`, cur: `{"remark":"coffee","money":2}`, want: `{"remark":"coffee","money":2}`},
		{name: "deep equal arrays", prev: `{"tags":["a"]}`, cur: `{"tags":["a"]}`, want: `{}`},
		{name: "deep changed arrays", prev: `{"tags":["a"]}`, cur: `{"tags":["a","b"]}`, want: `{"tags":["a","b"]}`},
		{name: "removed field ignored", prev: `{"a":1,"b":2}`, cur: `{"b":2}`, want: `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(obj(t, tt.prev), obj(t, tt.cur))
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestDiff_NilPrevious(t *testing.T) {
	got := Diff(nil, obj(t, `{"type":"expense","money":0}`))
	assert.Equal(t, []string{"type"}, got.Keys())

	assert.Equal(t, 0, Diff(nil, nil).Len())
}

func TestIsZero(t *testing.T) {
	assert.True(t, IsZero(partialjson.Null()))
	assert.True(t, IsZero(partialjson.Number(0)))
	assert.False(t, IsZero(partialjson.Number(-0.01)))
	assert.False(t, IsZero(partialjson.Bool(false)))
	assert.True(t, IsZero(partialjson.String("")))
	assert.False(t, IsZero(partialjson.String(" ")))
	assert.True(t, IsZero(partialjson.Array()))
	assert.True(t, IsZero(partialjson.ObjectValue(nil)))
}
