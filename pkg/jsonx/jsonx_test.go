package jsonx

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probe struct {
	Name  Field[string] `json:"name"`
	Count Field[int]    `json:"count"`
}

func TestField_Presence(t *testing.T) {
	var p probe
	require.NoError(t, json.Unmarshal([]byte(`{"name": null}`), &p))

	assert.True(t, p.Name.IsSet())
	assert.True(t, p.Name.IsNull())
	assert.False(t, p.Count.IsSet())
	assert.Equal(t, 7, p.Count.Or(7))

	require.NoError(t, json.Unmarshal([]byte(`{"count": 3}`), &p))
	assert.Equal(t, 3, *p.Count.Value())
	assert.Equal(t, 3, p.Count.Or(7))
}

func TestField_Marshal(t *testing.T) {
	b, err := json.Marshal(probe{Name: Set("x")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x","count":null}`, string(b))
}

func TestParseStrictJSONBody(t *testing.T) {
	newReq := func(body string) *http.Request {
		r, _ := http.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		return r
	}

	cases := []struct {
		name    string
		body    string
		wantErr error
		anyErr  bool
	}{
		{name: "ok", body: `{"name":"a"}`},
		{name: "empty", body: "  \n", wantErr: ErrEmptyBody},
		{name: "trailing", body: `{"name":"a"} {}`, wantErr: ErrTrailingJSON},
		{name: "unknown field", body: `{"nope":1}`, anyErr: true},
		{name: "type mismatch", body: `{"count":"x"}`, anyErr: true},
		{name: "truncated", body: `{"name":`, anyErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p probe
			err := ParseStrictJSONBody(newReq(tc.body), &p)
			switch {
			case tc.wantErr != nil:
				assert.ErrorIs(t, err, tc.wantErr)
			case tc.anyErr:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseJSONObject_UnknownField(t *testing.T) {
	var p probe
	assert.Error(t, ParseJSONObject(strings.NewReader(`{"x":1}`), &p))
	assert.NoError(t, ParseJSONObject(strings.NewReader(`{"name":"n"}`), &p))
}
