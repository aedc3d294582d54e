package shared

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDDecodesNumbersAndStrings(t *testing.T) {
	cases := map[string]ID{
		`{"id":7}`:        "7",
		`{"id":"abc"}`:    "abc",
		`{"id":12345678}`: "12345678",
		`{"id":null}`:     "",
		`{}`:              "",
	}
	for body, want := range cases {
		var out struct {
			ID ID `json:"id"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &out), body)
		assert.Equal(t, want, out.ID, body)
	}
}

func TestIDRejectsObjects(t *testing.T) {
	var out struct {
		ID ID `json:"id"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"id":{"x":1}}`), &out))
}

func TestIDEncodesAsString(t *testing.T) {
	data, err := json.Marshal(struct {
		ID ID `json:"id"`
	}{ID: "42"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"42"}`, string(data))
}
