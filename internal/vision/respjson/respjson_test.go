package respjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBareJSON(t *testing.T) {
	obj, err := Extract(`{"is_valid": true, "issues": []}`)
	require.NoError(t, err)
	assert.Equal(t, `{"is_valid": true, "issues": []}`, obj)
}

func TestExtractStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"is_valid\": false, \"reason\": \"blurry\"}\n```"
	obj, err := Extract(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"is_valid": false, "reason": "blurry"}`, obj)
}

func TestExtractStripsBareFence(t *testing.T) {
	raw := "```\n{\"ok\": 1}\n```"
	obj, err := Extract(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok": 1}`, obj)
}

func TestExtractFromSurroundingProse(t *testing.T) {
	raw := `Sure! Here is the analysis you asked for:
{"is_valid": true, "issues": [{"category": "Water leakage"}]}
Let me know if you need anything else.`

	obj, err := Extract(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"is_valid": true, "issues": [{"category": "Water leakage"}]}`, obj)
}

func TestExtractHandlesBracesInStrings(t *testing.T) {
	raw := `{"message": "use \"caution\" near {site}", "done": true} trailing`
	obj, err := Extract(raw)
	require.NoError(t, err)

	var v struct {
		Message string `json:"message"`
		Done    bool   `json:"done"`
	}
	require.NoError(t, Unmarshal(obj, &v))
	assert.True(t, v.Done)
	assert.Contains(t, v.Message, "{site}")
}

func TestExtractRejectsGarbage(t *testing.T) {
	_, err := Extract("")
	assert.Error(t, err)

	_, err = Extract("the model refused to answer")
	assert.Error(t, err)

	_, err = Extract(`{"unterminated": `)
	assert.Error(t, err)
}

func TestUnmarshal(t *testing.T) {
	var v struct {
		IsValid bool `json:"is_valid"`
	}
	err := Unmarshal("```json\n{\"is_valid\": true}\n```", &v)
	require.NoError(t, err)
	assert.True(t, v.IsValid)
}
