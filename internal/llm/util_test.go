package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Plain JSON untouched",
			input:    `{"score": 80}`,
			expected: `{"score": 80}`,
		},
		{
			name:     "JSON fence stripped",
			input:    "```json\n{\"score\": 80}\n```",
			expected: `{"score": 80}`,
		},
		{
			name:     "Bare fence stripped",
			input:    "```\n{\"score\": 80}\n```",
			expected: `{"score": 80}`,
		},
		{
			name:     "Surrounding whitespace trimmed",
			input:    "  \n{\"score\": 80}\n  ",
			expected: `{"score": 80}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestDecodeObject_Valid(t *testing.T) {
	obj := DecodeObject("```json\n{\"pass\": true, \"score\": 92}\n```")
	assert.Equal(t, true, obj["pass"])
	assert.Equal(t, float64(92), obj["score"])
}

func TestDecodeObject_Garbage(t *testing.T) {
	obj := DecodeObject("the model refused to answer")
	assert.NotNil(t, obj)
	assert.Empty(t, obj)
}

func TestDecodeObject_NullLiteral(t *testing.T) {
	obj := DecodeObject("null")
	assert.NotNil(t, obj)
	assert.Empty(t, obj)
}
