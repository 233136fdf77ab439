package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstJSONObject(t *testing.T) {
	t.Run("extracts object with surrounding prose", func(t *testing.T) {
		got := FirstJSONObject(`Sure, here you go: {"a": 1, "b": [1,2]} thanks!`)
		assert.Equal(t, `{"a": 1, "b": [1,2]}`, got)
	})

	t.Run("ignores braces inside strings", func(t *testing.T) {
		got := FirstJSONObject(`{"text": "a { b } c"}`)
		assert.Equal(t, `{"text": "a { b } c"}`, got)
	})

	t.Run("handles nested objects", func(t *testing.T) {
		got := FirstJSONObject(`{"outer": {"inner": 1}}`)
		assert.Equal(t, `{"outer": {"inner": 1}}`, got)
	})

	t.Run("returns empty string when no object present", func(t *testing.T) {
		assert.Equal(t, "", FirstJSONObject("no json here"))
	})

	t.Run("returns empty string for unbalanced braces", func(t *testing.T) {
		assert.Equal(t, "", FirstJSONObject(`{"a": 1`))
	})
}
