package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadQuestions(t *testing.T) {
	dir := t.TempDir()
	content := "questions:\n  - \"quelle est cette fleur\"\n  - \"what is this flower\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plant.yaml"), []byte(content), 0644))

	questions, err := LoadQuestions(dir, "plant")
	require.NoError(t, err)
	assert.Equal(t, []string{"quelle est cette fleur", "what is this flower"}, questions)
}

func TestLoadQuestions_MissingFile(t *testing.T) {
	_, err := LoadQuestions(t.TempDir(), "plant")
	assert.ErrorContains(t, err, "read questions file")
}

func TestLoadQuestions_Empty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plant.yaml"), []byte("questions: []\n"), 0644))

	_, err := LoadQuestions(dir, "plant")
	assert.ErrorContains(t, err, "no questions")
}

func TestLoadQuestions_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plant.yaml"), []byte("questions: {oops\n"), 0644))

	_, err := LoadQuestions(dir, "plant")
	assert.Error(t, err)
}

func TestShippedQuestionLists(t *testing.T) {
	// The repository ships the production lists; every plugin must have a
	// non-empty one.
	for _, name := range []string{"plant", "bird", "ask_plant", "ask_bird", "photo"} {
		questions, err := LoadQuestions(filepath.Join("..", "..", "questions"), name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, questions, name)
	}
}
