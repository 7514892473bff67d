package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/riskform/internal/translate"
)

func TestLoadGlossaries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glossary.yaml")
	require.NoError(t, os.WriteFile(path, []byte("judge:\n  危険: Danger\n  安全: Safe (checked)\nobject:\n  コンロ: Stove\n"), 0644))

	judge, object, err := loadGlossaries(path)
	require.NoError(t, err)

	assert.Equal(t, "Danger", judge["危険"])
	assert.Equal(t, "Safe (checked)", judge["安全"], "file entries override built-ins")
	assert.Equal(t, "Potential Major", judge["潜在重大"])
	assert.Equal(t, "Stove", object["コンロ"])
	assert.Equal(t, "Knife", object["包丁"])
	assert.Equal(t, "Safe", translate.JudgeGlossary["安全"], "built-in glossary is not modified")
}

func TestLoadGlossariesErrors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := loadGlossaries(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "error reading glossary")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("objects:\n  a: b\n"), 0644))
	_, _, err = loadGlossaries(bad)
	assert.ErrorContains(t, err, "invalid glossary")

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	judge, _, err := loadGlossaries(empty)
	require.NoError(t, err)
	assert.Equal(t, translate.JudgeGlossary, judge)
}
