package walls

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProject = `;WALLS Project file
.BOOK	Cave System
.NAME	CAVE
.OPTIONS	FEET
.STATUS	3
.BOOK	North Section
.PATH	north
.OPTIONS	DECL=2
.SURVEY	Entrance Survey
.NAME	ENT
.SURVEY	Crawl
.NAME	crawl.srv
.PATH	extra
.REF	308000 4300000 13 0.5 1200
.ENDBOOK
.SURVEY	Loose Notes
.ENDBOOK
`

func TestParseProject(t *testing.T) {
	root, msgs, err := ParseProject(strings.NewReader(sampleProject), "/data/cave.wpj")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	assert.True(t, root.IsBook)
	assert.Equal(t, "Cave System", root.Title)
	assert.Equal(t, 3, root.Status)
	require.Len(t, root.Children, 2)

	north := root.Children[0]
	require.Len(t, north.Children, 2)

	entrance := north.Children[0]
	assert.True(t, entrance.IsSurvey())
	assert.Equal(t, filepath.FromSlash("/data/north/ENT.srv"), entrance.AbsolutePath())

	crawl := north.Children[1]
	assert.Equal(t, filepath.FromSlash("/data/north/extra/crawl.srv"), crawl.AbsolutePath())
	assert.True(t, crawl.HasReference())

	loose := root.Children[1]
	assert.Equal(t, "", loose.AbsolutePath(), "a survey without a name has no file")

	opts := entrance.AllOptions()
	require.Len(t, opts, 2)
	assert.Equal(t, "FEET", opts[0].Text)
	assert.Equal(t, "DECL=2", opts[1].Text)
}

func TestParseProject_StructureErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"endbook without book", ".ENDBOOK\n"},
		{"survey outside book", ".SURVEY x\n"},
		{"name outside entry", ".NAME x\n"},
		{"no book", "; nothing\n"},
		{"bad status", ".BOOK b\n.STATUS many\n.ENDBOOK\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseProject(strings.NewReader(tt.src), "p.wpj")
			require.Error(t, err)
			assert.True(t, IsParseError(err))
		})
	}
}

func TestParseProject_Warnings(t *testing.T) {
	root, msgs, err := ParseProject(strings.NewReader(".BOOK b\n.COLOR red\n"), "p.wpj")
	require.NoError(t, err)
	require.NotNil(t, root)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Text, ".COLOR")
	assert.Equal(t, "missing .ENDBOOK", msgs[1].Text)
}

func TestParseProjectFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cave.wpj")
	require.NoError(t, os.WriteFile(path, []byte(sampleProject), 0o644))

	root, _, err := ParseProjectFile(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "north", "ENT.srv"), root.Children[0].Children[0].AbsolutePath())

	_, _, err = ParseProjectFile(filepath.Join(dir, "missing.wpj"))
	assert.Error(t, err)
}

func TestNewSurveyEntry(t *testing.T) {
	e := NewSurveyEntry(filepath.FromSlash("/data/trips/a1.srv"))
	assert.Equal(t, "a1.srv", e.Name)
	assert.Equal(t, "a1", e.Title)
	assert.Equal(t, filepath.FromSlash("/data/trips/a1.srv"), e.AbsolutePath())
}
