package project_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdexport/gdexport/pkg/project"
	"github.com/gdexport/gdexport/pkg/types"
)

const projectJSON = `{
  "name": "Platformer",
  "winIconFile": "icon.ico",
  "resources": [{"name": "hero", "kind": "image", "file": "img/hero.png"}],
  "loadingScreen": {"enabled": true, "imageFile": "/abs/splash.png"},
  "scenes": [
    {
      "name": "Level1",
      "objects": [{"name": "Hero", "files": ["img/hero.png"]}],
      "events": [{"actions": [{"type": "PlaySound", "parameters": [{"kind": "sound", "value": "sfx/jump.wav"}, {"kind": "number", "value": "1"}]}]}]
    }
  ]
}`

const projectYAML = `name: Platformer
scenes:
  - name: Menu
    profiling: true
  - name: Level1
`

func TestLoad_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.json")
	require.NoError(t, os.WriteFile(path, []byte(projectJSON), 0644))

	p, err := project.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Platformer", p.Name)
	assert.Equal(t, filepath.Join(dir, "img", "hero.png"), p.Resources[0].File)
	assert.Equal(t, filepath.Join(dir, "icon.ico"), p.WinIconFile)
	assert.Equal(t, filepath.FromSlash("/abs/splash.png"), p.LoadingScreen.ImageFile)
	assert.Equal(t, filepath.Join(dir, "img", "hero.png"), p.Scenes[0].InitialObjects[0].Files[0])

	params := p.Scenes[0].Events[0].Actions[0].Parameters
	assert.Equal(t, filepath.Join(dir, "sfx", "jump.wav"), params[0].Value)
	assert.Equal(t, "1", params[1].Value, "non-file parameters are untouched")
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	require.NoError(t, os.WriteFile(path, []byte(projectYAML), 0644))

	p, err := project.Load(path)
	require.NoError(t, err)
	require.Len(t, p.Scenes, 2)
	assert.True(t, p.Scenes[0].Profiling)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"garbage", "{{{ not a project"},
		{"no name", `{"scenes": []}`},
		{"unnamed scene", `{"name": "x", "scenes": [{"name": ""}]}`},
		{"duplicate scene", `{"name": "x", "scenes": [{"name": "a"}, {"name": "a"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := project.Parse([]byte(tt.data), ".json")
			assert.Error(t, err)
		})
	}

	_, err := project.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestClone_IsDeep(t *testing.T) {
	original, err := project.Parse([]byte(projectJSON), ".json")
	require.NoError(t, err)
	original.UsedExtensions = []string{"Physics"}
	original.ExternalEvents = []types.ExternalEvents{{Name: "Shared", Events: []types.Event{{SubEvents: []types.Event{{Type: "Standard"}}}}}}

	c := project.Clone(original)
	require.Equal(t, original, c)

	c.Name = "Changed"
	c.UsedExtensions[0] = "Other"
	c.Resources[0].File = "x.png"
	c.Scenes[0].Profiling = true
	c.Scenes[0].InitialObjects[0].Files[0] = "y.png"
	c.Scenes[0].Events[0].Actions[0].Parameters[0].Value = "z.wav"
	c.ExternalEvents[0].Events[0].SubEvents[0].Type = "Comment"

	assert.Equal(t, "Platformer", original.Name)
	assert.Equal(t, "Physics", original.UsedExtensions[0])
	assert.Equal(t, "img/hero.png", original.Resources[0].File)
	assert.False(t, original.Scenes[0].Profiling)
	assert.Equal(t, "img/hero.png", original.Scenes[0].InitialObjects[0].Files[0])
	assert.Equal(t, "sfx/jump.wav", original.Scenes[0].Events[0].Actions[0].Parameters[0].Value)
	assert.Equal(t, "Standard", original.ExternalEvents[0].Events[0].SubEvents[0].Type)

	assert.Nil(t, project.Clone(nil))
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.yaml")
	require.NoError(t, os.WriteFile(path, []byte(projectYAML), 0644))

	reloaded := make(chan *types.Project, 4)
	w := project.NewWatcher(path, func(p *types.Project, err error) {
		if err == nil {
			reloaded <- p
		}
	}, nil)
	w.SetDebouncePeriod(20 * time.Millisecond)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.Error(t, w.Start(context.Background()), "starting twice must fail")

	require.NoError(t, os.WriteFile(path, []byte(projectYAML+"  - name: Level2\n"), 0644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case p := <-reloaded:
		assert.Len(t, p.Scenes, 3)
	case <-time.After(5 * time.Second):
		t.Fatal("project was not reloaded")
	}

	require.NoError(t, w.Stop())
	assert.NoError(t, w.Stop(), "stopping twice is harmless")
}
