package resources_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gdexport/gdexport/pkg/resources"
	"github.com/gdexport/gdexport/pkg/types"
)

func sampleProject() *types.Project {
	return &types.Project{
		Name: "Sample",
		Resources: []types.Resource{
			{Name: "hero", Kind: "image", File: "/assets/hero.png"},
			{Name: "virtual", Kind: "image", File: "/assets/virtual.png", NoFile: true},
			{Name: "empty", Kind: "image"},
		},
		LoadingScreen: types.LoadingScreen{Enabled: true, ImageFile: "/assets/splash/loading.png"},
		Scenes: []types.Scene{
			{
				Name:           "Menu",
				InitialObjects: []types.Object{{Name: "Title", Files: []string{"/menu/hero.png", ""}}},
				Events: []types.Event{{
					Actions: []types.Instruction{{
						Type: "PlaySound",
						Parameters: []types.Parameter{
							{Kind: "sound", Value: "/sfx/click.wav"},
							{Kind: "expression", Value: "100"},
						},
					}},
					SubEvents: []types.Event{{
						Conditions: []types.Instruction{{
							Type:       "MusicPlaying",
							Parameters: []types.Parameter{{Kind: "music", Value: "/music/theme.ogg"}},
						}},
					}},
				}},
			},
		},
		ExternalEvents: []types.ExternalEvents{{
			Name: "Shared",
			Events: []types.Event{{
				Actions: []types.Instruction{{
					Type:       "PlaySound",
					Parameters: []types.Parameter{{Kind: "sound", Value: "/sfx/click.wav"}},
				}},
			}},
		}},
		GlobalObjects: []types.Object{{Name: "HUD", Files: []string{"/hud/font.ttf"}}},
	}
}

func TestDiscover_ExposesEveryReference(t *testing.T) {
	project := sampleProject()
	m := resources.NewMap()

	resources.Discover(project, m)

	want := []string{
		"/assets/hero.png",
		"/assets/splash/loading.png",
		"/hud/font.ttf",
		"/menu/hero.png",
		"/music/theme.ogg",
		"/sfx/click.wav",
	}
	var got []string
	for _, r := range m.GetAll() {
		got = append(got, r.OriginalPath)
	}
	assert.Equal(t, want, got)
}

func TestDiscover_RewritesReferences(t *testing.T) {
	project := sampleProject()
	resources.Discover(project, resources.NewMap())

	assert.Equal(t, "hero.png", project.Resources[0].File)
	assert.Equal(t, "/assets/virtual.png", project.Resources[1].File, "resources without file are untouched")
	assert.Equal(t, "loading.png", project.LoadingScreen.ImageFile)
	assert.Equal(t, "hero2.png", project.Scenes[0].InitialObjects[0].Files[0])
	assert.Equal(t, "", project.Scenes[0].InitialObjects[0].Files[1])

	params := project.Scenes[0].Events[0].Actions[0].Parameters
	assert.Equal(t, "click.wav", params[0].Value)
	assert.Equal(t, "100", params[1].Value, "non-file parameters are untouched")
	assert.Equal(t, "theme.ogg", project.Scenes[0].Events[0].SubEvents[0].Conditions[0].Parameters[0].Value)
	assert.Equal(t, "click.wav", project.ExternalEvents[0].Events[0].Actions[0].Parameters[0].Value)
	assert.Equal(t, "font.ttf", project.GlobalObjects[0].Files[0])
}
