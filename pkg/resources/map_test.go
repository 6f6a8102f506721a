package resources_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdexport/gdexport/pkg/resources"
)

func TestMap_UniqueDestinations(t *testing.T) {
	paths := []string{
		"/game/images/player.png",
		"/game/backup/player.png",
		"/game/other/PLAYER.png",
		`C:\game\sounds\jump.wav`,
		"/game/sounds/jump.wav",
		"relative/player.png",
		"player.png",
		"/game/images/player2.png",
	}

	m := resources.NewMap()
	for _, p := range paths {
		m.Expose(p)
	}
	m.Expose("")

	all := m.GetAll()
	require.Len(t, all, len(paths))

	seen := make(map[string]string)
	for _, r := range all {
		key := strings.ToLower(r.NewFilename)
		if other, dup := seen[key]; dup {
			t.Fatalf("%s and %s share destination %s", other, r.OriginalPath, r.NewFilename)
		}
		seen[key] = r.OriginalPath
	}
}

func TestMap_ManyCollidingBasenames(t *testing.T) {
	m := resources.NewMap()
	const n = 50
	for i := 0; i < n; i++ {
		m.Expose(fmt.Sprintf("/dir%d/sprite.png", i))
	}

	names := make(map[string]bool)
	for _, r := range m.GetAll() {
		names[r.NewFilename] = true
	}
	assert.Len(t, names, n)
	assert.True(t, names["sprite.png"])
	assert.True(t, names["sprite2.png"])
}

func TestMap_Stability(t *testing.T) {
	m := resources.NewMap()
	m.Expose("/a/hero.png")
	first, ok := m.NewFilename("/a/hero.png")
	require.True(t, ok)

	m.Expose("/b/hero.png")
	m.Expose("/a/hero.png")

	second, ok := m.NewFilename("/a/hero.png")
	require.True(t, ok)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, m.Len())
}

func TestMap_EmptyPathIgnored(t *testing.T) {
	m := resources.NewMap()
	m.Expose("")

	field := ""
	m.ExposePath(&field)
	m.ExposePath(nil)

	assert.Equal(t, 0, m.Len())
	assert.Equal(t, "", field)
	_, ok := m.NewFilename("")
	assert.False(t, ok)
}

func TestMap_ExposePathRewrites(t *testing.T) {
	m := resources.NewMap()
	a := "/one/music.ogg"
	b := "/two/music.ogg"
	again := "/one/music.ogg"

	m.ExposePath(&a)
	m.ExposePath(&b)
	m.ExposePath(&again)

	assert.Equal(t, "music.ogg", a)
	assert.Equal(t, "music2.ogg", b)
	assert.Equal(t, "music.ogg", again)
}

func TestMap_GetAllOrdered(t *testing.T) {
	m := resources.NewMap()
	m.Expose("/z.png")
	m.Expose("/a.png")
	m.Expose("/m.png")

	all := m.GetAll()
	require.Len(t, all, 3)
	assert.Equal(t, "/a.png", all[0].OriginalPath)
	assert.Equal(t, "/m.png", all[1].OriginalPath)
	assert.Equal(t, "/z.png", all[2].OriginalPath)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hero.png", "hero.png"},
		{`we<ird>:"na|me?*.png`, "we_ird___na_me__.png"},
		{"tab\there.png", "tab_here.png"},
		{"trailing. . ", "trailing"},
		{"CON.txt", "_CON.txt"},
		{"nul", "_nul"},
		{"console.txt", "console.txt"},
		{"...", "resource"},
		{"", "resource"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := resources.SanitizeFilename(tt.in)
			assert.Equal(t, tt.want, got)
			assert.False(t, strings.ContainsAny(got, `<>:"/\|?*`))
		})
	}
}

func TestMap_DestinationsAreValidFilenames(t *testing.T) {
	m := resources.NewMap()
	m.Expose(`C:\Users\me\My Game\title:screen?.png`)
	m.Expose("/home/me/game/aux.wav")

	for _, r := range m.GetAll() {
		assert.False(t, strings.ContainsAny(r.NewFilename, `<>:"/\|?*`), r.NewFilename)
		assert.NotEqual(t, "aux.wav", strings.ToLower(r.NewFilename))
	}
}

func TestMap_ReservedNamesAreSkipped(t *testing.T) {
	m := resources.NewMap()
	m.Reserve("src", "compil.gdg", "loadingscreen", "gam.egd")

	m.Expose("/game/data/src")
	m.Expose("/game/data/SRC")
	m.Expose("/game/data/compil.gdg")
	m.Expose("/game/data/LoadingScreen")
	m.Expose("/game/data/gam.egd")

	expected := map[string]string{
		"/game/data/src":           "src2",
		"/game/data/SRC":           "SRC3",
		"/game/data/compil.gdg":    "compil2.gdg",
		"/game/data/LoadingScreen": "LoadingScreen2",
		"/game/data/gam.egd":       "gam2.egd",
	}
	for path, want := range expected {
		got, ok := m.NewFilename(path)
		require.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}
	assert.Equal(t, len(expected), m.Len(), "reserved names are not relocations")
}

func TestMap_ReserveKeepsExistingAssignments(t *testing.T) {
	m := resources.NewMap()
	m.Expose("/game/hero.png")
	m.Reserve("hero.png")

	name, ok := m.NewFilename("/game/hero.png")
	require.True(t, ok)
	assert.Equal(t, "hero.png", name)
}
