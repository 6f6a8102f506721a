package container_test

import (
	"bytes"
	"crypto/aes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdexport/gdexport/pkg/container"
	"github.com/gdexport/gdexport/pkg/types"
)

func TestFixedKey(t *testing.T) {
	key, err := container.FixedKey{}.Key()
	require.NoError(t, err)
	assert.Len(t, key, 24)

	key[0] = 'X'
	again, _ := container.FixedKey{}.Key()
	assert.Equal(t, byte('-'), again[0], "callers must not be able to alter the key")
}

func TestEncrypt_BlockAlignment(t *testing.T) {
	key, _ := container.FixedKey{}.Key()

	for _, n := range []int{0, 1, 15, 16, 17, 4095, 4096} {
		plain := bytes.Repeat([]byte{'a'}, n)

		encrypted, err := container.Encrypt(plain, key)
		require.NoError(t, err)

		want := (n + 15) &^ 15
		assert.Equal(t, want, len(encrypted), "size %d", n)
		assert.Equal(t, 0, len(encrypted)%aes.BlockSize)
		assert.Equal(t, want, container.PaddedSize(n))
	}
}

func TestEncrypt_RoundTrip(t *testing.T) {
	key, _ := container.FixedKey{}.Key()

	for _, n := range []int{0, 1, 15, 16, 17, 4095, 4096} {
		plain := make([]byte, n)
		for i := range plain {
			plain[i] = byte(i%250 + 1)
		}

		encrypted, err := container.Encrypt(plain, key)
		require.NoError(t, err)
		if n > 0 {
			assert.NotEqual(t, plain, encrypted[:n])
		}

		decrypted, err := container.Decrypt(encrypted, key)
		require.NoError(t, err)
		assert.Equal(t, plain, decrypted[:n])
		assert.Equal(t, make([]byte, len(decrypted)-n), decrypted[n:], "padding must be zero bytes")
	}
}

func TestEncrypt_BlocksAreIndependent(t *testing.T) {
	key, _ := container.FixedKey{}.Key()
	plain := bytes.Repeat([]byte("0123456789abcdef"), 2)

	encrypted, err := container.Encrypt(plain, key)
	require.NoError(t, err)
	assert.Equal(t, encrypted[:16], encrypted[16:32])
}

func TestEncrypt_InvalidKey(t *testing.T) {
	_, err := container.Encrypt([]byte("data"), []byte("short"))
	assert.Error(t, err)

	_, err = container.Decrypt(make([]byte, 17), []byte("-P:j$4t&OHIUVM/Z+u4DeDP."))
	assert.Error(t, err)

	_, err = container.StaticKey(nil).Key()
	assert.Error(t, err)
}

func TestEncryptFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain")
	dst := filepath.Join(dir, "enc")
	require.NoError(t, os.WriteFile(src, []byte("hello runtime"), 0644))

	key := container.StaticKey("0123456789abcdef")
	require.NoError(t, container.EncryptFile(src, dst, key))

	_, err := os.Stat(src)
	assert.True(t, os.IsNotExist(err), "plaintext must be removed")

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Len(t, data, 16)

	k, _ := key.Key()
	plain, err := container.Decrypt(data, k)
	require.NoError(t, err)
	assert.Equal(t, "hello runtime", string(bytes.TrimRight(plain, "\x00")))
}

func sampleProject() *types.Project {
	return &types.Project{
		Name:           "Platformer",
		Author:         "Studio",
		WindowWidth:    800,
		WindowHeight:   600,
		UsedExtensions: []string{"PhysicsBehavior"},
		Resources: []types.Resource{
			{Name: "hero", Kind: "image", File: "hero.png", Smooth: true},
		},
		LoadingScreen: types.LoadingScreen{Enabled: true, ImageFile: "splash.png"},
		Scenes: []types.Scene{
			{
				Name:           "Level1",
				InitialObjects: []types.Object{{Name: "Hero", Type: "Sprite", Files: []string{"hero.png"}}},
				Events: []types.Event{{
					Type:    "Standard",
					Actions: []types.Instruction{{Type: "PlaySound", Parameters: []types.Parameter{{Kind: "sound", Value: "jump.wav"}}}},
				}},
			},
		},
	}
}

func TestEncode_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, container.Encode(&a, sampleProject()))
	require.NoError(t, container.Encode(&b, sampleProject()))

	assert.Equal(t, a.String(), b.String())
	assert.Contains(t, a.String(), `<Project name="Platformer"`)
	assert.Contains(t, a.String(), "jump.wav")
}

func TestWriteProject_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	project := sampleProject()

	require.NoError(t, container.WriteProject(dir, project, container.FixedKey{}))

	_, err := os.Stat(filepath.Join(dir, container.PlainProjectFile))
	assert.True(t, os.IsNotExist(err), "plain project file must be removed")

	decoded, err := container.ReadProject(filepath.Join(dir, container.ProjectFile), container.FixedKey{})
	require.NoError(t, err)
	assert.Equal(t, "Platformer", decoded.Name)
	assert.Equal(t, 800, decoded.WindowWidth)
	assert.Equal(t, []string{"PhysicsBehavior"}, decoded.UsedExtensions)
	require.Len(t, decoded.Scenes, 1)
	assert.Equal(t, "jump.wav", decoded.Scenes[0].Events[0].Actions[0].Parameters[0].Value)
	assert.Equal(t, []string{"hero.png"}, decoded.Scenes[0].InitialObjects[0].Files)
}

func TestLoadingScreen_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ls   types.LoadingScreen
	}{
		{"empty", types.LoadingScreen{}},
		{"full", types.LoadingScreen{
			Enabled: true, ShowText: true, SmoothImage: true,
			Text: "Chargement…", ImageFile: "splash.png", Width: 1280, Height: -1,
		}},
		{"image only", types.LoadingScreen{Enabled: true, ImageFile: "logo.png", Width: 320, Height: 240}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), container.LoadingScreenFile)
			require.NoError(t, container.WriteLoadingScreen(path, tt.ls))

			got, err := container.ReadLoadingScreen(path)
			require.NoError(t, err)
			assert.Equal(t, tt.ls, got)
		})
	}
}

func TestLoadingScreen_Layout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, container.EncodeLoadingScreen(&buf, types.LoadingScreen{
		Enabled: true, SmoothImage: true, Text: "hi", ImageFile: "a.png", Width: 2, Height: 3,
	}))
	data := buf.Bytes()

	require.Len(t, data, 4+2+1+4+4+4+2+4+5)
	assert.Equal(t, "GDLS", string(data[:4]))
	assert.Equal(t, container.LoadingScreenVersion, binary.LittleEndian.Uint16(data[4:6]))
	assert.Equal(t, byte(0b101), data[6])
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[7:11]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(data[11:15]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[15:19]))
	assert.Equal(t, "hi", string(data[19:21]))
	assert.Equal(t, uint32(5), binary.LittleEndian.Uint32(data[21:25]))
	assert.Equal(t, "a.png", string(data[25:]))
}

func TestLoadingScreen_Invalid(t *testing.T) {
	_, err := container.DecodeLoadingScreen(bytes.NewReader([]byte("NOPE")))
	assert.ErrorIs(t, err, container.ErrBadLoadingScreen)

	var buf bytes.Buffer
	require.NoError(t, container.EncodeLoadingScreen(&buf, types.LoadingScreen{Text: "truncated"}))
	_, err = container.DecodeLoadingScreen(bytes.NewReader(buf.Bytes()[:buf.Len()-3]))
	assert.ErrorIs(t, err, container.ErrBadLoadingScreen)
}
