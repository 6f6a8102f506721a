package container

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gdexport/gdexport/pkg/types"
)

// Files written to the staging directory
const (
	PlainProjectFile  = "compil.gdg"
	ProjectFile       = "src"
	LoadingScreenFile = "loadingscreen"
)

// Encode writes the XML description of project to w. The output only depends on
// the project value.
func Encode(w io.Writer, project *types.Project) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(project); err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Decode reads a project written by Encode. Trailing zero padding left by
// decryption is ignored.
func Decode(data []byte) (*types.Project, error) {
	data = bytes.TrimRight(data, "\x00")
	var project types.Project
	if err := xml.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("failed to decode project: %w", err)
	}
	return &project, nil
}

// WriteProject serializes project into stagingDir and encrypts it. The plain
// intermediate file does not survive a successful call.
func WriteProject(stagingDir string, project *types.Project, keys KeyProvider) error {
	plainPath, err := WritePlainProject(stagingDir, project)
	if err != nil {
		return err
	}
	return EncryptFile(plainPath, filepath.Join(stagingDir, ProjectFile), keys)
}

// WritePlainProject writes the unencrypted project into stagingDir and returns its path
func WritePlainProject(stagingDir string, project *types.Project) (string, error) {
	plainPath := filepath.Join(stagingDir, PlainProjectFile)

	var buf bytes.Buffer
	if err := Encode(&buf, project); err != nil {
		return "", err
	}
	if err := os.WriteFile(plainPath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write project file: %w", err)
	}
	return plainPath, nil
}

// ReadProject decrypts and decodes the project container at path
func ReadProject(path string, keys KeyProvider) (*types.Project, error) {
	key, err := keys.Key()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain key: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	plain, err := Decrypt(data, key)
	if err != nil {
		return nil, err
	}
	return Decode(plain)
}
