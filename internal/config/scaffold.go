package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// gitignoreEntry keeps session logs out of version control.
const gitignoreEntry = ".desk/"

// ScaffoldProject prepares dir for desk: it writes desk.toml, creates the
// session log directory, and adds .desk/ to .gitignore. Existing files are
// left untouched. Returns the list of created or modified paths.
func ScaffoldProject(dir string) ([]string, error) {
	var created []string

	tomlPath := filepath.Join(dir, FileName)
	if _, err := os.Stat(tomlPath); os.IsNotExist(err) {
		if _, initErr := InitFile(dir); initErr != nil {
			return created, initErr
		}
		created = append(created, tomlPath)
	}

	logDir := filepath.Join(dir, Defaults().Session.LogDir)
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		if mkErr := os.MkdirAll(logDir, 0755); mkErr != nil {
			return created, fmt.Errorf("scaffold: create %s: %w", logDir, mkErr)
		}
		created = append(created, logDir)
	}

	gitignorePath := filepath.Join(dir, ".gitignore")
	existing, err := os.ReadFile(gitignorePath)
	if os.IsNotExist(err) {
		if writeErr := os.WriteFile(gitignorePath, []byte(gitignoreEntry+"\n"), 0644); writeErr != nil {
			return created, fmt.Errorf("scaffold: write %s: %w", gitignorePath, writeErr)
		}
		created = append(created, gitignorePath)
	} else if err != nil {
		return created, fmt.Errorf("scaffold: read %s: %w", gitignorePath, err)
	} else if !hasLine(string(existing), gitignoreEntry) {
		content := string(existing)
		if len(content) > 0 && content[len(content)-1] != '\n' {
			content += "\n"
		}
		content += gitignoreEntry + "\n"
		if writeErr := os.WriteFile(gitignorePath, []byte(content), 0644); writeErr != nil {
			return created, fmt.Errorf("scaffold: write %s: %w", gitignorePath, writeErr)
		}
		created = append(created, gitignorePath)
	}

	return created, nil
}

func hasLine(content, line string) bool {
	for _, l := range strings.Split(content, "\n") {
		if strings.TrimSpace(l) == line {
			return true
		}
	}
	return false
}
