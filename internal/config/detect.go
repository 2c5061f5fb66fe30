package config

import (
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// manifest reads a project name out of one kind of build file.
type manifest struct {
	file string
	name func(data []byte) string
}

// manifests are consulted in order; the first non-empty name wins.
var manifests = []manifest{
	{"go.mod", goModName},
	{"pyproject.toml", pyprojectName},
	{"package.json", packageJSONName},
	{"Cargo.toml", cargoName},
}

// DetectProjectName names the workspace after the first build manifest in
// dir that declares a name. Without one it falls back to the directory's
// base name. Unreadable or malformed manifests are skipped.
func DetectProjectName(dir string) string {
	name, _ := detectProject(dir)
	return name
}

// detectProject also reports which manifest supplied the name; source is
// empty when the directory name was used.
func detectProject(dir string) (name, source string) {
	for _, m := range manifests {
		data, err := os.ReadFile(filepath.Join(dir, m.file))
		if err != nil {
			continue
		}
		if n := strings.TrimSpace(m.name(data)); n != "" {
			return n, m.file
		}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", ""
	}
	base := filepath.Base(abs)
	if base == string(filepath.Separator) || base == "." {
		return "", ""
	}
	return base, ""
}

// goModName returns the last element of the module path.
func goModName(data []byte) string {
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "module" {
			return path.Base(strings.Trim(fields[1], `"`))
		}
	}
	return ""
}

func pyprojectName(data []byte) string {
	var p struct {
		Project struct {
			Name string `toml:"name"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Name string `toml:"name"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if _, err := toml.Decode(string(data), &p); err != nil {
		return ""
	}
	if p.Project.Name != "" {
		return p.Project.Name
	}
	return p.Tool.Poetry.Name
}

func packageJSONName(data []byte) string {
	var p struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return ""
	}
	return p.Name
}

func cargoName(data []byte) string {
	var c struct {
		Package struct {
			Name string `toml:"name"`
		} `toml:"package"`
	}
	if _, err := toml.Decode(string(data), &c); err != nil {
		return ""
	}
	return c.Package.Name
}
