package envtmpl

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// TemplateSuffix marks template files in the config directory.
const TemplateSuffix = ".template"

// ReadEnvFile parses an env file with godotenv. A missing file yields an
// empty map.
func ReadEnvFile(path string) (map[string]string, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return vars, nil
}

// RootEnvFiles lists the env files of the main checkout that {{COPY:NAME}}
// placeholders read from. Explicitly configured names win; otherwise every
// .env* file except templates and examples is used, in name order.
func RootEnvFiles(repoRoot string, configured []string) ([]string, error) {
	if len(configured) > 0 {
		files := make([]string, 0, len(configured))
		for _, name := range configured {
			files = append(files, filepath.Join(repoRoot, name))
		}
		return files, nil
	}

	entries, err := os.ReadDir(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", repoRoot, err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, ".env") {
			continue
		}
		if strings.HasSuffix(name, TemplateSuffix) || strings.HasSuffix(name, ".example") {
			continue
		}
		files = append(files, filepath.Join(repoRoot, name))
	}
	sort.Strings(files)
	return files, nil
}

// LoadRootEnv merges the given env files; later files override earlier
// ones. Files that do not exist are skipped.
func LoadRootEnv(files []string) (map[string]string, error) {
	merged := make(map[string]string)
	for _, path := range files {
		vars, err := ReadEnvFile(path)
		if err != nil {
			return nil, err
		}
		for k, v := range vars {
			merged[k] = v
		}
	}
	return merged, nil
}

// TemplateFiles returns the template files in configDir, sorted by name.
// A missing directory yields no templates.
func TemplateFiles(configDir string) ([]string, error) {
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", configDir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), TemplateSuffix) {
			files = append(files, filepath.Join(configDir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// OutputName returns the rendered file name for a template path:
// ".env.local.template" → ".env.local".
func OutputName(templatePath string) string {
	return strings.TrimSuffix(filepath.Base(templatePath), TemplateSuffix)
}
