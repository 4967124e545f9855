package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// questionFile is the YAML layout of a per-plugin question list.
type questionFile struct {
	Questions []string `yaml:"questions"`
}

// LoadQuestions reads the ordered question list for a plugin from
// <dir>/<name>.yaml. The order matters: candidate search tries queries
// best-first and stops on the first hit.
func LoadQuestions(dir, name string) ([]string, error) {
	path := filepath.Join(dir, name+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}

	var qf questionFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(qf.Questions) == 0 {
		return nil, fmt.Errorf("%s contains no questions", path)
	}
	return qf.Questions, nil
}
