package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadEnv preloads API keys from .env files in baseDir and startDir.
// Variables already present in the environment are never overwritten,
// and missing files are ignored.
func LoadEnv(baseDir, startDir string) error {
	var files []string
	for _, dir := range []string{startDir, baseDir} {
		if dir == "" {
			continue
		}
		p := filepath.Join(dir, ".env")
		if _, err := os.Stat(p); err == nil {
			files = append(files, p)
		}
	}
	if len(files) == 0 {
		return nil
	}
	return godotenv.Load(files...)
}
