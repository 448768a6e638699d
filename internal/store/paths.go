package store

import "path/filepath"

func StatePath(dir string) string {
	return filepath.Join(dir, "state.toml")
}
