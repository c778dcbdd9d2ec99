// Package prefs persists small user preferences between sessions: the
// recently searched folders and the worker executable.
package prefs

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"fastfinder/internal/config"
)

// MaxRecentFolders bounds the recent folder list
const MaxRecentFolders = 10

// Prefs holds user preferences
type Prefs struct {
	RecentFolders []string `toml:"recent_folders"`
	WorkerPath    string   `toml:"worker_path"`
}

// DefaultPath returns the default preferences file path
func DefaultPath() string {
	return filepath.Join(config.Dir(), "prefs.toml")
}

// Load reads preferences from path. A missing or unreadable file yields
// empty preferences; only a corrupt file is reported.
func Load(path string) (Prefs, error) {
	var p Prefs

	data, err := os.ReadFile(path)
	if err != nil {
		return p, nil
	}
	if err := toml.Unmarshal(data, &p); err != nil {
		return Prefs{}, errors.Wrap(err, "parse prefs")
	}

	// normalise whatever was stored
	folders := p.RecentFolders
	p.RecentFolders = nil
	for i := len(folders) - 1; i >= 0; i-- {
		p.AddRecentFolder(folders[i])
	}
	p.WorkerPath = strings.TrimSpace(p.WorkerPath)
	return p, nil
}

// Save writes preferences to path, creating directories as needed
func Save(path string, p Prefs) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create prefs dir")
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshal prefs")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "write prefs")
	}
	return nil
}

// AddRecentFolder moves folder to the front of the list, dropping a
// case-insensitive duplicate and anything beyond MaxRecentFolders
func (p *Prefs) AddRecentFolder(folder string) {
	folder = strings.TrimSpace(folder)
	if folder == "" {
		return
	}

	out := make([]string, 0, len(p.RecentFolders)+1)
	out = append(out, folder)
	for _, f := range p.RecentFolders {
		if !strings.EqualFold(f, folder) {
			out = append(out, f)
		}
	}
	if len(out) > MaxRecentFolders {
		out = out[:MaxRecentFolders]
	}
	p.RecentFolders = out
}
