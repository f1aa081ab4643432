package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/warpdl/stickers/common"
)

// Paths are the files of one data directory.
type Paths struct {
	DataDir string
}

func (p Paths) Database() string   { return filepath.Join(p.DataDir, "stickers.db") }
func (p Paths) Lock() string       { return filepath.Join(p.DataDir, "stickers.lock") }
func (p Paths) LogDir() string     { return filepath.Join(p.DataDir, "logs") }
func (p Paths) ConfigFile() string { return filepath.Join(p.DataDir, FileName) }

// DataDir returns the data directory: STICKERS_DATA_DIR if set, otherwise
// <user config dir>/stickers.
func DataDir() (string, error) {
	if dir := os.Getenv(common.DataDirEnv); dir != "" {
		return filepath.Abs(dir)
	}
	cdr, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cdr, common.AppID), nil
}

// Resolve returns the paths rooted at dir and creates the directory tree.
// An empty dir resolves through DataDir.
func Resolve(fs afero.Fs, dir string) (Paths, error) {
	if dir == "" {
		d, err := DataDir()
		if err != nil {
			return Paths{}, err
		}
		dir = d
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Paths{}, err
	}
	if abs == "" {
		return Paths{}, errors.New("data dir is empty")
	}
	p := Paths{DataDir: abs}
	if err := fs.MkdirAll(p.LogDir(), 0700); err != nil {
		return Paths{}, err
	}
	return p, nil
}
