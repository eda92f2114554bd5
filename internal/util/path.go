package util

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// PathExists is a wrapper that simplifies checking whether a file or
// directory already exists at the provided path.
func PathExists(path string) (fs.FileInfo, bool) {
	fi, err := os.Stat(path)
	return fi, !os.IsNotExist(err)
}

// SplitConfigPath breaks a path into the directory, base filename, and
// extension parts that spf13/viper's API wants fed separately. See
// LoadConfig() in internal/config.go.
func SplitConfigPath(path string) (string, string, string) {
	filename := filepath.Base(path)
	ext := filepath.Ext(filename)
	return filepath.Dir(path), strings.TrimSuffix(filename, ext), strings.TrimPrefix(ext, ".")
}
