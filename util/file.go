package util

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// EnsureDir creates the directory (and parents) if it does not exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// CreateFile creates the file at path along with its parent directories
func CreateFile(path string) (*os.File, error) {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return os.Create(path)
}

func SaveJson(path string, data interface{}) error {
	file, err := CreateFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	bs, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	_, err = file.Write(bs)
	return err
}
