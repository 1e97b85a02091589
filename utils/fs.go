package utils

import (
	"encoding/json"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

type Fs struct {
	AppFs afero.Fs
}

func NewFs(appFs afero.Fs) Fs {
	return Fs{AppFs: appFs}
}

func (fs Fs) ReadJSON(filePath string, v interface{}) error {
	b, err := afero.ReadFile(fs.AppFs, filePath)
	if err != nil {
		return xerrors.Errorf("unable to read a file: %w", err)
	}
	if err = json.Unmarshal(b, v); err != nil {
		return xerrors.Errorf("failed to unmarshal JSON %s: %w", filePath, err)
	}
	return nil
}

func (fs Fs) ReadYAML(filePath string, v interface{}) error {
	b, err := afero.ReadFile(fs.AppFs, filePath)
	if err != nil {
		return xerrors.Errorf("unable to read a file: %w", err)
	}
	if err = yaml.Unmarshal(b, v); err != nil {
		return xerrors.Errorf("failed to unmarshal YAML %s: %w", filePath, err)
	}
	return nil
}
