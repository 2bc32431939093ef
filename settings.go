package watchspawn

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSettingsFile is the settings file read from the working directory when no other is given.
const DefaultSettingsFile = "AppSettings.json"

var (
	// ErrInvalidFolder is returned when the monitored folder is empty, missing or not a directory.
	ErrInvalidFolder = errors.New("the folder path does not exist or is empty")

	// ErrInvalidApplication is returned when the application to invoke is empty, missing or a directory.
	ErrInvalidApplication = errors.New("the application file does not exist or is invalid")
)

// Settings holds the values read from the AppSettings section of the settings file.
type Settings struct {
	// FolderPathToMonitor is the directory watched for new files.
	FolderPathToMonitor string `json:"FolderPathToMonitor" yaml:"FolderPathToMonitor"`

	// ApplicationPathToInvoke is the executable started for each new file.
	ApplicationPathToInvoke string `json:"ApplicationPathToInvoke" yaml:"ApplicationPathToInvoke"`

	// MonitorAllFiles reports every new file when set, otherwise only files with MonitorFileExtension.
	MonitorAllFiles Flag `json:"MonitorAllFiles" yaml:"MonitorAllFiles"`

	// MonitorFileExtension is the extension, including its dot, used when not monitoring all files.
	MonitorFileExtension string `json:"MonitorFileExtension" yaml:"MonitorFileExtension"`
}

type settingsFile struct {
	AppSettings Settings `json:"AppSettings" yaml:"AppSettings"`
}

// Flag is a boolean serialized as the literal value 1. Any other value is false.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*f = Flag(string(data) == "1" || string(data) == `"1"`)
	return nil
}

func (f *Flag) UnmarshalYAML(value *yaml.Node) error {
	*f = Flag(value.Kind == yaml.ScalarNode && value.Value == "1")
	return nil
}

func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte(`"1"`), nil
	}
	return []byte(`"0"`), nil
}

// LoadSettings reads the settings file at path. Files ending in .yaml or .yml are decoded as YAML,
// everything else as JSON.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading settings file: %w", err)
	}

	var file settingsFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	default:
		err = json.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("error decoding settings file %q: %w", path, err)
	}
	return &file.AppSettings, nil
}

// Pattern returns the wildcard filter for new files: "*.*" when monitoring all files, otherwise "*"
// followed by the extension.
func (s *Settings) Pattern() string {
	if s.MonitorAllFiles {
		return "*.*"
	}
	return "*" + s.MonitorFileExtension
}

// ValidateFolder checks that the monitored folder is set and is an existing directory.
func (s *Settings) ValidateFolder() error {
	if s.FolderPathToMonitor == "" {
		return ErrInvalidFolder
	}
	info, err := os.Stat(s.FolderPathToMonitor)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFolder, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %q is not a directory", ErrInvalidFolder, s.FolderPathToMonitor)
	}
	return nil
}

// ValidateApplication checks that the application to invoke is set and is an existing file.
func (s *Settings) ValidateApplication() error {
	if s.ApplicationPathToInvoke == "" {
		return ErrInvalidApplication
	}
	info, err := os.Stat(s.ApplicationPathToInvoke)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidApplication, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %q is a directory", ErrInvalidApplication, s.ApplicationPathToInvoke)
	}
	return nil
}
