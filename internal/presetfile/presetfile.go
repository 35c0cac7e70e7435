// Package presetfile reads and writes preset lists as YAML.
package presetfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"intervals/backend/internal/model"
	"intervals/backend/internal/service"
)

type yamlPreset struct {
	Name        string `yaml:"name"`
	WorkMode    string `yaml:"work_mode"`
	WorkSeconds int    `yaml:"work_seconds,omitempty"`
	RestSeconds int    `yaml:"rest_seconds"`
}

type yamlFile struct {
	Presets []yamlPreset `yaml:"presets"`
}

// Decode parses a preset file. Entries are returned as create inputs and are
// validated by PresetService.Create, not here.
func Decode(r io.Reader) ([]service.CreatePresetInput, error) {
	var file yamlFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse preset yaml: %w", err)
	}

	inputs := make([]service.CreatePresetInput, 0, len(file.Presets))
	for _, preset := range file.Presets {
		inputs = append(inputs, service.CreatePresetInput{
			Name:        preset.Name,
			WorkMode:    preset.WorkMode,
			WorkSeconds: preset.WorkSeconds,
			RestSeconds: preset.RestSeconds,
		})
	}
	return inputs, nil
}

func Encode(w io.Writer, presets []model.Preset) error {
	file := yamlFile{Presets: make([]yamlPreset, 0, len(presets))}
	for _, preset := range presets {
		file.Presets = append(file.Presets, yamlPreset{
			Name:        preset.Name,
			WorkMode:    string(preset.WorkMode),
			WorkSeconds: preset.WorkDuration(),
			RestSeconds: preset.RestSeconds,
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(file); err != nil {
		return fmt.Errorf("marshal preset yaml: %w", err)
	}
	return encoder.Close()
}

func Load(path string) ([]service.CreatePresetInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open preset file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func Save(path string, presets []model.Preset) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create preset dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create preset file: %w", err)
	}
	if err := Encode(f, presets); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write preset file: %w", err)
	}
	return nil
}
