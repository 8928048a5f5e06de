package particlefx

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// SceneDef lists the effects to spawn together.
type SceneDef struct {
	Effects []EffectSpec `yaml:"effects" json:"effects"`
}

// LoadScene reads a scene file. Files ending in .json are decoded as JSON,
// everything else as YAML.
func LoadScene(fsys fs.FS, name string) (*SceneDef, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene %s: %w", name, err)
	}

	scene := &SceneDef{}
	if strings.EqualFold(path.Ext(name), ".json") {
		err = json.Unmarshal(data, scene)
	} else {
		err = yaml.Unmarshal(data, scene)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse scene %s: %w", name, err)
	}

	// effect paths are relative to the scene file
	dir := path.Dir(name)
	for i := range scene.Effects {
		if p := scene.Effects[i].Path; p != "" && !path.IsAbs(p) {
			scene.Effects[i].Path = path.Join(dir, p)
		}
	}
	return scene, nil
}

// WriteYAML saves the scene in the format LoadScene reads.
func (scene *SceneDef) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(scene); err != nil {
		return fmt.Errorf("failed to encode scene: %w", err)
	}
	return enc.Close()
}
