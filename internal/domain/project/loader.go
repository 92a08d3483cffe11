package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/stagehand-dev/stagehand/internal/domain/requirement"
)

// DefinitionFileName is the canonical project definition file name.
const DefinitionFileName = "stagehand.yml"

// Loader errors.
var (
	ErrDefinitionNotFound = errors.New("project definition not found")
	ErrDefinitionInvalid  = errors.New("project definition is invalid")
)

// DefinitionDTO is the serialized form of a project definition.
type DefinitionDTO struct {
	Name      string                 `yaml:"name"`
	Runtimes  map[string]string      `yaml:"runtimes,omitempty"`
	Envs      map[string]EnvDTO      `yaml:"envs,omitempty"`
	Downloads map[string]DownloadDTO `yaml:"downloads,omitempty"`
	Services  map[string]string      `yaml:"services,omitempty"`
	Variables map[string]VariableDTO `yaml:"variables,omitempty"`
}

// EnvDTO declares a package environment.
type EnvDTO struct {
	Packages []string `yaml:"packages"`
	Channels []string `yaml:"channels,omitempty"`
}

// DownloadDTO declares a downloaded artifact.
type DownloadDTO struct {
	URL      string `yaml:"url"`
	Filename string `yaml:"filename"`
	SHA256   string `yaml:"sha256,omitempty"`
}

// VariableDTO declares a variable. Exported controls whether the value
// is placed in the command environment (env-var kind) or only recorded
// (variable kind).
type VariableDTO struct {
	Default     string   `yaml:"default,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Exported    bool     `yaml:"exported,omitempty"`
	DependsOn   []string `yaml:"depends_on,omitempty"`
}

// DefinitionToDTO converts a Definition to its serializable form.
func DefinitionToDTO(d *Definition) DefinitionDTO {
	dto := DefinitionDTO{Name: d.Name()}
	for _, decl := range d.Declarations() {
		switch decl.Kind {
		case requirement.KindEnvSpec:
			p := decl.Params.(requirement.EnvSpecParams)
			if dto.Runtimes == nil {
				dto.Runtimes = make(map[string]string)
			}
			dto.Runtimes[p.Runtime] = p.Version
		case requirement.KindPackageEnv:
			p := decl.Params.(requirement.PackageEnvParams)
			if dto.Envs == nil {
				dto.Envs = make(map[string]EnvDTO)
			}
			dto.Envs[p.Name] = EnvDTO{Packages: p.Packages, Channels: p.Channels}
		case requirement.KindDownload:
			p := decl.Params.(requirement.DownloadParams)
			if dto.Downloads == nil {
				dto.Downloads = make(map[string]DownloadDTO)
			}
			dto.Downloads[decl.Identity] = DownloadDTO{URL: p.URL, Filename: p.Filename, SHA256: p.Checksum}
		case requirement.KindService:
			p := decl.Params.(requirement.ServiceParams)
			if dto.Services == nil {
				dto.Services = make(map[string]string)
			}
			dto.Services[decl.Identity] = p.Flavor
		case requirement.KindEnvVar, requirement.KindVariable:
			p := decl.Params.(requirement.VariableParams)
			if dto.Variables == nil {
				dto.Variables = make(map[string]VariableDTO)
			}
			dto.Variables[decl.Identity] = VariableDTO{
				Default:     p.Default,
				Description: p.Description,
				Exported:    decl.Kind == requirement.KindEnvVar,
				DependsOn:   decl.DependsOn,
			}
		}
	}
	return dto
}

// DefinitionFromDTO converts serialized form back to a Definition.
// Declaration order within each section is lexical so materialized
// requirement order is stable across loads.
func DefinitionFromDTO(dto DefinitionDTO) (*Definition, error) {
	def, err := NewDefinition(dto.Name)
	if err != nil {
		return nil, err
	}

	for _, runtime := range sortedKeys(dto.Runtimes) {
		if err := def.SetEnvSpec(runtime, dto.Runtimes[runtime]); err != nil {
			return nil, err
		}
	}
	for _, name := range sortedKeys(dto.Envs) {
		env := dto.Envs[name]
		if err := def.SetPackageEnv(name, env.Packages, env.Channels); err != nil {
			return nil, err
		}
	}
	for _, envVar := range sortedKeys(dto.Downloads) {
		dl := dto.Downloads[envVar]
		if err := def.SetDownload(envVar, requirement.DownloadParams{
			URL:      dl.URL,
			Filename: dl.Filename,
			Checksum: dl.SHA256,
		}); err != nil {
			return nil, err
		}
	}
	for _, envVar := range sortedKeys(dto.Services) {
		if err := def.SetService(envVar, dto.Services[envVar]); err != nil {
			return nil, err
		}
	}
	for _, name := range sortedKeys(dto.Variables) {
		v := dto.Variables[name]
		params := requirement.VariableParams{Default: v.Default, Description: v.Description}
		if v.Exported {
			err = def.SetEnvVar(name, params, v.DependsOn...)
		} else {
			err = def.SetVariable(name, params, v.DependsOn...)
		}
		if err != nil {
			return nil, err
		}
	}

	// Materialize once so malformed declarations are rejected at load
	// time, not in the middle of a resolution run.
	if _, err := def.Requirements(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDefinitionInvalid, err)
	}

	return def, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load reads the definition from a project directory.
func Load(dir string) (*Definition, error) {
	path := filepath.Join(dir, DefinitionFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDefinitionNotFound, path)
		}
		return nil, fmt.Errorf("failed to read project definition: %w", err)
	}

	var dto DefinitionDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDefinitionInvalid, err)
	}

	return DefinitionFromDTO(dto)
}

// Save writes the definition back to a project directory atomically.
func Save(dir string, def *Definition) error {
	dto := DefinitionToDTO(def)
	data, err := yaml.Marshal(&dto)
	if err != nil {
		return fmt.Errorf("failed to serialize project definition: %w", err)
	}

	path := filepath.Join(dir, DefinitionFileName)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write project definition: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write project definition: %w", err)
	}
	return nil
}
