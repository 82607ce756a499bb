package artifacts

import (
	"fmt"
	"os"
	"path/filepath"

	"cardiai/db"
)

// Artifact names shared by every source.
const (
	NameModel   = "model"
	NameScaler  = "scaler"
	NameEncoder = "encoder"
)

// Names returns the artifact names in load order.
func Names() []string {
	return []string{NameModel, NameScaler, NameEncoder}
}

// Source yields the raw bytes of a named artifact.
type Source interface {
	Read(name string) ([]byte, error)
	Describe(name string) string
}

// Files maps artifact names to file names inside a directory.
type Files struct {
	Model   string `yaml:"model"`
	Scaler  string `yaml:"scaler"`
	Encoder string `yaml:"encoder"`
}

func DefaultFiles() Files {
	return Files{
		Model:   "modelo_rf_final.json",
		Scaler:  "minmax_scaler.json",
		Encoder: "alcohol_manual_encoder.json",
	}
}

// DirSource reads artifacts from files in one directory.
type DirSource struct {
	dir   string
	files Files
}

func NewDirSource(dir string, files Files) *DirSource {
	defaults := DefaultFiles()
	if files.Model == "" {
		files.Model = defaults.Model
	}
	if files.Scaler == "" {
		files.Scaler = defaults.Scaler
	}
	if files.Encoder == "" {
		files.Encoder = defaults.Encoder
	}
	return &DirSource{dir: dir, files: files}
}

func (s *DirSource) Dir() string {
	return s.dir
}

// Path returns the file backing a named artifact.
func (s *DirSource) Path(name string) (string, error) {
	var file string
	switch name {
	case NameModel:
		file = s.files.Model
	case NameScaler:
		file = s.files.Scaler
	case NameEncoder:
		file = s.files.Encoder
	default:
		return "", fmt.Errorf("unknown artifact %q", name)
	}
	return filepath.Join(s.dir, file), nil
}

func (s *DirSource) Read(name string) ([]byte, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (s *DirSource) Describe(name string) string {
	path, err := s.Path(name)
	if err != nil {
		return name
	}
	return path
}

// RegistrySource reads the latest version of each artifact from the SQLite
// registry.
type RegistrySource struct {
	registry *db.Registry
	path     string
}

func NewRegistrySource(registry *db.Registry, path string) *RegistrySource {
	return &RegistrySource{registry: registry, path: path}
}

func (s *RegistrySource) Read(name string) ([]byte, error) {
	rec, err := s.registry.LatestArtifact(name)
	if err != nil {
		return nil, err
	}
	return rec.Payload, nil
}

func (s *RegistrySource) Describe(name string) string {
	return fmt.Sprintf("sqlite://%s#%s", s.path, name)
}
