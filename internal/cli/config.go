package cli

import (
	"fmt"
	"os"
	"strings"

	"go.bytecodealliance.org/wit"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/tagcast/errors"
	"github.com/wippyai/tagcast/linmem"
)

// Backend names accepted by --backend.
const (
	BackendHeap  = "heap"
	BackendArena = "arena"
	BackendWasm  = "wasm"
	BackendAll   = "all"
)

// ValidBackends lists the accepted backend names.
var ValidBackends = []string{BackendHeap, BackendArena, BackendWasm, BackendAll}

// Config is the demo configuration, loaded from YAML.
type Config struct {
	Backend   string        `yaml:"backend"`
	Shapes    []ShapeConfig `yaml:"shapes"`
	Memory    MemoryConfig  `yaml:"memory"`
	Count     int           `yaml:"count"`
	ArenaSize int           `yaml:"arena_size"` // bytes; 0 sizes the arena to the run
}

// MemoryConfig bounds the linear memory used by the wasm backend.
type MemoryConfig struct {
	MinPages uint32 `yaml:"min_pages"`
	MaxPages uint32 `yaml:"max_pages"`
}

// ShapeConfig declares a linear-memory shape as a WIT record.
type ShapeConfig struct {
	Name   string        `yaml:"name"`
	Fields []FieldConfig `yaml:"fields"`
}

// FieldConfig is one record field. Type is a WIT primitive name.
type FieldConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// DefaultConfig mirrors the reference scenario: three single-field shapes,
// one hundred instances each.
func DefaultConfig() Config {
	return Config{
		Count:   100,
		Backend: BackendAll,
		Memory:  MemoryConfig{MinPages: 1, MaxPages: 16},
		Shapes: []ShapeConfig{
			{Name: "foo", Fields: []FieldConfig{{Name: "a", Type: "s32"}}},
			{Name: "bar", Fields: []FieldConfig{{Name: "b", Type: "s32"}}},
			{Name: "baz", Fields: []FieldConfig{{Name: "c", Type: "s32"}}},
		},
	}
}

// LoadConfig reads a YAML file over the defaults. An empty path returns the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse "+path)
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration for values no backend can run with.
func (c Config) Validate() error {
	if c.Count < 0 {
		return errors.InvalidInput(errors.PhaseConfig, "count must not be negative")
	}
	if !isValidBackend(c.Backend) {
		return errors.InvalidInput(errors.PhaseConfig,
			fmt.Sprintf("backend %q: must be one of %v", c.Backend, ValidBackends))
	}
	if c.Memory.MinPages == 0 {
		return errors.InvalidInput(errors.PhaseConfig, "memory.min_pages must be at least 1")
	}
	if c.Memory.MaxPages != 0 && c.Memory.MaxPages < c.Memory.MinPages {
		return errors.InvalidInput(errors.PhaseConfig, "memory.max_pages below memory.min_pages")
	}
	if len(c.Shapes) < 2 {
		return errors.InvalidInput(errors.PhaseConfig, "at least two shapes are needed to show a mismatch")
	}
	return nil
}

// BuildShapes turns the configured records into linear-memory shapes.
func (c Config) BuildShapes() ([]*linmem.Shape, error) {
	out := make([]*linmem.Shape, 0, len(c.Shapes))
	seen := make(map[string]bool, len(c.Shapes))
	for _, sc := range c.Shapes {
		if seen[sc.Name] {
			return nil, errors.InvalidInput(errors.PhaseConfig, "duplicate shape "+sc.Name)
		}
		seen[sc.Name] = true

		fields := make([]wit.Field, 0, len(sc.Fields))
		for _, fc := range sc.Fields {
			typ, err := ParseType(fc.Type)
			if err != nil {
				return nil, fmt.Errorf("shape %s field %s: %w", sc.Name, fc.Name, err)
			}
			fields = append(fields, wit.Field{Name: fc.Name, Type: typ})
		}

		shape, err := linmem.DefineShape(sc.Name, &wit.TypeDef{Kind: &wit.Record{Fields: fields}})
		if err != nil {
			return nil, err
		}
		out = append(out, shape)
	}
	return out, nil
}

// ParseType resolves a WIT primitive type name.
func ParseType(name string) (wit.Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bool":
		return wit.Bool{}, nil
	case "u8":
		return wit.U8{}, nil
	case "s8":
		return wit.S8{}, nil
	case "u16":
		return wit.U16{}, nil
	case "s16":
		return wit.S16{}, nil
	case "u32":
		return wit.U32{}, nil
	case "s32":
		return wit.S32{}, nil
	case "u64":
		return wit.U64{}, nil
	case "s64":
		return wit.S64{}, nil
	case "f32":
		return wit.F32{}, nil
	case "f64":
		return wit.F64{}, nil
	case "char":
		return wit.Char{}, nil
	case "string":
		return wit.String{}, nil
	}
	return nil, errors.NotFound(errors.PhaseConfig, "type", name)
}

// TypeName is the inverse of ParseType.
func TypeName(t wit.Type) string {
	switch v := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if v.Name != nil {
			return *v.Name
		}
		return "typedef"
	default:
		return fmt.Sprintf("%T", t)
	}
}

func isValidBackend(name string) bool {
	for _, b := range ValidBackends {
		if b == name {
			return true
		}
	}
	return false
}
