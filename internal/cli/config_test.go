package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/tagcast/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tagdemo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 100, cfg.Count)
	assert.Equal(t, BackendAll, cfg.Backend)
	require.Len(t, cfg.Shapes, 3)
	assert.Equal(t, "foo", cfg.Shapes[0].Name)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
count: 7
backend: wasm
memory:
  min_pages: 2
  max_pages: 4
shapes:
  - name: point
    fields:
      - {name: x, type: s32}
      - {name: y, type: s32}
  - name: color
    fields:
      - {name: rgba, type: u32}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Count)
	assert.Equal(t, BackendWasm, cfg.Backend)
	assert.Equal(t, MemoryConfig{MinPages: 2, MaxPages: 4}, cfg.Memory)
	require.Len(t, cfg.Shapes, 2)

	shapes, err := cfg.BuildShapes()
	require.NoError(t, err)
	require.Len(t, shapes, 2)
	assert.Equal(t, "point", shapes[0].Name)
	assert.Len(t, shapes[0].Fields(), 2)
	assert.NotEqual(t, shapes[0].ID, shapes[1].ID)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		want *errors.Error
		name string
		body string
	}{
		{
			name: "bad_yaml",
			body: "count: [",
			want: &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindInvalidInput},
		},
		{
			name: "negative_count",
			body: "count: -1",
			want: &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindInvalidInput},
		},
		{
			name: "bad_backend",
			body: "backend: gpu",
			want: &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindInvalidInput},
		},
		{
			name: "inverted_pages",
			body: "memory: {min_pages: 4, max_pages: 2}",
			want: &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindInvalidInput},
		},
		{
			name: "one_shape",
			body: "shapes: [{name: lonely}]",
			want: &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindInvalidInput},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.body))
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuildShapesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Shapes = append(cfg.Shapes, ShapeConfig{Name: "foo"})
	_, err := cfg.BuildShapes()
	assert.Error(t, err, "duplicate shape")

	cfg = DefaultConfig()
	cfg.Shapes[1].Fields[0].Type = "quaternion"
	_, err = cfg.BuildShapes()
	assert.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindNotFound})
}

func TestParseType(t *testing.T) {
	tests := []struct {
		want wit.Type
		name string
	}{
		{wit.Bool{}, "bool"},
		{wit.U8{}, "u8"},
		{wit.S16{}, "S16"},
		{wit.U32{}, " u32 "},
		{wit.F64{}, "f64"},
		{wit.Char{}, "char"},
		{wit.String{}, "string"},
	}
	for _, tc := range tests {
		got, err := ParseType(tc.name)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, got)
		assert.Equal(t, TypeName(tc.want), TypeName(got))
	}

	_, err := ParseType("list<u8>")
	assert.Error(t, err)
}
