package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
)

// ModelFile is the on-disk description of a dense classifier.
type ModelFile struct {
	Name          string      `json:"name"`
	SchemaVersion string      `json:"schema_version"`
	Inputs        int         `json:"inputs"`
	Outputs       int         `json:"outputs"`
	Normalize     *Normalize  `json:"normalize,omitempty"`
	Layers        []LayerSpec `json:"layers"`
}

// Normalize standardizes raw readings before the first layer:
// x' = (x - Mean) / Scale.
type Normalize struct {
	Mean  []float32 `json:"mean"`
	Scale []float32 `json:"scale"`
}

// LayerSpec is one fully-connected layer. Weights are indexed [out][in].
type LayerSpec struct {
	Weights    [][]float32 `json:"weights"`
	Bias       []float32   `json:"bias"`
	Activation string      `json:"activation"`
}

// Activation names accepted in model files.
const (
	ActivationLinear  = "linear"
	ActivationReLU    = "relu"
	ActivationSoftmax = "softmax"
)

// ModelFileName returns the file name for a model inside the model directory.
func ModelFileName(m Model) string {
	return m.String() + "_risk_model.json"
}

// ModelPath joins dir and the model's file name.
func ModelPath(dir string, m Model) string {
	return filepath.Join(dir, ModelFileName(m))
}

// modelFileSchema constrains the structure of a model file. Shape agreement
// between layers is checked separately in checkShape.
var modelFileSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"name":           map[string]any{"type": "string", "enum": []any{"arrhythmia", "anemia", "preeclampsia"}},
		"schema_version": map[string]any{"type": "string", "pattern": "^v[0-9]+\\.[0-9]+\\.[0-9]+$"},
		"inputs":         map[string]any{"type": "integer", "const": 5},
		"outputs":        map[string]any{"type": "integer", "minimum": 1},
		"normalize": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"mean":  map[string]any{"type": "array", "items": map[string]any{"type": "number"}, "minItems": 5, "maxItems": 5},
				"scale": map[string]any{"type": "array", "items": map[string]any{"type": "number", "not": map[string]any{"const": 0}}, "minItems": 5, "maxItems": 5},
			},
			"required": []any{"mean", "scale"},
		},
		"layers": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"weights": map[string]any{
						"type":     "array",
						"minItems": 1,
						"items": map[string]any{
							"type":     "array",
							"minItems": 1,
							"items":    map[string]any{"type": "number"},
						},
					},
					"bias":       map[string]any{"type": "array", "items": map[string]any{"type": "number"}},
					"activation": map[string]any{"type": "string", "enum": []any{ActivationLinear, ActivationReLU, ActivationSoftmax}},
				},
				"required": []any{"weights", "bias", "activation"},
			},
		},
	},
	"required":             []any{"name", "schema_version", "inputs", "outputs", "layers"},
	"additionalProperties": false,
}

var (
	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func modelSchema() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		// The compiler wants a decoded JSON value, not Go maps with typed slices.
		raw, err := json.Marshal(modelFileSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal model schema: %w", err)
			return
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			compileErr = fmt.Errorf("parse model schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		const url = "schema://risk-model.json"
		if err := c.AddResource(url, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(url)
	})
	return compiledSchema, compileErr
}

// ParseModelFile validates raw JSON against the model file schema, checks
// that the schema version's major matches supportedMajor (e.g. "v1") and
// that the file describes model m.
func ParseModelFile(m Model, raw []byte, supportedMajor string) (*ModelFile, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	schema, err := modelSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var mf ModelFile
	if err := json.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("decode model file: %w", err)
	}

	if got := semver.Major(mf.SchemaVersion); got != supportedMajor {
		return nil, fmt.Errorf("schema version %s not supported (want %s.x.x)", mf.SchemaVersion, supportedMajor)
	}
	if mf.Name != m.String() {
		return nil, fmt.Errorf("file describes %q, want %q", mf.Name, m)
	}
	if mf.Outputs != m.Outputs() {
		return nil, fmt.Errorf("expected %d outputs, got %d", m.Outputs(), mf.Outputs)
	}
	if err := mf.checkShape(); err != nil {
		return nil, err
	}
	return &mf, nil
}

// checkShape verifies that consecutive layers agree on their widths and the
// final layer produces Outputs values.
func (mf *ModelFile) checkShape() error {
	width := mf.Inputs
	for i, l := range mf.Layers {
		if len(l.Bias) != len(l.Weights) {
			return fmt.Errorf("layer %d: %d bias values for %d units", i, len(l.Bias), len(l.Weights))
		}
		for j, row := range l.Weights {
			if len(row) != width {
				return fmt.Errorf("layer %d unit %d: %d weights, want %d", i, j, len(row), width)
			}
		}
		if l.Activation == ActivationSoftmax && i != len(mf.Layers)-1 {
			return fmt.Errorf("layer %d: softmax is only allowed on the final layer", i)
		}
		width = len(l.Weights)
	}
	if width != mf.Outputs {
		return fmt.Errorf("final layer has %d units, want %d", width, mf.Outputs)
	}
	return nil
}

// ReadModelFile loads and parses the file for m from dir.
func ReadModelFile(dir string, m Model, supportedMajor string) (*ModelFile, error) {
	path := ModelPath(dir, m)
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ErrModelLoad{Model: m, Path: path, Err: errors.New("model file not found")}
		}
		return nil, &ErrModelLoad{Model: m, Path: path, Err: err}
	}
	mf, err := ParseModelFile(m, raw, supportedMajor)
	if err != nil {
		return nil, &ErrModelLoad{Model: m, Path: path, Err: err}
	}
	return mf, nil
}
