package model

import (
	"encoding/json"
	"fmt"

	"runsound/internal/feature"
)

// SchemaVersion tags saved artifacts. Bump it whenever the feature schema or
// the serialized model layout changes so stale artifacts fail loudly on load
// instead of predicting garbage.
const SchemaVersion = 1

type artifact struct {
	SchemaVersion int    `json:"schema_version"`
	Params        Params `json:"params"`
	State         *state `json:"state"`
}

// Save serializes the trained model, its encoders and scaling statistics
// into a self-contained artifact.
func (p *Predictor) Save() ([]byte, error) {
	if p.state == nil {
		return nil, ErrNotTrained
	}
	return json.Marshal(artifact{
		SchemaVersion: SchemaVersion,
		Params:        p.params,
		State:         p.state,
	})
}

// Load rebuilds a Predictor from a saved artifact. It rejects artifacts with
// a different schema version or ones trained against a feature schema that
// no longer matches the current extractor.
func Load(data []byte) (*Predictor, error) {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if a.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: artifact schema version %d, want %d",
			ErrSchemaMismatch, a.SchemaVersion, SchemaVersion)
	}
	if a.State == nil {
		return nil, fmt.Errorf("decode model artifact: missing state")
	}
	if !equalFields(a.State.NumericFields, feature.NumericFields) ||
		!equalFields(a.State.CategoricalFields, feature.CategoricalFields) {
		return nil, fmt.Errorf("%w: artifact trained on a different feature set", ErrSchemaMismatch)
	}
	return &Predictor{params: a.Params, state: a.State}, nil
}

func equalFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
