package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"runsound/internal/feature"
)

var (
	ErrNotTrained     = errors.New("model not trained")
	ErrSchemaMismatch = errors.New("feature schema mismatch")
)

// Tempo predictions are clamped to a runnable BPM range; energy and valence
// to their audio-feature domain.
const (
	MinTempoBPM = 60
	MaxTempoBPM = 220
)

// Params controls ensemble size and tree growth. The seed fixes every random
// choice (bootstrap samples, feature subsets) so training is reproducible.
type Params struct {
	Trees           int   `json:"trees"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf"`
	Seed            int64 `json:"seed"`
	MinExamples     int   `json:"min_examples"`
}

func DefaultParams() Params {
	return Params{
		Trees:           100,
		MaxDepth:        10,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Seed:            42,
		MinExamples:     10,
	}
}

// Example pairs a feature vector with its target labels for training.
type Example struct {
	Vector  feature.Vector
	Targets feature.TargetProfile
}

// encoder maps one categorical field to ordinal codes. Categories are the
// values seen at fit time, sorted; anything else falls into an extra
// unknown bucket at index len(Categories).
type encoder struct {
	Field      string   `json:"field"`
	Categories []string `json:"categories"`
}

func (e *encoder) code(value string) float64 {
	for i, c := range e.Categories {
		if c == value {
			return float64(i)
		}
	}
	return float64(len(e.Categories))
}

// state is everything captured at fit time. A Predictor's state is built
// whole and assigned once, so a failed refit never corrupts the previous
// model.
type state struct {
	NumericFields     []string  `json:"numeric_fields"`
	CategoricalFields []string  `json:"categorical_fields"`
	Encoders          []encoder `json:"encoders"`
	Means             []float64 `json:"means"`
	Stddevs           []float64 `json:"stddevs"`
	Tempo             forest    `json:"tempo"`
	Energy            forest    `json:"energy"`
	Valence           forest    `json:"valence"`
	TrainedOn         int       `json:"trained_on"`
}

// Predictor learns tempo, energy and valence targets from labeled run
// feature vectors, one regression forest per target.
type Predictor struct {
	params Params
	state  *state
}

func New(params Params) *Predictor {
	return &Predictor{params: params}
}

// Trained reports whether Fit or a loaded artifact has populated the model.
func (p *Predictor) Trained() bool {
	return p.state != nil
}

// TrainedOn returns the number of examples the current model was fit on,
// zero when untrained.
func (p *Predictor) TrainedOn() int {
	if p.state == nil {
		return 0
	}
	return p.state.TrainedOn
}

// Fit trains all three forests on examples. It fails without touching the
// current model when there are fewer than MinExamples examples or when any
// vector deviates from the expected schema.
func (p *Predictor) Fit(examples []Example) error {
	if len(examples) < p.params.MinExamples {
		return fmt.Errorf("%w: %d examples, need %d", ErrNotTrained, len(examples), p.params.MinExamples)
	}
	for i := range examples {
		if err := checkShape(examples[i].Vector); err != nil {
			return fmt.Errorf("example %d: %w", i, err)
		}
	}

	s := &state{
		NumericFields:     append([]string(nil), feature.NumericFields...),
		CategoricalFields: append([]string(nil), feature.CategoricalFields...),
		TrainedOn:         len(examples),
	}

	s.Encoders = buildEncoders(examples)

	rows := make([][]float64, len(examples))
	for i := range examples {
		rows[i] = encodeRow(examples[i].Vector, s.Encoders)
	}
	s.Means, s.Stddevs = columnStats(rows)
	for _, row := range rows {
		scaleRow(row, s.Means, s.Stddevs)
	}

	tempo := make([]float64, len(examples))
	energy := make([]float64, len(examples))
	valence := make([]float64, len(examples))
	for i := range examples {
		tempo[i] = examples[i].Targets.TempoBPM
		energy[i] = examples[i].Targets.Energy
		valence[i] = examples[i].Targets.Valence
	}

	gp := growParams{
		maxDepth:        p.params.MaxDepth,
		minSamplesSplit: p.params.MinSamplesSplit,
		minSamplesLeaf:  p.params.MinSamplesLeaf,
		maxFeatures:     maxFeatures(len(rows[0])),
	}

	// One rng per target so adding a target never shifts the others
	s.Tempo = trainForest(rows, tempo, p.params.Trees, gp, rand.New(rand.NewSource(p.params.Seed)))
	s.Energy = trainForest(rows, energy, p.params.Trees, gp, rand.New(rand.NewSource(p.params.Seed+1)))
	s.Valence = trainForest(rows, valence, p.params.Trees, gp, rand.New(rand.NewSource(p.params.Seed+2)))

	p.state = s
	return nil
}

// Predict returns the clamped target profile for one feature vector.
func (p *Predictor) Predict(v feature.Vector) (feature.TargetProfile, error) {
	if p.state == nil {
		return feature.TargetProfile{}, ErrNotTrained
	}
	if err := p.checkSchema(v); err != nil {
		return feature.TargetProfile{}, err
	}

	row := encodeRow(v, p.state.Encoders)
	scaleRow(row, p.state.Means, p.state.Stddevs)

	return feature.TargetProfile{
		TempoBPM: clamp(p.state.Tempo.predict(row), MinTempoBPM, MaxTempoBPM),
		Energy:   clamp(p.state.Energy.predict(row), 0, 1),
		Valence:  clamp(p.state.Valence.predict(row), 0, 1),
	}, nil
}

func (p *Predictor) checkSchema(v feature.Vector) error {
	if len(v.Numeric) != len(p.state.NumericFields) {
		return fmt.Errorf("%w: %d numeric fields, model expects %d",
			ErrSchemaMismatch, len(v.Numeric), len(p.state.NumericFields))
	}
	if len(v.Categorical) != len(p.state.CategoricalFields) {
		return fmt.Errorf("%w: %d categorical fields, model expects %d",
			ErrSchemaMismatch, len(v.Categorical), len(p.state.CategoricalFields))
	}
	return nil
}

func checkShape(v feature.Vector) error {
	if len(v.Numeric) != len(feature.NumericFields) {
		return fmt.Errorf("%w: %d numeric fields, want %d",
			ErrSchemaMismatch, len(v.Numeric), len(feature.NumericFields))
	}
	if len(v.Categorical) != len(feature.CategoricalFields) {
		return fmt.Errorf("%w: %d categorical fields, want %d",
			ErrSchemaMismatch, len(v.Categorical), len(feature.CategoricalFields))
	}
	return nil
}

func buildEncoders(examples []Example) []encoder {
	encoders := make([]encoder, len(feature.CategoricalFields))
	for col, field := range feature.CategoricalFields {
		seen := map[string]bool{}
		for i := range examples {
			seen[examples[i].Vector.Categorical[col]] = true
		}
		categories := make([]string, 0, len(seen))
		for c := range seen {
			categories = append(categories, c)
		}
		sort.Strings(categories)
		encoders[col] = encoder{Field: field, Categories: categories}
	}
	return encoders
}

func encodeRow(v feature.Vector, encoders []encoder) []float64 {
	row := make([]float64, 0, len(v.Numeric)+len(v.Categorical))
	row = append(row, v.Numeric...)
	for col := range encoders {
		row = append(row, encoders[col].code(v.Categorical[col]))
	}
	return row
}

func columnStats(rows [][]float64) (means, stddevs []float64) {
	n := float64(len(rows))
	cols := len(rows[0])
	means = make([]float64, cols)
	stddevs = make([]float64, cols)

	for _, row := range rows {
		for c, v := range row {
			means[c] += v
		}
	}
	for c := range means {
		means[c] /= n
	}
	for _, row := range rows {
		for c, v := range row {
			d := v - means[c]
			stddevs[c] += d * d
		}
	}
	for c := range stddevs {
		stddevs[c] = math.Sqrt(stddevs[c] / n)
		// Constant columns pass through unscaled
		if stddevs[c] == 0 {
			stddevs[c] = 1
		}
	}
	return means, stddevs
}

func scaleRow(row []float64, means, stddevs []float64) {
	for c := range row {
		row[c] = (row[c] - means[c]) / stddevs[c]
	}
}

func maxFeatures(n int) int {
	m := n / 3
	if m < 1 {
		m = 1
	}
	return m
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
