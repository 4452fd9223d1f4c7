package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func testSchema() FeatureSchema {
	return FeatureSchema{
		{Name: "pm2_5"},
		{Name: "pm10"},
		{Name: "no2"},
		{Name: "nh3", Default: ptr(1.5)},
	}
}

func TestFeatureSchema_Vector(t *testing.T) {
	vec, err := testSchema().Vector(map[string]float64{"no2": 12.3, "pm10": 50.1, "pm2_5": 35.2})
	require.NoError(t, err)
	assert.Equal(t, []float64{35.2, 50.1, 12.3, 1.5}, vec)

	vec, err = testSchema().Vector(map[string]float64{"no2": 1, "pm10": 2, "pm2_5": 3, "nh3": 4})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 2, 1, 4}, vec)
}

func TestFeatureSchema_Vector_Errors(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]float64
		wantErr error
		field   string
	}{
		{
			name:    "missing required",
			values:  map[string]float64{"pm2_5": 1, "pm10": 2},
			wantErr: ErrMissingFeature,
			field:   "no2",
		},
		{
			name:    "unknown feature reported first alphabetically",
			values:  map[string]float64{"pm2_5": 1, "pm10": 2, "no2": 3, "zz": 1, "co": 1},
			wantErr: ErrUnknownFeature,
			field:   "co",
		},
		{
			name:    "NaN",
			values:  map[string]float64{"pm2_5": math.NaN(), "pm10": 2, "no2": 3},
			wantErr: ErrNonNumericFeature,
			field:   "pm2_5",
		},
		{
			name:    "Inf",
			values:  map[string]float64{"pm2_5": 1, "pm10": math.Inf(1), "no2": 3},
			wantErr: ErrNonNumericFeature,
			field:   "pm10",
		},
		{
			name:    "empty",
			values:  map[string]float64{},
			wantErr: ErrMissingFeature,
			field:   "pm2_5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := testSchema().Vector(tt.values)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestFeatureSchema_Validate(t *testing.T) {
	assert.NoError(t, testSchema().Validate())

	bad := []FeatureSchema{
		{},
		{{Name: ""}},
		{{Name: "a"}, {Name: "a"}},
		{{Name: "a", Default: ptr(math.NaN())}},
	}
	for _, s := range bad {
		assert.ErrorIs(t, s.Validate(), ErrInvalidArtifact)
	}
}

func TestFeatureSchema_NamesIndexInputs(t *testing.T) {
	s := testSchema()
	assert.Equal(t, []string{"pm2_5", "pm10", "no2", "nh3"}, s.Names())
	assert.Equal(t, 2, s.Index("no2"))
	assert.Equal(t, -1, s.Index("co"))
	assert.Equal(t, map[string]float64{"pm2_5": 1, "pm10": 2, "no2": 3, "nh3": 4}, s.Inputs([]float64{1, 2, 3, 4}))
	assert.True(t, s[0].Required())
	assert.False(t, s[3].Required())
}

func TestParseFeatureValues(t *testing.T) {
	values, err := ParseFeatureValues(map[string]string{"pm2_5": "35.2", "no2": "-1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"pm2_5": 35.2, "no2": -1}, values)

	for _, raw := range []string{"", "abc", "NaN", "Inf", "1e999"} {
		_, err := ParseFeatureValues(map[string]string{"pm10": raw})
		assert.ErrorIs(t, err, ErrNonNumericFeature, raw)
	}
}
