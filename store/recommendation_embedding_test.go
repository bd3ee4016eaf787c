package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendationVectorSearchOptions_Validate(t *testing.T) {
	contentTypePlace := ContentTypePlace
	contentTypeBad := ContentType("shoutout")

	tests := []struct {
		name    string
		opts    *RecommendationVectorSearchOptions
		wantErr bool
		errMsg  string
	}{
		{"valid defaults", &RecommendationVectorSearchOptions{Vector: []float32{0.1}, Model: "m"}, false, ""},
		{"empty Vector", &RecommendationVectorSearchOptions{Vector: []float32{}, Model: "m"}, true, "vector cannot be empty"},
		{"nil Vector", &RecommendationVectorSearchOptions{Vector: nil, Model: "m"}, true, "vector cannot be empty"},
		{"missing Model", &RecommendationVectorSearchOptions{Vector: []float32{0.1}}, true, "embedding model cannot be empty"},
		{"Limit negative", &RecommendationVectorSearchOptions{Vector: []float32{0.1}, Model: "m", Limit: -1}, true, "limit cannot be negative"},
		{"Limit zero sets default", &RecommendationVectorSearchOptions{Vector: []float32{0.1}, Model: "m", Limit: 0}, false, ""},
		{"Limit > 1000", &RecommendationVectorSearchOptions{Vector: []float32{0.1}, Model: "m", Limit: 1001}, true, "limit too large"},
		{"Limit == 1000", &RecommendationVectorSearchOptions{Vector: []float32{0.1}, Model: "m", Limit: 1000}, false, ""},
		{"valid content type", &RecommendationVectorSearchOptions{Vector: []float32{0.1}, Model: "m", ContentType: &contentTypePlace}, false, ""},
		{"invalid content type", &RecommendationVectorSearchOptions{Vector: []float32{0.1}, Model: "m", ContentType: &contentTypeBad}, true, "invalid content type"},
		{"valid visibilities", &RecommendationVectorSearchOptions{Vector: []float32{0.1}, Model: "m", Visibilities: []Visibility{VisibilityFriends, VisibilityPublic}}, false, ""},
		{"invalid visibility", &RecommendationVectorSearchOptions{Vector: []float32{0.1}, Model: "m", Visibilities: []Visibility{"everyone"}}, true, "invalid visibility"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, strings.Contains(err.Error(), tt.errMsg),
					"expected error to contain %q, got %q", tt.errMsg, err.Error())
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRecommendationVectorSearchOptions_Validate_SetsDefaultLimit(t *testing.T) {
	opts := &RecommendationVectorSearchOptions{Vector: []float32{0.1}, Model: "m", Limit: 0}

	err := opts.Validate()

	require.NoError(t, err)
	assert.Equal(t, 10, opts.Limit, "Limit should be set to default value 10")
}

func TestRecommendationVectorSearchOptions_Validate_PreservesValidLimit(t *testing.T) {
	opts := &RecommendationVectorSearchOptions{Vector: []float32{0.1}, Model: "m", Limit: 50}

	err := opts.Validate()

	require.NoError(t, err)
	assert.Equal(t, 50, opts.Limit, "Limit should remain unchanged when already set")
}
