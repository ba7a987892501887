package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitItems(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "wrapped bullets are joined",
			text: "Features\n• Hermetically sealed\n  glass capsule\n• Rhodium contacts",
			want: []string{"• Hermetically sealed glass capsule", "• Rhodium contacts"},
		},
		{
			name: "dash bullets",
			text: "- Low cost\n- Long life",
			want: []string{"- Low cost", "- Long life"},
		},
		{
			name: "leading text without bullet",
			text: "Suitable for\nsensing\n• High power",
			want: []string{"Suitable for sensing", "• High power"},
		},
		{
			name: "header case-insensitive and blanks dropped",
			text: "\nADVANTAGES\n\n• Long life\n\n",
			want: []string{"• Long life"},
		},
		{
			name: "empty",
			text: "",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitItems(tt.text))
		})
	}
}

func TestMerge(t *testing.T) {
	order := []string{"520R", "540R", "600F"}
	result := Merge(order, map[string]Blocks{
		"520R": {Features: "• Sealed\n• Rhodium contacts", Advantages: "• Long life"},
		"540R": {Features: "• Rhodium contacts\n• High voltage", Advantages: ""},
	})

	require.Len(t, result.Features, 3)
	assert.Equal(t, "• Sealed", result.Features[0].Text)
	assert.Equal(t, map[string]bool{"520R": true, "540R": false, "600F": false}, result.Features[0].Models)
	assert.Equal(t, "• Rhodium contacts", result.Features[1].Text)
	assert.Equal(t, map[string]bool{"520R": true, "540R": true, "600F": false}, result.Features[1].Models)
	assert.Equal(t, "• High voltage", result.Features[2].Text)
	assert.Equal(t, map[string]bool{"520R": false, "540R": true, "600F": false}, result.Features[2].Models)

	require.Len(t, result.Advantages, 1)
	assert.False(t, result.IsEmpty())
}

func TestMerge_NoDuplicateEntries(t *testing.T) {
	order := []string{"a", "b", "c"}
	same := Blocks{Features: "• One\n• Two\n• One"}
	result := Merge(order, map[string]Blocks{"a": same, "b": same, "c": same})

	texts := make(map[string]bool)
	for _, f := range result.Features {
		texts[f.Text] = true
		for _, m := range order {
			assert.True(t, f.Models[m])
		}
	}
	assert.Len(t, result.Features, len(texts))
	assert.Len(t, result.Features, 2)
}

func TestMerge_ExactTextOnly(t *testing.T) {
	result := Merge([]string{"a", "b"}, map[string]Blocks{
		"a": {Features: "• Long life"},
		"b": {Features: "• Long Life"},
	})
	assert.Len(t, result.Features, 2)
}

func TestMerge_Empty(t *testing.T) {
	assert.True(t, Merge([]string{"a", "b"}, nil).IsEmpty())
}
