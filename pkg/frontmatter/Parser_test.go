package frontmatter_test

import (
	"testing"

	"github.com/crocodeal/crocodealphotographie/pkg/frontmatter"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		rawText string
		want    map[string]any
	}{
		{
			name:    "empty input returns nil",
			rawText: "",
			want:    nil,
		},
		{
			name:    "missing opening delimiter returns nil",
			rawText: "title: Portrait\n",
			want:    nil,
		},
		{
			name:    "missing closing delimiter returns nil",
			rawText: "---\ntitle: Portrait\n",
			want:    nil,
		},
		{
			name:    "empty block parses to an empty map",
			rawText: "---\n---\n",
			want:    map[string]any{},
		},
		{
			name:    "basic fields",
			rawText: "---\ntitle: Portrait en studio\ncategory: portrait\n---\nBody text is ignored.\n",
			want: map[string]any{
				"title":    "Portrait en studio",
				"category": "portrait",
			},
		},
		{
			name:    "surrounding quotes are stripped",
			rawText: "---\ntitle: \"Mariage: Sophie & Marc\"\nalbum: 'plage'\n---\n",
			want: map[string]any{
				"title": "Mariage: Sophie & Marc",
				"album": "plage",
			},
		},
		{
			name:    "quoted boolean tokens still become booleans",
			rawText: "---\nisCover: \"true\"\ndraft: 'False'\n---\n",
			want: map[string]any{
				"isCover": true,
				"draft":   false,
			},
		},
		{
			name:    "boolean tokens are case insensitive",
			rawText: "---\nisCover: True\ndraft: FALSE\n---\n",
			want: map[string]any{
				"isCover": true,
				"draft":   false,
			},
		},
		{
			name:    "numeric values stay strings",
			rawText: "---\nweight: 10\n---\n",
			want: map[string]any{
				"weight": "10",
			},
		},
		{
			name:    "comments blanks and colonless lines are skipped",
			rawText: "---\n# generated by the cms\n\nnot a field\ntitle: Voyage\n---\n",
			want: map[string]any{
				"title": "Voyage",
			},
		},
		{
			name:    "last occurrence of a repeated key wins",
			rawText: "---\ntitle: First\ntitle: Second\n---\n",
			want: map[string]any{
				"title": "Second",
			},
		},
		{
			name:    "windows line endings",
			rawText: "---\r\ntitle: Portrait\r\n---\r\n",
			want: map[string]any{
				"title": "Portrait",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := frontmatter.Parse(tt.rawText)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	fields := []frontmatter.Field{
		{Key: "title", Value: "Album 1"},
		{Key: "image", Value: "/static/img/portrait/studio/photo-1.jpg"},
		{Key: "category", Value: "portrait"},
		{Key: "album", Value: "studio"},
		{Key: "isCover", Value: true},
	}

	rawText := frontmatter.Serialize(fields)
	parsed := frontmatter.Parse(rawText)

	assert.Equal(t, map[string]any{
		"title":    "Album 1",
		"image":    "/static/img/portrait/studio/photo-1.jpg",
		"category": "portrait",
		"album":    "studio",
		"isCover":  true,
	}, parsed)
}

func TestIsCoverTrue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{name: "bool true", value: true, want: true},
		{name: "bool false", value: false, want: false},
		{name: "string true", value: "true", want: true},
		{name: "string True", value: "True", want: true},
		{name: "string TRUE", value: "TRUE", want: true},
		{name: "string one", value: "1", want: true},
		{name: "int one", value: 1, want: true},
		{name: "float one", value: float64(1), want: true},
		{name: "string false", value: "false", want: false},
		{name: "string zero", value: "0", want: false},
		{name: "int zero", value: 0, want: false},
		{name: "nil", value: nil, want: false},
		{name: "arbitrary string", value: "yes", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, frontmatter.IsCoverTrue(tt.value))
		})
	}
}
