package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"pdl-server/modules/common/apperr"
)

func TestBuildContent_EditModeIncludesImageAndMask(t *testing.T) {
	content := buildContent(ModeEdit, Params{
		Prompt: "redesign the kitchen",
		Image:  []byte("png-image"),
		Mask:   []byte("png-mask"),
	})

	require.Len(t, content.Parts, 3)
	assert.Equal(t, "redesign the kitchen", content.Parts[0].Text)
	assert.Equal(t, []byte("png-image"), content.Parts[1].InlineData.Data)
	assert.Equal(t, []byte("png-mask"), content.Parts[2].InlineData.Data)
}

func TestBuildContent_EditModeWithoutMask(t *testing.T) {
	content := buildContent(ModeEdit, Params{
		Prompt: "redesign the kitchen",
		Image:  []byte("png-image"),
	})

	require.Len(t, content.Parts, 2)
}

func TestBuildContent_GenerateModeIsPromptOnly(t *testing.T) {
	content := buildContent(ModeGenerate, Params{
		Prompt: "a modern living room",
		Image:  []byte("ignored"),
		Mask:   []byte("ignored"),
	})

	require.Len(t, content.Parts, 1)
	assert.Equal(t, "a modern living room", content.Parts[0].Text)
}

func TestFirstImage_InlineData(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{
						genai.NewPartFromText("here is your image"),
						{InlineData: &genai.Blob{Data: []byte("image-bytes"), MIMEType: "image/png"}},
						{InlineData: &genai.Blob{Data: []byte("second-image")}},
					},
				},
			},
		},
	}

	result, err := firstImage(resp)
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), result.Data, "only the first usable descriptor is used")
	assert.Equal(t, "image/png", result.MIMEType)
	assert.Empty(t, result.URL)
}

func TestFirstImage_FileURI(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{FileData: &genai.FileData{FileURI: "https://files.example.com/gen.png", MIMEType: "image/png"}},
					},
				},
			},
		},
	}

	result, err := firstImage(resp)
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/gen.png", result.URL)
	assert.Empty(t, result.Data)
}

func TestFirstImage_NoUsableImageIsFailure(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{"nil response", nil},
		{"no candidates", &genai.GenerateContentResponse{}},
		{"nil content", &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{}},
		}},
		{"text only", &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText("sorry")}}},
			},
		}},
		{"empty inline data", &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []*genai.Part{{InlineData: &genai.Blob{}}}}},
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := firstImage(tt.resp)
			require.Error(t, err)
			assert.Equal(t, apperr.GenerationService, apperr.KindOf(err))
		})
	}
}
