package redesign

import (
	"fmt"
	"strings"
)

// NoFeaturesClause - features가 비어있을 때의 문구
const NoFeaturesClause = "no specific features"

type promptTemplate func(style, roomType, features string) string

// 카테고리별 프롬프트 템플릿
var promptTemplates = map[Category]promptTemplate{
	CategoryInterior: func(style, roomType, features string) string {
		return fmt.Sprintf("Create a %s interior design for a %s. Add suitable furniture, lighting, and decor, with features like %s.",
			style, roomType, features)
	},
	CategoryExterior: func(style, roomType, features string) string {
		return fmt.Sprintf("Design a %s exterior appearance for the %s, enhancing landscaping, pathways, garden, and lighting with %s.",
			style, roomType, features)
	},
	CategoryLandscape: func(style, roomType, features string) string {
		return fmt.Sprintf("Generate a %s landscape layout around the %s, including %s.",
			style, roomType, features)
	},
	CategoryStaging: func(style, roomType, features string) string {
		return fmt.Sprintf("Virtually stage the %s in a %s style, incorporating elements such as %s.",
			roomType, style, features)
	},
	CategoryRenovation: func(style, roomType, features string) string {
		return fmt.Sprintf("Visualize a %s renovation for the %s using features like %s.",
			style, roomType, features)
	},
}

// BuildPrompt maps (category, style, roomType, features) to the instruction
// string sent to the generation service. Pure and deterministic: identical
// inputs always produce the identical string. Unknown categories use the
// interior template; absent style/roomType fall back to their defaults.
func BuildPrompt(category Category, style, roomType string, features []string) string {
	template, ok := promptTemplates[category]
	if !ok {
		template = promptTemplates[DefaultCategory]
	}

	if style == "" {
		style = DefaultStyle
	}
	if roomType == "" {
		roomType = DefaultRoomType
	}

	return template(style, roomType, featuresText(features))
}

// featuresText - feature 목록 렌더링
func featuresText(features []string) string {
	if len(features) == 0 {
		return NoFeaturesClause
	}
	return strings.Join(features, ", ")
}
