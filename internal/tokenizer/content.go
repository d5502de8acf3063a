package tokenizer

import (
	"encoding/json"
	"strings"
)

// Image token constants (OpenAI rules)
const (
	imageBaseTokens     = 85  // Base cost for any image
	imageTileTokens     = 170 // Cost per 512x512 tile
	imageLowDetailTiles = 1
	imageHighDetailMax  = 4 // Estimate without image dimensions
)

// contentPart is one element of multimodal message content.
type contentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	ImageURL *struct {
		URL    string `json:"url"`
		Detail string `json:"detail"`
	} `json:"image_url"`
}

// countContent counts tokens for message content, either a string or an array of parts.
// Content of any other shape counts as zero.
func (t *TiktokenTokenizer) countContent(raw json.RawMessage, model string) (int, error) {
	if len(raw) == 0 {
		return 0, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return t.CountTokens(text, model)
	}

	var parts []contentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return 0, nil
	}

	total := 0
	for _, part := range parts {
		switch part.Type {
		case "text":
			tokens, err := t.CountTokens(part.Text, model)
			if err != nil {
				return 0, err
			}
			total += tokens
		case "image_url":
			if part.ImageURL != nil {
				total += imageTokens(part.ImageURL.Detail)
			}
		}
	}
	return total, nil
}

// imageTokens estimates the cost of one image by its detail level.
func imageTokens(detail string) int {
	if strings.EqualFold(detail, "low") {
		return imageBaseTokens + imageLowDetailTiles*imageTileTokens
	}
	// "high", "auto" or unspecified
	return imageBaseTokens + imageHighDetailMax*imageTileTokens
}
