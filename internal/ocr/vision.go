package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/dagenslunch/internal/llm"
	"github.com/hyperifyio/dagenslunch/internal/region"
)

const visionPrompt = `You read restaurant lunch menu images. Return every word you can read ` +
	`with its pixel bounding box as JSON: {"detections":[{"text":"Måndag","x":0,"y":0,"width":0,"height":0}]}. ` +
	`Coordinates are integer pixels from the top-left corner of the image. Return only JSON.`

// Vision recognizes words with an OpenAI-compatible vision chat model.
type Vision struct {
	Client llm.Client
	Model  string
}

func (v *Vision) Name() string { return "vision:" + v.Model }

type visionReply struct {
	Detections []region.Detection `json:"detections"`
}

func (v *Vision) Detect(ctx context.Context, img []byte) ([]region.Detection, error) {
	if v.Client == nil || v.Model == "" {
		return nil, ErrNoEngine
	}
	dataURL := "data:" + http.DetectContentType(img) + ";base64," + base64.StdEncoding.EncodeToString(img)
	req := openai.ChatCompletionRequest{
		Model:       v.Model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: visionPrompt},
			{Role: openai.ChatMessageRoleUser, MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: "List the words in this menu."},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL,
					Detail: openai.ImageURLDetailHigh,
				}},
			}},
		},
	}
	resp, err := v.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("vision completion: no choices")
	}
	return parseVisionReply(resp.Choices[0].Message.Content)
}

// parseVisionReply accepts the JSON object, optionally wrapped in a Markdown
// code fence, and drops detections without text.
func parseVisionReply(content string) ([]region.Detection, error) {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	var reply visionReply
	if err := json.Unmarshal([]byte(s), &reply); err != nil {
		return nil, fmt.Errorf("decode vision reply: %w", err)
	}
	out := reply.Detections[:0]
	for _, d := range reply.Detections {
		if d.Text = strings.TrimSpace(d.Text); d.Text != "" {
			out = append(out, d)
		}
	}
	return out, nil
}
