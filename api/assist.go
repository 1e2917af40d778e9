package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	openai "github.com/sashabaranov/go-openai"
)

// ChatCompleter is the slice of the OpenAI client the assist endpoints
// use; tests substitute a canned implementation.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type assistResponse struct {
	Result string `json:"result"`
}

type tagsResponse struct {
	Tags []string `json:"tags"`
}

// RegisterAssist wires up the text-assist endpoints backed by the chat
// completion API.
func RegisterAssist(e *echo.Echo, client ChatCompleter) {
	e.POST("/openapi/dejargon", completeText(client, "Rewrite the following task description in plain language, free of jargon. Reply with the rewritten text only."))
	e.POST("/openapi/title", completeText(client, "Suggest a short title for a task with the following description. Reply with the title only."))
	e.POST("/openapi/tags", generateTags(client))
}

func completeText(client ChatCompleter, instruction string) echo.HandlerFunc {
	return func(c echo.Context) error {
		description := c.QueryParam("description")
		if description == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "description is required"})
		}
		text, err := complete(c.Request().Context(), client, instruction, description)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusBadGateway, errorResponse{Detail: "completion failed"})
		}
		return c.JSON(http.StatusOK, assistResponse{Result: text})
	}
}

func generateTags(client ChatCompleter) echo.HandlerFunc {
	return func(c echo.Context) error {
		description := c.QueryParam("description")
		if description == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "description is required"})
		}
		text, err := complete(c.Request().Context(), client,
			"List up to five short tags for a task with the following description. Reply with the tags separated by commas, nothing else.", description)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusBadGateway, errorResponse{Detail: "completion failed"})
		}
		tags := []string{}
		for _, tag := range strings.Split(text, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
		return c.JSON(http.StatusOK, tagsResponse{Tags: tags})
	}
}

func complete(ctx context.Context, client ChatCompleter, instruction, description string) (string, error) {
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instruction},
			{Role: openai.ChatMessageRoleUser, Content: description},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
