package llm

import (
	"context"
	"errors"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const vertexName = "vertex-gemini"

type VertexGemini struct {
	client    *vertexgenai.Client
	modelName string
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string, opts ...option.ClientOption) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &VertexGemini{client: c, modelName: modelName}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

// GenerateStructured asks Gemini for a JSON object. The model handle is built
// per call since its config fields are not safe for concurrent mutation.
func (v *VertexGemini) GenerateStructured(ctx context.Context, prompt, text string) (map[string]any, error) {
	m := v.client.GenerativeModel(v.modelName)
	m.ResponseMIMEType = "application/json"
	m.SetTemperature(0.1)
	m.SystemInstruction = &vertexgenai.Content{Parts: []vertexgenai.Part{vertexgenai.Text(prompt)}}

	resp, err := m.GenerateContent(ctx, vertexgenai.Text(text))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classifyVertex(err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		break
	}

	out, err := DecodeObject(sb.String())
	if err != nil {
		return nil, malformed(vertexName, err)
	}
	return out, nil
}

func classifyVertex(err error) error {
	var blocked *vertexgenai.BlockedError
	if errors.As(err, &blocked) {
		return permanent(vertexName, 0, err)
	}
	st, ok := status.FromError(err)
	if !ok {
		// no status usually means the transport never got an answer
		return transient(vertexName, 0, err)
	}
	switch st.Code() {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded,
		codes.Internal, codes.Aborted, codes.Unknown:
		return transient(vertexName, 0, err)
	default:
		return permanent(vertexName, 0, err)
	}
}
