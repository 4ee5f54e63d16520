package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		text string
		want parsedRequest
	}{
		{
			text: "add requests for http client",
			want: parsedRequest{op: "add", pkg: "requests"},
		},
		{
			text: "add pytest to dev dependencies",
			want: parsedRequest{op: "add", pkg: "pytest", group: "dev"},
		},
		{
			text: "I need pandas version 2.0 or higher",
			want: parsedRequest{op: "add", pkg: "pandas", version: ">=2.0"},
		},
		{
			text: "remove flask from the project",
			want: parsedRequest{op: "remove", pkg: "flask"},
		},
		{
			text: "upgrade requests to >=2.31.0",
			want: parsedRequest{op: "update", pkg: "requests", version: ">=2.31.0"},
		},
		{
			text: "add sphinx to the docs group",
			want: parsedRequest{op: "add", pkg: "sphinx", group: "docs"},
		},
		{
			text: "add numpy to main dependencies",
			want: parsedRequest{op: "add", pkg: "numpy"},
		},
		{
			text: "???",
			want: parsedRequest{op: "add"},
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseRequest(tt.text), "text %q", tt.text)
	}
}

func TestLocal_CompleteEmitsActionContract(t *testing.T) {
	local := NewLocal()

	resp, err := local.Complete(context.Background(), Request{
		Role:   "config-specialist",
		Prompt: "Request: add pytest to dev dependencies\n\nCurrent dependencies: none",
	})
	require.NoError(t, err)

	assert.Contains(t, resp.Content, "CONFIDENCE: 0.85")
	assert.Contains(t, resp.Content, "ACTIONS:")
	assert.Contains(t, resp.Content, `"op": "add"`)
	assert.Contains(t, resp.Content, `"package": "pytest"`)
	assert.Contains(t, resp.Content, `"group": "dev"`)
}

func TestLocal_WorkflowSpecialistRoutesToolingToDev(t *testing.T) {
	local := NewLocal()

	resp, err := local.Complete(context.Background(), Request{
		Role:   "workflow-specialist",
		Prompt: "Request: add ruff for linting",
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Content, `"group": "dev"`)

	// The config specialist leaves the same request on the main list.
	resp, err = local.Complete(context.Background(), Request{
		Role:   "config-specialist",
		Prompt: "Request: add ruff for linting",
	})
	require.NoError(t, err)
	assert.NotContains(t, resp.Content, `"group"`)
}

func TestLocal_CompleteIsDeterministic(t *testing.T) {
	local := NewLocal()
	req := Request{Role: "config-specialist", Prompt: "Request: add requests for http client"}

	first, err := local.Complete(context.Background(), req)
	require.NoError(t, err)
	second, err := local.Complete(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Content, second.Content)
}

func TestLocal_UnparsableRequestHasNoActions(t *testing.T) {
	local := NewLocal()

	resp, err := local.Complete(context.Background(), Request{
		Role:   "config-specialist",
		Prompt: "Request: ???",
	})
	require.NoError(t, err)
	assert.NotContains(t, resp.Content, "ACTIONS:")
	assert.Contains(t, resp.Content, "CONFIDENCE: 0.20")
}
