package collaborator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specmap/application/ports"
	"specmap/application/suggestion"
	"specmap/domain/chat"
	"specmap/domain/spec"
	"specmap/pkg/errors"
)

func completionBody(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestRespond_ParsesStructuredReply(t *testing.T) {
	reply := `{
		"message": "Let's add authentication.",
		"suggestions": [
			{"type": "add_node", "nodeType": "feature", "label": "Auth", "description": "Login flows", "rationale": "core"}
		],
		"impact": "moderate",
		"needsApproval": true
	}`

	var captured wireRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		fmt.Fprint(w, completionBody(reply))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", WithModel("test-model"))
	resp, err := c.Respond(context.Background(), ports.CollaboratorRequest{
		Title:       "Shop",
		UserMessage: "add login",
		History: []chat.Message{
			chat.NewUserMessage("earlier question"),
			chat.NewAssistantMessage("earlier answer"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Let's add authentication.", resp.Message)
	require.Len(t, resp.Edits, 1)
	assert.Equal(t, suggestion.KindAddNode, resp.Edits[0].Kind)
	assert.Equal(t, "Auth", resp.Edits[0].Label)
	assert.Equal(t, suggestion.ImpactModerate, resp.Impact)
	assert.True(t, resp.NeedsApproval)

	// system prompt + 2 history turns + the current message
	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "assistant", captured.Messages[2].Role)
	assert.Equal(t, "test-model", captured.Model)
	assert.Contains(t, captured.Messages[3].Content, "add login")
	assert.Contains(t, captured.Messages[3].Content, "<CurrentMindMap>")
}

func TestRespond_UnstructuredReplyDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, completionBody("Just a plain answer with no JSON at all."))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	resp, err := c.Respond(context.Background(), ports.CollaboratorRequest{UserMessage: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "Just a plain answer with no JSON at all.", resp.Message)
	assert.Empty(t, resp.Edits)
	assert.Equal(t, suggestion.ImpactMinor, resp.Impact)
	assert.False(t, resp.NeedsApproval)
}

func TestRespond_FencedJSON(t *testing.T) {
	reply := "Here you go:\n```json\n{\"message\": \"fenced\", \"suggestions\": [], \"impact\": \"minor\", \"needsApproval\": false}\n```"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, completionBody(reply))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	resp, err := c.Respond(context.Background(), ports.CollaboratorRequest{UserMessage: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "fenced", resp.Message)
}

func TestRespond_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.Respond(context.Background(), ports.CollaboratorRequest{UserMessage: "hi"})
	require.Error(t, err)
	assert.True(t, errors.IsCollaborator(err))
}

func TestRespond_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, "")
	_, err := c.Respond(ctx, ports.CollaboratorRequest{UserMessage: "hi"})
	require.Error(t, err)
}

func TestRenderGraph_GroupsByCategory(t *testing.T) {
	req := ports.CollaboratorRequest{
		Title: "Shop",
		Graph: spec.Snapshot{
			Nodes: []spec.NodeView{
				{ID: "n1", Category: "feature", Attributes: spec.Attributes{Label: "Checkout", Description: "Pay for items in the cart"}},
				{ID: "n2", Category: "datamodel", Attributes: spec.Attributes{Label: "Order"}},
			},
			Edges: []spec.EdgeView{{ID: "e1", Source: "n1", Target: "n2"}},
		},
	}

	out := renderGraph(req)

	assert.Contains(t, out, "Project Title: Shop")
	assert.Contains(t, out, "FEATURE:")
	assert.Contains(t, out, "[n1] Checkout")
	assert.Contains(t, out, "DATAMODEL:")
	assert.Contains(t, out, "Checkout → Order")
}

func TestRenderGraph_Empty(t *testing.T) {
	out := renderGraph(ports.CollaboratorRequest{Title: "Fresh"})
	assert.Contains(t, out, "=== No nodes yet ===")
}
