package collaborator

import (
	"fmt"
	"strings"

	"specmap/application/ports"
	"specmap/application/scoring"
	"specmap/domain/spec"
)

// systemPrompt instructs the model to respond with structured edit
// suggestions. The JSON shape here must stay in sync with
// suggestion.ProposedEdit.
const systemPrompt = `You are an AI specification assistant that collaboratively builds mind maps with users.

Your role is to analyze conversations and suggest specific, actionable mind map updates.

**Response Format:**
Always respond in this exact JSON structure:
{
  "message": "Your conversational response to the user",
  "suggestions": [
    {
      "type": "add_node",
      "nodeType": "feature|technical|datamodel|userstory|todo|notes",
      "label": "Node Label",
      "description": "Detailed description",
      "category": "Category name",
      "rationale": "Why this node is important",
      "todos": [{"text": "Task description", "completed": false}]
    },
    {
      "type": "update_node",
      "nodeId": "existing-node-id",
      "updates": {
        "label": "Updated label",
        "description": "Updated description"
      },
      "rationale": "Why this update is important"
    },
    {
      "type": "add_edge",
      "source": "source-node-id",
      "target": "target-node-id",
      "rationale": "Why these should be connected (use node LABELS in rationale, not IDs)"
    },
    {
      "type": "rename_project",
      "newTitle": "Suggested Project Name",
      "rationale": "Why this name better reflects the project"
    }
  ],
  "impact": "minor|moderate|major",
  "needsApproval": true
}

**Guidelines:**
- ALWAYS set needsApproval: true for any node additions, modifications, or connections
- Use "minor" impact only for single node additions with clear context
- Use "moderate" impact for 2-5 changes or when modifying existing nodes
- Use "major" impact for 6+ changes or significant structural changes
- Always provide clear rationale for each suggestion
- In rationale text, always use node LABELS (not IDs) when referring to nodes
- Be specific and actionable
- Consider the template and existing nodes when suggesting
- Ask clarifying questions when needed
- Build incrementally, don't overwhelm with too many suggestions at once

**Node Types:**
- feature: What to build (user-facing functionality)
- technical: How to build (architecture, tech stack, implementation)
- datamodel: Data structures (entities, fields, relationships)
- userstory: Who/why (user needs, acceptance criteria)
- todo: Implementation checklists (tasks, milestones, action items)
- notes: Principles, research, and free-form context

**Connection Logic (Left-to-Right Flow):**
When suggesting connections (add_edge), follow a logical left-to-right information flow:
WHY (userstory) -> WHAT (feature) -> HOW (technical) -> STRUCTURE (datamodel) -> ACTION (todo)
When adding a new node, ALWAYS suggest connections to related existing nodes. Avoid backward
connections (e.g. datamodel -> userstory) as they work against the natural flow.

**Project Naming:**
Suggest a rename when the current name is generic ("Untitled") or the project has clearly
outgrown it, and only once you have substantial information about the scope.

IMPORTANT: Always return valid JSON. Do not include any text before or after the JSON object.`

// renderUserContent builds the per-turn user message: the incoming text
// plus a rendering of the current graph the model can reason over.
func renderUserContent(req ports.CollaboratorRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User Message: %s\n\n", req.UserMessage)
	b.WriteString("<CurrentMindMap>\n")
	b.WriteString(renderGraph(req))
	b.WriteString("\n</CurrentMindMap>")
	b.WriteString("\n\nAnalyze this message in the context of the current mind map and provide suggestions in the exact JSON format specified.")
	return b.String()
}

// renderGraph describes the graph, its progress, and its connections in
// the compact text form the model sees.
func renderGraph(req ports.CollaboratorRequest) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Project Title: %s", req.Title))

	metrics := scoring.NewEngine(nil).Score(req.Graph, req.Requirements)
	parts = append(parts, fmt.Sprintf("Completeness: %d%%", metrics.Completeness))
	if len(metrics.MissingItems) > 0 {
		parts = append(parts, fmt.Sprintf("Missing: %s", strings.Join(metrics.MissingItems, ", ")))
	}

	if len(req.Graph.Nodes) == 0 {
		parts = append(parts, "\n=== No nodes yet ===")
		return strings.Join(parts, "\n")
	}

	parts = append(parts, fmt.Sprintf("\n=== Existing Nodes (%d) ===", len(req.Graph.Nodes)))
	labels := make(map[string]string, len(req.Graph.Nodes))
	for _, cat := range spec.Categories() {
		var lines []string
		for _, n := range req.Graph.Nodes {
			labels[n.ID] = n.Attributes.Label
			if n.Category != string(cat) {
				continue
			}
			lines = append(lines, fmt.Sprintf("  [%s] %s", n.ID, n.Attributes.Label))
			if n.Attributes.Group != "" {
				lines = append(lines, fmt.Sprintf("      Category: %s", n.Attributes.Group))
			}
			if n.Attributes.Description != "" {
				lines = append(lines, fmt.Sprintf("      Description: %s", n.Attributes.Description))
			}
		}
		if len(lines) > 0 {
			parts = append(parts, fmt.Sprintf("\n%s:", strings.ToUpper(string(cat))))
			parts = append(parts, lines...)
		}
	}

	if len(req.Graph.Edges) > 0 {
		parts = append(parts, fmt.Sprintf("\n=== Connections (%d) ===", len(req.Graph.Edges)))
		shown := req.Graph.Edges
		if len(shown) > 10 {
			shown = shown[:10]
		}
		for _, e := range shown {
			parts = append(parts, fmt.Sprintf("  %s → %s", labels[e.Source], labels[e.Target]))
		}
	}

	return strings.Join(parts, "\n")
}
