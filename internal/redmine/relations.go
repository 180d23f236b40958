package redmine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"redmine-mcp/internal/client"
	"redmine-mcp/internal/types"
)

// relationLabels maps relation types to how they read from the source issue.
var relationLabels = map[string]string{
	"relates":     "relates to",
	"duplicates":  "duplicates",
	"duplicated":  "duplicated by",
	"blocks":      "blocks",
	"blocked":     "blocked by",
	"precedes":    "precedes",
	"follows":     "follows",
	"copied_to":   "copied to",
	"copied_from": "copied from",
}

// ListRelations lists the relations of an issue.
func ListRelations(ctx context.Context, c *client.Client, id int) (string, error) {
	var resp types.RelationsResponse
	if err := c.GetJSON(ctx, fmt.Sprintf("/issues/%d/relations.json", id), &resp); err != nil {
		if client.IsNotFound(err) {
			return "", fmt.Errorf("issue #%d not found or no permission", id)
		}
		return "", err
	}

	if len(resp.Relations) == 0 {
		return fmt.Sprintf("No relations for issue #%d.\n", id), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Relations of #%d (%d)\n\n", id, len(resp.Relations)))
	sb.WriteString("| ID | Issue | Type | Related To | Delay |\n")
	sb.WriteString("|----|-------|------|------------|-------|\n")
	for _, rel := range resp.Relations {
		delay := ""
		if rel.Delay != nil && *rel.Delay > 0 {
			delay = fmt.Sprintf("%d days", *rel.Delay)
		}
		sb.WriteString(fmt.Sprintf("| %d | #%d | %s | #%d | %s |\n",
			rel.ID, rel.IssueID, relationLabel(rel.RelationType), rel.IssueToID, delay))
	}
	return sb.String(), nil
}

func relationLabel(relationType string) string {
	if label, ok := relationLabels[relationType]; ok {
		return label
	}
	return relationType
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CreateRelationParams describe a new relation from one issue to another.
type CreateRelationParams struct {
	IssueToID    int    `json:"issue_to_id"`
	RelationType string `json:"relation_type"`
	Delay        *int   `json:"delay,omitempty"`
}

// CreateRelation relates issue id to p.IssueToID.
func CreateRelation(ctx context.Context, c *client.Client, id int, p CreateRelationParams) (string, error) {
	if p.IssueToID <= 0 {
		return "", fmt.Errorf("issue_to_id is required")
	}
	if p.IssueToID == id {
		return "", fmt.Errorf("an issue cannot be related to itself")
	}
	if _, ok := relationLabels[p.RelationType]; !ok {
		return "", fmt.Errorf("invalid relation_type %q. Valid: %s", p.RelationType, strings.Join(sortedKeys(relationLabels), ", "))
	}
	if p.Delay != nil && p.RelationType != "precedes" && p.RelationType != "follows" {
		return "", fmt.Errorf("delay is only allowed for precedes and follows")
	}

	body, err := json.Marshal(map[string]any{"relation": p})
	if err != nil {
		return "", fmt.Errorf("failed to marshal relation")
	}

	data, err := c.Post(ctx, fmt.Sprintf("/issues/%d/relations.json", id), body)
	if err != nil {
		return "", err
	}

	var resp types.RelationResponse
	if err := json.Unmarshal(data, &resp); err != nil || resp.Relation.ID == 0 {
		return fmt.Sprintf("Relation created: #%d %s #%d", id, relationLabel(p.RelationType), p.IssueToID), nil
	}
	return fmt.Sprintf("Relation %d created: #%d %s #%d", resp.Relation.ID, id, relationLabel(p.RelationType), p.IssueToID), nil
}

// DeleteRelation removes a relation by its id.
func DeleteRelation(ctx context.Context, c *client.Client, relationID int) (string, error) {
	if relationID <= 0 {
		return "", fmt.Errorf("relation_id is required")
	}
	if err := c.Delete(ctx, fmt.Sprintf("/relations/%d.json", relationID)); err != nil {
		if client.IsNotFound(err) {
			return "", fmt.Errorf("relation %d not found or no permission", relationID)
		}
		return "", err
	}
	return fmt.Sprintf("Relation %d deleted", relationID), nil
}
