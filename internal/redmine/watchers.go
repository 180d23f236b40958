package redmine

import (
	"context"
	"encoding/json"
	"fmt"

	"redmine-mcp/internal/client"
)

// AddWatcher adds a user to the watchers of an issue.
func AddWatcher(ctx context.Context, c *client.Client, id, userID int) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("user_id is required")
	}
	body, err := json.Marshal(map[string]int{"user_id": userID})
	if err != nil {
		return "", fmt.Errorf("failed to marshal watcher")
	}
	if _, err := c.Post(ctx, fmt.Sprintf("/issues/%d/watchers.json", id), body); err != nil {
		if client.IsNotFound(err) {
			return "", fmt.Errorf("issue #%d not found or no permission", id)
		}
		return "", err
	}
	return fmt.Sprintf("User %d is now watching issue #%d", userID, id), nil
}

// RemoveWatcher removes a user from the watchers of an issue.
func RemoveWatcher(ctx context.Context, c *client.Client, id, userID int) (string, error) {
	if userID <= 0 {
		return "", fmt.Errorf("user_id is required")
	}
	if err := c.Delete(ctx, fmt.Sprintf("/issues/%d/watchers/%d.json", id, userID)); err != nil {
		if client.IsNotFound(err) {
			return "", fmt.Errorf("issue #%d or watcher %d not found", id, userID)
		}
		return "", err
	}
	return fmt.Sprintf("User %d no longer watches issue #%d", userID, id), nil
}
