package redmine

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"redmine-mcp/internal/types"
)

// ChecksumFields are the issue fields guarded by optimistic concurrency
// checks, named as they are sent in an update.
var ChecksumFields = []string{
	"subject",
	"description",
	"status_id",
	"assigned_to_id",
	"priority_id",
	"tracker_id",
	"done_ratio",
}

// ComputeFieldChecksum returns a 16-char hex SHA256 checksum of the canonical value.
// The first 8 bytes are enough to detect concurrent edits; this is not a
// defence against deliberate collisions.
func ComputeFieldChecksum(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:8])
}

// CanonicalFieldValue extracts the canonical string for checksum computation.
// Unknown fields and unset references canonicalize to "".
func CanonicalFieldValue(field string, issue *types.Issue) string {
	switch field {
	case "subject":
		return issue.Subject
	case "description":
		return strings.ReplaceAll(issue.Description, "\r\n", "\n")
	case "status_id":
		return refID(&issue.Status)
	case "assigned_to_id":
		return refID(issue.AssignedTo)
	case "priority_id":
		return refID(&issue.Priority)
	case "tracker_id":
		return refID(issue.Tracker)
	case "done_ratio":
		if issue.DoneRatio != nil {
			return strconv.Itoa(*issue.DoneRatio)
		}
	}
	return ""
}

// ComputeFieldsChecksums computes checksums for the specified fields.
func ComputeFieldsChecksums(issue *types.Issue, fields []string) map[string]string {
	checksums := make(map[string]string, len(fields))
	for _, name := range fields {
		checksums[name] = ComputeFieldChecksum(CanonicalFieldValue(name, issue))
	}
	return checksums
}

func refID(r *types.Ref) string {
	if r == nil || r.ID == 0 {
		return ""
	}
	return strconv.Itoa(r.ID)
}
