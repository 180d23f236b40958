package redmine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"redmine-mcp/internal/client"
)

// maxAttachmentSize matches Redmine's default attachment_max_size (5MB).
const maxAttachmentSize = 5 * 1024 * 1024

var downloadClient = &http.Client{Timeout: 60 * time.Second}

// pendingUpload holds file data collected before validation and upload.
type pendingUpload struct {
	data     []byte
	filename string
	// source is the original path or URL for error messages.
	source string
}

// AttachFile reads a local file or downloads a URL and attaches it to an
// issue. The file is validated before anything is uploaded.
func AttachFile(ctx context.Context, c *client.Client, id int, source, filename, description string) (string, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", fmt.Errorf("source path or URL is required")
	}

	upload, err := collectUpload(ctx, source, filename)
	if err != nil {
		return "", err
	}
	if err := validateUpload(upload, maxAttachmentSize); err != nil {
		return "", err
	}

	token, err := c.Upload(ctx, upload.filename, upload.data)
	if err != nil {
		return "", fmt.Errorf("upload failed for %s: %w", upload.source, err)
	}

	att := map[string]any{
		"token":    token,
		"filename": upload.filename,
	}
	if ct := mime.TypeByExtension(filepath.Ext(upload.filename)); ct != "" {
		att["content_type"] = ct
	}
	if description != "" {
		att["description"] = description
	}
	body, err := json.Marshal(map[string]any{
		"issue": map[string]any{"uploads": []any{att}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal attachment")
	}

	if _, err := c.Put(ctx, fmt.Sprintf("/issues/%d.json", id), body); err != nil {
		return "", err
	}
	return fmt.Sprintf("Attached %s (%d bytes) to issue #%d", upload.filename, len(upload.data), id), nil
}

// collectUpload loads the file into memory. An explicit filename wins over
// the one derived from the source.
func collectUpload(ctx context.Context, source, filename string) (*pendingUpload, error) {
	var (
		data    []byte
		derived string
		err     error
	)

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, derived, err = downloadFile(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", source, err)
		}
	} else {
		info, statErr := os.Stat(source)
		if statErr != nil {
			return nil, fmt.Errorf("failed to read %s: %w", source, statErr)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("failed to read %s: is a directory", source)
		}
		if info.Size() > maxAttachmentSize {
			return nil, fmt.Errorf("%s: exceeds %dMB limit", source, maxAttachmentSize/(1024*1024))
		}
		data, err = os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", source, err)
		}
		derived = filepath.Base(source)
	}

	if strings.TrimSpace(filename) != "" {
		derived = filename
	}

	return &pendingUpload{
		data:     data,
		filename: sanitizeFilename(derived),
		source:   source,
	}, nil
}

func validateUpload(u *pendingUpload, maxSize int) error {
	switch {
	case len(u.data) == 0:
		return fmt.Errorf("validation failed: %s: empty file", u.source)
	case len(u.data) > maxSize:
		return fmt.Errorf("validation failed: %s: exceeds %dMB limit", u.source, maxSize/(1024*1024))
	case u.filename == "":
		return fmt.Errorf("validation failed: %s: invalid filename", u.source)
	}
	return nil
}

// downloadFile fetches a file from a URL and returns its contents
func downloadFile(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}

	resp, err := downloadClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	// Read one byte past the limit so oversize files fail validation.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file data: %w", err)
	}

	filename := path.Base(req.URL.Path)
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			filename = params["filename"]
		}
	}

	return data, filename, nil
}

// sanitizeFilename removes unsafe characters from a filename.
// Only alphanumerics, dash and underscore survive in the base name;
// runs of underscores collapse to one.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "attachment"
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	var result strings.Builder
	for _, r := range base {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			result.WriteRune(r)
		} else {
			result.WriteRune('_')
		}
	}

	sanitized := result.String()
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "attachment"
	}

	if ext != "" {
		var extResult strings.Builder
		extResult.WriteRune('.')
		for _, r := range strings.ToLower(ext[1:]) {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				extResult.WriteRune(r)
			}
		}
		ext = extResult.String()
		if ext == "." {
			ext = ""
		}
	}

	return sanitized + ext
}
