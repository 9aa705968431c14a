// Package frontmatter provides lightweight YAML frontmatter parsing for markdown files.
// Archive files carry flat scalar metadata, so a full YAML decode is not needed
// for lookups like "which transcript produced this session".
package frontmatter

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// DocMetadata represents common fields found in archive frontmatter.
// Sessions, daily digests, and extracted skills share this shape; fields
// absent from a document are left zero.
type DocMetadata struct {
	Title          string `json:"title"`
	Name           string `json:"name"`
	Date           string `json:"date"`
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	Cwd            string `json:"cwd"`
	GitBranch      string `json:"git_branch"`
	Duration       string `json:"duration"`
	Description    string `json:"description"`
	Origin         string `json:"origin"`
	Confidence     string `json:"confidence"`
	ToolCalls      int    `json:"tool_calls"`
	TotalSessions  int    `json:"total_sessions"`
}

// Parse extracts metadata from YAML frontmatter in a markdown reader.
// It stops reading after the closing '---' separator.
func Parse(r io.Reader) (DocMetadata, error) {
	scanner := bufio.NewScanner(r)
	meta := DocMetadata{}

	inFrontmatter := false
	lineCount := 0

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if trimmed == "---" {
			if !inFrontmatter {
				inFrontmatter = true
				continue
			} else {
				break // End of frontmatter
			}
		}

		if !inFrontmatter {
			// Stop if we haven't found frontmatter in the first few lines
			lineCount++
			if lineCount > 5 {
				break
			}
			continue
		}

		// Simple key: value parsing
		parts := strings.SplitN(trimmed, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		switch key {
		case "title":
			meta.Title = value
		case "name":
			meta.Name = value
		case "date":
			meta.Date = value
		case "session_id":
			meta.SessionID = value
		case "transcript_path":
			meta.TranscriptPath = value
		case "cwd":
			meta.Cwd = value
		case "git_branch":
			meta.GitBranch = value
		case "duration":
			meta.Duration = value
		case "description":
			meta.Description = value
		case "origin":
			meta.Origin = value
		case "confidence":
			meta.Confidence = value
		case "tool_calls":
			if n, err := strconv.Atoi(value); err == nil {
				meta.ToolCalls = n
			}
		case "total_sessions":
			if n, err := strconv.Atoi(value); err == nil {
				meta.TotalSessions = n
			}
		}
	}

	if meta.Title == "" {
		meta.Title = meta.Name
	}

	return meta, scanner.Err()
}

// ParseString extracts metadata from a string containing markdown with frontmatter.
func ParseString(content string) (DocMetadata, error) {
	return Parse(strings.NewReader(content))
}
