// Package skill provides workspace skill file generation for Claude agents.
package skill

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/passdrive/passdrive-cli/internal/api"
)

const skillTemplate = `---
name: passdrive-workspace
description: Workspace-specific context for the {{.Username}} PassDrive account
---

# PassDrive Workspace ({{.Username}})

Auto-generated skill with workspace-specific context.

## Groups

| ID | Name | Members |
|----|------|---------|
{{- range .Groups}}
| {{.ID}} | {{.Name}} | {{len .Members}} |
{{- end}}

## Drive Files

| ID | Name | Type |
|----|------|------|
{{- range .Files}}
| {{.ID}} | {{.FileName}} | {{.FileType}} |
{{- end}}

## Quick Commands

` + "```" + `bash
# List your groups
pd groups list

# Show recent messages in a group (accepts ID or fuzzy name)
pd groups messages {{if .FirstGroupID}}{{.FirstGroupID}}{{else}}<group-id-or-name>{{end}}

# Follow a group live
pd follow --group {{if .FirstGroupID}}{{.FirstGroupID}}{{else}}<group-id>{{end}}

# Send a message
pd send --group <group-id> "message text"

# Share a file with selected members
pd share --group <group-id> --file <file-id> --visibility selected --to user1,user2

# Create an ephemeral file-sharing session
pd sessions create
` + "```" + `
`

// WorkspaceData holds the data needed to generate a workspace skill.
type WorkspaceData struct {
	Username     string
	Groups       []api.Group
	Files        []api.DriveFile
	FirstGroupID int64
}

// GenerateWorkspaceSkill creates a workspace-specific skill file.
// It fetches workspace data from the API and writes a skill file to
// ~/.claude/skills/passdrive-workspace/SKILL.md
func GenerateWorkspaceSkill(ctx context.Context, client *api.Client, username string) error {
	data := WorkspaceData{Username: username}

	if groups, err := client.ListGroups(ctx); err == nil {
		data.Groups = groups
		if len(data.Groups) > 0 {
			data.FirstGroupID = data.Groups[0].ID
		}
	}

	if files, err := client.ListFiles(ctx); err == nil {
		data.Files = files
	}

	// Generate skill file
	tmpl, err := template.New("skill").Parse(skillTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	// Create skill directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	skillDir := filepath.Join(homeDir, ".claude", "skills", "passdrive-workspace")
	if err := os.MkdirAll(skillDir, 0o755); err != nil {
		return fmt.Errorf("failed to create skill directory: %w", err)
	}

	// Write skill file
	skillPath := filepath.Join(skillDir, "SKILL.md")
	f, err := os.Create(skillPath)
	if err != nil {
		return fmt.Errorf("failed to create skill file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to write skill: %w", err)
	}

	return nil
}

// SkillPath returns the path where the workspace skill is stored.
func SkillPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".claude", "skills", "passdrive-workspace", "SKILL.md"), nil
}
