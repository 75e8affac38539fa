package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// FieldReference lists the field names the editing tools accept.
const FieldReference = `# Folio Field Reference

Edits are local until ` + "`save_section`" + ` is called for the section.

## personal (update_field)

name (required), jobTitle, profilePicture (URL), coverPhoto (URL), aboutMe,
email (address), phone, location

## social (update_field)

linkedin, instagram, facebook, twitter, github. Each is a URL or empty.

## experience (set_item_field)

company, position, startDate, endDate, isCurrent (true/false), description,
responsibilities (one per line)

## certifications (set_item_field)

name, issuingOrg, issueDate, credentialId

## skills (set_item_field)

name, level (integer; values outside 0-100 are clamped)

## documents (upload_document)

resume-pdf and cover-letter-pdf take application/pdf.
resume-docx and cover-letter-docx take
application/vnd.openxmlformats-officedocument.wordprocessingml.document.

## Item ids

Items added with ` + "`add_item`" + ` carry a temporary id starting with "tmp-" until the
section is saved; the server then assigns the permanent id.
`

func (s *Server) getFieldReference(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FieldReference), nil
}

func (s *Server) readFieldReference(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     FieldReference,
		},
	}, nil
}
