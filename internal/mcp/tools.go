package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var syncToolDef = mcp.NewTool("project_sync",
	mcp.WithDescription("Save context for a project. Fields present in the call overwrite the stored value; omitted fields are preserved. A call carrying a summary is also recorded in the project's history."),
	mcp.WithString("project",
		mcp.Required(),
		mcp.Description("Project name (whitespace-trimmed)"),
	),
	mcp.WithString("summary",
		mcp.Description("Free-form session summary"),
	),
	mcp.WithString("claude_md",
		mcp.Description("Project instruction document (markdown)"),
	),
	mcp.WithObject("files",
		mcp.Description("Snapshot of tracked files, keyed by path. Replaces the stored snapshot wholesale when present."),
	),
	mcp.WithObject("metadata",
		mcp.Description("Arbitrary structured metadata"),
	),
)

var getToolDef = mcp.NewTool("project_get",
	mcp.WithDescription("Retrieve a project's stored context. The file snapshot is omitted unless include_files is set; recent history is attached via include_history."),
	mcp.WithString("project",
		mcp.Required(),
		mcp.Description("Project name"),
	),
	mcp.WithBoolean("include_files",
		mcp.Description("Include the file snapshot in the response"),
	),
	mcp.WithNumber("include_history",
		mcp.Description("Include up to N recent history entries (max 100)"),
	),
)

var listToolDef = mcp.NewTool("project_list",
	mcp.WithDescription("List all known projects, most recently updated first."),
)

var deleteToolDef = mcp.NewTool("project_delete",
	mcp.WithDescription("Delete a project's record and its entire history. Deleting an unknown project succeeds."),
	mcp.WithString("project",
		mcp.Required(),
		mcp.Description("Project name"),
	),
)

var historyToolDef = mcp.NewTool("project_history",
	mcp.WithDescription("List a project's recorded write snapshots, newest first. An unknown project has an empty history."),
	mcp.WithString("project",
		mcp.Required(),
		mcp.Description("Project name"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum entries to return (default 20, max 100)"),
	),
)

var exportToolDef = mcp.NewTool("project_export",
	mcp.WithDescription("Export every project and its retained history to a file."),
	mcp.WithString("path",
		mcp.Description("Destination path ending in .jsonl or .html (default: ~/.stash/exports/projects-<timestamp>.jsonl)"),
	),
	mcp.WithString("format",
		mcp.Description("Export format: jsonl (default) or html"),
		mcp.Enum("jsonl", "html"),
	),
)
