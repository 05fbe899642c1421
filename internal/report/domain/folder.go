package domain

import "strings"

// FolderInfo is one known folder with the number of reports filed directly
// in it. Folders exist while they hold reports, have a descendant that does,
// or were created explicitly.
type FolderInfo struct {
	Path        string `json:"path"`
	ReportCount int    `json:"report_count"`
}

// FolderStats describes a folder and everything below it.
type FolderStats struct {
	Path                 string `json:"path"`
	DirectReports        int    `json:"direct_reports"`
	TotalReports         int    `json:"total_reports"`
	Subfolders           int    `json:"subfolders"`
	TotalDurationSeconds int64  `json:"total_duration_seconds"`
}

// FolderDeleteStrategy decides what happens to the reports of a deleted
// folder.
type FolderDeleteStrategy string

const (
	// FolderMoveToParent refiles the folder's reports and subfolders one
	// level up.
	FolderMoveToParent FolderDeleteStrategy = "move-to-parent"
	// FolderDeleteReports deletes every report in the folder's subtree.
	FolderDeleteReports FolderDeleteStrategy = "delete-reports"
)

// FolderDeleteResult counts the reports touched by a folder deletion.
type FolderDeleteResult struct {
	Moved   int `json:"moved"`
	Deleted int `json:"deleted"`
}

// ParentFolder returns the parent of a normalized folder path. The parent
// of a top-level folder is the root "".
func ParentFolder(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return ""
	}
	return path[:i]
}

// JoinFolder appends name to a normalized parent path.
func JoinFolder(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// InFolder reports whether path is folder or lies below it. Every path is
// in the root.
func InFolder(path, folder string) bool {
	if folder == "" {
		return true
	}
	return path == folder || strings.HasPrefix(path, folder+"/")
}

// Reprefix moves path from under oldPrefix to under newPrefix. Paths outside
// oldPrefix are returned unchanged.
func Reprefix(path, oldPrefix, newPrefix string) string {
	if !InFolder(path, oldPrefix) {
		return path
	}
	rest := strings.TrimPrefix(strings.TrimPrefix(path, oldPrefix), "/")
	if rest == "" {
		return newPrefix
	}
	return JoinFolder(newPrefix, rest)
}

// Ancestors returns every proper ancestor of a normalized path, nearest
// first, excluding the root.
func Ancestors(path string) []string {
	var out []string
	for p := ParentFolder(path); p != ""; p = ParentFolder(p) {
		out = append(out, p)
	}
	return out
}
