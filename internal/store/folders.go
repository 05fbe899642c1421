package store

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"

	"nathanbeddoewebdev/perfsight/internal/report/domain"
)

// querier is the subset of *sql.DB and *sql.Tx used by folder lookups.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// filed is a report id with its folder.
type filed struct {
	id     int64
	folder string
}

// ListFolders returns every known folder in path order with the number of
// reports filed directly in it. The root is not listed.
func (s *SQLiteStore) ListFolders(ctx context.Context) ([]domain.FolderInfo, error) {
	counts, err := folderCounts(ctx, s.db)
	if err != nil {
		return nil, err
	}
	known, err := knownFolders(ctx, s.db, counts)
	if err != nil {
		return nil, err
	}

	out := make([]domain.FolderInfo, 0, len(known))
	for _, p := range known {
		out = append(out, domain.FolderInfo{Path: p, ReportCount: counts[p]})
	}
	return out, nil
}

// CreateFolder creates an empty folder named name below parent and returns
// its path. A folder that already exists is rejected.
func (s *SQLiteStore) CreateFolder(ctx context.Context, parent, name string) (string, error) {
	name, err := folderName(name)
	if err != nil {
		return "", err
	}
	path := domain.JoinFolder(NormalizeFolder(parent), name)

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		known, err := knownFolders(ctx, tx, nil)
		if err != nil {
			return err
		}
		if slices.Contains(known, path) {
			return fmt.Errorf("store: folder %q already exists: %w", path, domain.ErrInvalidInput)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO folders (path, created_at) VALUES (?, ?)`, path, s.timestamp()); err != nil {
			return fmt.Errorf("store: insert folder failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.log.Info("folder created", zap.String("folder", path))
	return path, nil
}

// GetFolderStats counts the reports and subfolders below path. The root ""
// describes the whole store.
func (s *SQLiteStore) GetFolderStats(ctx context.Context, path string) (*domain.FolderStats, error) {
	path = NormalizeFolder(path)
	known, err := knownFolders(ctx, s.db, nil)
	if err != nil {
		return nil, err
	}
	if path != "" && !slices.Contains(known, path) {
		return nil, fmt.Errorf("store: folder %q: %w", path, domain.ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT folder_path, duration_seconds FROM reports`)
	if err != nil {
		return nil, fmt.Errorf("store: query folder stats failed: %w", err)
	}
	defer rows.Close()

	stats := &domain.FolderStats{Path: path}
	for rows.Next() {
		var folder string
		var duration int64
		if err := rows.Scan(&folder, &duration); err != nil {
			return nil, fmt.Errorf("store: scan failed: %w", err)
		}
		if !domain.InFolder(folder, path) {
			continue
		}
		stats.TotalReports++
		stats.TotalDurationSeconds += duration
		if folder == path {
			stats.DirectReports++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan failed: %w", err)
	}

	for _, k := range known {
		if k != path && domain.InFolder(k, path) {
			stats.Subfolders++
		}
	}
	return stats, nil
}

// RenameFolder gives the folder at path a new last segment and refiles
// every report and subfolder below it. It returns the new path.
func (s *SQLiteStore) RenameFolder(ctx context.Context, path, newName string) (string, error) {
	path = NormalizeFolder(path)
	if path == "" {
		return "", fmt.Errorf("store: cannot rename the root folder: %w", domain.ErrInvalidInput)
	}
	name, err := folderName(newName)
	if err != nil {
		return "", err
	}
	target := domain.JoinFolder(domain.ParentFolder(path), name)

	var moved int
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		known, err := knownFolders(ctx, tx, nil)
		if err != nil {
			return err
		}
		if !slices.Contains(known, path) {
			return fmt.Errorf("store: folder %q: %w", path, domain.ErrNotFound)
		}
		if target == path {
			return nil
		}
		if slices.Contains(known, target) {
			return fmt.Errorf("store: folder %q already exists: %w", target, domain.ErrInvalidInput)
		}
		moved, err = refile(ctx, tx, path, target)
		return err
	})
	if err != nil {
		return "", err
	}

	s.log.Info("folder renamed", zap.String("from", path), zap.String("to", target), zap.Int("reports", moved))
	return target, nil
}

// DeleteFolder removes the folder at path. With FolderMoveToParent (the
// default) its reports and subfolders move one level up; with
// FolderDeleteReports every report below it is deleted. The parent of the
// deleted folder is kept.
func (s *SQLiteStore) DeleteFolder(ctx context.Context, path string, strategy domain.FolderDeleteStrategy) (domain.FolderDeleteResult, error) {
	var res domain.FolderDeleteResult
	path = NormalizeFolder(path)
	if path == "" {
		return res, fmt.Errorf("store: cannot delete the root folder: %w", domain.ErrInvalidInput)
	}
	switch strategy {
	case "":
		strategy = domain.FolderMoveToParent
	case domain.FolderMoveToParent, domain.FolderDeleteReports:
	default:
		return res, fmt.Errorf("store: unknown folder delete strategy %q: %w", strategy, domain.ErrInvalidInput)
	}
	parent := domain.ParentFolder(path)

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		known, err := knownFolders(ctx, tx, nil)
		if err != nil {
			return err
		}
		if !slices.Contains(known, path) {
			return fmt.Errorf("store: folder %q: %w", path, domain.ErrNotFound)
		}

		if strategy == domain.FolderMoveToParent {
			if res.Moved, err = refile(ctx, tx, path, parent); err != nil {
				return err
			}
		} else {
			reports, err := subtreeReports(ctx, tx, path)
			if err != nil {
				return err
			}
			for _, r := range reports {
				if _, err := tx.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, r.id); err != nil {
					return fmt.Errorf("store: delete report failed: %w", err)
				}
			}
			res.Deleted = len(reports)
			if _, err := dropFolders(ctx, tx, path); err != nil {
				return err
			}
		}

		if parent != "" {
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO folders (path, created_at) VALUES (?, ?)`, parent, s.timestamp()); err != nil {
				return fmt.Errorf("store: keep parent folder failed: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.FolderDeleteResult{}, err
	}

	s.log.Info("folder deleted",
		zap.String("folder", path),
		zap.String("strategy", string(strategy)),
		zap.Int("moved", res.Moved),
		zap.Int("deleted", res.Deleted),
	)
	return res, nil
}

// refile moves every report and explicit folder below from to the same
// place below to. It returns the number of reports moved.
func refile(ctx context.Context, tx *sql.Tx, from, to string) (int, error) {
	reports, err := subtreeReports(ctx, tx, from)
	if err != nil {
		return 0, err
	}
	for _, r := range reports {
		if _, err := tx.ExecContext(ctx, `UPDATE reports SET folder_path = ? WHERE id = ?`,
			domain.Reprefix(r.folder, from, to), r.id); err != nil {
			return 0, fmt.Errorf("store: refile report failed: %w", err)
		}
	}

	folders, err := dropFolders(ctx, tx, from)
	if err != nil {
		return 0, err
	}
	for path, createdAt := range folders {
		next := domain.Reprefix(path, from, to)
		if next == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO folders (path, created_at) VALUES (?, ?)`, next, createdAt); err != nil {
			return 0, fmt.Errorf("store: refile folder failed: %w", err)
		}
	}
	return len(reports), nil
}

// subtreeReports returns the reports filed in folder or below it.
func subtreeReports(ctx context.Context, tx *sql.Tx, folder string) ([]filed, error) {
	prefix := folder + "/"
	rows, err := tx.QueryContext(ctx, `
		SELECT id, folder_path FROM reports
		WHERE folder_path = ? OR substr(folder_path, 1, length(?)) = ?`, folder, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("store: query folder reports failed: %w", err)
	}
	defer rows.Close()

	var out []filed
	for rows.Next() {
		var f filed
		if err := rows.Scan(&f.id, &f.folder); err != nil {
			return nil, fmt.Errorf("store: scan failed: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// dropFolders deletes the explicit folders at or below folder and returns
// their creation times keyed by path.
func dropFolders(ctx context.Context, tx *sql.Tx, folder string) (map[string]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT path, created_at FROM folders`)
	if err != nil {
		return nil, fmt.Errorf("store: query folders failed: %w", err)
	}
	dropped := make(map[string]string)
	for rows.Next() {
		var path, createdAt string
		if err := rows.Scan(&path, &createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("store: scan failed: %w", err)
		}
		if domain.InFolder(path, folder) {
			dropped[path] = createdAt
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan failed: %w", err)
	}

	for path := range dropped {
		if _, err := tx.ExecContext(ctx, `DELETE FROM folders WHERE path = ?`, path); err != nil {
			return nil, fmt.Errorf("store: delete folder failed: %w", err)
		}
	}
	return dropped, nil
}

// folderCounts counts reports per non-root folder.
func folderCounts(ctx context.Context, q querier) (map[string]int, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT folder_path, COUNT(*) FROM reports
		WHERE folder_path != '' GROUP BY folder_path`)
	if err != nil {
		return nil, fmt.Errorf("store: query folder counts failed: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var path string
		var n int
		if err := rows.Scan(&path, &n); err != nil {
			return nil, fmt.Errorf("store: scan failed: %w", err)
		}
		counts[path] = n
	}
	return counts, rows.Err()
}

// knownFolders returns the sorted paths of every folder that holds reports,
// was created explicitly, or is an ancestor of either. A nil counts is
// queried.
func knownFolders(ctx context.Context, q querier, counts map[string]int) ([]string, error) {
	if counts == nil {
		var err error
		if counts, err = folderCounts(ctx, q); err != nil {
			return nil, err
		}
	}

	set := make(map[string]bool)
	add := func(path string) {
		set[path] = true
		for _, a := range domain.Ancestors(path) {
			set[a] = true
		}
	}
	for path := range counts {
		add(path)
	}

	rows, err := q.QueryContext(ctx, `SELECT path FROM folders`)
	if err != nil {
		return nil, fmt.Errorf("store: query folders failed: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("store: scan failed: %w", err)
		}
		add(path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan failed: %w", err)
	}
	return slices.Sorted(maps.Keys(set)), nil
}

// folderName validates a single folder segment.
func folderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "", name == ".", name == "..":
		return "", fmt.Errorf("store: invalid folder name %q: %w", name, domain.ErrInvalidInput)
	case strings.ContainsAny(name, `/\`):
		return "", fmt.Errorf("store: folder name %q contains a separator: %w", name, domain.ErrInvalidInput)
	}
	return name, nil
}
