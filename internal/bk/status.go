package bk

import (
	"context"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
)

// Status is the restore outlook for one task path.
type Status string

const (
	// StatusOK means the path is in the archive and will be restored.
	StatusOK Status = "OK"
	// StatusSkip means the path is in the archive but its task is filtered out.
	StatusSkip Status = "SKIP"
	// StatusNG means the path is missing from the archive.
	StatusNG Status = "NG"
)

// StatusRow is one line of the restore preview.
type StatusRow struct {
	Group  string
	File   string
	Path   string
	Status Status
}

// ComputeStatus reports, for every path of every task, whether the path is
// present under root/<task>/<basename> and whether the group filter selects
// its task. The Path column shows where a restore would write, which differs
// from the backed-up path for tasks with a destination.
func ComputeStatus(tasks []*Task, root, groupFilter string) []StatusRow {
	var rows []StatusRow
	for _, t := range tasks {
		inScope := groupFilter == "" || groupFilter == t.Name
		for _, p := range t.Paths {
			row := StatusRow{
				Group: t.Name,
				File:  p.Base(),
				Path:  p.String(),
			}
			if t.Destination != nil {
				row.Path = t.Target(p)
			}
			_, err := os.Stat(t.ArchivePath(root, p))
			switch {
			case err != nil:
				row.Status = StatusNG
			case inScope:
				row.Status = StatusOK
			default:
				row.Status = StatusSkip
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// Status unpacks an archive and computes its restore preview without
// touching any restore target.
func (s *Service) Status(ctx context.Context, archivePath, groupFilter string) ([]StatusRow, error) {
	unpacked, err := s.unpack(ctx, archivePath)
	if err != nil {
		return nil, err
	}
	defer s.dispose(unpacked)

	tasks, err := s.loadEmbeddedTasks(unpacked.Path())
	if err != nil {
		return nil, err
	}
	return ComputeStatus(tasks, unpacked.Path(), groupFilter), nil
}

// statusFixedWidth approximates the table borders plus the group, file and
// status columns at their usual widths.
const statusFixedWidth = 48

// RenderStatus writes rows as a table. When width is positive, long paths are
// shortened from the left so the table fits.
func RenderStatus(w io.Writer, rows []StatusRow, width int) {
	maxPath := 0
	if width > 0 {
		maxPath = width - statusFixedWidth
		if maxPath < 16 {
			maxPath = 16
		}
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Group", "File", "Path", "Status"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	for _, r := range rows {
		table.Append([]string{r.Group, r.File, shortenLeft(r.Path, maxPath), string(r.Status)})
	}
	table.Render()
}

// shortenLeft trims s to at most limit runes, replacing the removed prefix
// with "...". limit <= 0 disables trimming.
func shortenLeft(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	return "..." + string(runes[len(runes)-limit+3:])
}
