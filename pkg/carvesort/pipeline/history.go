package pipeline

import "github.com/jamesainslie/carvesort/pkg/carvesort/history"

// HistoryEntry converts a completed run into a history record.
func (r *Result) HistoryEntry() history.Entry {
	files := make([]history.FileRecord, len(r.Sorted))
	for i, s := range r.Sorted {
		files[i] = history.FileRecord{
			Serial:       s.Record.Serial,
			Path:         s.Path,
			DeclaredName: s.Record.DeclaredName,
			Size:         s.Size,
			Hash:         s.Record.Hash,
		}
	}

	sum := r.Summary()
	return history.Entry{
		Base:      r.Options.Base,
		Manifest:  r.ManifestPath,
		Report:    r.ReportPath,
		Algorithm: r.Options.Hash,
		DryRun:    r.Options.DryRun,
		Creator:   r.Creator,
		Image:     r.Image,
		Files:     files,
		Summary: history.Summary{
			Processed:  sum.Processed,
			Skipped:    sum.Skipped,
			TotalBytes: sum.TotalBytes,
		},
	}
}
