package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cuemby/findex/internal/index"
	"github.com/cuemby/findex/internal/metrics"
	"github.com/spf13/cobra"
)

// commitAndTime runs Commit while observing findex_commit_duration_seconds
// and findex_commit_total{result=...}. Both metrics are recorded here
// rather than inside internal/index.WriteTransaction.Commit, since
// internal/metrics already imports internal/index for its collector and
// the reverse import would cycle.
func commitAndTime(wt *index.WriteTransaction) error {
	timer := metrics.NewTimer()
	err := wt.Commit()
	timer.ObserveDuration(metrics.CommitDuration)
	if err != nil {
		metrics.CommitTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.CommitTotal.WithLabelValues("success").Inc()
	return nil
}

// jsonDocument is the wire shape accepted on stdin by `findex add`. It
// mirrors index.Document but keeps term positions as plain JSON arrays
// rather than exposing the TermPositions wrapper type.
type jsonDocument struct {
	ID       uint64 `json:"id"`
	ParentID uint64 `json:"parent_id"`
	URL      string `json:"url"`

	ContentTerms  map[string][]uint32 `json:"content_terms"`
	XattrTerms    map[string][]uint32 `json:"xattr_terms"`
	FilenameTerms map[string][]uint32 `json:"filename_terms"`

	MTime int64 `json:"mtime"`
	CTime int64 `json:"ctime"`

	ContentIndexingRequired bool   `json:"content_indexing_required"`
	Data                    []byte `json:"data"`
}

func toTermPositions(m map[string][]uint32) map[string]index.TermPositions {
	if m == nil {
		return nil
	}
	out := make(map[string]index.TermPositions, len(m))
	for term, positions := range m {
		out[term] = index.TermPositions{Positions: positions}
	}
	return out
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a document read as JSON from stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		var jd jsonDocument
		if err := json.NewDecoder(os.Stdin).Decode(&jd); err != nil {
			return fmt.Errorf("decode document: %w", err)
		}

		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		wt, err := db.BeginWrite()
		if err != nil {
			return err
		}
		doc := index.Document{
			ID:                      index.DocID(jd.ID),
			ParentID:                index.DocID(jd.ParentID),
			URL:                     jd.URL,
			ContentTerms:            toTermPositions(jd.ContentTerms),
			XattrTerms:              toTermPositions(jd.XattrTerms),
			FilenameTerms:           toTermPositions(jd.FilenameTerms),
			MTime:                   jd.MTime,
			CTime:                   jd.CTime,
			ContentIndexingRequired: jd.ContentIndexingRequired,
			Data:                    jd.Data,
		}
		if err := wt.AddDocument(doc); err != nil {
			_ = wt.Rollback()
			return err
		}
		if err := commitAndTime(wt); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added document %d\n", jd.ID)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <doc-id>",
	Short: "Remove a document by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id uint64
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return fmt.Errorf("parse document id: %w", err)
		}

		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		wt, err := db.BeginWrite()
		if err != nil {
			return err
		}
		if err := wt.RemoveDocument(index.DocID(id)); err != nil {
			_ = wt.Rollback()
			return err
		}
		if err := commitAndTime(wt); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed document %d\n", id)
		return nil
	},
}
