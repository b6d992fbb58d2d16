package etl

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/db"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/delta"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/paper"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/source"
)

var journalDimension = delta.Dimension[db.Journal, paper.JournalKey]{
	Name:     db.TableJournal,
	Identity: paper.JournalKeyOf,
	Key:      func(j db.Journal) int64 { return j.JournalPK },
	WithKey: func(j db.Journal, pk int64) db.Journal {
		j.JournalPK = pk
		return j
	},
	Dummy: func() db.Journal { return paper.MissingJournal.Row(0) },
	Compare: func(a, b db.Journal) int {
		return paper.CompareJournalKeys(paper.JournalKeyOf(a), paper.JournalKeyOf(b))
	},
}

// JournalStage loads dim_journal from the journal cells of papers and references.
type JournalStage struct {
	logger zerolog.Logger
	rows   []db.Journal
	loaded bool
}

func NewJournalStage(logger zerolog.Logger) *JournalStage {
	return &JournalStage{logger: logger}
}

func (s *JournalStage) Name() string { return "journal" }

func (s *JournalStage) Load(ctx context.Context, store source.Store, w Warehouse) error {
	articles, err := readExtract(ctx, store, source.PapersFile, articleRecord)
	if err != nil {
		return err
	}
	refs, err := readExtract(ctx, store, source.ReferencesFile, referenceRecord)
	if err != nil {
		return err
	}
	var existing []db.Journal
	if err := w.LoadTable(ctx, db.TableJournal, &existing); err != nil {
		return err
	}

	fields := make([]paper.JournalFields, 0, len(articles)+len(refs))
	for _, a := range articles {
		fields = append(fields, a.Journal)
	}
	for _, r := range refs {
		fields = append(fields, r.Journal)
	}

	src := make([]db.Journal, 0, len(fields))
	dropped := 0
	for _, f := range fields {
		if f.Blank() {
			dropped++
			continue
		}
		src = append(src, paper.NormalizeJournal(f).Row(0))
	}
	s.rows = journalDimension.Compute(src, existing).Rows
	s.loaded = true
	s.logger.Debug().Int("blank_rows", dropped).Int("new_rows", len(s.rows)).Msg("journal delta computed")
	return nil
}

func (s *JournalStage) Write(ctx context.Context, w Warehouse) (int64, error) {
	if !s.loaded {
		return 0, ErrNotLoaded
	}
	return writeUnit(ctx, w, s.logger, db.TableJournal, write(db.TableJournal, s.rows, len(s.rows)))
}

func (s *JournalStage) Rows() []db.Journal { return s.rows }
