package etl

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/author"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/db"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/paper"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/source"
)

// PaperStage loads dim_paper with its author and keyword groups and bridges.
// Keyword, author and journal must be loaded first.
type PaperStage struct {
	logger zerolog.Logger
	delta  paper.Delta
	loaded bool
}

func NewPaperStage(logger zerolog.Logger) *PaperStage {
	return &PaperStage{logger: logger}
}

func (s *PaperStage) Name() string { return "paper" }

func (s *PaperStage) Load(ctx context.Context, store source.Store, w Warehouse) error {
	articles, err := readExtract(ctx, store, source.PapersFile, articleRecord)
	if err != nil {
		return err
	}
	refs, err := readExtract(ctx, store, source.ReferencesFile, referenceRecord)
	if err != nil {
		return err
	}
	keywords, err := readExtract(ctx, store, source.KeywordsFile, keywordRecord)
	if err != nil {
		return err
	}
	authors, err := readExtract(ctx, store, source.AuthorsFile, authorRecord)
	if err != nil {
		return err
	}

	var (
		authorRows  []db.Author
		journalRows []db.Journal
		keywordRows []db.Keyword
		existing    paper.Existing
	)
	if err := loadTables(ctx, w, map[string]any{
		db.TableAuthor:       &authorRows,
		db.TableJournal:      &journalRows,
		db.TableKeyword:      &keywordRows,
		db.TablePaper:        &existing.Papers,
		db.TableAuthorGroup:  &existing.AuthorGroups,
		db.TableKeywordGroup: &existing.KeywordGroups,
	}); err != nil {
		return err
	}

	keywordKeys := make(map[string]int64, len(keywordRows))
	for _, k := range keywordRows {
		keywordKeys[k.Keyword] = k.KeywordPK
	}
	candidates := paper.Merge(articles, keywords, authors, refs, paper.Lookups{
		Authors:  author.NewLookup(authorRows),
		Journals: paper.NewJournalLookup(journalRows),
		Keywords: keywordKeys,
	})
	s.delta = paper.Build(candidates, existing)
	s.loaded = true
	s.logger.Debug().
		Int("candidates", len(candidates)).
		Int("new_papers", len(s.delta.Papers)).
		Int("author_bridges", len(s.delta.AuthorBridges)).
		Int("keyword_bridges", len(s.delta.KeywordBridges)).
		Msg("paper delta computed")
	return nil
}

// Write appends papers, groups and bridges in one transaction.
func (s *PaperStage) Write(ctx context.Context, w Warehouse) (int64, error) {
	if !s.loaded {
		return 0, ErrNotLoaded
	}
	d := s.delta
	return writeUnit(ctx, w, s.logger, db.TablePaper,
		write(db.TableAuthorGroup, d.AuthorGroups, len(d.AuthorGroups)),
		write(db.TableKeywordGroup, d.KeywordGroups, len(d.KeywordGroups)),
		write(db.TablePaper, d.Papers, len(d.Papers)),
		write(db.TableBridgePaperAuthor, d.AuthorBridges, len(d.AuthorBridges)),
		write(db.TableBridgePaperKeyword, d.KeywordBridges, len(d.KeywordBridges)),
	)
}

func (s *PaperStage) Delta() paper.Delta { return s.delta }
