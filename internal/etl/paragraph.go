package etl

import (
	"cmp"
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/db"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/delta"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/normalize"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/source"
)

// dummySourceID is the source id of the key-0 paragraph and sentence.
const dummySourceID = "0"

var paragraphDimension = delta.Dimension[db.Paragraph, string]{
	Name:     db.TableParagraph,
	Identity: func(p db.Paragraph) string { return p.ParaSourceID },
	Key:      func(p db.Paragraph) int64 { return p.ParagraphPK },
	WithKey: func(p db.Paragraph, pk int64) db.Paragraph {
		p.ParagraphPK = pk
		return p
	},
	Dummy: func() db.Paragraph {
		return db.Paragraph{
			ParaSourceID:  dummySourceID,
			Heading:       normalize.Missing,
			Subheading:    normalize.Missing,
			ParagraphType: normalize.Missing,
		}
	},
	Compare: func(a, b db.Paragraph) int { return compareSourceIDs(a.ParaSourceID, b.ParaSourceID) },
}

// ParagraphStage loads dim_paragraph. Paper must be loaded first.
type ParagraphStage struct {
	logger zerolog.Logger
	rows   []db.Paragraph
	loaded bool
}

func NewParagraphStage(logger zerolog.Logger) *ParagraphStage {
	return &ParagraphStage{logger: logger}
}

func (s *ParagraphStage) Name() string { return "paragraph" }

func (s *ParagraphStage) Load(ctx context.Context, store source.Store, w Warehouse) error {
	records, err := readExtract(ctx, store, source.ParagraphsFile, toParagraphRecord)
	if err != nil {
		return err
	}
	var (
		papers   []db.Paper
		existing []db.Paragraph
	)
	if err := loadTables(ctx, w, map[string]any{
		db.TablePaper:     &papers,
		db.TableParagraph: &existing,
	}); err != nil {
		return err
	}

	paperKeys := paperKeysBy(papers, func(p db.Paper) string { return p.ArticleSourceID })
	src := make([]db.Paragraph, 0, len(records))
	for _, rec := range records {
		src = append(src, db.Paragraph{
			ParaSourceID:  normalize.OrMissing(strings.TrimSpace(rec.ParaID)),
			Heading:       normalize.OrMissing(strings.TrimSpace(rec.Heading)),
			Subheading:    normalize.OrMissing(strings.TrimSpace(rec.Subheading)),
			ParagraphType: normalize.OrMissing(strings.TrimSpace(rec.ParagraphType)),
			PaperPK:       paperKeys[strings.TrimSpace(rec.ArticleID)],
		})
	}
	s.rows = paragraphDimension.Compute(src, existing).Rows
	s.loaded = true
	s.logger.Debug().Int("source_rows", len(records)).Int("new_rows", len(s.rows)).Msg("paragraph delta computed")
	return nil
}

func (s *ParagraphStage) Write(ctx context.Context, w Warehouse) (int64, error) {
	if !s.loaded {
		return 0, ErrNotLoaded
	}
	return writeUnit(ctx, w, s.logger, db.TableParagraph, write(db.TableParagraph, s.rows, len(s.rows)))
}

func (s *ParagraphStage) Rows() []db.Paragraph { return s.rows }

// paperKeysBy indexes paper keys by a source column; the first paper wins.
func paperKeysBy(papers []db.Paper, column func(db.Paper) string) map[string]int64 {
	keys := make(map[string]int64, len(papers))
	for _, p := range papers {
		if p.PaperPK == 0 {
			continue
		}
		k := column(p)
		if _, ok := keys[k]; !ok {
			keys[k] = p.PaperPK
		}
	}
	return keys
}

// compareSourceIDs orders numeric ids numerically and before any others.
func compareSourceIDs(a, b string) int {
	na, aerr := strconv.ParseInt(a, 10, 64)
	nb, berr := strconv.ParseInt(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		return cmp.Compare(na, nb)
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	return cmp.Compare(a, b)
}
