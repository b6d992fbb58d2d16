package etl

import (
	"cmp"
	"context"

	"github.com/rs/zerolog"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/db"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/delta"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/normalize"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/paper"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/source"
)

var keywordDimension = delta.Dimension[db.Keyword, string]{
	Name:     db.TableKeyword,
	Identity: func(k db.Keyword) string { return k.Keyword },
	Key:      func(k db.Keyword) int64 { return k.KeywordPK },
	WithKey: func(k db.Keyword, pk int64) db.Keyword {
		k.KeywordPK = pk
		return k
	},
	Dummy:   func() db.Keyword { return db.Keyword{Keyword: normalize.Missing} },
	Compare: func(a, b db.Keyword) int { return cmp.Compare(a.Keyword, b.Keyword) },
}

// KeywordStage loads dim_keyword.
type KeywordStage struct {
	logger zerolog.Logger
	rows   []db.Keyword
	loaded bool
}

func NewKeywordStage(logger zerolog.Logger) *KeywordStage {
	return &KeywordStage{logger: logger}
}

func (s *KeywordStage) Name() string { return "keyword" }

func (s *KeywordStage) Load(ctx context.Context, store source.Store, w Warehouse) error {
	records, err := readExtract(ctx, store, source.KeywordsFile, keywordRecord)
	if err != nil {
		return err
	}
	var existing []db.Keyword
	if err := w.LoadTable(ctx, db.TableKeyword, &existing); err != nil {
		return err
	}

	src := make([]db.Keyword, 0, len(records))
	for _, rec := range records {
		src = append(src, db.Keyword{Keyword: normalize.OrMissing(paper.NormalizeKeyword(rec.Keyword))})
	}
	res := keywordDimension.Compute(src, existing)
	s.rows = res.Rows
	s.loaded = true
	s.logger.Debug().Int("source_rows", len(records)).Int("new_rows", len(s.rows)).Msg("keyword delta computed")
	return nil
}

func (s *KeywordStage) Write(ctx context.Context, w Warehouse) (int64, error) {
	if !s.loaded {
		return 0, ErrNotLoaded
	}
	return writeUnit(ctx, w, s.logger, db.TableKeyword, write(db.TableKeyword, s.rows, len(s.rows)))
}

// Rows returns the delta computed by Load.
func (s *KeywordStage) Rows() []db.Keyword { return s.rows }
