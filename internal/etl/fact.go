package etl

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/db"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/delta"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/source"
)

// FactStage loads fact_entity_detection. Sentence and entity must be loaded first.
type FactStage struct {
	logger zerolog.Logger
	rows   []db.EntityDetection
	loaded bool
}

func NewFactStage(logger zerolog.Logger) *FactStage {
	return &FactStage{logger: logger}
}

func (s *FactStage) Name() string { return "fact" }

func (s *FactStage) Load(ctx context.Context, store source.Store, w Warehouse) error {
	records, err := readExtract(ctx, store, source.EntitiesFile, toEntityRecord)
	if err != nil {
		return err
	}
	var (
		sentences []db.Sentence
		entities  []db.Entity
		existing  []db.EntityDetection
	)
	if err := loadTables(ctx, w, map[string]any{
		db.TableSentence:            &sentences,
		db.TableEntity:              &entities,
		db.TableEntityDetectionFact: &existing,
	}); err != nil {
		return err
	}

	sentenceKeys := make(map[string]int64, len(sentences))
	for _, row := range sentences {
		sentenceKeys[row.SentenceSourceID] = row.SentencePK
	}
	entityKeys := make(map[string]int64, len(entities))
	for _, row := range entities {
		if _, ok := entityKeys[row.EntityName]; !ok {
			entityKeys[row.EntityName] = row.EntityPK
		}
	}

	type mention struct{ sentence, entity string }
	var order []mention
	counts := make(map[mention]int)
	for _, rec := range records {
		m := mention{sentence: strings.TrimSpace(rec.SentenceID), entity: strings.TrimSpace(rec.EntID)}
		if _, ok := counts[m]; !ok {
			order = append(order, m)
		}
		counts[m]++
	}

	src := make([]db.EntityDetection, 0, len(order))
	unresolved := 0
	for _, m := range order {
		sentencePK, sok := sentenceKeys[m.sentence]
		entityPK, eok := entityKeys[m.entity]
		if !sok || !eok {
			unresolved++
			continue
		}
		src = append(src, db.EntityDetection{EntityPK: entityPK, SentencePK: sentencePK, EntityCount: counts[m]})
	}
	if unresolved > 0 {
		s.logger.Warn().Int("unresolved", unresolved).Msg("facts with unknown sentence or entity dropped")
	}

	fresh := delta.Diff(src, existing, func(f db.EntityDetection) db.EntityDetection { return f })
	stored := make(map[[2]int64]int, len(existing))
	for _, f := range existing {
		stored[[2]int64{f.EntityPK, f.SentencePK}] = f.EntityCount
	}
	s.rows = s.rows[:0]
	changed := 0
	for _, f := range fresh {
		if _, ok := stored[[2]int64{f.EntityPK, f.SentencePK}]; ok {
			changed++
			continue
		}
		s.rows = append(s.rows, f)
	}
	if changed > 0 {
		s.logger.Warn().Int("changed", changed).Msg("facts whose count differs from the stored fact dropped")
	}
	s.loaded = true
	s.logger.Debug().Int("mentions", len(order)).Int("new_facts", len(s.rows)).Msg("fact delta computed")
	return nil
}

func (s *FactStage) Write(ctx context.Context, w Warehouse) (int64, error) {
	if !s.loaded {
		return 0, ErrNotLoaded
	}
	return writeUnit(ctx, w, s.logger, db.TableEntityDetectionFact, write(db.TableEntityDetectionFact, s.rows, len(s.rows)))
}

func (s *FactStage) Rows() []db.EntityDetection { return s.rows }
