package etl

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/aggregate"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/db"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/source"
)

// MentionsSQL joins every detection to its entity, sentence and paragraph.
// The order decides aggregation ties.
const MentionsSQL = `SELECT pg.paper_pk, s.sentence_pk, e.entity_pk, pg.heading, pg.paragraph_type,
	s.sentence_string, s.sentence_type, f.entity_count, e.entity_label, e.entity_name
FROM fact_entity_detection f
JOIN dim_entity e ON e.entity_pk = f.entity_pk
JOIN dim_sentence s ON s.sentence_pk = f.sentence_pk
JOIN dim_paragraph pg ON pg.paragraph_pk = s.paragraph_pk
ORDER BY s.sentence_pk, e.entity_pk`

type mentionRow struct {
	PaperPK        int64  `gorm:"column:paper_pk"`
	SentencePK     int64  `gorm:"column:sentence_pk"`
	EntityPK       int64  `gorm:"column:entity_pk"`
	Heading        string `gorm:"column:heading"`
	ParagraphType  string `gorm:"column:paragraph_type"`
	SentenceString string `gorm:"column:sentence_string"`
	SentenceType   string `gorm:"column:sentence_type"`
	EntityCount    int    `gorm:"column:entity_count"`
	EntityLabel    string `gorm:"column:entity_label"`
	EntityName     string `gorm:"column:entity_name"`
}

// AggregationStage rebuilds agg_paper from the detection facts.
type AggregationStage struct {
	logger zerolog.Logger
	rules  *aggregate.Rules
	rows   []db.AggPaper
	loaded bool
}

func NewAggregationStage(logger zerolog.Logger, rules *aggregate.Rules) *AggregationStage {
	return &AggregationStage{logger: logger, rules: rules}
}

func (s *AggregationStage) Name() string { return "aggregation" }

// Load reads warehouse state only; the store is unused.
func (s *AggregationStage) Load(ctx context.Context, _ source.Store, w Warehouse) error {
	if s.rules == nil {
		return fmt.Errorf("aggregation rules are not configured")
	}
	var rows []mentionRow
	if err := w.RunQuery(ctx, MentionsSQL, &rows); err != nil {
		return err
	}
	var papers []db.Paper
	if err := w.LoadTable(ctx, db.TablePaper, &papers); err != nil {
		return err
	}

	mentions := make([]aggregate.Mention, 0, len(rows))
	for _, r := range rows {
		mentions = append(mentions, aggregate.Mention(r))
	}
	results := s.rules.Aggregate(mentions)

	s.rows = make([]db.AggPaper, 0, len(papers))
	for _, p := range papers {
		s.rows = append(s.rows, aggRow(p, results[p.PaperPK]))
	}
	s.loaded = true
	s.logger.Debug().Int("mentions", len(mentions)).Int("papers", len(s.rows)).Int("papers_with_mentions", len(results)).Msg("aggregation computed")
	return nil
}

func aggRow(p db.Paper, r aggregate.Result) db.AggPaper {
	return db.AggPaper{
		PaperPK:          p.PaperPK,
		ArticleSourceID:  p.ArticleSourceID,
		Citekey:          p.Citekey,
		Abstract:         p.Abstract,
		Year:             p.Year,
		Title:            p.Title,
		NoOfPages:        p.NoOfPages,
		JournalPK:        p.JournalPK,
		AuthorgroupPK:    p.AuthorgroupPK,
		KeywordgroupPK:   p.KeywordgroupPK,
		ModelElement:     r.Value("model_element"),
		Level:            r.Value("level"),
		Participants:     r.Value("participants"),
		NoOfParticipants: int(r.Number("no_of_participants")),
		CollectionMethod: r.Value("collection_method"),
		Sampling:         r.Value("sampling"),
		AnalysisMethod:   r.Value("analysis_method"),
		Sector:           r.Value("sector"),
		Region:           r.Value("region"),
		Metric:           r.Value("metric"),
		MetricValue:      r.Number("metric_value"),
		ConceptualMethod: r.Value("conceptual_method"),
		Topic:            r.Value("topic"),
		Technology:       r.Value("technology"),
		Theory:           r.Value("theory"),
		Paradigm:         r.Value("paradigm"),
		CompanyType:      r.Value("company_type"),
		Validity:         r.Value("validity"),
	}
}

// Write replaces agg_paper.
func (s *AggregationStage) Write(ctx context.Context, w Warehouse) (int64, error) {
	if !s.loaded {
		return 0, ErrNotLoaded
	}
	if err := w.AppendRows(ctx, db.TableAggPaper, s.rows, db.Replace); err != nil {
		if db.IsIntegrity(err) {
			s.logger.Error().Err(err).Msg("integrity violation, aggregation not written")
			return 0, nil
		}
		return 0, err
	}
	return int64(len(s.rows)), nil
}

func (s *AggregationStage) Rows() []db.AggPaper { return s.rows }
