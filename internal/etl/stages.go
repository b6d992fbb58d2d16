package etl

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/aggregate"
)

// StageNames lists the stages in dependency order.
var StageNames = []string{"keyword", "author", "journal", "paper", "paragraph", "sentence", "entity", "fact", "aggregation"}

// NewStage builds the named stage. Its log lines carry the stage name.
func NewStage(name string, logger zerolog.Logger) (Stage, error) {
	logger = logger.With().Str("stage", name).Logger()
	switch name {
	case "keyword":
		return NewKeywordStage(logger), nil
	case "author":
		return NewAuthorStage(logger), nil
	case "journal":
		return NewJournalStage(logger), nil
	case "paper":
		return NewPaperStage(logger), nil
	case "paragraph":
		return NewParagraphStage(logger), nil
	case "sentence":
		return NewSentenceStage(logger), nil
	case "entity":
		return NewEntityStage(logger), nil
	case "fact":
		return NewFactStage(logger), nil
	case "aggregation":
		rules, err := aggregate.DefaultRules()
		if err != nil {
			return nil, fmt.Errorf("load aggregation rules: %w", err)
		}
		return NewAggregationStage(logger, rules), nil
	}
	return nil, fmt.Errorf("unknown stage %q", name)
}

func IsStage(name string) bool {
	return slices.Contains(StageNames, name)
}
