package etl

import (
	"cmp"
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/db"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/delta"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/hierarchy"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/normalize"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/source"
)

type entityKey struct {
	Name  string
	Label string
}

var entityDimension = delta.Dimension[db.Entity, entityKey]{
	Name:     db.TableEntity,
	Identity: func(e db.Entity) entityKey { return entityKey{Name: e.EntityName, Label: e.EntityLabel} },
	Key:      func(e db.Entity) int64 { return e.EntityPK },
	WithKey: func(e db.Entity, pk int64) db.Entity {
		e.EntityPK = pk
		return e
	},
	Dummy: func() db.Entity { return db.Entity{EntityName: normalize.Missing, EntityLabel: normalize.Missing} },
	Compare: func(a, b db.Entity) int {
		return cmp.Or(cmp.Compare(a.EntityLabel, b.EntityLabel), cmp.Compare(a.EntityName, b.EntityName))
	},
}

// EntityStage loads dim_entity and the edges of map_entity_hierarchy.
type EntityStage struct {
	logger   zerolog.Logger
	entities []db.Entity
	edges    []db.EntityHierarchy
	dropped  []hierarchy.Edge
	loaded   bool
}

func NewEntityStage(logger zerolog.Logger) *EntityStage {
	return &EntityStage{logger: logger}
}

func (s *EntityStage) Name() string { return "entity" }

func (s *EntityStage) Load(ctx context.Context, store source.Store, w Warehouse) error {
	records, err := readExtract(ctx, store, source.EntitiesFile, toEntityRecord)
	if err != nil {
		return err
	}
	var (
		existing      []db.Entity
		existingEdges []db.EntityHierarchy
	)
	if err := loadTables(ctx, w, map[string]any{
		db.TableEntity:          &existing,
		db.TableEntityHierarchy: &existingEdges,
	}); err != nil {
		return err
	}

	src := make([]db.Entity, 0, len(records))
	paths := make([]string, 0, len(records))
	for _, rec := range records {
		src = append(src, db.Entity{
			EntityName:  normalize.OrMissing(strings.TrimSpace(rec.EntID)),
			EntityLabel: normalize.OrMissing(strings.TrimSpace(rec.Label)),
		})
		paths = append(paths, rec.Path)
	}
	s.entities = entityDimension.Compute(src, existing).Rows

	// Edges resolve against every entity the table holds once this stage is written.
	all := append(append([]db.Entity{}, existing...), s.entities...)
	resolved, dropped := hierarchy.Resolve(hierarchy.Edges(paths), all)
	s.edges = hierarchy.NewRows(hierarchy.ClearStoredParents(resolved, existingEdges), existingEdges)
	s.dropped = dropped
	s.loaded = true

	if len(dropped) > 0 {
		s.logger.Warn().
			Int("dropped_edges", len(dropped)).
			Str("example_parent", dropped[0].Parent).
			Str("example_child", dropped[0].Child).
			Msg("hierarchy edges with unknown entities dropped")
	}
	s.logger.Debug().Int("new_entities", len(s.entities)).Int("new_edges", len(s.edges)).Msg("entity delta computed")
	return nil
}

// Write appends entities and hierarchy edges in one transaction.
func (s *EntityStage) Write(ctx context.Context, w Warehouse) (int64, error) {
	if !s.loaded {
		return 0, ErrNotLoaded
	}
	return writeUnit(ctx, w, s.logger, db.TableEntity,
		write(db.TableEntity, s.entities, len(s.entities)),
		write(db.TableEntityHierarchy, s.edges, len(s.edges)),
	)
}

func (s *EntityStage) Entities() []db.Entity { return s.entities }

func (s *EntityStage) Edges() []db.EntityHierarchy { return s.edges }

func (s *EntityStage) Dropped() []hierarchy.Edge { return s.dropped }
