package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/luisa2795/datawarehouse-for-SLR/internal/author"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/db"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/globaltime"
	"github.com/luisa2795/datawarehouse-for-SLR/internal/source"
)

const (
	// ExpireAuthorSQL closes the Current version of an author.
	ExpireAuthorSQL = `UPDATE dim_author SET row_expiration_date = ?, current_row_indicator = 'Expired' WHERE author_pk = ? AND current_row_indicator = 'Current'`
	// OverwriteEmailSQL applies a Type 1 email change to the Current version.
	OverwriteEmailSQL = `UPDATE dim_author SET email = ? WHERE author_pk = ? AND current_row_indicator = 'Current'`
)

// AuthorStage loads dim_author with Type 1 and Type 2 change handling.
type AuthorStage struct {
	logger zerolog.Logger
	today  func() time.Time
	plan   author.Plan
	loaded bool
}

func NewAuthorStage(logger zerolog.Logger) *AuthorStage {
	return &AuthorStage{logger: logger, today: globaltime.Today}
}

func (s *AuthorStage) Name() string { return "author" }

func (s *AuthorStage) Load(ctx context.Context, store source.Store, w Warehouse) error {
	records, err := readExtract(ctx, store, source.AuthorsFile, authorRecord)
	if err != nil {
		return err
	}
	refs, err := readExtract(ctx, store, source.ReferencesFile, referenceRecord)
	if err != nil {
		return err
	}
	var existing []db.Author
	if err := w.LoadTable(ctx, db.TableAuthor, &existing); err != nil {
		return err
	}

	refAuthors := make([]string, 0, len(refs))
	for _, r := range refs {
		refAuthors = append(refAuthors, r.Authors)
	}
	conformed := author.Conform(records, refAuthors)
	s.plan = author.PlanChanges(conformed, existing, s.today())
	s.loaded = true
	s.logger.Debug().
		Int("conformed", len(conformed)).
		Int("new", len(s.plan.New)).
		Int("versions", len(s.plan.Versions)).
		Int("email_updates", len(s.plan.EmailUpdates)).
		Msg("author changes planned")
	return nil
}

// Write inserts new authors, then applies each Type 2 version in its own
// transaction and each email overwrite as one statement.
func (s *AuthorStage) Write(ctx context.Context, w Warehouse) (int64, error) {
	if !s.loaded {
		return 0, ErrNotLoaded
	}
	total, err := writeUnit(ctx, w, s.logger, "new authors", write(db.TableAuthor, s.plan.New, len(s.plan.New)))
	if err != nil {
		return total, err
	}

	for _, v := range s.plan.Versions {
		err := w.InTx(ctx, func(tx Warehouse) error {
			if err := expectOneRow(tx.ExecuteStatement(ctx, ExpireAuthorSQL, v.Replace.RowEffectiveDate, v.Expire.AuthorPK)); err != nil {
				return fmt.Errorf("expire author %d: %w", v.Expire.AuthorPK, err)
			}
			return tx.AppendRows(ctx, db.TableAuthor, []db.Author{v.Replace}, db.Append)
		})
		if err != nil {
			if db.IsIntegrity(err) {
				s.logger.Error().Err(err).Int64("author_pk", v.Expire.AuthorPK).Msg("integrity violation, version skipped")
				continue
			}
			return total, err
		}
		total += 2
	}

	for _, u := range s.plan.EmailUpdates {
		if err := expectOneRow(w.ExecuteStatement(ctx, OverwriteEmailSQL, u.Email, u.AuthorPK)); err != nil {
			return total, fmt.Errorf("overwrite email of author %d: %w", u.AuthorPK, err)
		}
		total++
	}
	return total, nil
}

// Plan returns the changes computed by Load.
func (s *AuthorStage) Plan() author.Plan { return s.plan }

func expectOneRow(affected int64, err error) error {
	if err != nil {
		return err
	}
	if affected != 1 {
		return fmt.Errorf("expected 1 row affected, got %d", affected)
	}
	return nil
}
