package bundlestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/morphid/biodid-middleware/pkg/bundle"
)

const uniqueViolation = "23505"

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the bundle store
func NewStore(db *bun.DB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) Create(ctx context.Context, b *bundle.MetadataBundle) error {
	dao := toBundleDao(b)

	_, err := s.db.NewInsert().
		Model(dao).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateDID, b.DID)
		}
		return fmt.Errorf("failed to create bundle: %w", err)
	}

	return nil
}

func (s *pgStore) GetByDID(ctx context.Context, did string) (*bundle.MetadataBundle, error) {
	dao := new(BundleDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("did = ?", did).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBundleNotFound
		}
		return nil, fmt.Errorf("failed to get bundle: %w", err)
	}

	return toBundle(dao)
}

func (s *pgStore) Update(ctx context.Context, b *bundle.MetadataBundle) error {
	dao := toBundleDao(b)

	res, err := s.db.NewUpdate().
		Model(dao).
		Column("controllers", "revoked_at").
		Where("did = ?", dao.DID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update bundle: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrBundleNotFound
	}
	return nil
}

func (s *pgStore) List(ctx context.Context) ([]*bundle.MetadataBundle, error) {
	var daos []BundleDao
	err := s.db.NewSelect().
		Model(&daos).
		Order("enrolled_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bundles: %w", err)
	}

	bundles := make([]*bundle.MetadataBundle, 0, len(daos))
	for i := range daos {
		b, err := toBundle(&daos[i])
		if err != nil {
			return nil, fmt.Errorf("failed to map bundle %s: %w", daos[i].DID, err)
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation
}
