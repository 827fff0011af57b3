package bundlestore

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/morphid/biodid-middleware/pkg/biometric"
	"github.com/morphid/biodid-middleware/pkg/bundle"
	"github.com/morphid/biodid-middleware/pkg/fuzzy"
)

// BundleDao is a data access object that maps directly to the 'bundles' table
// in PostgreSQL. Helper data is public by construction, so storing it inline
// as JSONB carries no biometric material.
type BundleDao struct {
	bun.BaseModel `bun:"table:bundles,alias:b"`
	ID            uuid.UUID                                  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	DID           string                                     `bun:"did,unique,notnull,type:varchar(255)"`
	Version       string                                     `bun:"version,notnull,type:varchar(16)"`
	Controllers   []string                                   `bun:"controllers,array,notnull"`
	HelperStorage string                                     `bun:"helper_storage,notnull,type:varchar(16)"`
	HelperData    map[biometric.Finger]fuzzy.HelperDataEntry `bun:"helper_data,type:jsonb,nullzero"`
	HelperURI     *string                                    `bun:"helper_uri,type:varchar(512)"`
	EnrolledAt    time.Time                                  `bun:"enrolled_at,notnull"`
	RevokedAt     *time.Time                                 `bun:"revoked_at"`
	CreatedAt     time.Time                                  `bun:"created_at,nullzero,default:current_timestamp"`
}

// toBundleDao converts a bundle.MetadataBundle to BundleDao.
func toBundleDao(b *bundle.MetadataBundle) *BundleDao {
	dao := &BundleDao{
		DID:           b.DID,
		Version:       b.Version,
		Controllers:   b.Controllers,
		HelperStorage: string(b.Helper.Mode()),
		EnrolledAt:    b.EnrolledAt,
	}

	if helpers, ok := b.Helper.Inline(); ok {
		dao.HelperData = helpers
	}
	if uri, ok := b.Helper.URI(); ok {
		dao.HelperURI = &uri
	}
	if at, ok := b.Revocation.At(); ok {
		dao.RevokedAt = &at
	}

	return dao
}

// toBundle converts a BundleDao to bundle.MetadataBundle.
func toBundle(dao *BundleDao) (*bundle.MetadataBundle, error) {
	var storage bundle.HelperStorage
	var err error
	switch bundle.StorageMode(dao.HelperStorage) {
	case bundle.StorageInline:
		storage, err = bundle.InlineStorage(dao.HelperData)
	case bundle.StorageExternal:
		uri := ""
		if dao.HelperURI != nil {
			uri = *dao.HelperURI
		}
		storage, err = bundle.ExternalStorage(uri)
	default:
		return nil, bundle.ErrInvalidStorage
	}
	if err != nil {
		return nil, err
	}

	revocation := bundle.Active()
	if dao.RevokedAt != nil {
		revocation = bundle.RevokedAt(*dao.RevokedAt)
	}

	return &bundle.MetadataBundle{
		Version:     dao.Version,
		DID:         dao.DID,
		Controllers: dao.Controllers,
		Helper:      storage,
		EnrolledAt:  dao.EnrolledAt.UTC(),
		Revocation:  revocation,
	}, nil
}
