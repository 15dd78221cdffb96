package profile

import (
	"context"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"reciperepo/entities"
)

type (
	ProfileRepository interface {
		GetProfileByID(ctx context.Context, id uuid.UUID) (*entities.Profile, error)
		EnsureProfile(ctx context.Context, profile *entities.Profile) error
		UpsertProfile(ctx context.Context, profile *entities.Profile) error
	}

	profileRepository struct {
		db *gorm.DB
	}
)

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetProfileByID(ctx context.Context, id uuid.UUID) (*entities.Profile, error) {
	var profile entities.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) EnsureProfile(ctx context.Context, profile *entities.Profile) error {
	return EnsureProfileTx(r.db.WithContext(ctx), profile)
}

// UpsertProfile writes every editable column; email and created_at are kept from the stored row.
func (r *profileRepository) UpsertProfile(ctx context.Context, profile *entities.Profile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"username", "name", "bio", "avatar_url", "updated_at"}),
		}).
		Create(profile).Error
}

// EnsureProfileTx inserts profile unless a row with its id exists, then loads the stored row into
// profile. It runs on whatever handle it is given so callers can use it inside a transaction.
func EnsureProfileTx(db *gorm.DB, profile *entities.Profile) error {
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(profile).Error; err != nil {
		return err
	}
	return db.Where("id = ?", profile.ID).First(profile).Error
}
