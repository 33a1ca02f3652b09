package db

import (
	"errors"

	"xrayshim/internal/model"
	"xrayshim/internal/xray/parser"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoActiveProfile = errors.New("no active profile")
)

// SaveProfiles inserts profiles, skipping any whose hash is already stored.
// It returns the number of new rows.
func SaveProfiles(db *gorm.DB, profiles []model.Profile) (int64, error) {
	if len(profiles) == 0 {
		return 0, nil
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hash"}},
		DoNothing: true,
	}).CreateInBatches(profiles, 500)
	return result.RowsAffected, result.Error
}

// SaveProfile stores p unless its hash exists and returns the stored row.
func SaveProfile(db *gorm.DB, p model.Profile) (*model.Profile, bool, error) {
	created, err := SaveProfiles(db, []model.Profile{p})
	if err != nil {
		return nil, false, err
	}

	var stored model.Profile
	if err := db.Where("hash = ?", p.Hash).Limit(1).Find(&stored).Error; err != nil {
		return nil, false, err
	}
	return &stored, created > 0, nil
}

func ListProfiles(db *gorm.DB) ([]model.Profile, error) {
	var profiles []model.Profile
	err := db.Order("id").Find(&profiles).Error
	return profiles, err
}

func GetProfile(db *gorm.DB, id uint) (*model.Profile, error) {
	var p model.Profile
	result := db.Where("id = ?", id).Limit(1).Find(&p)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrProfileNotFound
	}
	return &p, nil
}

func DeleteProfile(db *gorm.DB, id uint) error {
	result := db.Delete(&model.Profile{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// SetActive marks one profile active and clears every other.
func SetActive(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Profile{}).Where("active = ?", true).Update("active", false).Error; err != nil {
			return err
		}
		result := tx.Model(&model.Profile{}).Where("id = ?", id).Update("active", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProfileNotFound
		}
		return nil
	})
}

func ActiveProfile(db *gorm.DB) (*model.Profile, error) {
	var p model.Profile
	result := db.Where("active = ?", true).Limit(1).Find(&p)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNoActiveProfile
	}
	return &p, nil
}

// NewProfile builds the row for a decoded share-link.
func NewProfile(raw string, l *parser.Link) model.Profile {
	p := model.Profile{
		Hash:     l.Hash(),
		Raw:      raw,
		Protocol: l.Protocol.String(),
		Address:  l.Address,
		Port:     l.Port,
	}
	if l.Remark != nil {
		p.Remark = *l.Remark
	}
	return p
}
