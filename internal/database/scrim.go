package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/scrimhub/internal/models"
	"gorm.io/gorm"
)

func (d *Database) CreateScrim(scrim *models.Scrim) error {
	return d.db.Create(scrim).Error
}

func (d *Database) GetScrim(id uint) (*models.Scrim, error) {
	var scrim models.Scrim
	if err := d.db.First(&scrim, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &scrim, nil
}

func (d *Database) GetActiveScrims() ([]models.Scrim, error) {
	var scrims []models.Scrim
	err := d.db.
		Where("status IN ?", []string{models.StatusOpen, models.StatusFull, models.StatusActive}).
		Order("id ASC").
		Find(&scrims).Error
	if err != nil {
		return nil, err
	}
	return scrims, nil
}

func (d *Database) UpdateScrimStatus(id uint, status string) error {
	return d.db.Model(&models.Scrim{}).Where("id = ?", id).Update("status", status).Error
}

func (d *Database) UpdateScrimChannels(id uint, category, team1, team2 uuid.UUID) error {
	return d.db.Model(&models.Scrim{}).Where("id = ?", id).Updates(map[string]interface{}{
		"category_id":      category,
		"team1_channel_id": team1,
		"team2_channel_id": team2,
	}).Error
}

func (d *Database) DeleteOldScrims(cutoff time.Time) (int64, error) {
	var deleted int64

	err := d.db.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.Scrim{}).
			Where("created_at < ?", cutoff).
			Pluck("id", &ids).Error; err != nil {
			return err
		}

		if len(ids) == 0 {
			return nil
		}

		if err := tx.Delete(&models.ScrimPlayer{}, "scrim_id IN ?", ids).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.Scrim{}, "id IN ?", ids)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected

		return nil
	})

	return deleted, err
}
