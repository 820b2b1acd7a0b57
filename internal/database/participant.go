package database

import (
	"github.com/google/uuid"
	"github.com/thereayou/scrimhub/internal/models"
	"gorm.io/gorm"
)

func (d *Database) AddScrimPlayer(player *models.ScrimPlayer) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(player).Error; err != nil {
			return err
		}
		return tx.Model(&models.Scrim{}).
			Where("id = ?", player.ScrimID).
			UpdateColumn("player_count", gorm.Expr("player_count + ?", 1)).Error
	})
}

func (d *Database) RemoveScrimPlayer(scrimID uint, playerID uuid.UUID) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.ScrimPlayer{}, "scrim_id = ? AND player_id = ?", scrimID, playerID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Scrim{}).
			Where("id = ?", scrimID).
			UpdateColumn("player_count", gorm.Expr("player_count - ?", 1)).Error
	})
}

func (d *Database) GetScrimPlayers(scrimID uint) ([]models.ScrimPlayer, error) {
	var players []models.ScrimPlayer
	err := d.db.
		Where("scrim_id = ?", scrimID).
		Order("joined_at ASC").
		Find(&players).Error
	if err != nil {
		return nil, err
	}
	return players, nil
}

func (d *Database) IsPlayerInScrim(scrimID uint, playerID uuid.UUID) (bool, error) {
	var count int64
	err := d.db.Model(&models.ScrimPlayer{}).
		Where("scrim_id = ? AND player_id = ?", scrimID, playerID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (d *Database) GetScrimsByPlayer(playerID uuid.UUID) ([]models.ScrimPlayer, error) {
	var entries []models.ScrimPlayer
	err := d.db.
		Where("player_id = ?", playerID).
		Order("joined_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (d *Database) SetPlayerTeam(scrimID uint, playerID uuid.UUID, team int) error {
	return d.db.Model(&models.ScrimPlayer{}).
		Where("scrim_id = ? AND player_id = ?", scrimID, playerID).
		Update("team", team).Error
}
