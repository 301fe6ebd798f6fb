package database

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

func (s *store) CreateFilamentType(ctx context.Context, filamentType *FilamentType) error {
	return s.db.WithContext(ctx).Create(filamentType).Error
}

func (s *store) CreateSpool(ctx context.Context, spool *Spool) error {
	if spool.NFCTagID != nil {
		tag := strings.ToLower(*spool.NFCTagID)
		spool.NFCTagID = &tag
	}
	return s.db.WithContext(ctx).Omit("FilamentType", "History").Create(spool).Error
}

func (s *store) GetSpool(ctx context.Context, spoolID string) (Spool, error) {
	spool := Spool{}

	err := s.db.WithContext(ctx).Preload("FilamentType").Where("id = ?", spoolID).First(&spool).Error
	if err != nil {
		return Spool{}, notFoundOr(err, "spool "+spoolID)
	}

	return spool, nil
}

func (s *store) FindSpoolByTag(ctx context.Context, nfcTagID string) (Spool, error) {
	spool := Spool{}

	err := s.db.WithContext(ctx).Preload("FilamentType").Where("nfc_tag_id = ?", strings.ToLower(nfcTagID)).First(&spool).Error
	if err != nil {
		return Spool{}, notFoundOr(err, "spool with tag "+nfcTagID)
	}

	return spool, nil
}

func (s *store) UpdateSpool(ctx context.Context, spoolID string, fields Fields) (Spool, error) {
	result := s.db.WithContext(ctx).Model(&Spool{}).Where("id = ?", spoolID).Updates(map[string]any(fields))
	if result.Error != nil {
		return Spool{}, notFoundOr(result.Error, "update spool "+spoolID)
	}
	if result.RowsAffected == 0 {
		return Spool{}, notFoundOr(gorm.ErrRecordNotFound, "spool "+spoolID)
	}

	return s.GetSpool(ctx, spoolID)
}

func (s *store) AddWeightHistory(ctx context.Context, entry WeightHistory) error {
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(&entry).Error
}

func (s *store) GetWeightHistory(ctx context.Context, spoolID string, since time.Time) ([]WeightHistory, error) {
	var history []WeightHistory

	err := s.db.WithContext(ctx).
		Where("spool_id = ? AND recorded_at >= ?", spoolID, since).
		Order("recorded_at asc").
		Find(&history).Error

	return history, err
}

func (s *store) GetAllWeightHistory(ctx context.Context, since time.Time) ([]WeightHistory, error) {
	var history []WeightHistory

	err := s.db.WithContext(ctx).
		Where("recorded_at >= ?", since).
		Order("recorded_at asc").
		Find(&history).Error

	return history, err
}
