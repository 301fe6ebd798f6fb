package database

import (
	"context"

	"gorm.io/gorm"
)

func holderQuery(db *gorm.DB) *gorm.DB {
	return db.Preload("AssociatedSpool").Preload("AssociatedSpool.FilamentType")
}

func (s *store) CreateHolder(ctx context.Context, holder *SpoolHolder) error {
	return s.db.WithContext(ctx).Omit("AssociatedSpool").Create(holder).Error
}

func (s *store) GetHolder(ctx context.Context, holderID string) (SpoolHolder, error) {
	return s.firstHolder(ctx, "holder "+holderID, "id = ?", holderID)
}

func (s *store) FindHolderByChannel(ctx context.Context, deviceID string, channel int) (SpoolHolder, error) {
	return s.firstHolder(ctx, "holder on load cell channel", "device_id = ? AND channel = ?", deviceID, channel)
}

func (s *store) FindHolderByNFCChannel(ctx context.Context, deviceID string, channel int) (SpoolHolder, error) {
	return s.firstHolder(ctx, "holder on nfc channel", "device_id = ? AND nfc_reader_channel = ?", deviceID, channel)
}

func (s *store) FindHolderBySpool(ctx context.Context, spoolID string) (SpoolHolder, error) {
	return s.firstHolder(ctx, "holder of spool "+spoolID, "associated_spool_id = ?", spoolID)
}

func (s *store) firstHolder(ctx context.Context, what string, query string, args ...any) (SpoolHolder, error) {
	holder := SpoolHolder{}

	err := holderQuery(s.db.WithContext(ctx)).Where(query, args...).Order("created_at asc").First(&holder).Error
	if err != nil {
		return SpoolHolder{}, notFoundOr(err, what)
	}

	return holder, nil
}

func (s *store) ListHolders(ctx context.Context, filter HolderFilter) ([]SpoolHolder, error) {
	var holders []SpoolHolder

	query := holderQuery(s.db.WithContext(ctx))

	if filter.AssignmentType != nil {
		query = query.Where("assignment_type = ?", *filter.AssignmentType)
	}
	if filter.DeviceID != nil {
		query = query.Where("device_id = ?", *filter.DeviceID)
	}
	if filter.AttachedPrinterID != nil {
		query = query.Where("attached_printer_id = ?", *filter.AttachedPrinterID)
	}

	err := query.Order("created_at asc").Find(&holders).Error

	return holders, err
}

func (s *store) UpdateHolder(ctx context.Context, holderID string, fields Fields) (SpoolHolder, error) {
	result := s.db.WithContext(ctx).Model(&SpoolHolder{}).Where("id = ?", holderID).Updates(map[string]any(fields))
	if result.Error != nil {
		return SpoolHolder{}, notFoundOr(result.Error, "update holder "+holderID)
	}
	if result.RowsAffected == 0 {
		return SpoolHolder{}, notFoundOr(gorm.ErrRecordNotFound, "holder "+holderID)
	}

	return s.GetHolder(ctx, holderID)
}

func (s *store) DeleteHolder(ctx context.Context, holderID string) error {
	result := s.db.WithContext(ctx).Where("id = ?", holderID).Delete(&SpoolHolder{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFoundOr(gorm.ErrRecordNotFound, "holder "+holderID)
	}
	return nil
}
