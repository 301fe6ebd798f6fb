package database

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/spoolsync/spool-mgmt/pkg/types"
)

// UpsertDevice creates the device on first contact and refreshes it on every
// later report. A nil ipAddress or channels leaves the stored value untouched.
func (s *store) UpsertDevice(ctx context.Context, uniqueDeviceID string, ipAddress *string, channels types.ChannelRecords, seen time.Time) (Device, error) {
	device := Device{
		UniqueDeviceID:   uniqueDeviceID,
		Name:             uniqueDeviceID,
		IPAddress:        ipAddress,
		LastSeen:         &seen,
		DetectedChannels: channels,
	}

	updates := map[string]any{"last_seen": seen, "updated_at": time.Now()}
	if ipAddress != nil {
		updates["ip_address"] = *ipAddress
	}
	if channels != nil {
		updates["detected_channels"] = channels
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "unique_device_id"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(&device).Error
	if err != nil {
		return Device{}, notFoundOr(err, "upsert device")
	}

	stored := Device{}
	err = s.db.WithContext(ctx).Where(&Device{UniqueDeviceID: uniqueDeviceID}).First(&stored).Error
	if err != nil {
		return Device{}, notFoundOr(err, "device "+uniqueDeviceID)
	}

	return stored, nil
}

func (s *store) GetDevice(ctx context.Context, deviceID string) (Device, error) {
	device := Device{}

	err := s.db.WithContext(ctx).Where(&Device{DeviceID: deviceID}).First(&device).Error
	if err != nil {
		return Device{}, notFoundOr(err, "device "+deviceID)
	}

	return device, nil
}

func (s *store) ListDevices(ctx context.Context) ([]Device, error) {
	var devices []Device

	err := s.db.WithContext(ctx).Order("name asc").Find(&devices).Error

	return devices, err
}
