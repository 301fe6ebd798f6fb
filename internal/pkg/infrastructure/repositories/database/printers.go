package database

import (
	"context"

	"gorm.io/gorm"
)

func printerQuery(db *gorm.DB) *gorm.DB {
	return db.
		Preload("SpoolHolders", func(db *gorm.DB) *gorm.DB {
			return db.Order("spool_holders.created_at asc")
		}).
		Preload("SpoolHolders.AssociatedSpool").
		Preload("SpoolHolders.AssociatedSpool.FilamentType")
}

func (s *store) CreatePrinter(ctx context.Context, printer *Printer) error {
	return s.db.WithContext(ctx).Omit("SpoolHolders").Create(printer).Error
}

func (s *store) GetPrinter(ctx context.Context, printerID string) (Printer, error) {
	printer := Printer{}

	err := printerQuery(s.db.WithContext(ctx)).Where("id = ?", printerID).First(&printer).Error
	if err != nil {
		return Printer{}, notFoundOr(err, "printer "+printerID)
	}

	return printer, nil
}

func (s *store) ListPrinters(ctx context.Context) ([]Printer, error) {
	var printers []Printer

	err := printerQuery(s.db.WithContext(ctx)).Order("name asc").Find(&printers).Error

	return printers, err
}

func (s *store) UpdatePrinter(ctx context.Context, printerID string, fields Fields) (Printer, error) {
	result := s.db.WithContext(ctx).Model(&Printer{}).Where("id = ?", printerID).Updates(map[string]any(fields))
	if result.Error != nil {
		return Printer{}, notFoundOr(result.Error, "update printer "+printerID)
	}
	if result.RowsAffected == 0 {
		return Printer{}, notFoundOr(gorm.ErrRecordNotFound, "printer "+printerID)
	}

	return s.GetPrinter(ctx, printerID)
}

func (s *store) CreatePrintJob(ctx context.Context, job *PrintJob) error {
	return s.db.WithContext(ctx).Omit("Spool").Create(job).Error
}

func (s *store) ListPrintJobs(ctx context.Context, printerID string, limit int) ([]PrintJob, error) {
	var jobs []PrintJob

	err := s.db.WithContext(ctx).
		Preload("Spool").
		Preload("Spool.FilamentType").
		Where("printer_id = ?", printerID).
		Order("completed_at desc").
		Limit(limit).
		Find(&jobs).Error

	return jobs, err
}
