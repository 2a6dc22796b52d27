package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"medpedia/models"
)

// AttachMedicine adds a medicine id to its compound's related_medicines list.
// Set semantics: attaching twice leaves a single entry.
func AttachMedicine(db *gorm.DB, compoundID, medicineID uint) error {
	var compound models.Compound
	if err := db.First(&compound, compoundID).Error; err != nil {
		return err
	}
	for _, id := range compound.RelatedMedicines {
		if id == medicineID {
			return nil
		}
	}
	list := append(compound.RelatedMedicines, medicineID)
	return db.Model(&compound).Update("related_medicines", datatypes.JSONSlice[uint](list)).Error
}

// DetachMedicine removes a medicine id from a compound's related_medicines list.
func DetachMedicine(db *gorm.DB, compoundID, medicineID uint) error {
	var compound models.Compound
	if err := db.First(&compound, compoundID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	list := make([]uint, 0, len(compound.RelatedMedicines))
	for _, id := range compound.RelatedMedicines {
		if id != medicineID {
			list = append(list, id)
		}
	}
	if len(list) == len(compound.RelatedMedicines) {
		return nil
	}
	return db.Model(&compound).Update("related_medicines", datatypes.JSONSlice[uint](list)).Error
}

// MoveMedicine reassigns a medicine between compounds: pull from the old
// list, add to the new one.
func MoveMedicine(db *gorm.DB, oldCompoundID, newCompoundID, medicineID uint) error {
	if oldCompoundID == newCompoundID {
		return nil
	}
	if err := DetachMedicine(db, oldCompoundID, medicineID); err != nil {
		return err
	}
	return AttachMedicine(db, newCompoundID, medicineID)
}

// ReconcileRelationships rebuilds every compound's related_medicines list from
// the medicines' compound references. It repairs drift left behind by crashes
// between the independent writes of older data, and runs nightly via cron.
// Returns the number of compounds whose list changed.
func ReconcileRelationships(ctx context.Context, db *gorm.DB, logger *zap.Logger) (int, error) {
	var compounds []models.Compound
	if err := db.WithContext(ctx).Find(&compounds).Error; err != nil {
		return 0, err
	}

	changed := 0
	for _, compound := range compounds {
		var ids []uint
		err := db.WithContext(ctx).
			Model(&models.Medicine{}).
			Where("compound_id = ?", compound.ID).
			Order("id").
			Pluck("id", &ids).Error
		if err != nil {
			return changed, err
		}
		if equalIDs(compound.RelatedMedicines, ids) {
			continue
		}
		err = db.WithContext(ctx).
			Model(&compound).
			Update("related_medicines", datatypes.JSONSlice[uint](ids)).Error
		if err != nil {
			return changed, err
		}
		logger.Info("Repaired related_medicines",
			zap.Uint("compound_id", compound.ID),
			zap.Int("medicines", len(ids)))
		changed++
	}
	return changed, nil
}

func equalIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[uint]bool, len(a))
	for _, id := range a {
		seen[id] = true
	}
	for _, id := range b {
		if !seen[id] {
			return false
		}
	}
	return true
}
