package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"medpedia/models"
)

func seedMedicine(t *testing.T, db *gorm.DB, name string, compoundID uint) *models.Medicine {
	t.Helper()
	medicine := &models.Medicine{
		Name:       name,
		Slug:       Slugify(name),
		CompoundID: compoundID,
	}
	require.NoError(t, db.Create(medicine).Error)
	return medicine
}

func relatedMedicines(t *testing.T, db *gorm.DB, compoundID uint) []uint {
	t.Helper()
	var compound models.Compound
	require.NoError(t, db.First(&compound, compoundID).Error)
	return []uint(compound.RelatedMedicines)
}

func TestAttachMedicineIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	compound := seedCompound(t, db, "Ibuprofen")
	medicine := seedMedicine(t, db, "Advil", compound.ID)

	require.NoError(t, AttachMedicine(db, compound.ID, medicine.ID))
	require.NoError(t, AttachMedicine(db, compound.ID, medicine.ID))

	assert.Equal(t, []uint{medicine.ID}, relatedMedicines(t, db, compound.ID))
}

func TestDetachMedicine(t *testing.T) {
	db := newTestDB(t)
	compound := seedCompound(t, db, "Ibuprofen")
	advil := seedMedicine(t, db, "Advil", compound.ID)
	motrin := seedMedicine(t, db, "Motrin", compound.ID)
	require.NoError(t, AttachMedicine(db, compound.ID, advil.ID))
	require.NoError(t, AttachMedicine(db, compound.ID, motrin.ID))

	require.NoError(t, DetachMedicine(db, compound.ID, advil.ID))
	assert.Equal(t, []uint{motrin.ID}, relatedMedicines(t, db, compound.ID))

	// Detaching again, and detaching from a missing compound, are no-ops.
	require.NoError(t, DetachMedicine(db, compound.ID, advil.ID))
	require.NoError(t, DetachMedicine(db, 9999, advil.ID))
}

func TestMoveMedicine(t *testing.T) {
	db := newTestDB(t)
	ibuprofen := seedCompound(t, db, "Ibuprofen")
	naproxen := seedCompound(t, db, "Naproxen")
	medicine := seedMedicine(t, db, "Advil", ibuprofen.ID)
	require.NoError(t, AttachMedicine(db, ibuprofen.ID, medicine.ID))

	require.NoError(t, MoveMedicine(db, ibuprofen.ID, naproxen.ID, medicine.ID))

	assert.Empty(t, relatedMedicines(t, db, ibuprofen.ID))
	assert.Equal(t, []uint{medicine.ID}, relatedMedicines(t, db, naproxen.ID))

	// Moving within the same compound leaves everything alone.
	require.NoError(t, MoveMedicine(db, naproxen.ID, naproxen.ID, medicine.ID))
	assert.Equal(t, []uint{medicine.ID}, relatedMedicines(t, db, naproxen.ID))
}

func TestReconcileRelationships(t *testing.T) {
	db := newTestDB(t)
	ibuprofen := seedCompound(t, db, "Ibuprofen")
	naproxen := seedCompound(t, db, "Naproxen")
	advil := seedMedicine(t, db, "Advil", ibuprofen.ID)
	motrin := seedMedicine(t, db, "Motrin", ibuprofen.ID)

	// Corrupt the lists: a stale entry on one compound, a missing one on the other.
	require.NoError(t, db.Model(ibuprofen).
		Update("related_medicines", datatypes.JSONSlice[uint]{advil.ID, 9999}).Error)
	require.NoError(t, db.Model(naproxen).
		Update("related_medicines", datatypes.JSONSlice[uint]{motrin.ID}).Error)

	changed, err := ReconcileRelationships(context.Background(), db, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	assert.ElementsMatch(t, []uint{advil.ID, motrin.ID}, relatedMedicines(t, db, ibuprofen.ID))
	assert.Empty(t, relatedMedicines(t, db, naproxen.ID))

	// A second pass finds nothing to repair.
	changed, err = ReconcileRelationships(context.Background(), db, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, changed)
}
