package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"medpedia/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A named shared-cache database keeps the schema visible across pooled
	// connections while staying isolated per test.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Compound{}, &models.Medicine{}, &models.Contribution{},
		&models.AdminUser{}, &models.ApprovedAdmin{},
	))
	return db
}

func newTestService(t *testing.T) (*ContributionService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewContributionService(db, zap.NewNop()), db
}

func seedApprovedAdmin(t *testing.T, db *gorm.DB, name string) {
	t.Helper()
	require.NoError(t, db.Create(&models.ApprovedAdmin{Name: name}).Error)
}

func seedCompound(t *testing.T, db *gorm.DB, name string) *models.Compound {
	t.Helper()
	compound := &models.Compound{
		Name:          name,
		Slug:          Slugify(name),
		ChemicalClass: "NSAID",
		Description:   "A well known compound used in many products.",
	}
	require.NoError(t, db.Create(compound).Error)
	return compound
}

const validDescription = "A useful over-the-counter remedy for everyday aches."

func TestSubmitRejectsInvalidType(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Submit(SubmissionInput{Type: "recipe", Title: "X", Description: validDescription})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "type", verr.Field)
}

func TestSubmitRequiresTitle(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Submit(SubmissionInput{Type: "compound", Title: "   ", Description: validDescription})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)
}

func TestSubmitDescriptionLengthBoundary(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Submit(SubmissionInput{
		Type:        "compound",
		Title:       "Naproxen",
		Description: strings.Repeat("a", 19),
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "description", verr.Field)

	contribution, err := svc.Submit(SubmissionInput{
		Type:        "compound",
		Title:       "Naproxen",
		Description: strings.Repeat("a", 20),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, contribution.Status)
}

func TestSubmitRejectsUnsafeContent(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Submit(SubmissionInput{
		Type:        "compound",
		Title:       "Naproxen",
		Description: "Here is the step-by-step synthesis for this compound.",
	})
	assert.ErrorIs(t, err, ErrUnsafeContent)
}

func TestSubmitRejectsBadEmail(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Submit(SubmissionInput{
		Type:        "compound",
		Title:       "Naproxen",
		Description: validDescription,
		UserEmail:   "not-an-email",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "userEmail", verr.Field)
}

func TestSubmitCorrectionRequiresTarget(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Submit(SubmissionInput{
		Type:           "correction",
		Title:          "Fix ibuprofen description",
		Description:    validDescription,
		CorrectionType: "compound",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "correctionTarget", verr.Field)
}

func TestSubmitCorrectionNormalizesTarget(t *testing.T) {
	svc, db := newTestService(t)

	contribution, err := svc.Submit(SubmissionInput{
		Type:             "correction",
		Title:            "Fix ibuprofen description",
		Description:      validDescription,
		CorrectionType:   "compound",
		CorrectionTarget: " 42 ",
	})
	require.NoError(t, err)
	assert.Equal(t, "42", contribution.RelatedID)
	assert.Equal(t, "compound", contribution.CorrectionType)

	var stored models.Contribution
	require.NoError(t, db.First(&stored, contribution.ID).Error)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestSubmitNormalizesMultiValueFields(t *testing.T) {
	svc, _ := newTestService(t)

	contribution, err := svc.Submit(SubmissionInput{
		Type:        "medicine",
		Title:       "Advil",
		Description: validDescription,
		BrandNames:  "Advil\n  Advil Liqui-Gels \n\n",
		Compound:    "1",
	})
	require.NoError(t, err)

	fields := contribution.MedicineFields.Data()
	assert.Equal(t, []string{"Advil", "Advil Liqui-Gels"}, fields.BrandNames)
}

func TestDecideInvalidAction(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Decide(1, "escalate", "Jane Doe", "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "action", verr.Field)
}

func TestDecideNotFound(t *testing.T) {
	svc, db := newTestService(t)
	seedApprovedAdmin(t, db, "Jane Doe")

	_, err := svc.Decide(999, "approve", "Jane Doe", "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDecideRejectsUnlistedAdmin(t *testing.T) {
	svc, db := newTestService(t)
	seedApprovedAdmin(t, db, "Jane Doe")

	contribution, err := svc.Submit(SubmissionInput{
		Type: "compound", Title: "Naproxen", Description: validDescription,
	})
	require.NoError(t, err)

	_, err = svc.Decide(contribution.ID, "approve", "John Impostor", "")
	assert.ErrorIs(t, err, ErrNotApprovedAdmin)

	var stored models.Contribution
	require.NoError(t, db.First(&stored, contribution.ID).Error)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Nil(t, stored.AcceptedByName)
}

func TestDecideApproveSetsAcceptedBy(t *testing.T) {
	svc, db := newTestService(t)
	seedApprovedAdmin(t, db, "Jane Doe")

	contribution, err := svc.Submit(SubmissionInput{
		Type: "compound", Title: "Naproxen", Description: validDescription,
	})
	require.NoError(t, err)

	decided, err := svc.Decide(contribution.ID, "approve", "Jane Doe", "looks good")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, decided.Status)
	require.NotNil(t, decided.AcceptedByName)
	assert.Equal(t, "Jane Doe", *decided.AcceptedByName)
	assert.Nil(t, decided.AcceptedByAdminID)
	assert.Equal(t, "looks good", decided.AdminNotes)
}

func TestDecideTwiceFails(t *testing.T) {
	svc, db := newTestService(t)
	seedApprovedAdmin(t, db, "Jane Doe")

	contribution, err := svc.Submit(SubmissionInput{
		Type: "compound", Title: "Naproxen", Description: validDescription,
	})
	require.NoError(t, err)

	_, err = svc.Decide(contribution.ID, "reject", "Jane Doe", "")
	require.NoError(t, err)

	_, err = svc.Decide(contribution.ID, "approve", "Jane Doe", "")
	assert.ErrorIs(t, err, ErrAlreadyDecided)
}

func TestRejectDoesNotMaterialize(t *testing.T) {
	svc, db := newTestService(t)
	seedApprovedAdmin(t, db, "Jane Doe")
	seedCompound(t, db, "Ibuprofen")

	contribution, err := svc.Submit(SubmissionInput{
		Type: "medicine", Title: "Advil", Description: validDescription, Compound: "Ibuprofen",
	})
	require.NoError(t, err)

	decided, err := svc.Decide(contribution.ID, "reject", "Jane Doe", "not enough detail")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, decided.Status)

	var medicineCount int64
	require.NoError(t, db.Model(&models.Medicine{}).Count(&medicineCount).Error)
	assert.Zero(t, medicineCount)
}

func TestApproveCompoundMergesIntoExisting(t *testing.T) {
	svc, db := newTestService(t)
	seedApprovedAdmin(t, db, "Jane Doe")
	existing := seedCompound(t, db, "Ibuprofen")

	contribution, err := svc.Submit(SubmissionInput{
		Type:        "compound",
		Title:       "ibuprofen", // case-insensitive match against the existing record
		Description: "An updated, clearer description of this compound.",
	})
	require.NoError(t, err)

	var before int64
	require.NoError(t, db.Model(&models.Compound{}).Count(&before).Error)

	_, err = svc.Decide(contribution.ID, "approve", "Jane Doe", "")
	require.NoError(t, err)

	var after int64
	require.NoError(t, db.Model(&models.Compound{}).Count(&after).Error)
	assert.Equal(t, before, after)

	var updated models.Compound
	require.NoError(t, db.First(&updated, existing.ID).Error)
	assert.Equal(t, "An updated, clearer description of this compound.", updated.Description)
	assert.Equal(t, "NSAID", updated.ChemicalClass)
}

func TestApproveCompoundCreatesNewRecord(t *testing.T) {
	svc, db := newTestService(t)
	seedApprovedAdmin(t, db, "Jane Doe")

	contribution, err := svc.Submit(SubmissionInput{
		Type:        "compound",
		Title:       "Naproxen",
		Description: validDescription,
		CommonUses:  []interface{}{"Pain relief", "Inflammation"},
	})
	require.NoError(t, err)

	_, err = svc.Decide(contribution.ID, "approve", "Jane Doe", "")
	require.NoError(t, err)

	var compound models.Compound
	require.NoError(t, db.Where("name = ?", "Naproxen").First(&compound).Error)
	assert.Equal(t, "naproxen", compound.Slug)
	assert.Equal(t, "Unknown", compound.ChemicalClass)
	assert.Equal(t, validDescription, compound.Description)
	assert.Equal(t, []string{"Pain relief", "Inflammation"}, []string(compound.CommonUses))
}

func TestApproveMedicineEndToEnd(t *testing.T) {
	svc, db := newTestService(t)
	seedApprovedAdmin(t, db, "Jane Doe")
	ibuprofen := seedCompound(t, db, "Ibuprofen")

	contribution, err := svc.Submit(SubmissionInput{
		Type:             "medicine",
		Title:            "Advil",
		Description:      "Advil is a brand of ibuprofen used for pain relief and fever reduction.",
		Compound:         fmt.Sprint(ibuprofen.ID),
		GeneralUsageInfo: "Used for headaches and minor aches.",
		SafetyInfo:       "Keep out of reach of children.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, contribution.Status)

	decided, err := svc.Decide(contribution.ID, "approve", "Jane Doe", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, decided.Status)

	var medicine models.Medicine
	require.NoError(t, db.Where("name = ?", "Advil").First(&medicine).Error)
	assert.Equal(t, ibuprofen.ID, medicine.CompoundID)
	assert.Equal(t, "advil", medicine.Slug)
	assert.Equal(t, "Used for headaches and minor aches.", medicine.GeneralUsageInfo)
	assert.Equal(t, "Consult a healthcare professional for dosage information.", medicine.GeneralDosageInfo)

	var compound models.Compound
	require.NoError(t, db.First(&compound, ibuprofen.ID).Error)
	assert.Contains(t, []uint(compound.RelatedMedicines), medicine.ID)
}

func TestApproveMedicineWithoutCompoundFails(t *testing.T) {
	svc, db := newTestService(t)
	seedApprovedAdmin(t, db, "Jane Doe")

	contribution, err := svc.Submit(SubmissionInput{
		Type:        "medicine",
		Title:       "Advil",
		Description: validDescription,
	})
	require.NoError(t, err)

	_, err = svc.Decide(contribution.ID, "approve", "Jane Doe", "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "compound", verr.Field)

	// The whole approval rolls back: the contribution is still pending.
	var stored models.Contribution
	require.NoError(t, db.First(&stored, contribution.ID).Error)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestApproveMedicineMergesIntoExisting(t *testing.T) {
	svc, db := newTestService(t)
	seedApprovedAdmin(t, db, "Jane Doe")
	ibuprofen := seedCompound(t, db, "Ibuprofen")

	existing := models.Medicine{
		Name:             "Advil",
		Slug:             "advil",
		CompoundID:       ibuprofen.ID,
		Description:      "Old description.",
		GeneralUsageInfo: "Used for aches.",
		SafetyInfo:       "Please consult a healthcare professional.",
	}
	require.NoError(t, db.Create(&existing).Error)

	contribution, err := svc.Submit(SubmissionInput{
		Type:        "medicine",
		Title:       "advil",
		Description: "A fresher description of this familiar medicine.",
	})
	require.NoError(t, err)

	_, err = svc.Decide(contribution.ID, "approve", "Jane Doe", "")
	require.NoError(t, err)

	var updated models.Medicine
	require.NoError(t, db.First(&updated, existing.ID).Error)
	assert.Equal(t, "A fresher description of this familiar medicine.", updated.Description)

	var count int64
	require.NoError(t, db.Model(&models.Medicine{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestApproveCorrectionUpdatesCompound(t *testing.T) {
	svc, db := newTestService(t)
	seedApprovedAdmin(t, db, "Jane Doe")
	compound := seedCompound(t, db, "Ibuprofen")

	contribution, err := svc.Submit(SubmissionInput{
		Type:             "correction",
		Title:            "Clarify mechanism wording",
		Description:      "A corrected description for the compound entry.",
		CorrectionType:   "compound",
		CorrectionTarget: fmt.Sprint(compound.ID),
	})
	require.NoError(t, err)

	_, err = svc.Decide(contribution.ID, "approve", "Jane Doe", "")
	require.NoError(t, err)

	var updated models.Compound
	require.NoError(t, db.First(&updated, compound.ID).Error)
	assert.Equal(t, "A corrected description for the compound entry.", updated.Description)
}

func TestApproveCorrectionUnresolvableTargetIsNoOp(t *testing.T) {
	svc, db := newTestService(t)
	seedApprovedAdmin(t, db, "Jane Doe")
	seedCompound(t, db, "Ibuprofen")

	contribution, err := svc.Submit(SubmissionInput{
		Type:             "correction",
		Title:            "Fix something",
		Description:      validDescription,
		CorrectionType:   "compound",
		CorrectionTarget: "does-not-exist",
	})
	require.NoError(t, err)

	decided, err := svc.Decide(contribution.ID, "approve", "Jane Doe", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, decided.Status)

	var compound models.Compound
	require.NoError(t, db.Where("name = ?", "Ibuprofen").First(&compound).Error)
	assert.Equal(t, "A well known compound used in many products.", compound.Description)
}
