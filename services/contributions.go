package services

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"medpedia/models"
)

const (
	minDescriptionLength = 20

	defaultChemicalClass = "Unknown"
	defaultDosageInfo    = "Consult a healthcare professional for dosage information."
	defaultSafetyInfo    = "Please consult a healthcare professional."
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// ContributionService handles public submission intake and the admin
// approve/reject workflow, including materialization of approved content.
type ContributionService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewContributionService creates a new instance of the ContributionService.
func NewContributionService(db *gorm.DB, logger *zap.Logger) *ContributionService {
	return &ContributionService{DB: db, Logger: logger}
}

// SubmissionInput is the public contribution payload. Multi-value fields
// accept either a JSON array or a newline-delimited string, mirroring the
// contribute form.
type SubmissionInput struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`

	RelatedID        string `json:"relatedId"`
	CorrectionType   string `json:"correctionType"`
	CorrectionTarget string `json:"correctionTarget"`
	UserEmail        string `json:"userEmail"`

	// Compound-shaped fields
	Name              string      `json:"name"`
	ChemicalClass     string      `json:"chemical_class"`
	MechanismOfAction string      `json:"mechanism_of_action"`
	CommonUses        interface{} `json:"common_uses"`
	CommonSideEffects interface{} `json:"common_side_effects"`
	Warnings          string      `json:"warnings"`

	// Medicine-shaped fields
	Compound          string      `json:"compound"`
	BrandNames        interface{} `json:"brand_names"`
	GeneralUsageInfo  string      `json:"general_usage_info"`
	GeneralDosageInfo string      `json:"general_dosage_info"`
	Interactions      string      `json:"interactions"`
	SafetyInfo        string      `json:"safety_info"`
}

// multiValue normalizes an array- or newline-shaped value into a list of
// trimmed, non-empty strings. Order is preserved.
func multiValue(v interface{}) []string {
	var raw []string
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		raw = t
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case string:
		raw = strings.Split(t, "\n")
	default:
		return nil
	}
	var out []string
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Submit validates and normalizes a public submission and stores it as a
// pending Contribution. No Compound or Medicine record is touched here.
func (s *ContributionService) Submit(input SubmissionInput) (*models.Contribution, error) {
	ctype := models.ContributionType(strings.TrimSpace(input.Type))
	switch ctype {
	case models.ContributionCompound, models.ContributionMedicine, models.ContributionCorrection:
	default:
		return nil, validationErr("type", "invalid contribution type")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, validationErr("title", "title is required")
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, validationErr("description", "description is required")
	}
	if len(description) < minDescriptionLength {
		return nil, validationErr("description", "description must be at least 20 characters")
	}

	if !IsSafeContent(description) || !IsSafeContent(title) {
		return nil, ErrUnsafeContent
	}

	email := strings.ToLower(strings.TrimSpace(input.UserEmail))
	if email != "" && !emailPattern.MatchString(email) {
		return nil, validationErr("userEmail", "invalid email address")
	}

	contribution := models.Contribution{
		Type:        ctype,
		Title:       title,
		Description: description,
		UserEmail:   email,
		Status:      models.StatusPending,
	}

	switch ctype {
	case models.ContributionCorrection:
		target := strings.TrimSpace(input.CorrectionTarget)
		if target == "" {
			target = strings.TrimSpace(input.RelatedID)
		}
		if target == "" {
			return nil, validationErr("correctionTarget", "correction target is required")
		}
		kind := strings.TrimSpace(input.CorrectionType)
		if kind != "compound" && kind != "medicine" {
			return nil, validationErr("correctionType", "correction type must be compound or medicine")
		}
		contribution.RelatedID = target
		contribution.CorrectionType = kind
	case models.ContributionCompound:
		contribution.CompoundFields = datatypes.NewJSONType(models.CompoundSubmission{
			Name:              strings.TrimSpace(input.Name),
			ChemicalClass:     strings.TrimSpace(input.ChemicalClass),
			MechanismOfAction: strings.TrimSpace(input.MechanismOfAction),
			CommonUses:        multiValue(input.CommonUses),
			CommonSideEffects: multiValue(input.CommonSideEffects),
			Warnings:          strings.TrimSpace(input.Warnings),
		})
	case models.ContributionMedicine:
		contribution.MedicineFields = datatypes.NewJSONType(models.MedicineSubmission{
			Compound:          strings.TrimSpace(input.Compound),
			BrandNames:        multiValue(input.BrandNames),
			GeneralUsageInfo:  strings.TrimSpace(input.GeneralUsageInfo),
			GeneralDosageInfo: strings.TrimSpace(input.GeneralDosageInfo),
			Interactions:      strings.TrimSpace(input.Interactions),
			SafetyInfo:        strings.TrimSpace(input.SafetyInfo),
		})
	}

	if err := s.DB.Create(&contribution).Error; err != nil {
		s.Logger.Error("Failed to store contribution", zap.Error(err))
		return nil, err
	}
	return &contribution, nil
}

// Decide runs the moderation state machine for one contribution:
// pending -> approved|rejected, exactly once. The acting admin must be on the
// approved-names allowlist (the session check already happened at the HTTP
// layer). Status change, materialization and relationship updates share one
// transaction, so a failed approval leaves nothing behind.
func (s *ContributionService) Decide(id uint, action, adminName, notes string) (*models.Contribution, error) {
	if action != "approve" && action != "reject" {
		return nil, validationErr("action", "action must be approve or reject")
	}
	adminName = strings.TrimSpace(adminName)
	if adminName == "" {
		return nil, validationErr("admin_name", "admin name is required")
	}

	var contribution models.Contribution
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&contribution, id).Error; err != nil {
			return err
		}
		if contribution.Status != models.StatusPending {
			return ErrAlreadyDecided
		}

		// Allowlist check is deliberately separate from the session check:
		// any logged-in admin may browse, only approved names may decide.
		var approved models.ApprovedAdmin
		if err := tx.Where("name = ?", adminName).First(&approved).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotApprovedAdmin
			}
			return err
		}

		if action == "approve" {
			contribution.Status = models.StatusApproved
		} else {
			contribution.Status = models.StatusRejected
		}
		if notes != "" {
			contribution.AdminNotes = notes
		}
		contribution.AcceptedByName = &adminName
		contribution.AcceptedByAdminID = nil

		if contribution.Status == models.StatusApproved {
			if err := s.materialize(tx, &contribution); err != nil {
				return err
			}
		}

		return tx.Save(&contribution).Error
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("Contribution decided",
		zap.Uint("id", contribution.ID),
		zap.String("status", string(contribution.Status)),
		zap.String("admin", adminName))
	return &contribution, nil
}

// materialize turns an approved contribution into canonical Compound/Medicine
// changes. Matching on an existing record merges (description overwrite);
// otherwise a new record is created from the submitted payload.
func (s *ContributionService) materialize(tx *gorm.DB, c *models.Contribution) error {
	switch c.Type {
	case models.ContributionCompound:
		return s.materializeCompound(tx, c)
	case models.ContributionMedicine:
		return s.materializeMedicine(tx, c)
	case models.ContributionCorrection:
		return s.materializeCorrection(tx, c)
	}
	return nil
}

func (s *ContributionService) materializeCompound(tx *gorm.DB, c *models.Contribution) error {
	var existing models.Compound
	err := tx.Where("LOWER(name) = LOWER(?)", c.Title).First(&existing).Error
	if err == nil {
		return tx.Model(&existing).Update("description", c.Description).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	fields := c.CompoundFields.Data()
	slug, err := UniqueSlug(tx, &models.Compound{}, c.Title)
	if err != nil {
		return err
	}
	compound := models.Compound{
		Name:              c.Title,
		Slug:              slug,
		ChemicalClass:     firstNonEmpty(fields.ChemicalClass, defaultChemicalClass),
		Description:       c.Description,
		MechanismOfAction: firstNonEmpty(fields.MechanismOfAction, c.Description),
		CommonUses:        fields.CommonUses,
		CommonSideEffects: fields.CommonSideEffects,
		Warnings:          fields.Warnings,
	}
	return tx.Create(&compound).Error
}

func (s *ContributionService) materializeMedicine(tx *gorm.DB, c *models.Contribution) error {
	var existing models.Medicine
	err := tx.Where("LOWER(name) = LOWER(?)", c.Title).First(&existing).Error
	if err == nil {
		return tx.Model(&existing).Update("description", c.Description).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	fields := c.MedicineFields.Data()
	compound, err := resolveCompound(tx, fields.Compound)
	if err != nil {
		return err
	}

	slug, err := UniqueSlug(tx, &models.Medicine{}, c.Title)
	if err != nil {
		return err
	}
	medicine := models.Medicine{
		Name:              c.Title,
		Slug:              slug,
		CompoundID:        compound.ID,
		Description:       c.Description,
		BrandNames:        fields.BrandNames,
		GeneralUsageInfo:  firstNonEmpty(fields.GeneralUsageInfo, c.Description),
		GeneralDosageInfo: firstNonEmpty(fields.GeneralDosageInfo, defaultDosageInfo),
		Interactions:      fields.Interactions,
		SafetyInfo:        firstNonEmpty(fields.SafetyInfo, defaultSafetyInfo),
	}
	if err := tx.Create(&medicine).Error; err != nil {
		return err
	}
	return AttachMedicine(tx, compound.ID, medicine.ID)
}

// materializeCorrection resolves the target against both stores and overwrites
// the description of whichever matches. An unresolvable target is a no-op
// beyond the contribution's own status change.
func (s *ContributionService) materializeCorrection(tx *gorm.DB, c *models.Contribution) error {
	target := strings.TrimSpace(c.RelatedID)
	if target == "" {
		return nil
	}

	if compound, err := findCompoundByRef(tx, target); err == nil {
		return tx.Model(compound).Update("description", c.Description).Error
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if medicine, err := findMedicineByRef(tx, target); err == nil {
		return tx.Model(medicine).Update("description", c.Description).Error
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	s.Logger.Warn("Correction target matched no record",
		zap.Uint("contribution_id", c.ID), zap.String("target", target))
	return nil
}

// resolveCompound looks a compound up by id or name. A new medicine must name
// its compound; silently attaching to an arbitrary one is not acceptable.
func resolveCompound(tx *gorm.DB, ref string) (*models.Compound, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, validationErr("compound", "a compound reference is required to create a medicine")
	}
	compound, err := findCompoundByRef(tx, ref)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, validationErr("compound", "referenced compound does not exist")
	}
	return compound, err
}

// findCompoundByRef accepts a numeric id, a name (case-insensitive) or a slug.
func findCompoundByRef(tx *gorm.DB, ref string) (*models.Compound, error) {
	var compound models.Compound
	if id, err := strconv.ParseUint(ref, 10, 32); err == nil {
		if err := tx.First(&compound, uint(id)).Error; err == nil {
			return &compound, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	err := tx.Where("LOWER(name) = LOWER(?) OR slug = ?", ref, ref).First(&compound).Error
	if err != nil {
		return nil, err
	}
	return &compound, nil
}

// findMedicineByRef accepts a numeric id, a name (case-insensitive) or a slug.
func findMedicineByRef(tx *gorm.DB, ref string) (*models.Medicine, error) {
	var medicine models.Medicine
	if id, err := strconv.ParseUint(ref, 10, 32); err == nil {
		if err := tx.First(&medicine, uint(id)).Error; err == nil {
			return &medicine, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	err := tx.Where("LOWER(name) = LOWER(?) OR slug = ?", ref, ref).First(&medicine).Error
	if err != nil {
		return nil, err
	}
	return &medicine, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
