package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"medpedia/config"
	"medpedia/models"
	"medpedia/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	contributionsSubmitted prometheus.Counter
	contributionsApproved  prometheus.Counter
	contributionsRejected  prometheus.Counter
)

func init() {
	contributionsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "contributions_submitted_total",
		Help: "Total number of contributions submitted by the public.",
	})
	contributionsApproved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "contributions_approved_total",
		Help: "Total number of contributions approved by admins.",
	})
	contributionsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "contributions_rejected_total",
		Help: "Total number of contributions rejected by admins.",
	})
	prometheus.MustRegister(contributionsSubmitted, contributionsApproved, contributionsRejected)
}

// authRequiredMiddleware validates the bearer token issued by /auth/login.
// It only asserts "some admin is logged in"; the moderation allowlist check
// happens separately in the contribution service.
func authRequiredMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if email, ok := claims["email"].(string); ok {
				c.Set("admin_email", email)
			}
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to database.")

	// Auto-Migration
	if gin.Mode() == gin.DebugMode {
		logging.Info("Debug mode detected. Dropping tables for fresh start.")
		db.Migrator().DropTable(&models.Compound{}, &models.Medicine{}, &models.Contribution{},
			&models.AdminUser{}, &models.ApprovedAdmin{})
	}
	logging.Info("Running database auto-migration...")
	db.AutoMigrate(&models.Compound{}, &models.Medicine{}, &models.Contribution{},
		&models.AdminUser{}, &models.ApprovedAdmin{})

	// Seeding
	seedAdminUser(db, cfg, logging)
	seedApprovedAdmins(db, cfg, logging)
	seedStarterContent(db, logging)

	// Setup Services
	contributionService := services.NewContributionService(db, logging)

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authRequired := authRequiredMiddleware(cfg)

	// Setup Routes
	setupAuthRoutes(router, db, cfg, logging)
	setupCompoundRoutes(router, db, logging, authRequired)
	setupMedicineRoutes(router, db, logging, authRequired)
	setupSearchRoutes(router, db, logging)
	setupContributionRoutes(router, contributionService, db, logging, authRequired)
	setupAdminNameRoutes(router, db, logging, authRequired)
	setupSitemapRoutes(router, db, cfg, logging)

	// Setup Cron
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled relationship reconciliation...")
		changed, err := services.ReconcileRelationships(context.Background(), db, logging)
		if err != nil {
			logging.Error("Reconciliation job failed", zap.Error(err))
		} else {
			logging.Info("Reconciliation job completed", zap.Int("compounds_repaired", changed))
		}
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func setupAuthRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, log *zap.Logger) {
	rg := router.Group("/auth")

	// POST - Admin login, returns a bearer token
	rg.POST("/login", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}

		var admin models.AdminUser
		err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&admin).Error
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		now := time.Now()
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":   admin.ID,
			"email": admin.Email,
			"iat":   now.Unix(),
			"exp":   now.Add(time.Duration(cfg.TokenTTLHours) * time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte(cfg.JWTSecret))
		if err != nil {
			log.Error("Failed to sign session token", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": signed})
	})
}

type compoundInput struct {
	Name              string   `json:"name"`
	ChemicalClass     string   `json:"chemical_class"`
	Description       string   `json:"description"`
	MechanismOfAction string   `json:"mechanism_of_action"`
	CommonUses        []string `json:"common_uses"`
	CommonSideEffects []string `json:"common_side_effects"`
	Warnings          string   `json:"warnings"`
}

func setupCompoundRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger, authRequired gin.HandlerFunc) {
	rg := router.Group("/compounds")

	// GET - List compounds, optional case-insensitive search
	rg.GET("/", func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		query := db.Model(&models.Compound{})
		if search := c.Query("search"); search != "" {
			pattern := "%" + search + "%"
			query = query.Where("name ILIKE ? OR description ILIKE ? OR chemical_class ILIKE ?",
				pattern, pattern, pattern)
		}
		var compounds []models.Compound
		if err := query.Order("created_at desc").Limit(limit).Find(&compounds).Error; err != nil {
			log.Error("Database query for compounds failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, compounds)
	})

	// GET - Single compound by numeric id or slug
	rg.GET("/:id", func(c *gin.Context) {
		compound, err := findCompound(db, c.Param("id"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "compound not found"})
				return
			}
			log.Error("DB error fetching compound", zap.String("id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, compound)
	})

	// POST - Create compound (admin, safety-gated)
	rg.POST("/", authRequired, func(c *gin.Context) {
		var input compoundInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if strings.TrimSpace(input.Name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		if !services.IsSafeContent(input.Description + " " + input.MechanismOfAction + " " + input.Warnings) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content contains prohibited information"})
			return
		}

		slug, err := services.UniqueSlug(db, &models.Compound{}, input.Name)
		if err != nil {
			log.Error("Slug generation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		compound := models.Compound{
			Name:              strings.TrimSpace(input.Name),
			Slug:              slug,
			ChemicalClass:     input.ChemicalClass,
			Description:       input.Description,
			MechanismOfAction: input.MechanismOfAction,
			CommonUses:        input.CommonUses,
			CommonSideEffects: input.CommonSideEffects,
			Warnings:          input.Warnings,
		}
		if err := db.Create(&compound).Error; err != nil {
			log.Error("Failed to create compound", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create compound"})
			return
		}
		log.Info("Compound created", zap.Uint("id", compound.ID), zap.String("name", compound.Name))
		c.JSON(http.StatusCreated, compound)
	})

	// PUT - Update compound (admin, safety-gated, re-slugs on rename)
	rg.PUT("/:id", authRequired, func(c *gin.Context) {
		compound, err := findCompound(db, c.Param("id"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "compound not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		var input compoundInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if !services.IsSafeContent(input.Description + " " + input.MechanismOfAction + " " + input.Warnings) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content contains prohibited information"})
			return
		}

		if name := strings.TrimSpace(input.Name); name != "" && name != compound.Name {
			slug, err := services.UniqueSlug(db, &models.Compound{}, name)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
				return
			}
			compound.Name = name
			compound.Slug = slug
		}
		if input.ChemicalClass != "" {
			compound.ChemicalClass = input.ChemicalClass
		}
		if input.Description != "" {
			compound.Description = input.Description
		}
		if input.MechanismOfAction != "" {
			compound.MechanismOfAction = input.MechanismOfAction
		}
		if input.CommonUses != nil {
			compound.CommonUses = input.CommonUses
		}
		if input.CommonSideEffects != nil {
			compound.CommonSideEffects = input.CommonSideEffects
		}
		if input.Warnings != "" {
			compound.Warnings = input.Warnings
		}

		if err := db.Save(compound).Error; err != nil {
			log.Error("Failed to update compound", zap.Uint("id", compound.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update compound"})
			return
		}
		c.JSON(http.StatusOK, compound)
	})

	// DELETE - Remove compound (admin). Refused while medicines reference it.
	rg.DELETE("/:id", authRequired, func(c *gin.Context) {
		compound, err := findCompound(db, c.Param("id"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "compound not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		var referencing int64
		if err := db.Model(&models.Medicine{}).Where("compound_id = ?", compound.ID).Count(&referencing).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if referencing > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": services.ErrCompoundReferenced.Error()})
			return
		}
		if err := db.Delete(compound).Error; err != nil {
			log.Error("Failed to delete compound", zap.Uint("id", compound.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete compound"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": compound.ID})
	})
}

type medicineInput struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Compound          uint     `json:"compound"`
	BrandNames        []string `json:"brand_names"`
	GeneralUsageInfo  string   `json:"general_usage_info"`
	GeneralDosageInfo string   `json:"general_dosage_info"`
	Interactions      string   `json:"interactions"`
	SafetyInfo        string   `json:"safety_info"`
}

func (m medicineInput) freeText() string {
	return m.Description + " " + m.GeneralUsageInfo + " " + m.GeneralDosageInfo + " " + m.SafetyInfo
}

func setupMedicineRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger, authRequired gin.HandlerFunc) {
	rg := router.Group("/medicines")

	// GET - List medicines, optional search and compound filter
	rg.GET("/", func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		query := db.Model(&models.Medicine{})
		if search := c.Query("search"); search != "" {
			pattern := "%" + search + "%"
			query = query.Where("name ILIKE ? OR description ILIKE ?", pattern, pattern)
		}
		if compound := c.Query("compound"); compound != "" {
			query = query.Where("compound_id = ?", compound)
		}
		var medicines []models.Medicine
		if err := query.Order("created_at desc").Limit(limit).Find(&medicines).Error; err != nil {
			log.Error("Database query for medicines failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, medicines)
	})

	// GET - Single medicine by numeric id or slug
	rg.GET("/:id", func(c *gin.Context) {
		medicine, err := findMedicine(db, c.Param("id"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "medicine not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, medicine)
	})

	// POST - Create medicine (admin, safety-gated, maintains the back-reference)
	rg.POST("/", authRequired, func(c *gin.Context) {
		var input medicineInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if strings.TrimSpace(input.Name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		if !services.IsSafeContent(input.freeText()) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content contains prohibited information"})
			return
		}

		var compound models.Compound
		if err := db.First(&compound, input.Compound).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "referenced compound does not exist"})
			return
		}

		var medicine models.Medicine
		err := db.Transaction(func(tx *gorm.DB) error {
			slug, err := services.UniqueSlug(tx, &models.Medicine{}, input.Name)
			if err != nil {
				return err
			}
			medicine = models.Medicine{
				Name:              strings.TrimSpace(input.Name),
				Slug:              slug,
				CompoundID:        compound.ID,
				Description:       input.Description,
				BrandNames:        input.BrandNames,
				GeneralUsageInfo:  input.GeneralUsageInfo,
				GeneralDosageInfo: input.GeneralDosageInfo,
				Interactions:      input.Interactions,
				SafetyInfo:        input.SafetyInfo,
			}
			if err := tx.Create(&medicine).Error; err != nil {
				return err
			}
			return services.AttachMedicine(tx, compound.ID, medicine.ID)
		})
		if err != nil {
			log.Error("Failed to create medicine", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create medicine"})
			return
		}
		log.Info("Medicine created", zap.Uint("id", medicine.ID), zap.String("name", medicine.Name))
		c.JSON(http.StatusCreated, medicine)
	})

	// PUT - Update medicine (admin). A compound change moves the back-reference.
	rg.PUT("/:id", authRequired, func(c *gin.Context) {
		medicine, err := findMedicine(db, c.Param("id"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "medicine not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		var input medicineInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if !services.IsSafeContent(input.freeText()) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content contains prohibited information"})
			return
		}

		oldCompoundID := medicine.CompoundID
		if input.Compound != 0 && input.Compound != oldCompoundID {
			var compound models.Compound
			if err := db.First(&compound, input.Compound).Error; err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "referenced compound does not exist"})
				return
			}
			medicine.CompoundID = input.Compound
		}
		if name := strings.TrimSpace(input.Name); name != "" && name != medicine.Name {
			slug, err := services.UniqueSlug(db, &models.Medicine{}, name)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
				return
			}
			medicine.Name = name
			medicine.Slug = slug
		}
		if input.Description != "" {
			medicine.Description = input.Description
		}
		if input.BrandNames != nil {
			medicine.BrandNames = input.BrandNames
		}
		if input.GeneralUsageInfo != "" {
			medicine.GeneralUsageInfo = input.GeneralUsageInfo
		}
		if input.GeneralDosageInfo != "" {
			medicine.GeneralDosageInfo = input.GeneralDosageInfo
		}
		if input.Interactions != "" {
			medicine.Interactions = input.Interactions
		}
		if input.SafetyInfo != "" {
			medicine.SafetyInfo = input.SafetyInfo
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(medicine).Error; err != nil {
				return err
			}
			return services.MoveMedicine(tx, oldCompoundID, medicine.CompoundID, medicine.ID)
		})
		if err != nil {
			log.Error("Failed to update medicine", zap.Uint("id", medicine.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update medicine"})
			return
		}
		c.JSON(http.StatusOK, medicine)
	})

	// DELETE - Remove medicine (admin) and detach it from its compound
	rg.DELETE("/:id", authRequired, func(c *gin.Context) {
		medicine, err := findMedicine(db, c.Param("id"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "medicine not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := services.DetachMedicine(tx, medicine.CompoundID, medicine.ID); err != nil {
				return err
			}
			return tx.Delete(medicine).Error
		})
		if err != nil {
			log.Error("Failed to delete medicine", zap.Uint("id", medicine.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete medicine"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": medicine.ID})
	})
}

func setupSearchRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger) {
	// GET - Global search across compounds and medicines
	router.GET("/search", func(c *gin.Context) {
		q := strings.TrimSpace(c.Query("q"))
		if q == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "search query is required"})
			return
		}
		pattern := "%" + q + "%"

		var compounds []models.Compound
		err := db.Where("name ILIKE ? OR description ILIKE ? OR chemical_class ILIKE ?",
			pattern, pattern, pattern).Limit(10).Find(&compounds).Error
		if err != nil {
			log.Error("Compound search failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var medicines []models.Medicine
		err = db.Where("name ILIKE ? OR description ILIKE ? OR CAST(brand_names AS TEXT) ILIKE ?",
			pattern, pattern, pattern).Limit(10).Find(&medicines).Error
		if err != nil {
			log.Error("Medicine search failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"compounds": compounds,
			"medicines": medicines,
			"total":     len(compounds) + len(medicines),
		})
	})
}

func setupContributionRoutes(router *gin.Engine, svc *services.ContributionService, db *gorm.DB, log *zap.Logger, authRequired gin.HandlerFunc) {
	rg := router.Group("/contributions")

	// POST - Public contribution submission
	rg.POST("/", func(c *gin.Context) {
		var input services.SubmissionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		contribution, err := svc.Submit(input)
		if err != nil {
			var verr *services.ValidationError
			switch {
			case errors.As(err, &verr):
				c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
			case errors.Is(err, services.ErrUnsafeContent):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Content contains prohibited information. Please remove any synthesis instructions or harmful guidance."})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit contribution"})
			}
			return
		}
		contributionsSubmitted.Inc()
		c.JSON(http.StatusCreated, gin.H{"id": contribution.ID})
	})

	// GET - List contributions with status/type filters (admin)
	rg.GET("/", authRequired, func(c *gin.Context) {
		query := db.Model(&models.Contribution{})
		if status := c.Query("status"); status != "" {
			switch models.ContributionStatus(status) {
			case models.StatusPending, models.StatusApproved, models.StatusRejected:
				query = query.Where("status = ?", status)
			}
		}
		if ctype := c.Query("type"); ctype != "" {
			switch models.ContributionType(ctype) {
			case models.ContributionCompound, models.ContributionMedicine, models.ContributionCorrection:
				query = query.Where("type = ?", ctype)
			}
		}
		var contributions []models.Contribution
		if err := query.Order("created_at desc").Find(&contributions).Error; err != nil {
			log.Error("Database query for contributions failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, contributions)
	})

	// GET - Single contribution (admin)
	rg.GET("/:id", authRequired, func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var contribution models.Contribution
		if err := db.First(&contribution, uint(id)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "contribution not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, contribution)
	})

	// PUT - Approve or reject (admin session + approved-name allowlist)
	rg.PUT("/:id/decision", authRequired, func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var req struct {
			Action    string `json:"action" binding:"required"`
			AdminName string `json:"admin_name" binding:"required"`
			Notes     string `json:"notes"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "action and admin_name are required"})
			return
		}

		contribution, err := svc.Decide(uint(id), req.Action, req.AdminName, req.Notes)
		if err != nil {
			var verr *services.ValidationError
			switch {
			case errors.As(err, &verr):
				c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
			case errors.Is(err, gorm.ErrRecordNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "contribution not found"})
			case errors.Is(err, services.ErrNotApprovedAdmin):
				c.JSON(http.StatusForbidden, gin.H{"error": "admin name is not on the approved list"})
			case errors.Is(err, services.ErrAlreadyDecided):
				c.JSON(http.StatusConflict, gin.H{"error": "contribution has already been decided"})
			default:
				log.Error("Failed to decide contribution", zap.Uint64("id", id), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update contribution"})
			}
			return
		}

		if contribution.Status == models.StatusApproved {
			contributionsApproved.Inc()
		} else {
			contributionsRejected.Inc()
		}
		c.JSON(http.StatusOK, contribution)
	})

	// DELETE - Destructive removal, distinct from the reject transition (admin)
	rg.DELETE("/:id", authRequired, func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		result := db.Delete(&models.Contribution{}, uint(id))
		if result.Error != nil {
			log.Error("Failed to delete contribution", zap.Uint64("id", id), zap.Error(result.Error))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete contribution"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "contribution not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": id})
	})
}

func setupAdminNameRoutes(router *gin.Engine, db *gorm.DB, log *zap.Logger, authRequired gin.HandlerFunc) {
	rg := router.Group("/admin-names")

	rg.GET("/", authRequired, func(c *gin.Context) {
		var names []models.ApprovedAdmin
		if err := db.Order("name").Find(&names).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, names)
	})

	rg.POST("/", authRequired, func(c *gin.Context) {
		var req struct {
			Name string `json:"name" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		entry := models.ApprovedAdmin{Name: strings.TrimSpace(req.Name)}
		if entry.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		if err := db.Create(&entry).Error; err != nil {
			log.Error("Failed to add approved admin", zap.String("name", entry.Name), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add approved admin"})
			return
		}
		c.JSON(http.StatusCreated, entry)
	})
}

func setupSitemapRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, log *zap.Logger) {
	// GET - Sitemap with all public compound/medicine pages
	router.GET("/sitemap.xml", func(c *gin.Context) {
		var compoundSlugs, medicineSlugs []string
		if err := db.Model(&models.Compound{}).Order("slug").Pluck("slug", &compoundSlugs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if err := db.Model(&models.Medicine{}).Order("slug").Pluck("slug", &medicineSlugs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
		b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
		writeURL := func(path string) {
			b.WriteString("  <url><loc>" + cfg.SiteURL + path + "</loc></url>\n")
		}
		writeURL("/")
		writeURL("/compounds")
		writeURL("/medicines")
		for _, slug := range compoundSlugs {
			writeURL("/compound/" + slug)
		}
		for _, slug := range medicineSlugs {
			writeURL("/medicine/" + slug)
		}
		b.WriteString("</urlset>\n")

		c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(b.String()))
	})
}

// findCompound resolves a route parameter as numeric id first, then as slug.
func findCompound(db *gorm.DB, param string) (*models.Compound, error) {
	var compound models.Compound
	if id, err := strconv.ParseUint(param, 10, 32); err == nil {
		if err := db.First(&compound, uint(id)).Error; err == nil {
			return &compound, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if err := db.Where("slug = ?", param).First(&compound).Error; err != nil {
		return nil, err
	}
	return &compound, nil
}

// findMedicine resolves a route parameter as numeric id first, then as slug.
func findMedicine(db *gorm.DB, param string) (*models.Medicine, error) {
	var medicine models.Medicine
	if id, err := strconv.ParseUint(param, 10, 32); err == nil {
		if err := db.First(&medicine, uint(id)).Error; err == nil {
			return &medicine, nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if err := db.Where("slug = ?", param).First(&medicine).Error; err != nil {
		return nil, err
	}
	return &medicine, nil
}

func seedAdminUser(db *gorm.DB, cfg *config.Config, logger *zap.Logger) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}
	var count int64
	db.Model(&models.AdminUser{}).Count(&count)
	if count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Warn("Failed to hash seed admin password", zap.Error(err))
		return
	}
	admin := models.AdminUser{
		Email:        strings.ToLower(strings.TrimSpace(cfg.AdminEmail)),
		PasswordHash: string(hash),
	}
	if err := db.Create(&admin).Error; err != nil {
		logger.Warn("Failed to seed admin user", zap.Error(err))
	} else {
		logger.Info("Default admin user seeded.", zap.String("email", admin.Email))
	}
}

func seedApprovedAdmins(db *gorm.DB, cfg *config.Config, logger *zap.Logger) {
	for _, name := range strings.Split(cfg.ApprovedAdmins, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		entry := models.ApprovedAdmin{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&entry).Error; err != nil {
			logger.Warn("Failed to seed approved admin", zap.String("name", name), zap.Error(err))
		}
	}
}

func seedStarterContent(db *gorm.DB, logger *zap.Logger) {
	var count int64
	db.Model(&models.Compound{}).Count(&count)
	if count > 0 {
		return
	}

	acetaminophen := models.Compound{
		Name:              "Acetaminophen",
		Slug:              "acetaminophen",
		ChemicalClass:     "Analgesic and Antipyretic",
		Description:       "Acetaminophen, also known as paracetamol, is a widely used over-the-counter pain reliever and fever reducer.",
		MechanismOfAction: "Inhibits prostaglandin synthesis in the central nervous system, reducing pain perception and lowering fever.",
		CommonUses:        []string{"Relief of mild to moderate pain", "Reduction of fever"},
		CommonSideEffects: []string{"Nausea", "Stomach pain", "Liver damage (with overdose)"},
		Warnings:          "Do not exceed the recommended dose. Avoid alcohol while taking this medication. Consult a healthcare provider if symptoms persist.",
	}
	ibuprofen := models.Compound{
		Name:              "Ibuprofen",
		Slug:              "ibuprofen",
		ChemicalClass:     "NSAID (Nonsteroidal Anti-Inflammatory Drug)",
		Description:       "Ibuprofen is a nonsteroidal anti-inflammatory drug commonly used to reduce pain, fever, and inflammation.",
		MechanismOfAction: "Inhibits cyclooxygenase (COX) enzymes responsible for prostaglandin synthesis, reducing inflammation, pain, and fever.",
		CommonUses:        []string{"Pain relief", "Reduction of inflammation", "Fever reduction"},
		CommonSideEffects: []string{"Stomach upset", "Heartburn"},
		Warnings:          "May increase risk of stomach bleeding. Consult a healthcare provider before prolonged use.",
	}
	if err := db.Create(&acetaminophen).Error; err != nil {
		logger.Warn("Failed to seed starter compounds", zap.Error(err))
		return
	}
	if err := db.Create(&ibuprofen).Error; err != nil {
		logger.Warn("Failed to seed starter compounds", zap.Error(err))
		return
	}

	medicines := []models.Medicine{
		{
			Name:             "Tylenol",
			Slug:             "tylenol",
			CompoundID:       acetaminophen.ID,
			Description:      "Tylenol is a common brand of acetaminophen for pain relief and fever reduction.",
			BrandNames:       []string{"Tylenol Extra Strength", "Tylenol PM"},
			GeneralUsageInfo: "Used for headaches, muscle aches, and fever.",
			SafetyInfo:       "Please consult a healthcare professional.",
		},
		{
			Name:             "Advil",
			Slug:             "advil",
			CompoundID:       ibuprofen.ID,
			Description:      "Advil is a common brand of ibuprofen used for pain relief and inflammation.",
			BrandNames:       []string{"Advil Liqui-Gels"},
			GeneralUsageInfo: "Used for headaches, dental pain, and minor arthritis pain.",
			SafetyInfo:       "Please consult a healthcare professional.",
		},
	}
	for i := range medicines {
		medicines[i].GeneralDosageInfo = "Consult a healthcare professional for dosage information."
		if err := db.Create(&medicines[i]).Error; err != nil {
			logger.Warn("Failed to seed starter medicine", zap.String("name", medicines[i].Name), zap.Error(err))
			continue
		}
		if err := services.AttachMedicine(db, medicines[i].CompoundID, medicines[i].ID); err != nil {
			logger.Warn("Failed to attach seeded medicine", zap.String("name", medicines[i].Name), zap.Error(err))
		}
	}
	logger.Info("Starter content seeded.")
}
