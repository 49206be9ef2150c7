package usecase

import (
	"context"
	"strconv"

	"scan-review-service/internal/domain/entity"
	"scan-review-service/internal/domain/repository"
	"scan-review-service/internal/service"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LocatorNormalizer is the part of the artifact store client the repair needs
type LocatorNormalizer interface {
	NormalizeLocator(ref string) (string, error)
}

type LocatorRepair struct {
	ReportID           int64   `json:"report_id"`
	OldImageURL        string  `json:"old_image_url"`
	NewImageURL        string  `json:"new_image_url"`
	OldGradcamImageURL *string `json:"old_gradcam_image_url"`
	NewGradcamImageURL *string `json:"new_gradcam_image_url"`
}

type LocatorRepairSummary struct {
	Scanned int             `json:"scanned"`
	Repairs []LocatorRepair `json:"repairs"`
	Skipped []int64         `json:"skipped"`
	DryRun  bool            `json:"dry_run"`
}

// LocatorRepairUsecase rewrites stored image locators into their normalized form.
type LocatorRepairUsecase interface {
	Repair(ctx context.Context, dryRun bool) (*LocatorRepairSummary, error)
}

type locatorRepairUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	reportRepo   repository.ReportRepository
	normalizer   LocatorNormalizer
	auditService service.AuditService
}

func NewLocatorRepairUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	reportRepo repository.ReportRepository,
	normalizer LocatorNormalizer,
	auditService service.AuditService,
) LocatorRepairUsecase {
	return &locatorRepairUsecase{
		db:           db,
		log:          log,
		reportRepo:   reportRepo,
		normalizer:   normalizer,
		auditService: auditService,
	}
}

// Repair scans every report. Rows whose locators cannot be normalized are
// reported as skipped and left alone.
func (u *locatorRepairUsecase) Repair(ctx context.Context, dryRun bool) (*LocatorRepairSummary, error) {
	reports, err := u.reportRepo.FindAll(ctx, u.db, nil)
	if err != nil {
		u.log.Warnf("Failed to list reports: %+v", err)
		return nil, err
	}

	summary := &LocatorRepairSummary{Scanned: len(reports), DryRun: dryRun}

	for i := range reports {
		report := &reports[i]
		fields := logrus.Fields{"report_id": report.ID}

		repair, err := u.plan(report)
		if err != nil {
			u.log.WithFields(fields).Warnf("Cannot normalize locators: %v", err)
			summary.Skipped = append(summary.Skipped, report.ID)
			continue
		}
		if repair == nil {
			continue
		}

		if !dryRun {
			if err := u.apply(ctx, repair); err != nil {
				return summary, err
			}
			u.log.WithFields(fields).Info("Locators repaired")
		}
		summary.Repairs = append(summary.Repairs, *repair)
	}

	return summary, nil
}

// plan returns nil when the stored locators are already normalized
func (u *locatorRepairUsecase) plan(report *entity.Report) (*LocatorRepair, error) {
	image, err := u.normalizer.NormalizeLocator(report.ImageURL)
	if err != nil {
		return nil, err
	}

	var overlay *string
	if report.GradcamImageURL != nil && *report.GradcamImageURL != "" {
		normalized, err := u.normalizer.NormalizeLocator(*report.GradcamImageURL)
		if err != nil {
			return nil, err
		}
		overlay = &normalized
	}

	changed := image != report.ImageURL || !sameLocator(overlay, report.GradcamImageURL)
	if !changed {
		return nil, nil
	}

	return &LocatorRepair{
		ReportID:           report.ID,
		OldImageURL:        report.ImageURL,
		NewImageURL:        image,
		OldGradcamImageURL: report.GradcamImageURL,
		NewGradcamImageURL: overlay,
	}, nil
}

func (u *locatorRepairUsecase) apply(ctx context.Context, repair *LocatorRepair) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.reportRepo.UpdateLocators(ctx, tx, repair.ReportID, repair.NewImageURL, repair.NewGradcamImageURL); err != nil {
		u.log.Warnf("Failed to update locators of report %d: %+v", repair.ReportID, err)
		return err
	}

	if err := u.auditService.Record(ctx, tx, service.Change{
		Action:   entity.AuditActionReportLocatorRepair,
		Entity:   "report",
		EntityID: strconv.FormatInt(repair.ReportID, 10),
		Old:      map[string]interface{}{"image_url": repair.OldImageURL, "gradcam_image_url": repair.OldGradcamImageURL},
		New:      map[string]interface{}{"image_url": repair.NewImageURL, "gradcam_image_url": repair.NewGradcamImageURL},
	}); err != nil {
		return err
	}

	return tx.Commit().Error
}

func sameLocator(a, b *string) bool {
	if b != nil && *b == "" {
		b = nil
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
