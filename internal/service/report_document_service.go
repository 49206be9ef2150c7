package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strconv"

	"scan-review-service/internal/domain/entity"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ArtifactReader fetches a stored artifact by its locator
type ArtifactReader interface {
	Get(ctx context.Context, locator string) ([]byte, error)
}

type ReportDocumentService interface {
	Render(ctx context.Context, report *entity.Report) (*bytes.Buffer, error)
}

type reportDocumentService struct {
	log       *logrus.Logger
	artifacts ArtifactReader
}

func NewReportDocumentService(log *logrus.Logger, artifacts ArtifactReader) ReportDocumentService {
	return &reportDocumentService{
		log:       log,
		artifacts: artifacts,
	}
}

// Render lays out a report with its metadata, the doctor analysis and the scan images.
// Images that cannot be fetched are replaced by a note; the document still renders.
func (s *reportDocumentService) Render(ctx context.Context, report *entity.Report) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(fmt.Sprintf("Scan report #%d", report.ID), true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Brain MRI Report #%d", report.ID))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	line := func(label, value string) {
		if value == "" {
			return
		}
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(50, 7, tr(label), "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 7, tr(value), "", "", false)
	}

	line("Patient", report.PatientName())
	line("Date", report.CreatedAt.Format("02 Jan 2006 15:04"))
	line("Status", string(report.Status))
	line("AI prediction", report.Prediction)
	if report.Confidence != nil {
		line("Confidence", fmt.Sprintf("%.1f%%", *report.Confidence*100))
	}
	line("Location", deref(report.Location))
	line("Tumor size", deref(report.TumorSize))
	line("Tumor grade", deref(report.TumorGrade))
	line("Recommendation", deref(report.Recommendation))
	if report.PatientAge != nil {
		line("Patient age", strconv.Itoa(*report.PatientAge))
	}
	line("Patient gender", deref(report.PatientGender))

	if a := report.Analysis; a != nil && report.IsCompleted() {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 14)
		pdf.Cell(0, 10, "Doctor Analysis")
		pdf.Ln(10)

		line("Notes", deref(a.DoctorNotes))
		line("Patient summary", deref(a.PatientSummary))
		line("Location", deref(a.Location))
		if a.SizeLengthCm != nil || a.SizeWidthCm != nil {
			line("Size (cm)", fmt.Sprintf("%s x %s", decimalText(a.SizeLengthCm), decimalText(a.SizeWidthCm)))
		}
		if a.EdemaPresent != nil {
			line("Edema", yesNo(*a.EdemaPresent))
		}
		line("Contrast pattern", deref(a.ContrastPattern))
		line("Tumor grade", deref(a.TumorGrade))
		line("Recommendation", deref(a.Recommendation))
	}

	s.addImage(ctx, pdf, "Original scan", "scan", report.ImageURL)
	if report.GradcamImageURL != nil {
		s.addImage(ctx, pdf, "Grad-CAM overlay", "overlay", *report.GradcamImageURL)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render report %d: %w", report.ID, err)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("failed to write report %d: %w", report.ID, err)
	}
	return buf, nil
}

func (s *reportDocumentService) addImage(ctx context.Context, pdf *gofpdf.Fpdf, title, name, locator string) {
	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(9)
	pdf.SetFont("Arial", "", 10)

	data, err := s.artifacts.Get(ctx, locator)
	if err != nil {
		s.log.WithFields(logrus.Fields{"locator": locator}).Warnf("Failed to fetch image for report document: %+v", err)
		pdf.Cell(0, 7, "(image unavailable)")
		pdf.Ln(8)
		return
	}

	imageType, data, err := pdfImage(data)
	if err != nil {
		s.log.WithFields(logrus.Fields{"locator": locator}).Warnf("Unsupported image for report document: %+v", err)
		pdf.Cell(0, 7, "(image format not supported)")
		pdf.Ln(8)
		return
	}

	opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if pdf.Error() != nil {
		s.log.WithFields(logrus.Fields{"locator": locator}).Warnf("Failed to embed image: %+v", pdf.Error())
		pdf.ClearError()
		pdf.Cell(0, 7, "(image could not be embedded)")
		pdf.Ln(8)
		return
	}

	if pdf.GetY() > 180 {
		pdf.AddPage()
	}
	pdf.ImageOptions(name, pdf.GetX(), pdf.GetY(), 90, 0, true, opts, 0, "")
}

// pdfImage returns data in a format gofpdf can embed, converting other rasters to PNG
func pdfImage(data []byte) (string, []byte, error) {
	switch mimetype.Detect(data).String() {
	case "image/png":
		return "PNG", data, nil
	case "image/jpeg":
		return "JPG", data, nil
	case "image/gif":
		return "GIF", data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", nil, err
	}
	return "PNG", buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func decimalText(d *decimal.Decimal) string {
	if d == nil {
		return "?"
	}
	return d.String()
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
