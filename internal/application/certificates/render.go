package certificates

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

// View is everything printed on a certificate.
type View struct {
	CertificateID    string
	InvestorName     string
	ProjectName      string
	ProjectLocation  string
	Amount           decimal.Decimal
	Shares           int
	DateOfInvestment time.Time
	DateOfReturn     time.Time
	VerificationURL  string
}

const dateLayout = "02 January 2006"

// Render draws an A4 landscape certificate with a QR code pointing at the verification page.
func Render(v View) ([]byte, error) {
	qr, err := qrcode.Encode(v.VerificationURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("StableBricks Investment Certificate "+v.CertificateID, true)
	pdf.SetAuthor("StableBricks", true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	w, h := pdf.GetPageSize()

	pdf.SetDrawColor(180, 83, 9)
	pdf.SetLineWidth(2)
	pdf.Rect(10, 10, w-20, h-20, "D")
	pdf.SetLineWidth(0.5)
	pdf.Rect(14, 14, w-28, h-28, "D")

	pdf.SetTextColor(180, 83, 9)
	pdf.SetFont("Helvetica", "B", 30)
	pdf.SetXY(20, 28)
	pdf.CellFormat(w-40, 14, "STABLEBRICKS", "", 1, "C", false, 0, "")

	pdf.SetTextColor(31, 41, 55)
	pdf.SetFont("Helvetica", "", 18)
	pdf.CellFormat(w-40, 10, "Certificate of Investment", "", 1, "C", false, 0, "")

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 13)
	pdf.CellFormat(w-40, 8, "This certifies that", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(w-40, 14, tr(v.InvestorName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 13)
	pdf.CellFormat(w-40, 8, "holds an investment in", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(w-40, 11, tr(v.ProjectName), "", 1, "C", false, 0, "")
	if v.ProjectLocation != "" {
		pdf.SetFont("Helvetica", "I", 12)
		pdf.CellFormat(w-40, 7, tr(v.ProjectLocation), "", 1, "C", false, 0, "")
	}

	pdf.Ln(8)
	rows := [][2]string{
		{"Certificate No.", v.CertificateID},
		{"Amount", "NGN " + v.Amount.StringFixedBank(2)},
		{"Shares", fmt.Sprintf("%d", v.Shares)},
		{"Date of Investment", v.DateOfInvestment.Format(dateLayout)},
		{"Date of Return", v.DateOfReturn.Format(dateLayout)},
	}
	left := 60.0
	for _, r := range rows {
		pdf.SetX(left)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(55, 8, r[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(90, 8, tr(r[1]), "", 1, "L", false, 0, "")
	}

	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("verification-qr", opts, bytes.NewReader(qr))
	qrSize := 42.0
	pdf.ImageOptions("verification-qr", w-20-qrSize-6, h-20-qrSize-12, qrSize, qrSize, false, opts, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(w-20-qrSize-16, h-20-10)
	pdf.CellFormat(qrSize+20, 5, "Scan to verify", "", 0, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(107, 114, 128)
	pdf.SetXY(24, h-30)
	pdf.CellFormat(150, 5, tr(v.VerificationURL), "", 0, "L", false, 0, v.VerificationURL)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
