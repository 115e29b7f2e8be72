package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"clinic-backend/internal/models"
	"clinic-backend/internal/storage"
	"clinic-backend/internal/timeutil"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceReader is the read side of the posting path used by reports
type InvoiceReader interface {
	Get(ctx context.Context, id int) (*models.InvoiceWithDetails, error)
	ListByPeriod(ctx context.Context, from, to string) ([]*models.InvoiceSummary, error)
}

// ReportService renders sales listings and receipts
type ReportService struct {
	invoices InvoiceReader
	archive  storage.Archiver
	heading  string
	logger   *zap.Logger
}

func NewReportService(invoices InvoiceReader, archive storage.Archiver, heading string, logger *zap.Logger) *ReportService {
	if archive == nil {
		archive = storage.Noop{}
	}
	if heading == "" {
		heading = "Clínica"
	}
	return &ReportService{invoices: invoices, archive: archive, heading: heading, logger: logger}
}

// ArchiveResult tells where an exported file was stored
type ArchiveResult struct {
	Key   string `json:"key"`
	Bytes int    `json:"bytes"`
	Rows  int    `json:"rows"`
}

// InvoicesCSV exports the invoices of a period
func (s *ReportService) InvoicesCSV(ctx context.Context, from, to string) ([]byte, int, error) {
	invoices, err := s.invoices.ListByPeriod(ctx, from, to)
	if err != nil {
		return nil, 0, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	w.Write([]string{"Nota", "Data", "Paciente", "Profissional", "Pagamento", "Itens", "Total"})

	total := decimal.Zero
	for _, inv := range invoices {
		w.Write([]string{
			strconv.Itoa(inv.ID),
			inv.CreatedAt.In(timeutil.Location).Format(timeutil.DisplayLayout),
			inv.PatientName,
			inv.ProfessionalName,
			string(inv.PaymentMethod),
			strconv.Itoa(inv.ItemsCount),
			inv.NetTotal.StringFixed(2),
		})
		total = total.Add(inv.NetTotal)
	}
	w.Write([]string{"", "", "", "", "", "TOTAL", total.StringFixed(2)})

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), len(invoices), nil
}

// ArchiveInvoicesCSV exports a period and stores the file in object storage
// under reports/<today>/<uuid>.csv.
func (s *ReportService) ArchiveInvoicesCSV(ctx context.Context, from, to string) (*ArchiveResult, error) {
	data, rows, err := s.InvoicesCSV(ctx, from, to)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("reports/%s/%s.csv", timeutil.Today(), uuid.NewString())
	if err := s.archive.Put(ctx, key, data, "text/csv"); err != nil {
		s.logger.Warn("report archive failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	s.logger.Info("report archived", zap.String("key", key), zap.Int("rows", rows))

	return &ArchiveResult{Key: key, Bytes: len(data), Rows: rows}, nil
}

// InvoicesPDF renders the invoices of a period as a landscape table
func (s *ReportService) InvoicesPDF(ctx context.Context, from, to string) ([]byte, error) {
	invoices, err := s.invoices.ListByPeriod(ctx, from, to)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(277, 10, tr(s.heading+" - Notas do período"), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(277, 6, tr(fmt.Sprintf("Período: %s a %s   Gerado: %s", from, to, timeutil.Now().Format(timeutil.DisplayLayout))), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(20, 7, "Nota", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Data", "1", 0, "C", true, 0, "")
	pdf.CellFormat(75, 7, "Paciente", "1", 0, "C", true, 0, "")
	pdf.CellFormat(65, 7, "Profissional", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Pagamento", "1", 0, "C", true, 0, "")
	pdf.CellFormat(17, 7, "Itens", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Total", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	total := decimal.Zero
	for _, inv := range invoices {
		pdf.CellFormat(20, 6, strconv.Itoa(inv.ID), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, inv.CreatedAt.In(timeutil.Location).Format(timeutil.DisplayLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(75, 6, tr(truncate(inv.PatientName, 38)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(65, 6, tr(truncate(inv.ProfessionalName, 32)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, string(inv.PaymentMethod), "1", 0, "C", false, 0, "")
		pdf.CellFormat(17, 6, strconv.Itoa(inv.ItemsCount), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, "R$ "+inv.NetTotal.StringFixed(2), "1", 1, "R", false, 0, "")
		total = total.Add(inv.NetTotal)
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(242, 8, fmt.Sprintf("%d notas", len(invoices)), "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "R$ "+total.StringFixed(2), "1", 1, "R", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReceiptPDF renders the reprint of one posted invoice
func (s *ReportService) ReceiptPDF(ctx context.Context, invoiceID int) ([]byte, error) {
	inv, err := s.invoices.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, tr(s.heading), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, tr(fmt.Sprintf("Nota #%d - %s", inv.ID, inv.CreatedAt.In(timeutil.Location).Format(timeutil.DisplayLayout))), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Dados", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, tr("Paciente: "+inv.PatientName), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, tr("CPF: "+inv.PatientCPF), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, tr("Profissional: "+inv.ProfessionalName), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, tr("Pagamento: "+string(inv.PaymentMethod)), "RB", 1, "L", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(10, 7, "#", "1", 0, "C", true, 0, "")
	pdf.CellFormat(95, 7, tr("Descrição"), "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 7, "Qtd", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, tr("Unitário"), "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Total", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, item := range inv.Items {
		pdf.CellFormat(10, 6, strconv.Itoa(item.Position), "1", 0, "C", false, 0, "")
		pdf.CellFormat(95, 6, tr(truncate(item.Description, 50)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, strconv.Itoa(item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, item.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, item.LineTotal.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(155, 7, "Subtotal", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, inv.GrossTotal.StringFixed(2), "1", 1, "R", false, 0, "")
	pdf.CellFormat(155, 7, "Desconto", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, inv.Discount.StringFixed(2), "1", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(155, 9, "Total", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 9, "R$ "+inv.NetTotal.StringFixed(2), "1", 1, "R", true, 0, "")

	if inv.Note != "" {
		pdf.Ln(4)
		pdf.SetFont("Arial", "I", 10)
		pdf.MultiCell(190, 5, tr("Obs.: "+inv.Note), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
