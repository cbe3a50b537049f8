package pdf

import (
	"fmt"
	"io"
	"time"

	"rental-marketplace-backend/internal/domain"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// InvoiceRenderer lays invoices out on a single A4 page
type InvoiceRenderer struct {
	companyName string
}

func NewInvoiceRenderer(companyName string) *InvoiceRenderer {
	return &InvoiceRenderer{companyName: companyName}
}

func (r *InvoiceRenderer) Render(w io.Writer, inv *domain.Invoice, customer *domain.User, product *domain.Product) error {
	if inv == nil || customer == nil || product == nil {
		return fmt.Errorf("invoice, customer and product are required")
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Invoice "+inv.InvoiceNumber, true)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.Cell(0, 10, r.companyName)
	doc.Ln(12)

	doc.SetFont("Helvetica", "", 11)
	labelValue(doc, "Invoice", inv.InvoiceNumber)
	labelValue(doc, "Status", string(inv.Status))
	labelValue(doc, "Issued", formatDate(inv.IssuedDate))
	labelValue(doc, "Due", formatDate(inv.DueDate))
	doc.Ln(4)

	doc.SetFont("Helvetica", "B", 12)
	doc.Cell(0, 7, "Bill to")
	doc.Ln(7)
	doc.SetFont("Helvetica", "", 11)
	doc.Cell(0, 6, customer.Name)
	doc.Ln(6)
	doc.Cell(0, 6, customer.Email)
	doc.Ln(6)
	if customer.Address != "" {
		doc.MultiCell(0, 6, customer.Address, "", "L", false)
	}
	doc.Ln(4)

	doc.SetFont("Helvetica", "B", 11)
	doc.SetFillColor(230, 230, 230)
	doc.CellFormat(80, 8, "Item", "1", 0, "L", true, 0, "")
	doc.CellFormat(20, 8, "Qty", "1", 0, "C", true, 0, "")
	doc.CellFormat(50, 8, "Period", "1", 0, "C", true, 0, "")
	doc.CellFormat(40, 8, "Amount", "1", 1, "R", true, 0, "")

	doc.SetFont("Helvetica", "", 11)
	period := formatDate(inv.RentalPeriod.StartDate) + " - " + formatDate(inv.RentalPeriod.EndDate)
	doc.CellFormat(80, 8, product.Name, "1", 0, "L", false, 0, "")
	doc.CellFormat(20, 8, fmt.Sprintf("%d", inv.Quantity), "1", 0, "C", false, 0, "")
	doc.CellFormat(50, 8, period, "1", 0, "C", false, 0, "")
	doc.CellFormat(40, 8, Money(inv.SubtotalCents), "1", 1, "R", false, 0, "")
	doc.Ln(4)

	totalRow(doc, "Subtotal", inv.SubtotalCents)
	totalRow(doc, "Security deposit", inv.SecurityDepositCents)
	if inv.LateFeesCents > 0 {
		totalRow(doc, "Late fees", inv.LateFeesCents)
	}
	doc.SetFont("Helvetica", "B", 11)
	totalRow(doc, "Total", inv.TotalAmountCents)
	doc.SetFont("Helvetica", "", 11)
	totalRow(doc, "Paid", inv.PaymentDetails.UpfrontPaymentCents)
	totalRow(doc, "Balance due", inv.PaymentDetails.RemainingBalanceCents)

	if len(inv.PaymentDetails.Installments) > 0 {
		doc.Ln(6)
		doc.SetFont("Helvetica", "B", 12)
		doc.Cell(0, 7, "Installments")
		doc.Ln(8)
		doc.SetFont("Helvetica", "", 11)
		for i, in := range inv.PaymentDetails.Installments {
			state := "open"
			if in.Paid {
				state = "paid"
			}
			doc.CellFormat(20, 7, fmt.Sprintf("#%d", i+1), "1", 0, "C", false, 0, "")
			doc.CellFormat(50, 7, formatDate(in.DueDate), "1", 0, "C", false, 0, "")
			doc.CellFormat(40, 7, Money(in.AmountCents), "1", 0, "R", false, 0, "")
			doc.CellFormat(30, 7, state, "1", 1, "C", false, 0, "")
		}
	}

	if inv.Notes != "" {
		doc.Ln(6)
		doc.SetFont("Helvetica", "I", 10)
		doc.MultiCell(0, 5, inv.Notes, "", "L", false)
	}

	if err := doc.Error(); err != nil {
		return fmt.Errorf("failed to lay out invoice: %w", err)
	}
	return doc.Output(w)
}

// Money formats cents as a dollar amount with two decimals
func Money(cents int64) string {
	return "$" + decimal.New(cents, -2).StringFixed(2)
}

func labelValue(doc *fpdf.Fpdf, label, value string) {
	doc.CellFormat(30, 6, label+":", "", 0, "L", false, 0, "")
	doc.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
}

func totalRow(doc *fpdf.Fpdf, label string, cents int64) {
	doc.CellFormat(150, 7, label, "", 0, "R", false, 0, "")
	doc.CellFormat(40, 7, Money(cents), "", 1, "R", false, 0, "")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(dateLayout)
}
