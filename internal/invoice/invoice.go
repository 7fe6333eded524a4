package invoice

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"warungmadura/internal/domain"
)

const (
	storeName = "WARUNG MADURA - Apotek Online"
	width     = 48
)

// Filename имя файла для скачивания
func Filename(o domain.Order) string {
	return "invoice-" + o.OrderNumber + ".txt"
}

// Render текст счёта по уже загруженному заказу; одинаковый вход даёт одинаковый вывод
func Render(o domain.Order) string {
	var b strings.Builder
	rule := strings.Repeat("=", width)
	thin := strings.Repeat("-", width)

	b.WriteString(rule + "\n")
	b.WriteString(center(storeName) + "\n")
	b.WriteString(center("INVOICE") + "\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "No. Pesanan : %s\n", o.OrderNumber)
	fmt.Fprintf(&b, "Tanggal     : %s\n", o.CreatedAt.UTC().Format("02-01-2006 15:04 UTC"))
	fmt.Fprintf(&b, "Status      : %s\n", o.Status)
	fmt.Fprintf(&b, "Pembayaran  : %s\n", paymentLabel(o.PaymentMethod))
	fmt.Fprintf(&b, "Alamat      : %s\n", o.ShippingAddress)
	if o.Notes != "" {
		fmt.Fprintf(&b, "Catatan     : %s\n", o.Notes)
	}
	b.WriteString(thin + "\n")

	for i, it := range o.Items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, it.ProductName)
		b.WriteString(columns(fmt.Sprintf("   %d x %s", it.Quantity, Rupiah(it.ProductPrice)), Rupiah(it.Subtotal)) + "\n")
	}

	b.WriteString(thin + "\n")
	b.WriteString(columns("TOTAL", Rupiah(o.TotalAmount)) + "\n")
	b.WriteString(rule + "\n")
	b.WriteString(center("Terima kasih telah berbelanja!") + "\n")
	return b.String()
}

// Rupiah форматирует сумму как "Rp 16.000"
func Rupiah(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().Round(0).StringFixed(0)
	var grouped strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}
	if neg {
		return "-Rp " + grouped.String()
	}
	return "Rp " + grouped.String()
}

func paymentLabel(m domain.PaymentMethod) string {
	switch m {
	case domain.PaymentCOD:
		return "Bayar di Tempat (COD)"
	case domain.PaymentBankTransfer:
		return "Transfer Bank"
	case domain.PaymentEWallet:
		return "E-Wallet"
	default:
		return string(m)
	}
}

func center(s string) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", (width-len(s))/2) + s
}

func columns(left, right string) string {
	gap := width - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
