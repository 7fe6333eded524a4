package invoice

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"warungmadura/internal/domain"
)

func sampleOrder() domain.Order {
	return domain.Order{
		OrderNumber:     "WM-20250301101500-1a2b3c4d",
		TotalAmount:     decimal.NewFromInt(16000),
		Status:          domain.OrderStatusPending,
		PaymentMethod:   domain.PaymentCOD,
		ShippingAddress: "Jl. Merdeka 1",
		CreatedAt:       time.Date(2025, 3, 1, 10, 15, 0, 0, time.UTC),
		Items: []domain.OrderItem{
			{ProductName: "Paracetamol 500mg", ProductPrice: decimal.NewFromInt(8000), Quantity: 2, Subtotal: decimal.NewFromInt(16000)},
		},
	}
}

func TestRender_Deterministic(t *testing.T) {
	o := sampleOrder()
	a := Render(o)
	b := Render(o)
	if a != b {
		t.Fatalf("render not deterministic")
	}
}

func TestRender_Content(t *testing.T) {
	out := Render(sampleOrder())
	for _, want := range []string{
		"WM-20250301101500-1a2b3c4d",
		"Paracetamol 500mg",
		"2 x Rp 8.000",
		"Rp 16.000",
		"Jl. Merdeka 1",
		"01-03-2025 10:15 UTC",
		"Bayar di Tempat (COD)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("invoice missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Catatan") {
		t.Fatalf("empty notes must be omitted")
	}
}

func TestFilename(t *testing.T) {
	if got := Filename(sampleOrder()); got != "invoice-WM-20250301101500-1a2b3c4d.txt" {
		t.Fatalf("got %q", got)
	}
}

func TestRupiah(t *testing.T) {
	cases := map[string]string{
		"0":       "Rp 0",
		"500":     "Rp 500",
		"8000":    "Rp 8.000",
		"1234567": "Rp 1.234.567",
		"-2500":   "-Rp 2.500",
	}
	for in, want := range cases {
		if got := Rupiah(decimal.RequireFromString(in)); got != want {
			t.Fatalf("Rupiah(%s) = %q, want %q", in, got, want)
		}
	}
}
