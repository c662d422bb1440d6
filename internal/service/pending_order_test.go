package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupPendingOrderTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:pending_order_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Product{},
		&models.ProductAddon{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return db
}

func TestBuildPendingOrderPayloadFreezesPricing(t *testing.T) {
	db := setupPendingOrderTest(t)
	product := seedCheckoutProduct(t, db, "payload-burger", "32.00")

	payload, err := buildPendingOrderPayload(repository.NewProductRepository(db), CheckoutInput{
		UserID:      1,
		DeliveryFee: mustMoney(t, "2.50"),
		Lines: []CheckoutLineInput{
			{ProductID: product.ID, Quantity: 2, AddonIDs: []uint{product.Addons[0].ID}},
		},
	})
	if err != nil {
		t.Fatalf("build payload failed: %v", err)
	}
	if payload.Currency != constants.SiteCurrencyDefault {
		t.Fatalf("expected default currency, got %s", payload.Currency)
	}
	if payload.Subtotal.Decimal.StringFixed(2) != "64.00" {
		t.Fatalf("unexpected subtotal: %s", payload.Subtotal.Decimal.StringFixed(2))
	}
	if payload.AddonTotal.Decimal.StringFixed(2) != "6.00" {
		t.Fatalf("unexpected addon total: %s", payload.AddonTotal.Decimal.StringFixed(2))
	}
	if payload.Total.Decimal.StringFixed(2) != "72.50" {
		t.Fatalf("unexpected total: %s", payload.Total.Decimal.StringFixed(2))
	}
	if len(payload.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(payload.Lines))
	}
	line := payload.Lines[0]
	if line.TotalPrice.Decimal.StringFixed(2) != "70.00" {
		t.Fatalf("unexpected line total: %s", line.TotalPrice.Decimal.StringFixed(2))
	}
	if len(line.Addons) != 1 || line.Addons[0].Name != "加芝士" {
		t.Fatalf("unexpected line addons: %+v", line.Addons)
	}
}

func TestBuildPendingOrderPayloadValidation(t *testing.T) {
	db := setupPendingOrderTest(t)
	productRepo := repository.NewProductRepository(db)
	product := seedCheckoutProduct(t, db, "validation-burger", "20.00")

	if _, err := buildPendingOrderPayload(productRepo, CheckoutInput{UserID: 1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty lines, got %v", err)
	}
	if _, err := buildPendingOrderPayload(productRepo, CheckoutInput{
		UserID: 1,
		Lines:  []CheckoutLineInput{{ProductID: product.ID, Quantity: 0}},
	}); !errors.Is(err, ErrInvalidOrderItem) {
		t.Fatalf("expected invalid order item for zero quantity, got %v", err)
	}
	if _, err := buildPendingOrderPayload(productRepo, CheckoutInput{
		UserID: 1,
		Lines:  []CheckoutLineInput{{ProductID: 9999, Quantity: 1}},
	}); !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("expected product not available for unknown id, got %v", err)
	}
	if _, err := buildPendingOrderPayload(productRepo, CheckoutInput{
		UserID: 1,
		Lines:  []CheckoutLineInput{{ProductID: product.ID, Quantity: 1, AddonIDs: []uint{9999}}},
	}); !errors.Is(err, ErrAddonNotAvailable) {
		t.Fatalf("expected addon not available for unknown addon, got %v", err)
	}
}

func TestPendingPayloadRoundtrip(t *testing.T) {
	db := setupPendingOrderTest(t)
	product := seedCheckoutProduct(t, db, "roundtrip-burger", "18.00")

	payload, err := buildPendingOrderPayload(repository.NewProductRepository(db), CheckoutInput{
		UserID: 3,
		Lines:  []CheckoutLineInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("build payload failed: %v", err)
	}
	blob, err := payload.ToJSON()
	if err != nil {
		t.Fatalf("encode payload failed: %v", err)
	}
	decoded, err := DecodePendingOrderPayload(blob)
	if err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if decoded.UserID != payload.UserID || len(decoded.Lines) != 1 {
		t.Fatalf("unexpected decoded payload: %+v", decoded)
	}
	if !decoded.Total.Decimal.Equal(payload.Total.Decimal) {
		t.Fatalf("expected total preserved, got %s", decoded.Total.Decimal.StringFixed(2))
	}

	if _, err := DecodePendingOrderPayload(nil); !errors.Is(err, ErrPaymentInvalid) {
		t.Fatalf("expected payment invalid for empty blob, got %v", err)
	}
}

func TestMaterializePendingOrderUsesFrozenPricing(t *testing.T) {
	db := setupPendingOrderTest(t)
	product := seedCheckoutProduct(t, db, "frozen-burger", "26.00")
	orderRepo := repository.NewOrderRepository(db)

	payload, err := buildPendingOrderPayload(repository.NewProductRepository(db), CheckoutInput{
		UserID: 4,
		Lines:  []CheckoutLineInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("build payload failed: %v", err)
	}

	// 涨价发生在结账之后，落单仍按冻结定价
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("price_amount", mustMoney(t, "99.00")).Error; err != nil {
		t.Fatalf("reprice product failed: %v", err)
	}

	now := time.Now()
	order, err := materializePendingOrder(db, orderRepo, payload, constants.PaymentProviderWechat, now)
	if err != nil {
		t.Fatalf("materialize failed: %v", err)
	}
	if order.Status != constants.OrderStatusPaid || order.PaidAt == nil {
		t.Fatalf("unexpected materialized order: %+v", order)
	}
	if order.TotalAmount.Decimal.StringFixed(2) != "26.00" {
		t.Fatalf("expected frozen total, got %s", order.TotalAmount.Decimal.StringFixed(2))
	}

	stored, err := orderRepo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if len(stored.Items) != 1 || stored.Items[0].UnitPrice.Decimal.StringFixed(2) != "26.00" {
		t.Fatalf("expected frozen unit price on item, got %+v", stored.Items)
	}
}
