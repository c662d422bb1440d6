package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/prepflow/internal/config"
	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/payment/cardgate"
	"github.com/prepflow/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const testCardGateSignKey = "payment-test-sign-key"

func setupPaymentServiceTest(t *testing.T) (*PaymentService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:payment_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ProductAddon{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.KitchenStation{},
		&models.StationTask{},
		&models.StaffShift{},
		&models.TimeClockEntry{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	auditSvc := NewAuditService(repository.NewAuditLogRepository(db))
	notificationSvc := NewNotificationService(nil)
	assignmentSvc := NewAssignmentService(userRepo, repository.NewShiftRepository(db), repository.NewTimeClockRepository(db))
	taskSvc := NewStationTaskService(
		repository.NewStationTaskRepository(db),
		repository.NewStationRepository(db),
		auditSvc,
		notificationSvc,
	)
	fulfillmentSvc := NewFulfillmentService(orderRepo, assignmentSvc, taskSvc, auditSvc)
	adapters := NewAdapterRegistry(&config.PaymentConfig{
		CashEnabled: true,
		CardGate: config.CardGateConfig{
			Enabled:    true,
			GatewayURL: "https://gateway.example.com",
			MerchantID: "1000",
			SignKey:    testCardGateSignKey,
			NotifyURL:  "https://shop.example.com/api/v1/payments/callback/cardgate",
		},
	})
	paymentSvc := NewPaymentService(
		repository.NewPaymentRepository(db),
		orderRepo,
		repository.NewCartRepository(db),
		repository.NewProductRepository(db),
		adapters,
		fulfillmentSvc,
		auditSvc,
		notificationSvc,
		nil,
		nil,
	)
	return paymentSvc, db
}

func mustMoney(t *testing.T, amount string) models.Money {
	t.Helper()
	money, err := models.NewMoneyFromString(amount)
	if err != nil {
		t.Fatalf("parse money %s failed: %v", amount, err)
	}
	return money
}

func seedCheckoutProduct(t *testing.T, db *gorm.DB, slug, price string) *models.Product {
	t.Helper()
	product := &models.Product{
		Slug:        slug,
		Name:        slug,
		FoodType:    constants.FoodTypeGrilled,
		StationCode: constants.StationCodeGrill,
		PriceAmount: mustMoney(t, price),
		PrepSeconds: 300,
		IsActive:    true,
		Addons: []models.ProductAddon{
			{Name: "加芝士", PriceAmount: mustMoney(t, "3.00"), IsActive: true},
		},
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func seedPendingCardPayment(t *testing.T, db *gorm.DB, product *models.Product, userID uint) *models.Payment {
	t.Helper()
	payload, err := buildPendingOrderPayload(repository.NewProductRepository(db), CheckoutInput{
		UserID:   userID,
		Provider: constants.PaymentProviderCardGate,
		Lines: []CheckoutLineInput{
			{ProductID: product.ID, Quantity: 2, AddonIDs: []uint{product.Addons[0].ID}},
		},
	})
	if err != nil {
		t.Fatalf("build pending payload failed: %v", err)
	}
	blob, err := payload.ToJSON()
	if err != nil {
		t.Fatalf("encode pending payload failed: %v", err)
	}
	now := time.Now()
	payment := &models.Payment{
		UserID:         userID,
		Provider:       constants.PaymentProviderCardGate,
		Amount:         payload.Total,
		Currency:       payload.Currency,
		Status:         constants.PaymentStatusInitiated,
		TxnRef:         fmt.Sprintf("PY%d", time.Now().UnixNano()),
		PendingPayload: blob,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := db.Create(payment).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	return payment
}

func signedCardGateForm(txnRef, amount, tradeStatus string) url.Values {
	params := map[string]string{
		"out_trade_no": txnRef,
		"trade_no":     "CG2026083112345",
		"trade_status": tradeStatus,
		"money":        amount,
	}
	form := url.Values{}
	for key, value := range params {
		form.Set(key, value)
	}
	form.Set("sign_type", "MD5")
	form.Set("sign", cardgate.Sign(params, testCardGateSignKey))
	return form
}

func TestCashCheckoutDispatchesOrder(t *testing.T) {
	paymentSvc, db := setupPaymentServiceTest(t)
	product := seedCheckoutProduct(t, db, "char-grilled-burger", "32.00")

	result, err := paymentSvc.Checkout(CheckoutInput{
		UserID:      1,
		Provider:    constants.PaymentProviderCash,
		TableNo:     "A3",
		DeliveryFee: mustMoney(t, "2.50"),
		Lines: []CheckoutLineInput{
			{ProductID: product.ID, Quantity: 2, AddonIDs: []uint{product.Addons[0].ID}},
		},
	}, false)
	if err != nil {
		t.Fatalf("cash checkout failed: %v", err)
	}
	if result.Order == nil || result.Payment == nil {
		t.Fatal("expected order and payment in cash checkout result")
	}
	if result.InteractionMode != constants.PaymentInteractionCounter {
		t.Fatalf("expected counter interaction, got %s", result.InteractionMode)
	}
	if result.Order.Status != constants.OrderStatusPreparing {
		t.Fatalf("expected order dispatched to preparing, got %s", result.Order.Status)
	}
	// 2 x 32.00 + 2 x 3.00 加料 + 2.50 配送费
	if result.Order.TotalAmount.Decimal.StringFixed(2) != "72.50" {
		t.Fatalf("unexpected total: %s", result.Order.TotalAmount.Decimal.StringFixed(2))
	}
	if result.Payment.Status != constants.PaymentStatusInitiated {
		t.Fatalf("expected initiated cash payment, got %s", result.Payment.Status)
	}
	if !result.Payment.Amount.Decimal.Equal(result.Order.TotalAmount.Decimal) {
		t.Fatal("expected payment amount to match order total")
	}

	var taskCount int64
	if err := db.Model(&models.StationTask{}).Where("order_id = ?", result.Order.ID).Count(&taskCount).Error; err != nil {
		t.Fatalf("count tasks failed: %v", err)
	}
	if taskCount != 1 {
		t.Fatalf("expected 1 station task, got %d", taskCount)
	}
}

func TestCheckoutRejectsUnavailableProduct(t *testing.T) {
	paymentSvc, db := setupPaymentServiceTest(t)
	product := seedCheckoutProduct(t, db, "sold-out", "20.00")
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	_, err := paymentSvc.Checkout(CheckoutInput{
		UserID:   1,
		Provider: constants.PaymentProviderCash,
		Lines:    []CheckoutLineInput{{ProductID: product.ID, Quantity: 1}},
	}, false)
	if !errors.Is(err, ErrProductNotAvailable) {
		t.Fatalf("expected product not available, got %v", err)
	}
}

func TestCheckoutFromEmptyCart(t *testing.T) {
	paymentSvc, _ := setupPaymentServiceTest(t)
	_, err := paymentSvc.Checkout(CheckoutInput{
		UserID:   1,
		Provider: constants.PaymentProviderCash,
	}, true)
	if !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected cart empty, got %v", err)
	}
}

func TestCashCheckoutFromCartClearsCart(t *testing.T) {
	paymentSvc, db := setupPaymentServiceTest(t)
	product := seedCheckoutProduct(t, db, "fries", "12.00")
	item := models.CartItem{UserID: 5, ProductID: product.ID, Quantity: 3}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create cart item failed: %v", err)
	}

	result, err := paymentSvc.Checkout(CheckoutInput{
		UserID:   5,
		Provider: constants.PaymentProviderCash,
	}, true)
	if err != nil {
		t.Fatalf("cart checkout failed: %v", err)
	}
	if result.Order.SubtotalAmount.Decimal.StringFixed(2) != "36.00" {
		t.Fatalf("unexpected subtotal: %s", result.Order.SubtotalAmount.Decimal.StringFixed(2))
	}

	var cartCount int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", uint(5)).Count(&cartCount).Error; err != nil {
		t.Fatalf("count cart failed: %v", err)
	}
	if cartCount != 0 {
		t.Fatalf("expected cart cleared, got %d items", cartCount)
	}
}

func TestConfirmCashPayment(t *testing.T) {
	paymentSvc, db := setupPaymentServiceTest(t)
	product := seedCheckoutProduct(t, db, "crispy-chicken", "26.00")
	result, err := paymentSvc.Checkout(CheckoutInput{
		UserID:   2,
		Provider: constants.PaymentProviderCash,
		Lines:    []CheckoutLineInput{{ProductID: product.ID, Quantity: 1}},
	}, false)
	if err != nil {
		t.Fatalf("cash checkout failed: %v", err)
	}

	confirmed, err := paymentSvc.ConfirmCashPayment(result.Payment.ID, 9)
	if err != nil {
		t.Fatalf("confirm cash failed: %v", err)
	}
	if confirmed.Status != constants.PaymentStatusSuccess || confirmed.PaidAt == nil {
		t.Fatalf("expected successful payment, got %+v", confirmed)
	}

	var order models.Order
	if err := db.First(&order, result.Order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if order.PaidAt == nil {
		t.Fatal("expected order paid_at backfilled on cash confirmation")
	}

	// 重复确认幂等返回
	again, err := paymentSvc.ConfirmCashPayment(result.Payment.ID, 9)
	if err != nil {
		t.Fatalf("repeat confirm failed: %v", err)
	}
	if again.Status != constants.PaymentStatusSuccess {
		t.Fatalf("expected success on repeat confirm, got %s", again.Status)
	}
}

func TestConfirmCashPaymentRejectsOtherProviders(t *testing.T) {
	paymentSvc, db := setupPaymentServiceTest(t)
	product := seedCheckoutProduct(t, db, "lemon-tea", "15.00")
	payment := seedPendingCardPayment(t, db, product, 3)

	_, err := paymentSvc.ConfirmCashPayment(payment.ID, 9)
	if !errors.Is(err, ErrPaymentInvalid) {
		t.Fatalf("expected payment invalid for non-cash provider, got %v", err)
	}
}

func TestCardGateCallbackMaterializesOrder(t *testing.T) {
	paymentSvc, db := setupPaymentServiceTest(t)
	product := seedCheckoutProduct(t, db, "snack-box", "18.00")
	payment := seedPendingCardPayment(t, db, product, 4)

	form := signedCardGateForm(payment.TxnRef, payment.Amount.Decimal.StringFixed(2), constants.CardGateTradeStatusSuccess)
	updated, err := paymentSvc.HandleNotification(context.Background(), constants.PaymentProviderCardGate, RawNotification{Form: form})
	if err != nil {
		t.Fatalf("handle notification failed: %v", err)
	}
	if updated.Status != constants.PaymentStatusSuccess {
		t.Fatalf("expected success, got %s", updated.Status)
	}
	if updated.OrderID == nil {
		t.Fatal("expected order materialized from pending payload")
	}

	var order models.Order
	if err := db.Preload("Items").First(&order, *updated.OrderID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if order.Status != constants.OrderStatusPreparing {
		t.Fatalf("expected materialized order dispatched to preparing, got %s", order.Status)
	}
	if order.PaidAt == nil {
		t.Fatal("expected paid_at set on materialized order")
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 2 {
		t.Fatalf("unexpected materialized items: %+v", order.Items)
	}

	var taskCount int64
	if err := db.Model(&models.StationTask{}).Where("order_id = ?", order.ID).Count(&taskCount).Error; err != nil {
		t.Fatalf("count tasks failed: %v", err)
	}
	if taskCount != 1 {
		t.Fatalf("expected station tasks generated, got %d", taskCount)
	}
}

func TestCardGateCallbackDuplicateIdempotent(t *testing.T) {
	paymentSvc, db := setupPaymentServiceTest(t)
	product := seedCheckoutProduct(t, db, "fries-combo", "22.00")
	payment := seedPendingCardPayment(t, db, product, 6)

	form := signedCardGateForm(payment.TxnRef, payment.Amount.Decimal.StringFixed(2), constants.CardGateTradeStatusSuccess)
	if _, err := paymentSvc.HandleNotification(context.Background(), constants.PaymentProviderCardGate, RawNotification{Form: form}); err != nil {
		t.Fatalf("first notification failed: %v", err)
	}
	again, err := paymentSvc.HandleNotification(context.Background(), constants.PaymentProviderCardGate, RawNotification{Form: form})
	if err != nil {
		t.Fatalf("duplicate notification failed: %v", err)
	}
	if again.Status != constants.PaymentStatusSuccess {
		t.Fatalf("expected success on duplicate, got %s", again.Status)
	}

	var orderCount int64
	if err := db.Model(&models.Order{}).Where("user_id = ?", uint(6)).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 1 {
		t.Fatalf("expected exactly one materialized order, got %d", orderCount)
	}
}

func TestCallbackRaceLoserSkipsSideEffects(t *testing.T) {
	paymentSvc, db := setupPaymentServiceTest(t)
	product := seedCheckoutProduct(t, db, "race-burger", "30.00")
	payment := seedPendingCardPayment(t, db, product, 11)
	cartItem := models.CartItem{UserID: 11, ProductID: product.ID, Quantity: 1}
	if err := db.Create(&cartItem).Error; err != nil {
		t.Fatalf("seed cart item failed: %v", err)
	}

	// 模拟并发赢家已把流水落成 success，本次持有的还是旧快照
	if err := db.Model(&models.Payment{}).Where("id = ?", payment.ID).
		Update("status", constants.PaymentStatusSuccess).Error; err != nil {
		t.Fatalf("mark winner failed: %v", err)
	}

	result, err := paymentSvc.applyPaymentSuccess(payment, &GatewayNotification{
		TxnRef: payment.TxnRef,
		Status: constants.PaymentStatusSuccess,
	})
	if err != nil {
		t.Fatalf("race loser failed: %v", err)
	}
	if result.Status != constants.PaymentStatusSuccess {
		t.Fatalf("expected settled status from storage, got %s", result.Status)
	}

	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected loser to skip materialization, got %d orders", orderCount)
	}
	items, err := repository.NewCartRepository(db).ListByUser(11)
	if err != nil {
		t.Fatalf("list cart failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected loser to leave the cart alone, got %d rows", len(items))
	}
}

func TestCardGateCallbackAmountMismatch(t *testing.T) {
	paymentSvc, db := setupPaymentServiceTest(t)
	product := seedCheckoutProduct(t, db, "burger-set", "30.00")
	payment := seedPendingCardPayment(t, db, product, 7)

	form := signedCardGateForm(payment.TxnRef, "0.01", constants.CardGateTradeStatusSuccess)
	_, err := paymentSvc.HandleNotification(context.Background(), constants.PaymentProviderCardGate, RawNotification{Form: form})
	if !errors.Is(err, ErrPaymentAmountMismatch) {
		t.Fatalf("expected amount mismatch, got %v", err)
	}

	var stored models.Payment
	if err := db.First(&stored, payment.ID).Error; err != nil {
		t.Fatalf("load payment failed: %v", err)
	}
	if stored.Status != constants.PaymentStatusFailed || stored.FailReason != constants.PaymentFailReasonAmountMismatch {
		t.Fatalf("expected failed with amount_mismatch, got %s/%s", stored.Status, stored.FailReason)
	}

	var orderCount int64
	if err := db.Model(&models.Order{}).Where("user_id = ?", uint(7)).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatal("expected no order from mismatched notification")
	}
}

func TestCardGateCallbackRejectsBadSignature(t *testing.T) {
	paymentSvc, db := setupPaymentServiceTest(t)
	product := seedCheckoutProduct(t, db, "tea", "8.00")
	payment := seedPendingCardPayment(t, db, product, 8)

	form := signedCardGateForm(payment.TxnRef, payment.Amount.Decimal.StringFixed(2), constants.CardGateTradeStatusSuccess)
	form.Set("sign", "deadbeefdeadbeefdeadbeefdeadbeef")
	_, err := paymentSvc.HandleNotification(context.Background(), constants.PaymentProviderCardGate, RawNotification{Form: form})
	if !errors.Is(err, ErrPaymentSignatureInvalid) {
		t.Fatalf("expected signature invalid, got %v", err)
	}

	var stored models.Payment
	if err := db.First(&stored, payment.ID).Error; err != nil {
		t.Fatalf("load payment failed: %v", err)
	}
	if stored.Status != constants.PaymentStatusInitiated {
		t.Fatalf("expected payment untouched after bad signature, got %s", stored.Status)
	}
}

func TestVerifyNotificationAmount(t *testing.T) {
	paymentSvc, _ := setupPaymentServiceTest(t)
	payment := &models.Payment{
		TxnRef:   "PY_TEST",
		Amount:   mustMoney(t, "10.00"),
		Currency: "CNY",
	}

	if err := paymentSvc.verifyNotificationAmount(payment, &GatewayNotification{Amount: "10.00", Currency: "cny"}); err != nil {
		t.Fatalf("expected case-insensitive currency match, got %v", err)
	}
	if err := paymentSvc.verifyNotificationAmount(payment, &GatewayNotification{Amount: ""}); err != nil {
		t.Fatalf("expected skip when gateway reports no amount, got %v", err)
	}
	if err := paymentSvc.verifyNotificationAmount(payment, &GatewayNotification{Amount: "9.99"}); !errors.Is(err, ErrPaymentAmountMismatch) {
		t.Fatalf("expected amount mismatch, got %v", err)
	}
	if err := paymentSvc.verifyNotificationAmount(payment, &GatewayNotification{Amount: "10.00", Currency: "USD"}); !errors.Is(err, ErrPaymentCurrencyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
	if err := paymentSvc.verifyNotificationAmount(payment, &GatewayNotification{Amount: "not-a-number"}); !errors.Is(err, ErrPaymentAmountMismatch) {
		t.Fatalf("expected mismatch on malformed amount, got %v", err)
	}
}

func TestRefund(t *testing.T) {
	paymentSvc, db := setupPaymentServiceTest(t)
	product := seedCheckoutProduct(t, db, "refund-burger", "28.00")
	result, err := paymentSvc.Checkout(CheckoutInput{
		UserID:   11,
		Provider: constants.PaymentProviderCash,
		Lines:    []CheckoutLineInput{{ProductID: product.ID, Quantity: 1}},
	}, false)
	if err != nil {
		t.Fatalf("cash checkout failed: %v", err)
	}

	// 未收款的流水不允许退款
	if _, err := paymentSvc.Refund(result.Payment.ID, 1, "customer request"); !errors.Is(err, ErrPaymentStatusInvalid) {
		t.Fatalf("expected status invalid before settlement, got %v", err)
	}

	if _, err := paymentSvc.ConfirmCashPayment(result.Payment.ID, 9); err != nil {
		t.Fatalf("confirm cash failed: %v", err)
	}
	refunded, err := paymentSvc.Refund(result.Payment.ID, 1, "customer request")
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if refunded.Status != constants.PaymentStatusRefunded {
		t.Fatalf("expected refunded payment, got %s", refunded.Status)
	}

	var order models.Order
	if err := db.First(&order, result.Order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if order.Status != constants.OrderStatusRefunded {
		t.Fatalf("expected order refunded, got %s", order.Status)
	}
}
