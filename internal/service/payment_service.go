package service

import (
	"context"
	"errors"
	"time"

	"github.com/prepflow/internal/config"
	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/logger"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/queue"
	"github.com/prepflow/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentService 支付服务，承担结账入口、网关回调与对账
type PaymentService struct {
	paymentRepo        repository.PaymentRepository
	orderRepo          repository.OrderRepository
	cartRepo           repository.CartRepository
	productRepo        repository.ProductRepository
	adapters           *AdapterRegistry
	fulfillmentService *FulfillmentService
	auditService       *AuditService
	notificationSvc    *NotificationService
	queueClient        *queue.Client
	expireMinutes      int
	syncDelaySeconds   int
}

// NewPaymentService 创建支付服务
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	adapters *AdapterRegistry,
	fulfillmentService *FulfillmentService,
	auditService *AuditService,
	notificationSvc *NotificationService,
	queueClient *queue.Client,
	orderCfg *config.OrderConfig,
) *PaymentService {
	expireMinutes := 15
	syncDelaySeconds := 120
	if orderCfg != nil {
		if orderCfg.PaymentExpireMinutes > 0 {
			expireMinutes = orderCfg.PaymentExpireMinutes
		}
		if orderCfg.StatusSyncDelaySeconds > 0 {
			syncDelaySeconds = orderCfg.StatusSyncDelaySeconds
		}
	}
	return &PaymentService{
		paymentRepo:        paymentRepo,
		orderRepo:          orderRepo,
		cartRepo:           cartRepo,
		productRepo:        productRepo,
		adapters:           adapters,
		fulfillmentService: fulfillmentService,
		auditService:       auditService,
		notificationSvc:    notificationSvc,
		queueClient:        queueClient,
		expireMinutes:      expireMinutes,
		syncDelaySeconds:   syncDelaySeconds,
	}
}

func paymentLogger(kv ...interface{}) *zap.SugaredLogger {
	return logger.SW(kv...)
}

// CheckoutResult 结账结果
type CheckoutResult struct {
	Order           *models.Order   `json:"order,omitempty"`
	Payment         *models.Payment `json:"payment"`
	PayURL          string          `json:"pay_url,omitempty"`
	QRCode          string          `json:"qr_code,omitempty"`
	InteractionMode string          `json:"interaction_mode"`
}

// Checkout 结账入口。现金单立即建单并派入后厨，
// 在线渠道只建支付流水，订单等首次成功回调再落库。
func (s *PaymentService) Checkout(input CheckoutInput, fromCart bool) (*CheckoutResult, error) {
	if input.UserID == 0 || input.Provider == "" {
		return nil, ErrInvalidInput
	}
	adapter, err := s.adapters.Get(input.Provider)
	if err != nil {
		return nil, err
	}
	if fromCart {
		items, err := s.cartRepo.ListByUser(input.UserID)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, ErrCartEmpty
		}
		input.Lines = checkoutLines(items)
	}
	payload, err := buildPendingOrderPayload(s.productRepo, input)
	if err != nil {
		return nil, err
	}

	if input.Provider == constants.PaymentProviderCash {
		return s.checkoutCash(input, payload, fromCart)
	}
	return s.checkoutOnline(input, payload, adapter)
}

// checkoutCash 现金单：建单、建流水、派单同事务完成，收银在柜台结清
func (s *PaymentService) checkoutCash(input CheckoutInput, payload *PendingOrderPayload, fromCart bool) (*CheckoutResult, error) {
	var (
		order    *models.Order
		payment  *models.Payment
		dispatch *DispatchResult
	)
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		newOrder, items := newOrderFromPayload(payload, input.Provider, constants.OrderStatusConfirmed, now)
		if err := s.orderRepo.WithTx(tx).Create(newOrder, items); err != nil {
			return ErrOrderCreateFailed
		}
		newOrder.Items = items
		order = newOrder

		orderID := newOrder.ID
		payment = &models.Payment{
			OrderID:         &orderID,
			UserID:          input.UserID,
			Provider:        constants.PaymentProviderCash,
			InteractionMode: constants.PaymentInteractionCounter,
			Amount:          payload.Total,
			Currency:        payload.Currency,
			Status:          constants.PaymentStatusInitiated,
			TxnRef:          generateTxnRef(),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.paymentRepo.WithTx(tx).Create(payment); err != nil {
			return ErrPaymentCreateFailed
		}

		if err := s.auditService.Record(tx, AuditEntry{
			ActorID:    input.UserID,
			ActorType:  constants.ActorTypeCustomer,
			Action:     constants.AuditActionOrderCreated,
			Resource:   "order",
			ResourceID: newOrder.ID,
			Detail:     models.JSON{"order_no": newOrder.OrderNo, "provider": input.Provider},
		}); err != nil {
			return err
		}
		if err := s.auditService.Record(tx, AuditEntry{
			ActorID:    input.UserID,
			ActorType:  constants.ActorTypeCustomer,
			Action:     constants.AuditActionPaymentCreated,
			Resource:   "payment",
			ResourceID: payment.ID,
			Detail:     models.JSON{"txn_ref": payment.TxnRef, "provider": input.Provider},
		}); err != nil {
			return err
		}

		result, err := s.fulfillmentService.Dispatch(tx, newOrder, input.UserID, constants.ActorTypeCustomer)
		if err != nil {
			return err
		}
		dispatch = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	if fromCart {
		if err := s.cartRepo.ClearByUser(input.UserID); err != nil {
			paymentLogger("user_id", input.UserID).Warnw("cart_clear_failed", "error", err)
		}
	}
	s.notifyDispatched(order, dispatch)
	paymentLogger("order_id", order.ID, "order_no", order.OrderNo, "txn_ref", payment.TxnRef).
		Infow("cash_checkout_success")
	return &CheckoutResult{
		Order:           order,
		Payment:         payment,
		InteractionMode: constants.PaymentInteractionCounter,
	}, nil
}

// checkoutOnline 在线渠道：冻结定价写入支付流水，向网关下单取回跳转或二维码。
// 网关不可用时流水停留在 initiated，可重试或等对账收敛。
func (s *PaymentService) checkoutOnline(input CheckoutInput, payload *PendingOrderPayload, adapter PaymentAdapter) (*CheckoutResult, error) {
	blob, err := payload.ToJSON()
	if err != nil {
		return nil, ErrPaymentCreateFailed
	}
	now := time.Now()
	expiredAt := now.Add(time.Duration(s.expireMinutes) * time.Minute)
	payment := &models.Payment{
		UserID:         input.UserID,
		Provider:       input.Provider,
		Amount:         payload.Total,
		Currency:       payload.Currency,
		Status:         constants.PaymentStatusInitiated,
		TxnRef:         generateTxnRef(),
		PendingPayload: blob,
		ExpiredAt:      &expiredAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, ErrPaymentCreateFailed
	}

	artifact, err := adapter.CreateIntent(context.Background(), CreateIntentInput{
		Payment:  payment,
		Subject:  checkoutSubject(payload),
		ClientIP: input.ClientIP,
	})
	if err != nil {
		if errors.Is(err, ErrGatewayUnavailable) {
			paymentLogger("txn_ref", payment.TxnRef, "provider", input.Provider).
				Warnw("payment_gateway_unavailable", "error", err)
			return nil, err
		}
		s.markPaymentFailed(payment, constants.PaymentFailReasonGatewayDeclined)
		return nil, err
	}

	payment.PayURL = artifact.PayURL
	payment.QRCode = artifact.QRCode
	payment.ProviderRef = artifact.ProviderRef
	payment.ProviderPayload = artifact.Extra
	payment.InteractionMode = interactionModeFor(artifact)
	payment.UpdatedAt = time.Now()
	if err := s.paymentRepo.Update(payment); err != nil {
		return nil, ErrPaymentUpdateFailed
	}

	if err := s.auditService.Record(nil, AuditEntry{
		ActorID:    input.UserID,
		ActorType:  constants.ActorTypeCustomer,
		Action:     constants.AuditActionPaymentCreated,
		Resource:   "payment",
		ResourceID: payment.ID,
		Detail:     models.JSON{"txn_ref": payment.TxnRef, "provider": input.Provider},
	}); err != nil {
		paymentLogger("txn_ref", payment.TxnRef).Warnw("payment_audit_failed", "error", err)
	}

	if err := s.queueClient.EnqueuePaymentStatusSync(
		queue.PaymentStatusSyncPayload{PaymentID: payment.ID},
		time.Duration(s.syncDelaySeconds)*time.Second,
	); err != nil {
		paymentLogger("txn_ref", payment.TxnRef).Warnw("payment_sync_enqueue_failed", "error", err)
	}

	paymentLogger("payment_id", payment.ID, "txn_ref", payment.TxnRef, "provider", input.Provider).
		Infow("payment_create_success", "interaction_mode", payment.InteractionMode)
	return &CheckoutResult{
		Payment:         payment,
		PayURL:          payment.PayURL,
		QRCode:          payment.QRCode,
		InteractionMode: payment.InteractionMode,
	}, nil
}

func interactionModeFor(artifact *IntentArtifact) string {
	if artifact.QRCode != "" {
		return constants.PaymentInteractionQR
	}
	return constants.PaymentInteractionRedirect
}

// checkoutSubject 取第一条菜品名作为网关展示摘要
func checkoutSubject(payload *PendingOrderPayload) string {
	if len(payload.Lines) == 0 {
		return "PrepFlow Order"
	}
	subject := payload.Lines[0].Name
	if len(payload.Lines) > 1 {
		subject += " 等"
	}
	return subject
}

func (s *PaymentService) notifyDispatched(order *models.Order, dispatch *DispatchResult) {
	if order == nil || dispatch == nil || !dispatch.Dispatched {
		return
	}
	if dispatch.AssignedStaffID != nil {
		s.notificationSvc.NotifyOrderAssigned(*dispatch.AssignedStaffID, order)
	}
	s.notificationSvc.NotifyTasksCreated(dispatch.StationCodes, order)
}

// GetByID 获取支付记录
func (s *PaymentService) GetByID(paymentID uint) (*models.Payment, error) {
	if paymentID == 0 {
		return nil, ErrInvalidInput
	}
	payment, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

// GetByTxnRef 根据支付流水号获取支付记录
func (s *PaymentService) GetByTxnRef(txnRef string) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByTxnRef(txnRef)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

// List 支付列表查询
func (s *PaymentService) List(filter repository.PaymentListFilter) ([]models.Payment, int64, error) {
	return s.paymentRepo.List(filter)
}

// EnabledProviders 当前启用的支付渠道
func (s *PaymentService) EnabledProviders() []string {
	return s.adapters.EnabledProviders()
}
