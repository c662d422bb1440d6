package service

import (
	"encoding/json"
	"time"

	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CheckoutLineInput 结账单行输入
type CheckoutLineInput struct {
	ProductID uint
	Quantity  int
	AddonIDs  []uint
}

// CheckoutInput 结账输入
type CheckoutInput struct {
	UserID      uint
	Provider    string
	Currency    string
	TableNo     string
	Remark      string
	StationHint string
	DeliveryFee models.Money
	ClientIP    string
	Lines       []CheckoutLineInput
}

// PendingOrderLine 冻结的待结算单行，定价在结账时锁定
type PendingOrderLine struct {
	ProductID   uint                    `json:"product_id"`
	Name        string                  `json:"name"`
	FoodType    string                  `json:"food_type"`
	StationCode string                  `json:"station_code"`
	UnitPrice   models.Money            `json:"unit_price"`
	Quantity    int                     `json:"quantity"`
	Addons      []models.OrderItemAddon `json:"addons,omitempty"`
	AddonPrice  models.Money            `json:"addon_price"`
	TotalPrice  models.Money            `json:"total_price"`
	PrepSeconds int                     `json:"prep_seconds"`
}

// PendingOrderPayload 冻结的待结算单，由 Payment 携带直到首次成功回调落单
type PendingOrderPayload struct {
	UserID      uint               `json:"user_id"`
	Currency    string             `json:"currency"`
	TableNo     string             `json:"table_no,omitempty"`
	Remark      string             `json:"remark,omitempty"`
	StationHint string             `json:"station_hint,omitempty"`
	ClientIP    string             `json:"client_ip,omitempty"`
	Subtotal    models.Money       `json:"subtotal"`
	AddonTotal  models.Money       `json:"addon_total"`
	DeliveryFee models.Money       `json:"delivery_fee"`
	Total       models.Money       `json:"total"`
	Lines       []PendingOrderLine `json:"lines"`
}

// ToJSON 序列化为 Payment 可携带的元数据
func (p *PendingOrderPayload) ToJSON() (models.JSON, error) {
	if p == nil {
		return nil, ErrInvalidInput
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var blob models.JSON
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, err
	}
	return blob, nil
}

// DecodePendingOrderPayload 从 Payment 元数据还原待结算单
func DecodePendingOrderPayload(blob models.JSON) (*PendingOrderPayload, error) {
	if len(blob) == 0 {
		return nil, ErrPaymentInvalid
	}
	data, err := json.Marshal(blob)
	if err != nil {
		return nil, err
	}
	var payload PendingOrderPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.UserID == 0 || len(payload.Lines) == 0 {
		return nil, ErrPaymentInvalid
	}
	return &payload, nil
}

// buildPendingOrderPayload 解析结账行并锁定当前定价。
// 引用了下架或不存在的菜品、加料一律报错，不做静默剔除。
func buildPendingOrderPayload(productRepo repository.ProductRepository, input CheckoutInput) (*PendingOrderPayload, error) {
	if input.UserID == 0 || len(input.Lines) == 0 {
		return nil, ErrInvalidInput
	}
	currency := input.Currency
	if currency == "" {
		currency = constants.SiteCurrencyDefault
	}

	payload := &PendingOrderPayload{
		UserID:      input.UserID,
		Currency:    currency,
		TableNo:     input.TableNo,
		Remark:      input.Remark,
		StationHint: input.StationHint,
		ClientIP:    input.ClientIP,
		DeliveryFee: models.NewMoneyFromDecimal(input.DeliveryFee.Decimal.Round(2)),
	}

	subtotal := decimal.Zero
	addonTotal := decimal.Zero
	for _, line := range input.Lines {
		if line.ProductID == 0 || line.Quantity <= 0 {
			return nil, ErrInvalidOrderItem
		}
		product, err := productRepo.GetByID(line.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.IsActive {
			return nil, ErrProductNotAvailable
		}

		addons, addonPrice, err := resolveLineAddons(product, line.AddonIDs)
		if err != nil {
			return nil, err
		}

		quantity := decimal.NewFromInt(int64(line.Quantity))
		lineSubtotal := product.PriceAmount.Decimal.Mul(quantity).Round(2)
		lineAddonTotal := addonPrice.Mul(quantity).Round(2)
		subtotal = subtotal.Add(lineSubtotal)
		addonTotal = addonTotal.Add(lineAddonTotal)

		payload.Lines = append(payload.Lines, PendingOrderLine{
			ProductID:   product.ID,
			Name:        product.Name,
			FoodType:    product.FoodType,
			StationCode: product.StationCode,
			UnitPrice:   product.PriceAmount,
			Quantity:    line.Quantity,
			Addons:      addons,
			AddonPrice:  models.NewMoneyFromDecimal(addonPrice),
			TotalPrice:  models.NewMoneyFromDecimal(lineSubtotal.Add(lineAddonTotal)),
			PrepSeconds: product.PrepSeconds,
		})
	}

	payload.Subtotal = models.NewMoneyFromDecimal(subtotal)
	payload.AddonTotal = models.NewMoneyFromDecimal(addonTotal)
	payload.Total = models.NewMoneyFromDecimal(subtotal.Add(addonTotal).Add(payload.DeliveryFee.Decimal).Round(2))
	return payload, nil
}

// resolveLineAddons 校验加料归属与上架状态并汇总单份加料价
func resolveLineAddons(product *models.Product, addonIDs []uint) ([]models.OrderItemAddon, decimal.Decimal, error) {
	if len(addonIDs) == 0 {
		return nil, decimal.Zero, nil
	}
	byID := make(map[uint]*models.ProductAddon, len(product.Addons))
	for i := range product.Addons {
		byID[product.Addons[i].ID] = &product.Addons[i]
	}
	addons := make([]models.OrderItemAddon, 0, len(addonIDs))
	total := decimal.Zero
	for _, addonID := range addonIDs {
		addon, ok := byID[addonID]
		if !ok || !addon.IsActive {
			return nil, decimal.Zero, ErrAddonNotAvailable
		}
		addons = append(addons, models.OrderItemAddon{
			AddonID:     addon.ID,
			Name:        addon.Name,
			PriceAmount: addon.PriceAmount,
		})
		total = total.Add(addon.PriceAmount.Decimal)
	}
	return addons, total.Round(2), nil
}

// newOrderFromPayload 按冻结定价组装订单与订单项，不落库
func newOrderFromPayload(payload *PendingOrderPayload, provider, status string, now time.Time) (*models.Order, []models.OrderItem) {
	order := &models.Order{
		OrderNo:         generateOrderNo(),
		UserID:          payload.UserID,
		Status:          status,
		Currency:        payload.Currency,
		SubtotalAmount:  payload.Subtotal,
		AddonAmount:     payload.AddonTotal,
		DeliveryFee:     payload.DeliveryFee,
		TotalAmount:     payload.Total,
		PaymentProvider: provider,
		TableNo:         payload.TableNo,
		Remark:          payload.Remark,
		StationHint:     payload.StationHint,
		ClientIP:        payload.ClientIP,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	items := make([]models.OrderItem, 0, len(payload.Lines))
	for _, line := range payload.Lines {
		items = append(items, models.OrderItem{
			ProductID:   line.ProductID,
			Name:        line.Name,
			FoodType:    line.FoodType,
			StationCode: line.StationCode,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			Addons:      line.Addons,
			AddonPrice:  line.AddonPrice,
			TotalPrice:  line.TotalPrice,
			PrepSeconds: line.PrepSeconds,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return order, items
}

// materializePendingOrder 将冻结的待结算单落成 paid 状态的真实订单。
// 调用方须先确认 Payment 的 order_id 仍为空，保证每笔支付至多落单一次。
func materializePendingOrder(tx *gorm.DB, orderRepo repository.OrderRepository, payload *PendingOrderPayload, provider string, now time.Time) (*models.Order, error) {
	if payload == nil || len(payload.Lines) == 0 {
		return nil, ErrPaymentInvalid
	}
	order, items := newOrderFromPayload(payload, provider, constants.OrderStatusPaid, now)
	order.PaidAt = &now
	if err := orderRepo.WithTx(tx).Create(order, items); err != nil {
		return nil, ErrOrderCreateFailed
	}
	order.Items = items
	return order, nil
}
