package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/models"

	"gorm.io/gorm"
)

// PaymentRepository 支付数据访问接口
type PaymentRepository interface {
	Create(payment *models.Payment) error
	Update(payment *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByTxnRef(txnRef string) (*models.Payment, error)
	GetLatestByProviderRef(providerRef string) (*models.Payment, error)
	ListByOrderID(orderID uint) ([]models.Payment, error)
	MarkSuccess(id uint, updates map[string]interface{}) (bool, error)
	ListStuckInitiated(olderThan time.Time, providers []string, limit int) ([]models.Payment, error)
	List(filter PaymentListFilter) ([]models.Payment, int64, error)
	WithTx(tx *gorm.DB) *GormPaymentRepository
}

// GormPaymentRepository GORM 实现
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建支付仓库
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) *GormPaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRepository{db: tx}
}

// Create 创建支付记录
func (r *GormPaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// Update 更新支付记录
func (r *GormPaymentRepository) Update(payment *models.Payment) error {
	return r.db.Save(payment).Error
}

// GetByID 根据 ID 获取支付记录
func (r *GormPaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// GetByTxnRef 根据支付流水号获取支付记录
func (r *GormPaymentRepository) GetByTxnRef(txnRef string) (*models.Payment, error) {
	txnRef = strings.TrimSpace(txnRef)
	if txnRef == "" {
		return nil, nil
	}
	var payment models.Payment
	result := r.db.Where("txn_ref = ?", txnRef).Limit(1).Find(&payment)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &payment, nil
}

// GetLatestByProviderRef 根据第三方流水号获取最新支付记录
func (r *GormPaymentRepository) GetLatestByProviderRef(providerRef string) (*models.Payment, error) {
	providerRef = strings.TrimSpace(providerRef)
	if providerRef == "" {
		return nil, nil
	}
	var payment models.Payment
	result := r.db.Where("provider_ref = ?", providerRef).Order("id desc").Limit(1).Find(&payment)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &payment, nil
}

// ListByOrderID 获取订单支付记录
func (r *GormPaymentRepository) ListByOrderID(orderID uint) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.Where("order_id = ?", orderID).Order("id desc").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// MarkSuccess 以条件更新实现 initiated -> success 的原子抢占。
// 返回 false 表示当前状态已不是 initiated，本次回调不生效。
func (r *GormPaymentRepository) MarkSuccess(id uint, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = constants.PaymentStatusSuccess
	result := r.db.Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, constants.PaymentStatusInitiated).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListStuckInitiated 获取长时间停留在 initiated 的支付记录
func (r *GormPaymentRepository) ListStuckInitiated(olderThan time.Time, providers []string, limit int) ([]models.Payment, error) {
	query := r.db.Where("status = ? AND created_at <= ?", constants.PaymentStatusInitiated, olderThan)
	if len(providers) > 0 {
		query = query.Where("provider IN ?", providers)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var payments []models.Payment
	if err := query.Order("id asc").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// List 支付列表查询
func (r *GormPaymentRepository) List(filter PaymentListFilter) ([]models.Payment, int64, error) {
	query := r.db.Model(&models.Payment{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Provider != "" {
		query = query.Where("provider = ?", filter.Provider)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var payments []models.Payment
	if err := query.Order("id desc").Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}
