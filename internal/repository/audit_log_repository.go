package repository

import (
	"github.com/prepflow/internal/models"

	"gorm.io/gorm"
)

// AuditLogRepository 审计日志数据访问接口
type AuditLogRepository interface {
	Create(entry *models.AuditLog) error
	List(filter AuditLogListFilter) ([]models.AuditLog, int64, error)
	WithTx(tx *gorm.DB) *GormAuditLogRepository
}

// GormAuditLogRepository GORM 实现
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository 创建审计日志仓库
func NewAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAuditLogRepository) WithTx(tx *gorm.DB) *GormAuditLogRepository {
	if tx == nil {
		return r
	}
	return &GormAuditLogRepository{db: tx}
}

// Create 写入审计日志
func (r *GormAuditLogRepository) Create(entry *models.AuditLog) error {
	return r.db.Create(entry).Error
}

// List 审计日志列表查询
func (r *GormAuditLogRepository) List(filter AuditLogListFilter) ([]models.AuditLog, int64, error) {
	query := r.db.Model(&models.AuditLog{})

	if filter.ActorID != 0 {
		query = query.Where("actor_id = ?", filter.ActorID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.Resource != "" {
		query = query.Where("resource = ?", filter.Resource)
	}
	if filter.ResourceID != 0 {
		query = query.Where("resource_id = ?", filter.ResourceID)
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

	var entries []models.AuditLog
	if err := query.Order("id desc").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
