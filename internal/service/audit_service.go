package service

import (
	"time"

	"github.com/prepflow/internal/models"
	"github.com/prepflow/internal/repository"

	"gorm.io/gorm"
)

// AuditService 审计日志服务
type AuditService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditService 创建审计日志服务
func NewAuditService(auditRepo repository.AuditLogRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// AuditEntry 一条审计记录
type AuditEntry struct {
	ActorID    uint
	ActorType  string
	Action     string
	Resource   string
	ResourceID uint
	Detail     models.JSON
}

// Record 写入审计日志。传入 tx 时与业务变更同事务落库。
func (s *AuditService) Record(tx *gorm.DB, entry AuditEntry) error {
	if entry.Action == "" || entry.Resource == "" {
		return ErrInvalidInput
	}
	row := &models.AuditLog{
		ActorID:    entry.ActorID,
		ActorType:  entry.ActorType,
		Action:     entry.Action,
		Resource:   entry.Resource,
		ResourceID: entry.ResourceID,
		Detail:     entry.Detail,
		CreatedAt:  time.Now(),
	}
	return s.auditRepo.WithTx(tx).Create(row)
}

// List 审计日志分页查询
func (s *AuditService) List(filter repository.AuditLogListFilter) ([]models.AuditLog, int64, error) {
	return s.auditRepo.List(filter)
}
