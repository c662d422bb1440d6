package repository

import (
	"errors"

	"github.com/prepflow/internal/constants"
	"github.com/prepflow/internal/models"

	"gorm.io/gorm"
)

// StationLoadRow 工位负载统计行
type StationLoadRow struct {
	StationCode string `json:"station_code"`
	Status      string `json:"status"`
	Count       int64  `json:"count"`
}

// StationTaskRepository 工位任务数据访问接口
type StationTaskRepository interface {
	CreateBatch(tasks []models.StationTask) error
	GetByID(id uint) (*models.StationTask, error)
	Update(task *models.StationTask) error
	ListByOrder(orderID uint) ([]models.StationTask, error)
	CountByOrder(orderID uint) (int64, error)
	CountOpenByOrder(orderID uint) (int64, error)
	CountOpenByStation(stationCode string) (int64, error)
	List(filter TaskListFilter) ([]models.StationTask, int64, error)
	StationLoad() ([]StationLoadRow, error)
	WithTx(tx *gorm.DB) *GormStationTaskRepository
}

// GormStationTaskRepository GORM 实现
type GormStationTaskRepository struct {
	db *gorm.DB
}

// NewStationTaskRepository 创建工位任务仓库
func NewStationTaskRepository(db *gorm.DB) *GormStationTaskRepository {
	return &GormStationTaskRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStationTaskRepository) WithTx(tx *gorm.DB) *GormStationTaskRepository {
	if tx == nil {
		return r
	}
	return &GormStationTaskRepository{db: tx}
}

// openStatuses 未完结的任务状态集合
var openStatuses = []string{
	constants.TaskStatusPending,
	constants.TaskStatusAcknowledged,
	constants.TaskStatusInProgress,
}

// CreateBatch 批量创建工位任务
func (r *GormStationTaskRepository) CreateBatch(tasks []models.StationTask) error {
	if len(tasks) == 0 {
		return nil
	}
	return r.db.Create(&tasks).Error
}

// GetByID 根据 ID 获取任务
func (r *GormStationTaskRepository) GetByID(id uint) (*models.StationTask, error) {
	var task models.StationTask
	if err := r.db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

// Update 更新任务
func (r *GormStationTaskRepository) Update(task *models.StationTask) error {
	return r.db.Save(task).Error
}

// ListByOrder 获取订单任务列表
func (r *GormStationTaskRepository) ListByOrder(orderID uint) ([]models.StationTask, error) {
	var tasks []models.StationTask
	if err := r.db.Where("order_id = ?", orderID).
		Order("priority asc, id asc").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// CountByOrder 统计订单任务数量
func (r *GormStationTaskRepository) CountByOrder(orderID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.StationTask{}).
		Where("order_id = ?", orderID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountOpenByOrder 统计订单未完结任务数量（打包就绪判定）
func (r *GormStationTaskRepository) CountOpenByOrder(orderID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.StationTask{}).
		Where("order_id = ? AND status IN ?", orderID, openStatuses).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountOpenByStation 统计工位未完结任务数量
func (r *GormStationTaskRepository) CountOpenByStation(stationCode string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.StationTask{}).
		Where("station_code = ? AND status IN ?", stationCode, openStatuses).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// List 任务列表查询
func (r *GormStationTaskRepository) List(filter TaskListFilter) ([]models.StationTask, int64, error) {
	query := r.db.Model(&models.StationTask{})

	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.StationCode != "" {
		query = query.Where("station_code = ?", filter.StationCode)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var tasks []models.StationTask
	if err := query.Order("priority asc, id asc").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// StationLoad 按工位与状态聚合未完结任务
func (r *GormStationTaskRepository) StationLoad() ([]StationLoadRow, error) {
	var rows []StationLoadRow
	if err := r.db.Model(&models.StationTask{}).
		Select("station_code, status, COUNT(*) AS count").
		Where("status IN ?", openStatuses).
		Group("station_code, status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
