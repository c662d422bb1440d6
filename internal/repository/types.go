package repository

import "time"

// ProductListFilter 查询菜品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	FoodType   string
	Search     string
	OnlyActive bool
	WithAddons bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page            int
	PageSize        int
	UserID          uint
	AssignedStaffID uint
	Status          string
	OrderNo         string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
}

// PaymentListFilter 查询支付列表的过滤条件
type PaymentListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	OrderID     uint
	Provider    string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// TaskListFilter 查询工位任务列表的过滤条件
type TaskListFilter struct {
	Page        int
	PageSize    int
	OrderID     uint
	StationCode string
	Statuses    []string
}

// ShiftListFilter 查询排班列表的过滤条件
type ShiftListFilter struct {
	Page      int
	PageSize  int
	StaffID   uint
	ShiftDate string
	Status    string
}

// AuditLogListFilter 查询审计日志列表的过滤条件
type AuditLogListFilter struct {
	Page        int
	PageSize    int
	ActorID     uint
	Action      string
	Resource    string
	ResourceID  uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
