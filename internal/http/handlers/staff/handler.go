package staff

import "github.com/prepflow/internal/provider"

// Handler 员工侧接口处理器入口
// 说明：打卡、厨房看板、工位任务流转与现金收款都走这里。
type Handler struct {
	*provider.Container
}

// New 创建员工侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
