package public

import "github.com/prepflow/internal/provider"

// Handler 顾客侧接口处理器入口
// 说明：点单、结账、订单查询与网关回调都走这里。
type Handler struct {
	*provider.Container
}

// New 创建顾客侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
