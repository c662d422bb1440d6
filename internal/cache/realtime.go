package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prepflow/internal/constants"
)

// RealtimeMessage 实时通知消息体
type RealtimeMessage struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// StaffChannel 单个员工的通知频道
func StaffChannel(staffID uint) string {
	return fmt.Sprintf("%s%d", constants.ChannelStaffPrefix, staffID)
}

// StationChannel 工位广播频道
func StationChannel(stationCode string) string {
	return constants.ChannelStationPrefix + stationCode
}

// CustomerChannel 顾客通知频道
func CustomerChannel(userID uint) string {
	return fmt.Sprintf("%s%d", constants.ChannelCustomerPrefix, userID)
}

// PublishRealtime 向频道发布实时通知。缓存未启用时静默跳过，通知是尽力而为的。
func PublishRealtime(ctx context.Context, channel string, msg RealtimeMessage) error {
	if !Enabled() {
		return nil
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return redisClient.Publish(ctx, buildKey(channel), payload).Err()
}
