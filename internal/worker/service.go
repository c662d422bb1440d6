package worker

import (
	"context"
	"errors"
	"time"

	"github.com/prepflow/internal/config"
	"github.com/prepflow/internal/logger"
	"github.com/prepflow/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	sweepInterval        = time.Minute
	stuckPaymentAge      = 2 * time.Minute
	sweepBatchLimit      = 100
	shiftSweepClock      = "04:00"
	shiftSweepDateLayout = "2006-01-02"
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	go s.runSweepLoop(ctx)
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runSweepLoop 周期性兜底：卡住的在线流水入队对账、
// 每天凌晨触发一次历史排班清理。
func (s *Service) runSweepLoop(ctx context.Context) {
	if s == nil || s.consumer == nil {
		return
	}
	runOnce := func() {
		if _, err := s.consumer.PaymentService.SweepStuckPayments(stuckPaymentAge, sweepBatchLimit); err != nil {
			logger.Warnw("worker_payment_sweep_failed", "error", err)
		}
		if time.Now().Format("15:04") == shiftSweepClock {
			payload := queue.ShiftMissedSweepPayload{Before: time.Now().Format(shiftSweepDateLayout)}
			if err := s.consumer.QueueClient.EnqueueShiftMissedSweep(payload); err != nil {
				logger.Warnw("worker_shift_sweep_enqueue_failed", "error", err)
			}
		}
	}
	runOnce()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
