package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// sweepTimeout ограничивает одну очистку.
const sweepTimeout = 30 * time.Second

// ExpiredStore удаляет записи, истёкшие к моменту now.
type ExpiredStore interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper периодически удаляет истёкшие сессии и одноразовые коды.
type Sweeper struct {
	cron     *cron.Cron
	sessions ExpiredStore
	codes    ExpiredStore
	log      *logrus.Logger
	now      func() time.Time
}

// NewSweeper регистрирует задачу очистки по расписанию schedule (cron или @every).
func NewSweeper(schedule string, sessions, codes ExpiredStore, log *logrus.Logger) (*Sweeper, error) {
	s := &Sweeper{
		cron:     cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(log)))),
		sessions: sessions,
		codes:    codes,
		log:      log,
		now:      time.Now,
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("scheduler: некорректное расписание %q: %w", schedule, err)
	}
	return s, nil
}

// Start запускает планировщик в отдельной горутине.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop останавливает планировщик и ждёт завершения текущей задачи, но не дольше ctx.
func (s *Sweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Sweep выполняет одну очистку и возвращает количество удалённых сессий и кодов.
func (s *Sweeper) Sweep(ctx context.Context) (int64, int64, error) {
	now := s.now()

	sessions, err := s.sessions.DeleteExpired(ctx, now)
	if err != nil {
		return 0, 0, fmt.Errorf("scheduler: очистка сессий: %w", err)
	}

	codes, err := s.codes.DeleteExpired(ctx, now)
	if err != nil {
		return sessions, 0, fmt.Errorf("scheduler: очистка кодов: %w", err)
	}

	return sessions, codes, nil
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	sessions, codes, err := s.Sweep(ctx)
	if err != nil {
		s.log.WithError(err).Error("scheduler: очистка завершилась с ошибкой")
		return
	}
	s.log.WithFields(logrus.Fields{
		"sessions": sessions,
		"codes":    codes,
	}).Info("scheduler: истёкшие записи удалены")
}
