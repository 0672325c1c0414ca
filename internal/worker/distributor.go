package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"zenithmedia_bot/internal/logger"
	"zenithmedia_bot/internal/service"
)

// Notifier delivers messages out of the worker; satisfied by *bot.Bot.
type Notifier interface {
	NotifyCreator(tgID int64, text string)
	NotifyAdmins(text string)
}

// Distributor runs the reward key distribution on a fixed interval. Missed
// ticks are not replayed: the eligibility query looks at the full trailing
// window, so a late cycle hands out the same keys a punctual one would have.
type Distributor struct {
	rewards  *service.RewardService
	notifier Notifier
	interval time.Duration
	log      *slog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup

	// tickC overrides the interval ticker when set; tests drive cycles
	// through it
	tickC <-chan time.Time

	// exhaustion is reported to the operators once, not every cycle
	exhaustedReported bool
}

func NewDistributor(rewards *service.RewardService, notifier Notifier, interval time.Duration) *Distributor {
	return &Distributor{
		rewards:  rewards,
		notifier: notifier,
		interval: interval,
		log:      logger.With("component", "distributor"),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the distribution loop.
func (d *Distributor) Start() {
	d.wg.Add(1)
	go d.run()
	d.log.Info("distributor started", "interval", d.interval)
}

// Stop signals the loop to exit and waits for the cycle in flight.
func (d *Distributor) Stop() {
	close(d.stopCh)
	d.wg.Wait()
	d.log.Info("distributor stopped")
}

func (d *Distributor) run() {
	defer d.wg.Done()

	tickC := d.tickC
	if tickC == nil {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		tickC = ticker.C
	}

	for {
		select {
		case <-tickC:
			d.runCycle()
		case <-d.stopCh:
			return
		}
	}
}

func (d *Distributor) runCycle() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := d.rewards.DistributeOnce(ctx)
	if err != nil {
		d.log.Error("distribution cycle failed", "error", err)
		return
	}

	for _, a := range report.Assigned {
		d.notifier.NotifyCreator(a.Creator.TgID,
			fmt.Sprintf("Вы выполнили норму по видео! Ваш ключ: %s", a.Key))
	}

	if len(report.Assigned) > 0 {
		d.notifier.NotifyAdmins(fmt.Sprintf("Раздача ключей: выдано %d", len(report.Assigned)))
	}

	if report.Exhausted {
		if !d.exhaustedReported {
			d.notifier.NotifyAdmins(fmt.Sprintf(
				"Ключи закончились, без ключа осталось %d подходящих авторов. Загрузите новые ключи.",
				report.SkippedEligible))
			d.exhaustedReported = true
		}
	} else {
		d.exhaustedReported = false
	}
}
