package server

import (
	"context"
	"time"

	domain "github.com/oshokin/safehome/internal/domain/security"
	"github.com/oshokin/safehome/internal/logger"
	"github.com/oshokin/safehome/internal/notify"
	"github.com/oshokin/safehome/internal/service/security"
)

// Updater is the part of the security manager the poller drives.
type Updater interface {
	Update(ctx context.Context, detectedSensorReset bool) (security.Readings, []domain.Handle, error)
	AlarmTriggered() bool
	ActiveSecurityMode() (string, bool)
	Sensor(h domain.Handle) (domain.Sensor, error)
}

// Poller runs the arming resolution cycle on a fixed interval and raises
// alarm notifications.
type Poller struct {
	// updater is the security manager.
	updater Updater
	// notifier receives an event for every triggered alarm.
	notifier notify.Notifier
	// interval is the period between two cycles.
	interval time.Duration
	// reset releases tripped sensors after each cycle.
	reset bool
	// now returns the current time; replaced in tests.
	now func() time.Time
}

// NewPoller returns a poller driving updater every interval.
func NewPoller(updater Updater, notifier notify.Notifier, interval time.Duration, reset bool) *Poller {
	if notifier == nil {
		notifier = notify.Nop{}
	}

	return &Poller{
		updater:  updater,
		notifier: notifier,
		interval: interval,
		reset:    reset,
		now:      time.Now,
	}
}

// Run ticks until ctx is canceled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	logger.InfoKV(ctx, "Polling started", "interval", p.interval, "reset_detected", p.reset)

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Polling stopped")

			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick runs one cycle. It reports whether the alarm went off.
// Storage and notification failures are logged; the next cycle runs regardless.
func (p *Poller) Tick(ctx context.Context) bool {
	_, tripped, err := p.updater.Update(ctx, p.reset)
	if err != nil {
		logger.ErrorKV(ctx, "Update cycle failed", "error", err)
	}

	if !p.updater.AlarmTriggered() {
		return false
	}

	event := notify.Event{
		Time:    p.now(),
		Sensors: make([]string, 0, len(tripped)),
	}

	event.Mode, _ = p.updater.ActiveSecurityMode()

	sensors := make([]domain.Sensor, 0, len(tripped))

	for _, h := range tripped {
		s, err := p.updater.Sensor(h)
		if err != nil {
			continue
		}

		sensors = append(sensors, s)
		event.Sensors = append(event.Sensors, domain.RefOf(s).String())
	}

	event.Description = domain.DescribeSensors(sensors)

	logger.WarnKV(ctx, "Alarm triggered", "sensors", event.Sensors, "mode", event.Mode)

	if err = p.notifier.Notify(ctx, event); err != nil {
		logger.WarnKV(ctx, "Alarm notification failed", "error", err)
	}

	return true
}
