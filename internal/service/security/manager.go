package security

import (
	"context"
	"fmt"
	"slices"
	"sync"

	domain "github.com/oshokin/safehome/internal/domain/security"
	"github.com/oshokin/safehome/internal/geometry"
	"github.com/oshokin/safehome/internal/logger"
	repository "github.com/oshokin/safehome/internal/repository/security"
)

// Store is the persistence the manager needs besides the intrusion log.
type Store interface {
	repository.SensorRepository
	repository.ZoneRepository
	repository.ModeRepository
}

// Manager resolves arming, detects intrusions and owns the security configuration.
type Manager struct {
	// store persists every configuration change.
	store Store
	// logs stores intrusion entries.
	logs *LogManager
	// observer is notified after every Update; may be nil.
	observer Observer

	// arena owns the sensors.
	arena *domain.Arena
	// policies holds the power flag and manual override per sensor.
	policies map[domain.Handle]*SensorPolicy
	// controller reads the sensors each cycle.
	controller *Controller
	// zones are kept in creation order.
	zones []*domain.Zone
	// zoneIDs hands out the smallest free zone id.
	zoneIDs *domain.IDPool
	// defaultZone is the rectangle of newly added zones.
	defaultZone geometry.Rect
	// modes are kept in creation order; the active mode is an index into it.
	modes []*domain.Mode
	// active is the active mode index, nil when none.
	active *int
	// bypass suppresses alarms for the listed sensors until finished.
	bypass map[domain.Handle]struct{}
	// alarm is the siren latch that survives across cycles.
	alarm domain.Alarm

	// mu serializes every call into the manager.
	mu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithObserver registers an observer called after every Update.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		m.observer = o
	}
}

// WithDefaultZone overrides the rectangle newly added zones start with.
func WithDefaultZone(area geometry.Rect) Option {
	return func(m *Manager) {
		m.defaultZone = area
	}
}

// NewManager loads sensors, zones, modes and the active mode from store.
// Mode members that no longer exist are dropped with a warning.
func NewManager(ctx context.Context, store Store, logs *LogManager, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:       store,
		logs:        logs,
		arena:       domain.NewArena(),
		policies:    make(map[domain.Handle]*SensorPolicy),
		zoneIDs:     domain.NewIDPool(),
		defaultZone: domain.DefaultZoneArea(),
		bypass:      make(map[domain.Handle]struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.controller = NewController(m.arena, m.policies)

	sensors, err := store.Sensors(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sensors: %w", err)
	}

	for _, rec := range sensors {
		h, err := m.arena.Insert(rec.Sensor)
		if err != nil {
			return nil, fmt.Errorf("load sensors: %w", err)
		}

		m.policies[h] = &SensorPolicy{On: rec.On, Arm: cloneBool(rec.Arm)}
	}

	zones, err := store.SecurityZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("load security zones: %w", err)
	}

	for _, rec := range zones {
		m.zoneIDs.Reserve(rec.ID)

		zone := domain.NewZone(rec.ID, rec.Area, m.arena)
		zone.SetEnabled(rec.Enabled)
		m.zones = append(m.zones, zone)
	}

	modes, err := store.SecurityModes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load security modes: %w", err)
	}

	for _, rec := range modes {
		mode := &domain.Mode{Name: rec.Name}

		for _, ref := range rec.Sensors {
			h, ok := m.arena.Lookup(ref)
			if !ok {
				logger.WarnKV(ctx, "Dropping unknown sensor from security mode", "mode", rec.Name, "sensor", ref.String())

				continue
			}

			mode.Sensors = append(mode.Sensors, h)
		}

		m.modes = append(m.modes, mode)
	}

	if m.active, err = store.ActiveSecurityMode(ctx); err != nil {
		return nil, fmt.Errorf("load active security mode: %w", err)
	}

	logger.InfoKV(ctx, "Security manager loaded",
		"sensors", m.arena.Len(), "zones", len(m.zones), "modes", len(m.modes))

	return m, nil
}

// Update resolves the armed state of every sensor, reads them and raises the
// alarm for armed intrusions.
//
// Arming is rebuilt from scratch: every sensor is disarmed, then the active
// mode arms its sensors, then every enabled zone arms its members, and finally
// manual overrides force arm or disarm. Tripped sensors that are not bypassed
// trigger the siren, and one log entry lists every tripped armed sensor,
// bypassed ones included. With detectedSensorReset the tripped sensors are
// released afterwards; release failures are ignored.
func (m *Manager) Update(ctx context.Context, detectedSensorReset bool) (Readings, []domain.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	handles := m.arena.Handles()

	for _, h := range handles {
		m.sensor(h).Disarm()
	}

	if m.active != nil {
		if *m.active >= 0 && *m.active < len(m.modes) {
			for _, h := range m.modes[*m.active].Sensors {
				if s, ok := m.arena.Get(h); ok {
					s.Arm()
				}
			}
		} else {
			m.active = nil
		}
	}

	for _, zone := range m.zones {
		if !zone.Enabled() {
			continue
		}

		for _, h := range zone.Sensors() {
			if s, ok := m.arena.Get(h); ok {
				s.Arm()
			}
		}
	}

	for _, h := range handles {
		policy := m.policies[h]
		if policy.Arm == nil {
			continue
		}

		if *policy.Arm {
			m.sensor(h).Arm()
		} else {
			m.sensor(h).Disarm()
		}
	}

	readings, tripped := m.controller.Read()

	report := CycleReport{Tripped: len(tripped)}

	for _, h := range tripped {
		if _, ok := m.bypass[h]; ok {
			report.Bypassed++

			continue
		}

		m.alarm.Siren()
		report.Alarmed = true
	}

	var logErr error

	if report.Alarmed {
		trippedSensors := make([]domain.Sensor, 0, len(tripped))
		for _, h := range tripped {
			trippedSensors = append(trippedSensors, m.sensor(h))
		}

		entry := &domain.LogEntry{
			Timestamp:   m.logs.Now(),
			Description: domain.DescribeSensors(trippedSensors),
		}

		logErr = m.logs.Save(ctx, entry)
		if logErr == nil {
			logger.WarnKV(ctx, "Intrusion detected", "log_id", entry.ID, "sensors", entry.Description)
		}
	}

	if detectedSensorReset {
		for _, h := range tripped {
			if err := m.sensor(h).Release(); err != nil {
				logger.DebugKV(ctx, "Sensor release failed", "sensor", h.String(), "error", err)
			}
		}
	}

	if m.observer != nil {
		for _, h := range handles {
			if m.sensor(h).Armed() {
				report.Armed++
			}
		}

		m.observer.ObserveCycle(report)
	}

	return readings, tripped, logErr
}

// NewEntrySensor builds an entry sensor at (x, y) with the next entry id.
// The sensor is not registered until AddSensor.
func (m *Manager) NewEntrySensor(x, y float64) *domain.EntrySensor {
	m.mu.Lock()
	defer m.mu.Unlock()

	return domain.NewEntrySensor(m.arena.NextID(domain.KindEntry), x, y)
}

// NewMotionDetector builds a motion detector over start-end with the next motion id.
// The sensor is not registered until AddSensor.
func (m *Manager) NewMotionDetector(start, end geometry.Coord) *domain.MotionDetector {
	m.mu.Lock()
	defer m.mu.Unlock()

	return domain.NewMotionDetector(m.arena.NextID(domain.KindMotion), start, end)
}

// AddSensor registers s with its power flag and manual override and
// recomputes zone membership.
func (m *Manager) AddSensor(ctx context.Context, s domain.Sensor, on bool, arm *bool) (domain.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ref := domain.RefOf(s)
	if _, ok := m.arena.Lookup(ref); ok {
		return 0, fmt.Errorf("add sensor %s: %w", ref, domain.ErrSensorAlreadyExists)
	}

	err := m.store.AddSensor(ctx, repository.SensorRecord{Sensor: s, On: on, Arm: cloneBool(arm)})
	if err != nil {
		return 0, fmt.Errorf("persist sensor %s: %w", ref, err)
	}

	h, err := m.arena.Insert(s)
	if err != nil {
		return 0, err
	}

	m.policies[h] = &SensorPolicy{On: on, Arm: cloneBool(arm)}
	m.refreshZones()

	logger.DebugKV(ctx, "Sensor added", "sensor", ref.String(), "handle", h.String())

	return h, nil
}

// RemoveSensor unregisters the sensor and returns its last policy.
// The sensor is also dropped from every mode, zone and the bypass set.
func (m *Manager) RemoveSensor(ctx context.Context, h domain.Handle) (SensorPolicy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(h)
	if err != nil {
		return SensorPolicy{}, err
	}

	ref := domain.RefOf(s)
	if err = m.store.RemoveSensor(ctx, ref); err != nil {
		return SensorPolicy{}, fmt.Errorf("persist sensor removal %s: %w", ref, err)
	}

	policy := *m.policies[h]

	_, _ = m.arena.Remove(h)
	delete(m.policies, h)
	delete(m.bypass, h)

	for _, mode := range m.modes {
		mode.Sensors = slices.DeleteFunc(mode.Sensors, func(member domain.Handle) bool {
			return member == h
		})
	}

	m.refreshZones()

	logger.DebugKV(ctx, "Sensor removed", "sensor", ref.String())

	return policy, nil
}

// TurnOnSensor powers the sensor on.
func (m *Manager) TurnOnSensor(ctx context.Context, h domain.Handle) error {
	return m.SetSensorPower(ctx, h, true)
}

// TurnOffSensor powers the sensor off; it is no longer read.
func (m *Manager) TurnOffSensor(ctx context.Context, h domain.Handle) error {
	return m.SetSensorPower(ctx, h, false)
}

// SetSensorPower sets the power flag of the sensor.
func (m *Manager) SetSensorPower(ctx context.Context, h domain.Handle, on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(h)
	if err != nil {
		return err
	}

	ref := domain.RefOf(s)
	if err = m.store.TurnOnOffSensor(ctx, ref, on); err != nil {
		return fmt.Errorf("persist sensor power %s: %w", ref, err)
	}

	m.policies[h].On = on

	return nil
}

// ArmSensor forces the sensor armed regardless of mode and zones.
func (m *Manager) ArmSensor(ctx context.Context, h domain.Handle) error {
	arm := true

	return m.SetSensorArm(ctx, h, &arm)
}

// DisarmSensor forces the sensor disarmed regardless of mode and zones.
func (m *Manager) DisarmSensor(ctx context.Context, h domain.Handle) error {
	arm := false

	return m.SetSensorArm(ctx, h, &arm)
}

// SetSensorArm sets the manual override; nil hands the sensor back to mode and zones.
func (m *Manager) SetSensorArm(ctx context.Context, h domain.Handle, arm *bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(h)
	if err != nil {
		return err
	}

	var (
		ref    = domain.RefOf(s)
		policy = m.policies[h]
	)

	if err = m.store.UpdateSensor(ctx, ref, policy.On, cloneBool(arm)); err != nil {
		return fmt.Errorf("persist sensor override %s: %w", ref, err)
	}

	policy.Arm = cloneBool(arm)

	return nil
}

// SensorBypass suppresses alarms from the sensor until SensorBypassFinish.
func (m *Manager) SensorBypass(ctx context.Context, h domain.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.lookup(h); err != nil {
		return err
	}

	m.bypass[h] = struct{}{}

	logger.InfoKV(ctx, "Sensor bypass started", "sensor", h.String())

	return nil
}

// SensorBypassFinish ends the bypass of the sensor.
// It fails with ErrSensorNotFound when the sensor is not bypassed.
func (m *Manager) SensorBypassFinish(ctx context.Context, h domain.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.bypass[h]; !ok {
		return fmt.Errorf("finish bypass of %s: %w", h, domain.ErrSensorNotFound)
	}

	delete(m.bypass, h)

	logger.InfoKV(ctx, "Sensor bypass finished", "sensor", h.String())

	return nil
}

// Bypassed reports whether the sensor is bypassed.
func (m *Manager) Bypassed(h domain.Handle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.bypass[h]

	return ok
}

// Intrude trips the sensor, simulating a hardware trigger.
func (m *Manager) Intrude(h domain.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(h)
	if err != nil {
		return err
	}

	s.Intrude()

	return nil
}

// Release clears the tripped flag of the sensor.
func (m *Manager) Release(h domain.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(h)
	if err != nil {
		return err
	}

	return s.Release()
}

// Sensor returns the sensor behind h.
func (m *Manager) Sensor(h domain.Handle) (domain.Sensor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lookup(h)
}

// SensorHandle returns the handle of the sensor with ref.
func (m *Manager) SensorHandle(ref domain.SensorRef) (domain.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.arena.Lookup(ref)
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrSensorNotFound, ref)
	}

	return h, nil
}

// Sensors returns the handles of all sensors in registration order.
func (m *Manager) Sensors() []domain.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.arena.Handles()
}

// AlarmTriggered returns whether the alarm went off and clears it.
func (m *Manager) AlarmTriggered() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.alarm.Get()
}

// Logs returns the stored intrusion log.
func (m *Manager) Logs(ctx context.Context) ([]domain.LogEntry, error) {
	return m.logs.List(ctx)
}

// Snapshot returns a view of sensors, zones, modes and the pending alarm.
// It does not clear the alarm.
func (m *Manager) Snapshot() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := Status{
		AlarmPending: m.alarm.Peek(),
	}

	for _, h := range m.arena.Handles() {
		var (
			s         = m.sensor(h)
			policy    = m.policies[h]
			_, bypass = m.bypass[h]
		)

		status.Sensors = append(status.Sensors, SensorStatus{
			Handle:   h,
			Ref:      domain.RefOf(s),
			Area:     s.Area(),
			On:       policy.On,
			Arm:      cloneBool(policy.Arm),
			Armed:    s.Armed(),
			Tripped:  s.Tripped(),
			Bypassed: bypass,
		})
	}

	for _, zone := range m.zones {
		status.Zones = append(status.Zones, zoneStatus(zone))
	}

	for i := range m.modes {
		mode := m.modeStatus(i)
		if mode.Active {
			status.ActiveMode = mode.Name
		}

		status.Modes = append(status.Modes, mode)
	}

	return status
}

// lookup returns the sensor behind h or ErrSensorNotFound.
func (m *Manager) lookup(h domain.Handle) (domain.Sensor, error) {
	s, ok := m.arena.Get(h)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSensorNotFound, h)
	}

	return s, nil
}

// sensor returns the sensor behind a handle known to be live.
func (m *Manager) sensor(h domain.Handle) domain.Sensor {
	s, _ := m.arena.Get(h)

	return s
}

// refreshZones recomputes every zone's membership after the sensor set changed.
func (m *Manager) refreshZones() {
	for _, zone := range m.zones {
		zone.Update(zone.Area(), m.arena)
	}
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}

	c := *v

	return &c
}
