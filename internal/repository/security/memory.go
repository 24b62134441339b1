package security

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	domain "github.com/oshokin/safehome/internal/domain/security"
)

// MemoryRepository keeps every record in process memory.
type MemoryRepository struct {
	// sensors holds sensor records in registration order.
	sensors []SensorRecord
	// zones holds zone records in creation order.
	zones []domain.ZoneRecord
	// modes holds mode records in creation order.
	modes []domain.ModeRecord
	// active is the index of the active mode, nil when none.
	active *int
	// logs holds saved intrusion entries.
	logs []domain.LogEntry
	// lastLogID is the id of the most recently saved entry.
	lastLogID int64
	// mu protects every field above.
	mu sync.Mutex
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return new(MemoryRepository)
}

// NewSeededMemoryRepository returns a repository holding the default floor plan:
// ten powered sensors without overrides, the four default modes, no zones and
// no active mode.
func NewSeededMemoryRepository() *MemoryRepository {
	r := NewMemoryRepository()
	seed := domain.DefaultSensors()

	for _, s := range seed {
		r.sensors = append(r.sensors, SensorRecord{Sensor: s, On: true})
	}

	r.modes = domain.DefaultModes(seed)

	return r
}

// Sensors returns the stored sensors.
func (r *MemoryRepository) Sensors(_ context.Context) ([]SensorRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]SensorRecord, len(r.sensors))
	for i, rec := range r.sensors {
		records[i] = SensorRecord{Sensor: rec.Sensor, On: rec.On, Arm: cloneBool(rec.Arm)}
	}

	return records, nil
}

// AddSensor stores a new sensor.
func (r *MemoryRepository) AddSensor(_ context.Context, record SensorRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref := domain.RefOf(record.Sensor)
	if r.sensorIndex(ref) >= 0 {
		return fmt.Errorf("add sensor %s: %w", ref, domain.ErrSensorAlreadyExists)
	}

	r.sensors = append(r.sensors, SensorRecord{Sensor: record.Sensor, On: record.On, Arm: cloneBool(record.Arm)})

	return nil
}

// TurnOnOffSensor updates the power flag of a sensor.
func (r *MemoryRepository) TurnOnOffSensor(_ context.Context, ref domain.SensorRef, on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.sensorIndex(ref)
	if i < 0 {
		return fmt.Errorf("turn on/off sensor %s: %w", ref, ErrNotFound)
	}

	r.sensors[i].On = on

	return nil
}

// RemoveSensor deletes a sensor and drops it from every mode.
func (r *MemoryRepository) RemoveSensor(_ context.Context, ref domain.SensorRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.sensorIndex(ref)
	if i < 0 {
		return fmt.Errorf("remove sensor %s: %w", ref, ErrNotFound)
	}

	r.sensors = slices.Delete(r.sensors, i, i+1)

	for m := range r.modes {
		r.modes[m].Sensors = slices.DeleteFunc(r.modes[m].Sensors, func(s domain.SensorRef) bool {
			return s == ref
		})
	}

	return nil
}

// UpdateSensor replaces the power flag and manual override of a sensor.
func (r *MemoryRepository) UpdateSensor(_ context.Context, ref domain.SensorRef, on bool, arm *bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.sensorIndex(ref)
	if i < 0 {
		return fmt.Errorf("update sensor %s: %w", ref, ErrNotFound)
	}

	r.sensors[i].On = on
	r.sensors[i].Arm = cloneBool(arm)

	return nil
}

// SecurityZones returns the stored zones.
func (r *MemoryRepository) SecurityZones(_ context.Context) ([]domain.ZoneRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.zones), nil
}

// AddSecurityZone stores a new zone.
func (r *MemoryRepository) AddSecurityZone(_ context.Context, zone domain.ZoneRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.zones = append(r.zones, zone)

	return nil
}

// UpdateSecurityZone replaces the zone with the given id.
func (r *MemoryRepository) UpdateSecurityZone(_ context.Context, id int, zone domain.ZoneRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.zoneIndex(id)
	if i < 0 {
		return fmt.Errorf("update security zone %d: %w", id, ErrNotFound)
	}

	r.zones[i] = zone

	return nil
}

// RemoveSecurityZone deletes the zone with the given id.
func (r *MemoryRepository) RemoveSecurityZone(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.zoneIndex(id)
	if i < 0 {
		return fmt.Errorf("remove security zone %d: %w", id, ErrNotFound)
	}

	r.zones = slices.Delete(r.zones, i, i+1)

	return nil
}

// SecurityModes returns the stored modes.
func (r *MemoryRepository) SecurityModes(_ context.Context) ([]domain.ModeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	modes := make([]domain.ModeRecord, len(r.modes))
	for i, m := range r.modes {
		modes[i] = domain.ModeRecord{Name: m.Name, Sensors: slices.Clone(m.Sensors)}
	}

	return modes, nil
}

// ActiveSecurityMode returns the active mode index, nil when none.
func (r *MemoryRepository) ActiveSecurityMode(_ context.Context) (*int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return cloneInt(r.active), nil
}

// SetActiveSecurityMode stores the active mode index.
func (r *MemoryRepository) SetActiveSecurityMode(_ context.Context, index *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.active = cloneInt(index)

	return nil
}

// AddSecurityMode stores a new mode.
func (r *MemoryRepository) AddSecurityMode(_ context.Context, mode domain.ModeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.modeIndex(mode.Name) >= 0 {
		return fmt.Errorf("add security mode %q: %w", mode.Name, domain.ErrSecurityModeAlreadyExists)
	}

	r.modes = append(r.modes, domain.ModeRecord{Name: mode.Name, Sensors: slices.Clone(mode.Sensors)})

	return nil
}

// RemoveSecurityMode deletes the mode with the given name.
func (r *MemoryRepository) RemoveSecurityMode(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.modeIndex(name)
	if i < 0 {
		return fmt.Errorf("remove security mode %q: %w", name, ErrNotFound)
	}

	r.modes = slices.Delete(r.modes, i, i+1)

	return nil
}

// UpdateSecurityMode replaces the sensors of the mode with the given name.
func (r *MemoryRepository) UpdateSecurityMode(_ context.Context, name string, mode domain.ModeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.modeIndex(name)
	if i < 0 {
		return fmt.Errorf("update security mode %q: %w", name, ErrNotFound)
	}

	r.modes[i] = domain.ModeRecord{Name: mode.Name, Sensors: slices.Clone(mode.Sensors)}

	return nil
}

// SaveLog stores entry and assigns the next sequential id.
func (r *MemoryRepository) SaveLog(_ context.Context, entry *domain.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastLogID++
	entry.ID = r.lastLogID

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	r.logs = append(r.logs, *entry)

	return nil
}

// Logs returns the saved entries in insertion order.
func (r *MemoryRepository) Logs(_ context.Context) ([]domain.LogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.logs), nil
}

// Close is a no-op for the memory repository.
func (*MemoryRepository) Close() error {
	return nil
}

func (r *MemoryRepository) sensorIndex(ref domain.SensorRef) int {
	return slices.IndexFunc(r.sensors, func(rec SensorRecord) bool {
		return domain.RefOf(rec.Sensor) == ref
	})
}

func (r *MemoryRepository) zoneIndex(id int) int {
	return slices.IndexFunc(r.zones, func(z domain.ZoneRecord) bool {
		return z.ID == id
	})
}

func (r *MemoryRepository) modeIndex(name string) int {
	return slices.IndexFunc(r.modes, func(m domain.ModeRecord) bool {
		return m.Name == name
	})
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}

	c := *v

	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}

	c := *v

	return &c
}
