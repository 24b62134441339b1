package security

import (
	"context"
	"fmt"
	"slices"

	domain "github.com/oshokin/safehome/internal/domain/security"
	"github.com/oshokin/safehome/internal/geometry"
	"github.com/oshokin/safehome/internal/logger"
)

// AddSecurityZone creates an enabled zone over the default rectangle with the
// smallest free id.
func (m *Manager) AddSecurityZone(ctx context.Context) (ZoneStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.zoneIDs.Allocate()
	zone := domain.NewZone(id, m.defaultZone, m.arena)

	if err := m.store.AddSecurityZone(ctx, zone.Record()); err != nil {
		m.zoneIDs.Release(id)

		return ZoneStatus{}, fmt.Errorf("persist security zone %d: %w", id, err)
	}

	m.zones = append(m.zones, zone)

	logger.DebugKV(ctx, "Security zone added", "zone", id, "sensors", len(zone.Sensors()))

	return zoneStatus(zone), nil
}

// UpdateSecurityZone replaces the zone rectangle and returns the new members.
func (m *Manager) UpdateSecurityZone(ctx context.Context, id int, area geometry.Rect) ([]domain.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	zone, err := m.zone(id)
	if err != nil {
		return nil, err
	}

	record := zone.Record()
	record.Area = area

	if err = m.store.UpdateSecurityZone(ctx, id, record); err != nil {
		return nil, fmt.Errorf("persist security zone %d: %w", id, err)
	}

	zone.Update(area, m.arena)

	logger.DebugKV(ctx, "Security zone updated", "zone", id, "area", area.Area().String())

	return zone.Sensors(), nil
}

// RemoveSecurityZone deletes the zone and returns its id to the pool.
func (m *Manager) RemoveSecurityZone(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.zoneIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", domain.ErrSecurityZoneNotFound, id)
	}

	if err := m.store.RemoveSecurityZone(ctx, id); err != nil {
		return fmt.Errorf("persist security zone removal %d: %w", id, err)
	}

	m.zones = slices.Delete(m.zones, i, i+1)
	m.zoneIDs.Release(id)

	logger.DebugKV(ctx, "Security zone removed", "zone", id)

	return nil
}

// ArmSecurityZone enables the zone.
func (m *Manager) ArmSecurityZone(ctx context.Context, id int) error {
	return m.SetSecurityZoneArm(ctx, id, true)
}

// DisarmSecurityZone disables the zone.
func (m *Manager) DisarmSecurityZone(ctx context.Context, id int) error {
	return m.SetSecurityZoneArm(ctx, id, false)
}

// SetSecurityZoneArm sets whether the zone arms its members.
func (m *Manager) SetSecurityZoneArm(ctx context.Context, id int, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	zone, err := m.zone(id)
	if err != nil {
		return err
	}

	record := zone.Record()
	record.Enabled = enabled

	if err = m.store.UpdateSecurityZone(ctx, id, record); err != nil {
		return fmt.Errorf("persist security zone %d: %w", id, err)
	}

	zone.SetEnabled(enabled)

	return nil
}

// SecurityZone returns a view of the zone.
func (m *Manager) SecurityZone(id int) (ZoneStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	zone, err := m.zone(id)
	if err != nil {
		return ZoneStatus{}, err
	}

	return zoneStatus(zone), nil
}

// SecurityZones returns every zone in creation order.
func (m *Manager) SecurityZones() []ZoneStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	zones := make([]ZoneStatus, 0, len(m.zones))
	for _, zone := range m.zones {
		zones = append(zones, zoneStatus(zone))
	}

	return zones
}

func (m *Manager) zone(id int) (*domain.Zone, error) {
	i := m.zoneIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrSecurityZoneNotFound, id)
	}

	return m.zones[i], nil
}

func (m *Manager) zoneIndex(id int) int {
	return slices.IndexFunc(m.zones, func(z *domain.Zone) bool {
		return z.ID() == id
	})
}
