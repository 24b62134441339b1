package security

import (
	"context"
	"fmt"
	"slices"

	domain "github.com/oshokin/safehome/internal/domain/security"
	"github.com/oshokin/safehome/internal/logger"
)

// AddSecurityMode appends an empty mode named name.
func (m *Manager) AddSecurityMode(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.modeIndex(name) >= 0 {
		return fmt.Errorf("%w: %q", domain.ErrSecurityModeAlreadyExists, name)
	}

	if err := m.store.AddSecurityMode(ctx, domain.ModeRecord{Name: name}); err != nil {
		return fmt.Errorf("persist security mode %q: %w", name, err)
	}

	m.modes = append(m.modes, &domain.Mode{Name: name})

	logger.DebugKV(ctx, "Security mode added", "mode", name)

	return nil
}

// SecurityMode returns a view of the mode named name.
func (m *Manager) SecurityMode(name string) (ModeStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.modeIndex(name)
	if i < 0 {
		return ModeStatus{}, fmt.Errorf("%w: %q", domain.ErrSecurityModeNotFound, name)
	}

	return m.modeStatus(i), nil
}

// UpdateSecurityMode replaces the sensors armed by the mode.
// Every handle must refer to a registered sensor.
func (m *Manager) UpdateSecurityMode(ctx context.Context, name string, sensors []domain.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.modeIndex(name)
	if i < 0 {
		return fmt.Errorf("%w: %q", domain.ErrSecurityModeNotFound, name)
	}

	record := domain.ModeRecord{Name: name}

	for _, h := range sensors {
		s, err := m.lookup(h)
		if err != nil {
			return err
		}

		record.Sensors = append(record.Sensors, domain.RefOf(s))
	}

	if err := m.store.UpdateSecurityMode(ctx, name, record); err != nil {
		return fmt.Errorf("persist security mode %q: %w", name, err)
	}

	m.modes[i].Sensors = slices.Clone(sensors)

	logger.DebugKV(ctx, "Security mode updated", "mode", name, "sensors", len(sensors))

	return nil
}

// RemoveSecurityMode deletes the mode. The active index keeps pointing at the
// same mode when an earlier one is removed; removing the active mode clears it.
func (m *Manager) RemoveSecurityMode(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.modeIndex(name)
	if i < 0 {
		return fmt.Errorf("%w: %q", domain.ErrSecurityModeNotFound, name)
	}

	active := m.active

	if m.active != nil {
		switch {
		case *m.active == i:
			active = nil
		case *m.active > i:
			shifted := *m.active - 1
			active = &shifted
		}
	}

	if err := m.store.RemoveSecurityMode(ctx, name); err != nil {
		return fmt.Errorf("persist security mode removal %q: %w", name, err)
	}

	if active != m.active {
		if err := m.store.SetActiveSecurityMode(ctx, active); err != nil {
			return fmt.Errorf("persist active security mode: %w", err)
		}
	}

	m.modes = slices.Delete(m.modes, i, i+1)
	m.active = active

	logger.DebugKV(ctx, "Security mode removed", "mode", name)

	return nil
}

// SetSecurityModeIndex activates the mode at index; nil deactivates every mode.
func (m *Manager) SetSecurityModeIndex(ctx context.Context, index *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index != nil && (*index < 0 || *index >= len(m.modes)) {
		return fmt.Errorf("%w: index %d", domain.ErrSecurityModeNotFound, *index)
	}

	return m.setActive(ctx, index)
}

// SetSecurityModeName activates the mode named name.
func (m *Manager) SetSecurityModeName(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.modeIndex(name)
	if i < 0 {
		return fmt.Errorf("%w: %q", domain.ErrSecurityModeNotFound, name)
	}

	return m.setActive(ctx, &i)
}

// ActiveSecurityMode returns the name of the active mode.
func (m *Manager) ActiveSecurityMode() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil || *m.active < 0 || *m.active >= len(m.modes) {
		return "", false
	}

	return m.modes[*m.active].Name, true
}

// SecurityModes returns every mode in creation order.
func (m *Manager) SecurityModes() []ModeStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	modes := make([]ModeStatus, 0, len(m.modes))
	for i := range m.modes {
		modes = append(modes, m.modeStatus(i))
	}

	return modes
}

func (m *Manager) setActive(ctx context.Context, index *int) error {
	if err := m.store.SetActiveSecurityMode(ctx, cloneInt(index)); err != nil {
		return fmt.Errorf("persist active security mode: %w", err)
	}

	m.active = cloneInt(index)

	if index == nil {
		logger.InfoKV(ctx, "Security mode deactivated")
	} else {
		logger.InfoKV(ctx, "Security mode activated", "mode", m.modes[*index].Name)
	}

	return nil
}

func (m *Manager) modeStatus(i int) ModeStatus {
	return ModeStatus{
		Name:    m.modes[i].Name,
		Sensors: slices.Clone(m.modes[i].Sensors),
		Active:  m.active != nil && *m.active == i,
	}
}

func (m *Manager) modeIndex(name string) int {
	return slices.IndexFunc(m.modes, func(mode *domain.Mode) bool {
		return mode.Name == name
	})
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}

	c := *v

	return &c
}
