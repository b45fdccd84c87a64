package workflow

import (
	"context"
	"fmt"
)

// GuardFunc decides whether a configured transition may fire
type GuardFunc func(ctx context.Context) bool

// MachineBuilder assembles a configured status machine
type MachineBuilder interface {
	// Configure returns the transition configuration for the given status
	Configure(status Status) StatusConfiguration

	// Build creates a machine instance positioned at the given status
	Build(initial Status) StatusMachine
}

// StatusConfiguration configures outgoing transitions for one status
type StatusConfiguration interface {
	// Permit allows a trigger to transition to the target status
	Permit(trigger Trigger, to Status) StatusConfiguration

	// PermitIf allows the transition only when the guard passes
	PermitIf(trigger Trigger, to Status, guard GuardFunc) StatusConfiguration
}

type transition struct {
	to    Status
	guard GuardFunc
}

type statusConfig struct {
	from        Status
	transitions map[Trigger][]transition
}

type machineBuilder struct {
	configurations map[Status]*statusConfig
}

type statusMachine struct {
	current        Status
	configurations map[Status]*statusConfig
}

// NewBuilder creates a new status machine builder
func NewBuilder() MachineBuilder {
	return &machineBuilder{
		configurations: make(map[Status]*statusConfig),
	}
}

func (b *machineBuilder) Configure(status Status) StatusConfiguration {
	if !status.IsValid() {
		panic(fmt.Sprintf("invalid status: %s", status))
	}

	config, ok := b.configurations[status]
	if !ok {
		config = &statusConfig{
			from:        status,
			transitions: make(map[Trigger][]transition),
		}
		b.configurations[status] = config
	}
	return config
}

func (b *machineBuilder) Build(initial Status) StatusMachine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial status: %s", initial))
	}

	// Copy the configuration so later builder changes don't leak into machines
	configs := make(map[Status]*statusConfig, len(b.configurations))
	for status, config := range b.configurations {
		transitions := make(map[Trigger][]transition, len(config.transitions))
		for trigger, ts := range config.transitions {
			transitions[trigger] = append([]transition{}, ts...)
		}
		configs[status] = &statusConfig{from: status, transitions: transitions}
	}

	return &statusMachine{current: initial, configurations: configs}
}

func (c *statusConfig) Permit(trigger Trigger, to Status) StatusConfiguration {
	return c.PermitIf(trigger, to, nil)
}

func (c *statusConfig) PermitIf(trigger Trigger, to Status, guard GuardFunc) StatusConfiguration {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target status: %s", to))
	}

	c.transitions[trigger] = append(c.transitions[trigger], transition{to: to, guard: guard})
	return c
}

func (m *statusMachine) Status() Status {
	return m.current
}

func (m *statusMachine) CanFire(trigger Trigger) bool {
	config, ok := m.configurations[m.current]
	if !ok {
		return false
	}

	ts, ok := config.transitions[trigger]
	return ok && len(ts) > 0
}

func (m *statusMachine) Fire(ctx context.Context, trigger Trigger) error {
	config, ok := m.configurations[m.current]
	if !ok {
		return fmt.Errorf("%w: trigger %s from %s (no configuration)", ErrInvalidTransition, trigger, m.current)
	}

	ts, ok := config.transitions[trigger]
	if !ok || len(ts) == 0 {
		return fmt.Errorf("%w: trigger %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, t := range ts {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.to
			return nil
		}
	}

	return fmt.Errorf("%w: trigger %s from %s", ErrGuardFailed, trigger, m.current)
}

func (m *statusMachine) PermittedTriggers() []Trigger {
	config, ok := m.configurations[m.current]
	if !ok {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(config.transitions))
	for trigger := range config.transitions {
		triggers = append(triggers, trigger)
	}
	return triggers
}
