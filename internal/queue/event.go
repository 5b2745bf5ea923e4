// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// Routing keys on the events exchange.
const (
	KeyUserRegistered = "user.registered"
	KeyPumpToggled    = "pump.toggled"
)

// Event is anything that can be published on the events exchange.
type Event interface {
	RoutingKey() string
}

// UserRegisteredEvent is published after a new account has been stored.
// It never carries the password or its hash.
type UserRegisteredEvent struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

func (UserRegisteredEvent) RoutingKey() string { return KeyUserRegistered }

// PumpToggledEvent is published after the pump state has been persisted.
// IsPumpOn is the value actually written by the store.
type PumpToggledEvent struct {
	IsPumpOn  bool      `json:"isPumpOn"`
	ToggledAt time.Time `json:"toggled_at"`
}

func (PumpToggledEvent) RoutingKey() string { return KeyPumpToggled }
