package models

import "time"

// UnitKind discriminates fleet unit categories.
type UnitKind string

const (
	UnitDrone UnitKind = "drone"
	UnitRobot UnitKind = "robot"
)

// UnitStatus reflects a unit's operational state.
type UnitStatus string

const (
	UnitAvailable  UnitStatus = "available"
	UnitDeployed   UnitStatus = "deployed"
	UnitCharging   UnitStatus = "charging"
	UnitMaintained UnitStatus = "maintenance"
	UnitOffline    UnitStatus = "offline"
)

// Unit represents a drone or ground robot in the operations fleet.
type Unit struct {
	ID             string     `json:"id"`
	Kind           UnitKind   `json:"kind"`
	Callsign       string     `json:"callsign"`
	Model          string     `json:"model,omitempty"`
	Status         UnitStatus `json:"status"`
	Jurisdiction   string     `json:"jurisdiction,omitempty"`
	BatteryPercent int        `json:"battery_percent"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	LastContact    time.Time  `json:"last_contact"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
