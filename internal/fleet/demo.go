package fleet

import "github.com/CivicMesh/rtcc/pkg/models"

// demoUnits is the sample fleet seeded into empty databases so demo
// deployments have units on the map. Coordinates are around Riverton Beach.
var demoUnits = []models.Unit{
	{
		ID: "demo-drone-1", Kind: models.UnitDrone, Callsign: "SKY-1",
		Model: "Matrice 350 RTK", Status: models.UnitAvailable,
		Jurisdiction: "rbpd", BatteryPercent: 96,
		Latitude: 26.7712, Longitude: -80.0585,
	},
	{
		ID: "demo-drone-2", Kind: models.UnitDrone, Callsign: "SKY-2",
		Model: "Matrice 350 RTK", Status: models.UnitDeployed,
		Jurisdiction: "rbpd", BatteryPercent: 61,
		Latitude: 26.7841, Longitude: -80.0702,
	},
	{
		ID: "demo-drone-3", Kind: models.UnitDrone, Callsign: "SKY-3",
		Model: "Skydio X10", Status: models.UnitCharging,
		Jurisdiction: "fdot", BatteryPercent: 34,
		Latitude: 26.7598, Longitude: -80.0611,
	},
	{
		ID: "demo-robot-1", Kind: models.UnitRobot, Callsign: "GND-1",
		Model: "Spot Enterprise", Status: models.UnitAvailable,
		Jurisdiction: "rbpd", BatteryPercent: 88,
		Latitude: 26.7725, Longitude: -80.0540,
	},
	{
		ID: "demo-robot-2", Kind: models.UnitRobot, Callsign: "GND-2",
		Model: "Spot Enterprise", Status: models.UnitMaintained,
		Jurisdiction: "rbpd", BatteryPercent: 12,
		Latitude: 26.7680, Longitude: -80.0623,
	},
}
