package hamqtt

// Common device classes. The hub uses the device class to pick icons, units
// and state translations; the value goes into the discovery payload as-is,
// so classes not listed here can be passed directly.
const (
	DeviceClassBattery      = "battery"
	DeviceClassConnectivity = "connectivity"
	DeviceClassDoor         = "door"
	DeviceClassEnergy       = "energy"
	DeviceClassHumidity     = "humidity"
	DeviceClassIlluminance  = "illuminance"
	DeviceClassMotion       = "motion"
	DeviceClassPower        = "power"
	DeviceClassPressure     = "pressure"
	DeviceClassSpeaker      = "speaker"
	DeviceClassTemperature  = "temperature"
	DeviceClassTimestamp    = "timestamp"
	DeviceClassTV           = "tv"
	DeviceClassVoltage      = "voltage"
)

// Sensor state classes.
const (
	StateClassMeasurement     = "measurement"
	StateClassTotal           = "total"
	StateClassTotalIncreasing = "total_increasing"
)

// Entity categories.
const (
	EntityCategoryConfig     = "config"
	EntityCategoryDiagnostic = "diagnostic"
)
