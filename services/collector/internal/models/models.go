package models

import "time"

// GatewayResponse models the JSON payload returned by the BLE gateway.
type GatewayResponse struct {
	Gateway string   `json:"gateway"`
	Devices []Device `json:"devices"`
}

// Device is one advertised sensor as decoded by the gateway.
type Device struct {
	Address     string   `json:"mac"`
	Name        string   `json:"name"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Battery     *float64 `json:"battery"`
	RSSI        *int     `json:"rssi"`
	Voltage     *float64 `json:"voltage"`
	Power       *float64 `json:"power"`
	LastSeen    int64    `json:"last_seen"`
}

// Reading is the ingestion payload accepted by the API.
type Reading struct {
	Sensor      string   `json:"sensor"`
	Temperature float64  `json:"temperature"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Battery     *float64 `json:"battery,omitempty"`
	RSSI        *int     `json:"rssi,omitempty"`
	Voltage     *float64 `json:"voltage,omitempty"`
	Power       *float64 `json:"power,omitempty"`
}

// LastSent remembers what was last forwarded for a sensor.
type LastSent struct {
	Temperature float64
	TS          time.Time
}
