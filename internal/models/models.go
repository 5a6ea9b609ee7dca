package models

// Discriminator codes for the fluid type measured by a probe.
const (
	DiscriminatorDiesel    = "D"
	DiscriminatorGasoline  = "P"
	DiscriminatorUndefined = "N"
)

// Alarm status codes reported by probes.
const (
	AlarmStatusOK           = "0"
	AlarmStatusAcknowledged = "1"
	AlarmStatusAlarm        = "2"
)

// SentinelID replaces blank customer/site identifiers so unknown-site
// records never collapse into a blank-keyed bucket.
const SentinelID = "999"

// ProbeRecord is the canonical, schema-independent representation of one
// probe snapshot. All scalar fields keep their source text form; numeric
// interpretation belongs to the validator and the store.
type ProbeRecord struct {
	ServerID      string   `json:"server_id,omitempty"`
	DistributorID string   `json:"distributor_id,omitempty"`
	CustomerID    string   `json:"customer_id"`
	SiteID        string   `json:"site_id"`
	Address       string   `json:"address"`
	ProbeStatus   string   `json:"probe_status"`
	AlarmStatus   string   `json:"alarm_status"`
	TankStatus    string   `json:"tank_status"`
	DateTime      string   `json:"datetime"`
	Ullage        string   `json:"ullage"`
	Product       string   `json:"product"`
	Water         string   `json:"water"`
	Density       string   `json:"density"`
	Phs           string   `json:"phs,omitempty"`
	Discriminator string   `json:"discriminator"`
	Temperatures  []string `json:"temperatures"`
}
