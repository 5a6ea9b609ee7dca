package probexml

import (
	"fmt"
	"os"
	"strings"

	"github.com/beevik/etree"

	"github.com/zerotwo/cloudprobe/internal/models"
)

// probeStatusTags is the fallback tier for the probe status field: the newer
// schema carries a dedicated ProbeStatus element, the legacy schema only a
// single Status element.
var probeStatusTags = []string{"ProbeStatus", "Status"}

// ParseError reports a document-level failure: the payload is not well-formed
// XML or a mandatory structural element is missing. No partial record list is
// produced for a document that fails this way.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse probe document: %s: %v", e.Reason, e.Err)
	}
	return "parse probe document: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// Normalize parses one site snapshot document and returns one canonical
// record per probe element, in document order. Missing optional fields get
// their declared defaults; malformed-but-present scalar values are passed
// through untouched for the validator to reject.
func Normalize(data []byte) ([]models.ProbeRecord, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &ParseError{Reason: "malformed XML", Err: err}
	}

	site := doc.FindElement("//SiteInfo")
	if site == nil {
		return nil, &ParseError{Reason: "missing site information"}
	}

	serverID := ChildText(site, "ServerID", "")
	distributorID := ChildText(site, "DistributorID", "")
	customerID := ChildText(site, "CustomerID", models.SentinelID)
	siteID := ChildText(site, "SiteID", models.SentinelID)

	probes := doc.FindElements("//Probe")
	if len(probes) == 0 {
		return nil, &ParseError{Reason: "no probe elements"}
	}

	records := make([]models.ProbeRecord, 0, len(probes))
	for _, probe := range probes {
		rec := normalizeProbe(probe)
		rec.ServerID = serverID
		rec.DistributorID = distributorID
		rec.CustomerID = customerID
		rec.SiteID = siteID
		records = append(records, rec)
	}
	return records, nil
}

// NormalizeFile reads and normalizes a site snapshot from disk.
func NormalizeFile(path string) ([]models.ProbeRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read probe file: %w", err)
	}
	return Normalize(data)
}

func normalizeProbe(probe *etree.Element) models.ProbeRecord {
	// The source may encode the time separator as '.' instead of ':'.
	datetime := strings.ReplaceAll(ChildText(probe, "DateTime", ""), ".", ":")

	discriminator := ChildText(probe, "Discriminator", models.DiscriminatorUndefined)
	if discriminator == "" {
		discriminator = models.DiscriminatorUndefined
	}

	return models.ProbeRecord{
		Address:       ChildText(probe, "Address", ""),
		ProbeStatus:   FirstChildText(probe, probeStatusTags, "0"),
		AlarmStatus:   ChildText(probe, "AlarmStatus", models.AlarmStatusOK),
		TankStatus:    ChildText(probe, "TankStatus", "0"),
		DateTime:      datetime,
		Ullage:        ChildText(probe, "Ullage", "0.0"),
		Product:       ChildText(probe, "Product", ""),
		Water:         ChildText(probe, "Water", ""),
		Density:       ChildText(probe, "Density", ""),
		Phs:           ChildText(probe, "Phs", ""),
		Discriminator: discriminator,
		Temperatures:  temperatureValues(probe),
	}
}

// temperatureValues reads every non-blank Temperature leaf in document order;
// the position index is the sensor position along the probe. An absent
// Temperatures container yields an empty sequence.
func temperatureValues(probe *etree.Element) []string {
	container := probe.SelectElement("Temperatures")
	if container == nil {
		return []string{}
	}
	leaves := container.SelectElements("Temperature")
	values := make([]string, 0, len(leaves))
	for _, leaf := range leaves {
		text := strings.TrimSpace(leaf.Text())
		if text == "" {
			continue
		}
		values = append(values, text)
	}
	return values
}
