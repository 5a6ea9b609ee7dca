package probexml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerotwo/cloudprobe/internal/models"
)

const sampleDocument = `<?xml version="1.0" encoding="UTF-8"?>
<SiteData>
  <SiteInfo>
    <ServerID>SRV1</ServerID>
    <DistributorID>DST1</DistributorID>
    <CustomerID>C123</CustomerID>
    <SiteID>S456</SiteID>
  </SiteInfo>
  <Probes>
    <Probe>
      <Address>1234</Address>
      <ProbeStatus>0</ProbeStatus>
      <AlarmStatus>0</AlarmStatus>
      <TankStatus>0</TankStatus>
      <DateTime>2025-03-28 15:30:00</DateTime>
      <Ullage>1234.56</Ullage>
      <Product>123.45</Product>
      <Water>12.34</Water>
      <Density>840.5</Density>
      <Discriminator>D</Discriminator>
      <Temperatures>
        <Temperature>23.5</Temperature>
        <Temperature>24.6</Temperature>
        <Temperature>25.7</Temperature>
      </Temperatures>
    </Probe>
  </Probes>
</SiteData>`

func TestNormalizeSampleDocument(t *testing.T) {
	records, err := Normalize([]byte(sampleDocument))
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "SRV1", rec.ServerID)
	assert.Equal(t, "DST1", rec.DistributorID)
	assert.Equal(t, "C123", rec.CustomerID)
	assert.Equal(t, "S456", rec.SiteID)
	assert.Equal(t, "1234", rec.Address)
	assert.Equal(t, "0", rec.ProbeStatus)
	assert.Equal(t, "0", rec.AlarmStatus)
	assert.Equal(t, "0", rec.TankStatus)
	assert.Equal(t, "2025-03-28 15:30:00", rec.DateTime)
	assert.Equal(t, "1234.56", rec.Ullage)
	assert.Equal(t, "123.45", rec.Product)
	assert.Equal(t, "12.34", rec.Water)
	assert.Equal(t, "840.5", rec.Density)
	assert.Equal(t, "D", rec.Discriminator)
	assert.Equal(t, []string{"23.5", "24.6", "25.7"}, rec.Temperatures)
}

func TestNormalizeMultipleProbesPreservesOrder(t *testing.T) {
	doc := `<SiteData>
  <SiteInfo><CustomerID>C1</CustomerID><SiteID>S1</SiteID></SiteInfo>
  <Probes>
    <Probe><Address>A</Address></Probe>
    <Probe><Address>B</Address></Probe>
    <Probe><Address>C</Address></Probe>
  </Probes>
</SiteData>`

	records, err := Normalize([]byte(doc))
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "A", records[0].Address)
	assert.Equal(t, "B", records[1].Address)
	assert.Equal(t, "C", records[2].Address)
}

func TestNormalizeMalformedXML(t *testing.T) {
	_, err := Normalize([]byte("<SiteData><SiteInfo>"))
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "malformed XML", parseErr.Reason)
}

func TestNormalizeMissingSiteInfo(t *testing.T) {
	doc := `<SiteData><Probes><Probe><Address>A</Address></Probe></Probes></SiteData>`

	_, err := Normalize([]byte(doc))
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "missing site information", parseErr.Reason)
}

func TestNormalizeNoProbes(t *testing.T) {
	doc := `<SiteData><SiteInfo><CustomerID>C1</CustomerID></SiteInfo></SiteData>`

	_, err := Normalize([]byte(doc))
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "no probe elements", parseErr.Reason)
}

func TestNormalizeLegacyStatusFallback(t *testing.T) {
	doc := `<SiteData>
  <SiteInfo><CustomerID>C1</CustomerID><SiteID>S1</SiteID></SiteInfo>
  <Probes><Probe><Address>A</Address><Status>17</Status></Probe></Probes>
</SiteData>`

	records, err := Normalize([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "17", records[0].ProbeStatus)
}

func TestNormalizePrefersProbeStatusOverLegacy(t *testing.T) {
	doc := `<SiteData>
  <SiteInfo><CustomerID>C1</CustomerID><SiteID>S1</SiteID></SiteInfo>
  <Probes><Probe><Address>A</Address><ProbeStatus>3</ProbeStatus><Status>17</Status></Probe></Probes>
</SiteData>`

	records, err := Normalize([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "3", records[0].ProbeStatus)
}

func TestNormalizeAppliesDefaults(t *testing.T) {
	doc := `<SiteData>
  <SiteInfo><CustomerID></CustomerID></SiteInfo>
  <Probes><Probe><Address>A</Address></Probe></Probes>
</SiteData>`

	records, err := Normalize([]byte(doc))
	require.NoError(t, err)

	rec := records[0]
	assert.Equal(t, models.SentinelID, rec.CustomerID)
	assert.Equal(t, models.SentinelID, rec.SiteID)
	assert.Equal(t, "0", rec.ProbeStatus)
	assert.Equal(t, "0", rec.AlarmStatus)
	assert.Equal(t, "0", rec.TankStatus)
	assert.Equal(t, "0.0", rec.Ullage)
	assert.Equal(t, models.DiscriminatorUndefined, rec.Discriminator)
	assert.Empty(t, rec.Temperatures)
	assert.Empty(t, rec.ServerID)
	assert.Empty(t, rec.DistributorID)
}

func TestNormalizeEmptyDiscriminator(t *testing.T) {
	doc := `<SiteData>
  <SiteInfo><CustomerID>C1</CustomerID><SiteID>S1</SiteID></SiteInfo>
  <Probes><Probe><Address>A</Address><Discriminator></Discriminator></Probe></Probes>
</SiteData>`

	records, err := Normalize([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, models.DiscriminatorUndefined, records[0].Discriminator)
}

func TestNormalizeRewritesDatetimeSeparator(t *testing.T) {
	doc := `<SiteData>
  <SiteInfo><CustomerID>C1</CustomerID><SiteID>S1</SiteID></SiteInfo>
  <Probes><Probe><Address>A</Address><DateTime>2025-03-28 15.30.00</DateTime></Probe></Probes>
</SiteData>`

	records, err := Normalize([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "2025-03-28 15:30:00", records[0].DateTime)
}

func TestNormalizeSkipsBlankTemperatures(t *testing.T) {
	doc := `<SiteData>
  <SiteInfo><CustomerID>C1</CustomerID><SiteID>S1</SiteID></SiteInfo>
  <Probes><Probe><Address>A</Address>
    <Temperatures>
      <Temperature>10.1</Temperature>
      <Temperature></Temperature>
      <Temperature>12.3</Temperature>
    </Temperatures>
  </Probe></Probes>
</SiteData>`

	records, err := Normalize([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"10.1", "12.3"}, records[0].Temperatures)
}

func TestNormalizeKeepsMalformedScalarForValidator(t *testing.T) {
	doc := `<SiteData>
  <SiteInfo><CustomerID>C1</CustomerID><SiteID>S1</SiteID></SiteInfo>
  <Probes><Probe><Address>A</Address><Density>not-a-number</Density></Probe></Probes>
</SiteData>`

	records, err := Normalize([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "not-a-number", records[0].Density)
}
