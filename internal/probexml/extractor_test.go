package probexml

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseElement(t *testing.T, raw string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(raw))
	return doc.Root()
}

func TestChildText(t *testing.T) {
	parent := parseElement(t, `<Probe><Address>1234</Address><Phs>  </Phs></Probe>`)

	assert.Equal(t, "1234", ChildText(parent, "Address", "x"))
	assert.Equal(t, "x", ChildText(parent, "Missing", "x"), "missing child falls back to default")
	assert.Equal(t, "x", ChildText(parent, "Phs", "x"), "blank text counts as absent")
	assert.Equal(t, "x", ChildText(nil, "Address", "x"))
}

func TestFirstChildTextTierOrder(t *testing.T) {
	tags := []string{"ProbeStatus", "Status"}

	both := parseElement(t, `<Probe><ProbeStatus>1</ProbeStatus><Status>9</Status></Probe>`)
	assert.Equal(t, "1", FirstChildText(both, tags, "0"))

	legacy := parseElement(t, `<Probe><Status>9</Status></Probe>`)
	assert.Equal(t, "9", FirstChildText(legacy, tags, "0"))

	neither := parseElement(t, `<Probe/>`)
	assert.Equal(t, "0", FirstChildText(neither, tags, "0"))

	blankFirst := parseElement(t, `<Probe><ProbeStatus></ProbeStatus><Status>9</Status></Probe>`)
	assert.Equal(t, "9", FirstChildText(blankFirst, tags, "0"))
}
