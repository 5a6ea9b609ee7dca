package importer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zerotwo/cloudprobe/internal/ingest"
	"github.com/zerotwo/cloudprobe/internal/models"
)

type memoryStore struct {
	mu    sync.Mutex
	saved map[string]models.ProbeRecord
}

func newMemoryStore() *memoryStore {
	return &memoryStore{saved: make(map[string]models.ProbeRecord)}
}

func (m *memoryStore) MeasurementExists(_ context.Context, address, datetime string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.saved[address+"|"+datetime]
	return ok, nil
}

func (m *memoryStore) SaveMeasurement(_ context.Context, rec models.ProbeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[rec.Address+"|"+rec.DateTime] = rec
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func snapshot(address, datetime string) string {
	return `<SiteData>
  <SiteInfo><CustomerID>C1</CustomerID><SiteID>S1</SiteID></SiteInfo>
  <Probes>
    <Probe>
      <Address>` + address + `</Address>
      <DateTime>` + datetime + `</DateTime>
      <Product>123.45</Product><Water>12.34</Water><Density>840.5</Density>
      <Discriminator>D</Discriminator>
    </Probe>
  </Probes>
</SiteData>`
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRunImportsDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.xml", snapshot("1111", "2025-03-28 10:00:00"))
	writeFile(t, dir, "b.XML", snapshot("2222", "2025-03-28 10:00:00"))
	// Same identity as a.xml: counted as duplicate, not re-stored.
	writeFile(t, dir, "c.xml", snapshot("1111", "2025-03-28 10:00:00"))
	writeFile(t, dir, "broken.xml", "<SiteData><Probes>")
	writeFile(t, dir, "ignored.txt", "not xml")

	store := newMemoryStore()
	pipeline := &ingest.Pipeline{Store: store, Log: quietLogger()}

	summary, err := Run(context.Background(), pipeline, dir, 1, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Files)
	assert.EqualValues(t, 1, summary.FilesFailed)
	assert.EqualValues(t, 2, summary.Imported)
	assert.EqualValues(t, 1, summary.Duplicates)
	assert.EqualValues(t, 0, summary.Invalid)
	assert.EqualValues(t, 0, summary.Errors)
	assert.NotEmpty(t, summary.RunID)
	assert.Len(t, store.saved, 2)
}

func TestRunCountsInvalidRecords(t *testing.T) {
	dir := t.TempDir()
	bad := `<SiteData>
  <SiteInfo><CustomerID>C1</CustomerID><SiteID>S1</SiteID></SiteInfo>
  <Probes>
    <Probe>
      <Address>3333</Address>
      <DateTime>2025-03-28 10:00:00</DateTime>
      <Product>123.45</Product><Water>12.34</Water><Density>99999.99</Density>
      <Discriminator>D</Discriminator>
    </Probe>
  </Probes>
</SiteData>`
	writeFile(t, dir, "bad.xml", bad)

	store := newMemoryStore()
	pipeline := &ingest.Pipeline{Store: store, Log: quietLogger()}

	summary, err := Run(context.Background(), pipeline, dir, 2, quietLogger())
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Invalid)
	assert.Empty(t, store.saved)
}

func TestRunParallelWorkers(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 20; i++ {
		addr := string(rune('A' + i))
		writeFile(t, dir, addr+".xml", snapshot(addr, "2025-03-28 10:00:00"))
	}

	store := newMemoryStore()
	pipeline := &ingest.Pipeline{Store: store, Log: quietLogger()}

	summary, err := Run(context.Background(), pipeline, dir, 4, quietLogger())
	require.NoError(t, err)
	assert.EqualValues(t, 20, summary.Imported)
	assert.Len(t, store.saved, 20)
}

func TestRunEmptyDirectory(t *testing.T) {
	store := newMemoryStore()
	pipeline := &ingest.Pipeline{Store: store, Log: quietLogger()}

	_, err := Run(context.Background(), pipeline, t.TempDir(), 2, quietLogger())
	assert.Error(t, err)
}
