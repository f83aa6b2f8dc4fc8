package psconstants

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d10n/osidb/internal/database"
)

// fakeDefinitions serves a canned product-definition document
type fakeDefinitions struct {
	document string
	requests []string
}

func (f *fakeDefinitions) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.requests = append(f.requests, r.URL.RawQuery)
		w.Write([]byte(f.document))
	}
}

const sampleDocument = `
ubi_packages:
  "8":
    - bind
    - curl
  "9":
    - curl
special_consideration_packages:
  - dnf
  - sudo
`

func testCollector(t *testing.T, server *httptest.Server) *Collector {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "osidb.db"))
	require.NoError(t, err)
	require.NoError(t, db.InitSchema(context.Background()))
	t.Cleanup(func() { db.Close() })

	client := NewClient(server.URL)
	return NewCollector(client, db)
}

func TestClientFetch(t *testing.T) {
	fake := &fakeDefinitions{document: sampleDocument}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	client := NewClient(server.URL)
	definitions, err := client.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"bind", "curl"}, definitions.UbiPackages["8"])
	assert.Equal(t, []string{"dnf", "sudo"}, definitions.SpecialConsiderationPackages)

	// the build job parameter selects the published document
	require.Len(t, fake.requests, 1)
	assert.Equal(t, "job=build", fake.requests[0])
}

func TestClientFetchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSyncPopulatesTables(t *testing.T) {
	fake := &fakeDefinitions{document: sampleDocument}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	collector := testCollector(t, server)
	ctx := context.Background()

	require.NoError(t, collector.Sync(ctx))

	packages, err := collector.UbiPackages(ctx, "8")
	require.NoError(t, err)
	assert.Equal(t, []string{"bind", "curl"}, packages)

	packages, err = collector.UbiPackages(ctx, "9")
	require.NoError(t, err)
	assert.Equal(t, []string{"curl"}, packages)

	special, err := collector.SpecialConsiderationPackages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dnf", "sudo"}, special)

	isSpecial, err := collector.IsSpecialConsideration(ctx, "sudo")
	require.NoError(t, err)
	assert.True(t, isSpecial)

	isSpecial, err = collector.IsSpecialConsideration(ctx, "curl")
	require.NoError(t, err)
	assert.False(t, isSpecial)
}

func TestSyncReplacesPreviousContents(t *testing.T) {
	fake := &fakeDefinitions{document: sampleDocument}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	collector := testCollector(t, server)
	ctx := context.Background()

	require.NoError(t, collector.Sync(ctx))

	// upstream dropped bind from UBI 8 and sudo from special consideration
	fake.document = `
ubi_packages:
  "8":
    - curl
special_consideration_packages:
  - dnf
`
	require.NoError(t, collector.Sync(ctx))

	packages, err := collector.UbiPackages(ctx, "8")
	require.NoError(t, err)
	assert.Equal(t, []string{"curl"}, packages)

	packages, err = collector.UbiPackages(ctx, "9")
	require.NoError(t, err)
	assert.Empty(t, packages)

	special, err := collector.SpecialConsiderationPackages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dnf"}, special)
}

func TestSyncRecordsLastRun(t *testing.T) {
	fake := &fakeDefinitions{document: sampleDocument}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	collector := testCollector(t, server)
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	collector.now = func() time.Time { return now }

	require.NoError(t, collector.Sync(ctx))

	var lastRun time.Time
	err := collector.db.QueryRowContext(ctx,
		"SELECT last_run FROM collector_metadata WHERE name = ?", collectorName).Scan(&lastRun)
	require.NoError(t, err)
	assert.Equal(t, now, lastRun.UTC())
}

func TestSyncFetchFailureLeavesTables(t *testing.T) {
	fake := &fakeDefinitions{document: sampleDocument}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	collector := testCollector(t, server)
	ctx := context.Background()

	require.NoError(t, collector.Sync(ctx))

	// a broken document must not wipe the previous sync
	fake.document = "{ubi_packages: [unclosed"
	require.Error(t, collector.Sync(ctx))

	special, err := collector.SpecialConsiderationPackages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dnf", "sudo"}, special)
}
