package retrieval

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AIS170/SENG3011-OMEGA/internal/dataset"
	"github.com/AIS170/SENG3011-OMEGA/internal/storage"
	"github.com/AIS170/SENG3011-OMEGA/internal/storage/object"
	"github.com/AIS170/SENG3011-OMEGA/internal/storage/sqlite"
)

var testBuckets = map[dataset.Kind]string{
	dataset.KindFinance: "finance-bucket",
	dataset.KindNews:    "news-bucket",
	dataset.KindSport:   "sport-bucket",
}

const teslaCSV = "Date,Open,Close\n" +
	"2025-01-01,9,10\n" +
	"2025-01-02,11,12\n" +
	"2025-01-03,13,14\n"

func newTestService(t *testing.T) (*Service, storage.RecordStore, storage.ObjectStore) {
	t.Helper()
	dir := t.TempDir()

	records, err := sqlite.NewClient(filepath.Join(dir, "records.db"))
	require.NoError(t, err)
	require.NoError(t, records.InitSchema())
	t.Cleanup(func() { records.Close() })

	objects, err := object.NewFSStore(filepath.Join(dir, "objects"))
	require.NoError(t, err)

	return NewService(records, objects, testBuckets), records, objects
}

func putFinanceCSV(t *testing.T, objects storage.ObjectStore, username, name, raw string) {
	t.Helper()
	key := dataset.KindFinance.ObjectKey(username, name, "")
	require.NoError(t, objects.Put(context.Background(), testBuckets[dataset.KindFinance], key, []byte(raw)))
}

func TestRegisterTwice(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alice"))
	require.ErrorIs(t, svc.Register(ctx, "alice"), ErrUserAlreadyExists)
}

func TestRetrieveUnregisteredUser(t *testing.T) {
	svc, _, objects := newTestService(t)
	putFinanceCSV(t, objects, "alice", "tesla", teslaCSV)

	_, err := svc.Retrieve(context.Background(), "alice", dataset.KindFinance, "tesla", "")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestRetrievePopulatesAndServesFromCache(t *testing.T) {
	svc, _, objects := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alice"))
	putFinanceCSV(t, objects, "alice", "tesla", teslaCSV)

	env, err := svc.Retrieve(ctx, "alice", dataset.KindFinance, "tesla", "")
	require.NoError(t, err)
	require.Len(t, env.Events, 3)
	assert.Equal(t, "tesla", env.DatasetName)
	assert.Equal(t, "yahoo_finance", env.DataSource)
	assert.Equal(t, "10", env.Events[0].Attribute["close"])
	assert.Equal(t, "2025-01-03", env.Events[2].TimeObject.Timestamp)

	filenames, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"finance_tesla"}, filenames)

	// Second retrieve hits the cache and returns identical content even
	// after the cold object changes.
	putFinanceCSV(t, objects, "alice", "tesla", "Date,Close\n2030-01-01,999\n")

	again, err := svc.Retrieve(ctx, "alice", dataset.KindFinance, "tesla", "")
	require.NoError(t, err)
	assert.Equal(t, env.Events, again.Events)
}

func TestRetrieveMissingUpstream(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alice"))

	_, err := svc.Retrieve(ctx, "alice", dataset.KindFinance, "ghost", "")
	require.ErrorIs(t, err, ErrDatasetNotFoundUpstream)

	// A failed populate leaves no partial record behind.
	filenames, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, filenames)
}

func TestRetrieveMalformedCSVLeavesCacheUnchanged(t *testing.T) {
	svc, _, objects := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alice"))
	putFinanceCSV(t, objects, "alice", "tesla", "Date,Close\n2025-01-01,10\n,12\n")

	_, err := svc.Retrieve(ctx, "alice", dataset.KindFinance, "tesla", "")
	require.ErrorIs(t, err, dataset.ErrMalformedRow)

	filenames, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, filenames)
}

func TestRetrieveSportKindRejected(t *testing.T) {
	svc, _, objects := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alice"))
	key := dataset.KindSport.ObjectKey("alice", "cricket", "2025-03-01")
	require.NoError(t, objects.Put(ctx, testBuckets[dataset.KindSport], key, []byte("a,b\n1,2\n")))

	_, err := svc.Retrieve(ctx, "alice", dataset.KindSport, "cricket", "2025-03-01")
	require.ErrorIs(t, err, dataset.ErrInvalidKind)
}

func TestRetrieveNewsDefaultsDateToToday(t *testing.T) {
	svc, _, objects := newTestService(t)
	ctx := context.Background()

	now := time.Date(2025, 3, 15, 22, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return now }

	require.NoError(t, svc.Register(ctx, "alice"))
	key := dataset.KindNews.ObjectKey("alice", "tesla", "2025-03-15")
	raw := "company_name,url,published_at\ntesla,https://example.com/a,2025-03-15T10:00:00Z\n"
	require.NoError(t, objects.Put(ctx, testBuckets[dataset.KindNews], key, []byte(raw)))

	env, err := svc.Retrieve(ctx, "alice", dataset.KindNews, "tesla", "")
	require.NoError(t, err)
	require.Len(t, env.Events, 1)
	assert.Equal(t, "stock-news", env.Events[0].EventType)
}

func TestDeleteAndRepopulate(t *testing.T) {
	svc, _, objects := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alice"))
	putFinanceCSV(t, objects, "alice", "tesla", teslaCSV)

	require.ErrorIs(t, svc.Delete(ctx, "alice", "finance_tesla"), ErrDatasetNotFound)

	_, err := svc.Retrieve(ctx, "alice", dataset.KindFinance, "tesla", "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "alice", "finance_tesla"))

	filenames, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, filenames)

	// The cold object is untouched, so retrieval populates again.
	env, err := svc.Retrieve(ctx, "alice", dataset.KindFinance, "tesla", "")
	require.NoError(t, err)
	assert.Len(t, env.Events, 3)
}

func TestDeleteUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.ErrorIs(t, svc.Delete(context.Background(), "nobody", "finance_tesla"), ErrUserNotFound)
}

func TestListUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.List(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrUserNotFound)
}

// raceStore makes every append look like it lost to a concurrent
// writer: the entry lands, but the store reports a conditional-write
// failure, as the real stores do when another request commits first.
type raceStore struct {
	storage.RecordStore
	races int
}

func (s *raceStore) AppendEntry(ctx context.Context, username string, entry dataset.Entry) error {
	if err := s.RecordStore.AppendEntry(ctx, username, entry); err != nil {
		return err
	}
	s.races++
	return storage.ErrEntryExists
}

func TestRetrieveSurvivesPopulateRace(t *testing.T) {
	svc, records, objects := newTestService(t)
	ctx := context.Background()

	racer := &raceStore{RecordStore: records}
	svc.cache = NewCache(racer)

	require.NoError(t, svc.Register(ctx, "alice"))
	putFinanceCSV(t, objects, "alice", "tesla", teslaCSV)

	env, err := svc.Retrieve(ctx, "alice", dataset.KindFinance, "tesla", "")
	require.NoError(t, err)
	assert.Len(t, env.Events, 3)
	assert.Equal(t, 1, racer.races)

	filenames, err := svc.List(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"finance_tesla"}, filenames)
}
