package retrieval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AIS170/SENG3011-OMEGA/internal/dataset"
)

func TestFormatEnvelope(t *testing.T) {
	f := NewFormatter()
	f.now = func() time.Time {
		return time.Date(2025, 3, 30, 1, 2, 3, 456789000, time.UTC)
	}

	events := []dataset.Event{{EventType: "stock-ohlc"}}
	env := f.Format("test-bucket", "tesla", events, dataset.KindFinance)

	assert.Equal(t, "yahoo_finance", env.DataSource)
	assert.Equal(t, "Daily stock data", env.DatasetType)
	assert.Equal(t, "http://test-bucket.s3-ap-southeast-2-amazonaws.com", env.DatasetID)
	assert.Equal(t, "tesla", env.DatasetName)
	assert.Equal(t, events, env.Events)

	// Wall clock shifted into the deployment zone, no offset suffix.
	assert.Equal(t, "2025-03-30 12:02:03.456789", env.TimeObject.Timestamp)
	assert.Equal(t, "GMT+11", env.TimeObject.Timezone)
}

func TestFormatUnknownKindNeverFails(t *testing.T) {
	f := NewFormatter()

	env := f.Format("b", "x", nil, dataset.Kind("weather"))

	assert.Equal(t, "", env.DataSource)
	assert.Equal(t, "", env.DatasetType)
	assert.Equal(t, "x", env.DatasetName)
}
