package retrieval

import (
	"fmt"
	"time"

	"github.com/AIS170/SENG3011-OMEGA/internal/dataset"
)

// deploymentZone is the fixed offset the service reports envelope
// timestamps in. The label matches what the per-event time objects
// carry.
var deploymentZone = time.FixedZone("GMT+11", 11*60*60)

const (
	envelopeTimezone   = "GMT+11"
	envelopeTimeLayout = "2006-01-02 15:04:05.000000"
)

// EnvelopeTime is presentation metadata: the wall-clock time of the
// call, not the per-event timestamps inside events.
type EnvelopeTime struct {
	Timestamp string `json:"timestamp"`
	Timezone  string `json:"timezone"`
}

// Envelope is the outward-facing response shape wrapping a normalized
// dataset with its source metadata.
type Envelope struct {
	DataSource  string          `json:"data_source"`
	DatasetType string          `json:"dataset_type"`
	DatasetID   string          `json:"dataset_id"`
	TimeObject  EnvelopeTime    `json:"time_object"`
	DatasetName string          `json:"stock_name"`
	Events      []dataset.Event `json:"events"`
}

// Formatter builds envelopes. Formatting never fails: an unknown kind
// just yields empty source labels.
type Formatter struct {
	now func() time.Time
}

func NewFormatter() *Formatter {
	return &Formatter{now: time.Now}
}

func (f *Formatter) Format(bucket, datasetName string, events []dataset.Event, kind dataset.Kind) *Envelope {
	return &Envelope{
		DataSource:  kind.DataSource(),
		DatasetType: kind.DatasetType(),
		DatasetID:   fmt.Sprintf("http://%s.s3-ap-southeast-2-amazonaws.com", bucket),
		TimeObject: EnvelopeTime{
			// Rendered without an offset suffix; the timezone label
			// carries the deployment offset instead.
			Timestamp: f.now().In(deploymentZone).Format(envelopeTimeLayout),
			Timezone:  envelopeTimezone,
		},
		DatasetName: datasetName,
		Events:      events,
	}
}
