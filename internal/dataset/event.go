package dataset

// TimeObject carries the per-event timestamp, taken verbatim from the
// source row's date column. Field names follow the wire format the
// downstream analytics consumers already parse.
type TimeObject struct {
	Duration     string `json:"duration"`
	DurationUnit string `json:"duration-unit"`
	Timestamp    string `json:"time-stamp"`
	Timezone     string `json:"time-zone"`
}

// Event is one normalized observation from a source CSV row.
type Event struct {
	Attribute  map[string]string `json:"attribute"`
	EventType  string            `json:"event-type"`
	TimeObject TimeObject        `json:"time_object"`
}

// Entry is one normalized dataset held in a user's cache record.
// Filename ({kind}_{name}) appears at most once per user.
type Entry struct {
	Filename    string  `json:"filename"`
	DatasetName string  `json:"stockName"`
	Events      []Event `json:"content"`
}

// Record is the per-user cache record: the ordered list of datasets
// the user has previously retrieved.
type Record struct {
	Username string  `json:"username"`
	Datasets []Entry `json:"retrievedFiles"`
}

// IndexOf returns the position of the entry with the given filename,
// or -1 when the user has never retrieved it.
func (r *Record) IndexOf(filename string) int {
	for i, e := range r.Datasets {
		if e.Filename == filename {
			return i
		}
	}
	return -1
}
