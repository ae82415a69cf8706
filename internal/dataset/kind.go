package dataset

import (
	"errors"
	"fmt"
)

// ErrInvalidKind is returned for dataset kinds that are unknown or
// that have no normalization schema yet.
var ErrInvalidKind = errors.New("invalid dataset kind")

// Kind identifies one of the known dataset families. Each kind carries
// its own CSV schema, event type and cold-storage key convention.
type Kind string

const (
	KindFinance Kind = "finance"
	KindNews    Kind = "news"
	KindSport   Kind = "sport"
)

// ParseKind validates a caller-supplied kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindFinance, KindNews, KindSport:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q (valid kinds are finance, news, sport)", ErrInvalidKind, s)
}

// meta is the resolved-once schema for a kind. A nil attribute list
// means the kind has no normalization schema yet (sport).
type meta struct {
	eventType   string
	dateColumn  string
	dataSource  string
	datasetType string
	attributes  []attribute
}

// attribute maps one CSV column into an event attribute field.
type attribute struct {
	field  string
	column string
}

var kindMeta = map[Kind]meta{
	KindFinance: {
		eventType:   "stock-ohlc",
		dateColumn:  "Date",
		dataSource:  "yahoo_finance",
		datasetType: "Daily stock data",
		attributes:  []attribute{{field: "close", column: "Close"}},
	},
	KindNews: {
		eventType:   "stock-news",
		dateColumn:  "published_at",
		dataSource:  "yahoo_news",
		datasetType: "Financial news",
		attributes: []attribute{
			{field: "url", column: "url"},
			{field: "sentiment_score", column: "sentiment_score"},
		},
	},
	// Sport files exist in cold storage but the ingestion side has not
	// fixed a column layout, so the kind stays unnormalizable.
	KindSport: {
		dataSource:  "yahoo_sport",
		datasetType: "Sports news",
	},
}

// DataSource returns the envelope data_source label, or "" for an
// unknown kind. Formatting never fails.
func (k Kind) DataSource() string { return kindMeta[k].dataSource }

// DatasetType returns the envelope dataset_type label, or "".
func (k Kind) DatasetType() string { return kindMeta[k].datasetType }

// Filename builds the cache filename for a dataset, the composite key
// under which a user's normalized dataset is stored.
func (k Kind) Filename(name string) string {
	return fmt.Sprintf("%s_%s", k, name)
}

// ObjectKey builds the cold-storage key for a dataset. The formats are
// the contract with the ingestion pipeline and must not change:
//
//	finance: {username}#{name}_stock_data.csv
//	news:    {username}_{name}_{date}_news.csv
//	sport:   {username}#{name}_{date}_sport.csv
func (k Kind) ObjectKey(username, name, date string) string {
	switch k {
	case KindFinance:
		return fmt.Sprintf("%s#%s_stock_data.csv", username, name)
	case KindNews:
		return fmt.Sprintf("%s_%s_%s_news.csv", username, name, date)
	case KindSport:
		return fmt.Sprintf("%s#%s_%s_sport.csv", username, name, date)
	}
	return ""
}

// Dated reports whether the kind's cold-storage key includes a date.
func (k Kind) Dated() bool {
	return k == KindNews || k == KindSport
}
