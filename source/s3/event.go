// Package s3 decodes S3 event notifications and fetches the objects they
// point at.
package s3

import (
	"encoding/json"
	"fmt"

	"lbship/internal/transform"
)

// Event is an S3 event notification. Only the fields lbship reads are
// decoded.
type Event struct {
	Records []EventRecord `json:"Records"`
}

type EventRecord struct {
	EventName string `json:"eventName"`
	AWSRegion string `json:"awsRegion"`
	S3        struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key  string `json:"key"`
			Size int64  `json:"size"`
		} `json:"object"`
	} `json:"s3"`
}

var _ transform.Event = EventRecord{}

// ObjectKey returns the key exactly as delivered in the notification, still
// form encoded.
func (r EventRecord) ObjectKey() string { return r.S3.Object.Key }

func (r EventRecord) Bucket() string { return r.S3.Bucket.Name }

// DecodeEvent parses a notification body. Test events sent by S3 when a
// notification is configured carry no records and decode to an empty Event.
func DecodeEvent(raw []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("s3: decode event: %w", err)
	}
	for i, r := range ev.Records {
		if r.Bucket() == "" || r.ObjectKey() == "" {
			return nil, fmt.Errorf("s3: decode event: record %d has no bucket or key", i)
		}
	}
	return &ev, nil
}
