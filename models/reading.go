package models

import "time"

// StorageRate is a storage percentage exactly as published upstream. It is not validated as a number.
type StorageRate string

// Reading is the outcome of one resolver call.
type Reading struct {
	StationID StationID   `json:"station_id,omitempty" yaml:"station_id,omitempty"`
	Rate      StorageRate `json:"rate" yaml:"rate"`
	SourceURL string      `json:"source_url" yaml:"source_url"`
	FetchedAt time.Time   `json:"fetched_at" yaml:"fetched_at"`
}
