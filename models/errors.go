package models

import "errors"

var (
	ErrEmptyStationID   = errors.New("station id is empty")
	ErrLinkNotFound     = errors.New("data file link not found")
	ErrEmptyDataFile    = errors.New("data file has no records")
	ErrMissingRateField = errors.New("latest record has no storage rate field")
	ErrRowNotFound      = errors.New("aggregate total row not found")
	ErrUnknownDamName   = errors.New("unknown dam name")
)
