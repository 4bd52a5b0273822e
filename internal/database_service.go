package internal

import "errors"

var ErrNotFound = errors.New("document not found")

// Database is the log sink used by Logger.
type Database interface {
	WriteLogMessage(data Data) error
	ReadLog() ([]FeatureLogMessage, error)
}

type Data interface {
	DataType() string
}
