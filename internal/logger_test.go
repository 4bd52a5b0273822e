package internal

import (
	"errors"
	"testing"
	"time"
)

type captureDatabase struct {
	messages chan *FeatureLogMessage
}

func (c *captureDatabase) WriteLogMessage(data Data) error {
	c.messages <- data.(*FeatureLogMessage)
	return nil
}

func (c *captureDatabase) ReadLog() ([]FeatureLogMessage, error) {
	return nil, nil
}

func TestLoggerWritesToDatabase(t *testing.T) {
	db := &captureDatabase{messages: make(chan *FeatureLogMessage, 4)}
	logger := NewLogger(time.UTC)
	logger.SetDatabase(db)

	logger.FeatureEvent("export", "building-1", "meter created")
	logger.Error("upload failed", errors.New("boom"))

	tests := []struct {
		feature, id, text, importance string
	}{
		{"export", "building-1", "meter created", string(Info)},
		{"error", "*", "upload failed: boom", string(Error)},
	}
	for _, tt := range tests {
		select {
		case msg := <-db.messages:
			if msg.Feature != tt.feature || msg.SubjectId != tt.id || msg.Text != tt.text || msg.Importance != tt.importance {
				t.Errorf("message: got %+v, want %+v", msg, tt)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for log message")
		}
	}
}
