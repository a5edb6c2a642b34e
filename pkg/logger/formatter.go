package logger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// JSONFormatter writes one flat JSON object per entry. Reserved keys
// (timestamp, level, message, app, version) are set last and win over fields.
type JSONFormatter struct {
	AppName string
	Version string
}

func (f *JSONFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Data)+5)
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		data[k] = v
	}

	data["timestamp"] = entry.Time.UTC().Format(time.RFC3339Nano)
	data["level"] = entry.Level.String()
	data["message"] = entry.Message
	if f.AppName != "" {
		data["app"] = f.AppName
	}
	if f.Version != "" {
		data["version"] = f.Version
	}

	line, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal log entry: %w", err)
	}
	return append(line, '\n'), nil
}
