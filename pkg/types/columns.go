package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// The column types below are stored as json text by the repositories.

type ChannelRecords []ChannelRecord

func (c ChannelRecords) Value() (driver.Value, error) {
	return jsonValue(c)
}

func (c *ChannelRecords) Scan(value any) error {
	return jsonScan(value, c)
}

func (ChannelRecords) GormDataType() string {
	return "text"
}

func (cd ConnectionDetails) Value() (driver.Value, error) {
	return jsonValue(cd)
}

func (cd *ConnectionDetails) Scan(value any) error {
	return jsonScan(value, cd)
}

func (ConnectionDetails) GormDataType() string {
	return "text"
}

func (jd JobDetails) Value() (driver.Value, error) {
	return jsonValue(jd)
}

func (jd *JobDetails) Scan(value any) error {
	return jsonScan(value, jd)
}

func (JobDetails) GormDataType() string {
	return "text"
}

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(value, dst any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported column value %T", value)
	}
}
