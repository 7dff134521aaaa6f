package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const localTimeLayout = "2006-01-02 15:04:05"

// LocalTime 以本地时区序列化的时间字段
type LocalTime time.Time

func FromTime(t time.Time) LocalTime { return LocalTime(t) }

func (t LocalTime) ToTime() time.Time { return time.Time(t) }

// GormDataType 告诉 GORM 迁移时用的列类型
func (LocalTime) GormDataType() string { return "datetime" }

func (t LocalTime) MarshalJSON() ([]byte, error) {
	tt := time.Time(t)
	if tt.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(fmt.Sprintf("%q", tt.Format(localTimeLayout))), nil
}

func (t *LocalTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == `""` || s == "null" {
		*t = LocalTime(time.Time{})
		return nil
	}
	tt, err := time.ParseInLocation(`"`+localTimeLayout+`"`, s, time.Local)
	if err != nil {
		return err
	}
	*t = LocalTime(tt)
	return nil
}

func (t LocalTime) Value() (driver.Value, error) {
	tt := time.Time(t)
	if tt.IsZero() {
		return nil, nil
	}
	return tt, nil
}

func (t *LocalTime) Scan(v interface{}) error {
	switch val := v.(type) {
	case time.Time:
		*t = LocalTime(val)
		return nil
	case []byte:
		tt, err := time.ParseInLocation(localTimeLayout, string(val), time.Local)
		if err != nil {
			return err
		}
		*t = LocalTime(tt)
		return nil
	case string:
		tt, err := time.ParseInLocation(localTimeLayout, val, time.Local)
		if err != nil {
			return err
		}
		*t = LocalTime(tt)
		return nil
	case nil:
		*t = LocalTime(time.Time{})
		return nil
	default:
		return fmt.Errorf("cannot scan %T into LocalTime", v)
	}
}
