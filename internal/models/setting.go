package models

// Setting represents the editorial_settings key/value table.
type Setting struct {
	Key   string `gorm:"primaryKey;column:key"`
	Value string `gorm:"column:value"`
}

func (Setting) TableName() string { return "editorial_settings" }

const (
	SettingAutoPublishEnabled = "auto_publish_enabled"
	SettingJitterMinutes      = "schedule_jitter_minutes"
)
