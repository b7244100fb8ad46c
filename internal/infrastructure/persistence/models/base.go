package models

import "time"

// Timestamps is embedded by models that track row lifecycle. CreatedAt is
// left untouched by upserts.
type Timestamps struct {
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`
}

func timePtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := *t
	return &v
}
