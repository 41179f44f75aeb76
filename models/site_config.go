package models

import (
	"time"

	"gorm.io/datatypes"
)

const SiteConfigKey = "global"

// PracticeTaxonomy maps a practice name to its ordered list of claims.
type PracticeTaxonomy map[string][]string

var DefaultColumns = []string{
	"title", "authors", "pubyear", "source", "sePractice",
	"claim", "result", "researchType", "participantType", "rating",
}

type SiteConfig struct {
	Key                        string                               `json:"-" gorm:"column:config_key;primaryKey;size:32"`
	Practices                  datatypes.JSONType[PracticeTaxonomy] `json:"-"`
	DefaultColumns             datatypes.JSONSlice[string]          `json:"-"`
	NotifyOnSubmission         bool                                 `json:"-" gorm:"default:false"`
	NotifyOnModerationApproved bool                                 `json:"-" gorm:"default:true"`
	CreatedAt                  time.Time                            `json:"-"`
	UpdatedAt                  time.Time                            `json:"-"`
}

type NotificationSettings struct {
	NotifyOnSubmission         *bool `json:"notifyOnSubmission,omitempty" yaml:"notifyOnSubmission"`
	NotifyOnModerationApproved *bool `json:"notifyOnModerationApproved,omitempty" yaml:"notifyOnModerationApproved"`
}

// SiteConfigResponse is the wire shape of the tenant settings.
type SiteConfigResponse struct {
	Practices      PracticeTaxonomy     `json:"practices"`
	DefaultColumns []string             `json:"defaultColumns"`
	Notifications  NotificationSettings `json:"notifications"`
	UpdatedAt      *time.Time           `json:"updatedAt,omitempty"`
}

func (c *SiteConfig) Response() SiteConfigResponse {
	practices := c.Practices.Data()
	if practices == nil {
		practices = PracticeTaxonomy{}
	}
	columns := []string(c.DefaultColumns)
	if columns == nil {
		columns = []string{}
	}
	submission := c.NotifyOnSubmission
	approved := c.NotifyOnModerationApproved
	updated := c.UpdatedAt
	return SiteConfigResponse{
		Practices:      practices,
		DefaultColumns: columns,
		Notifications: NotificationSettings{
			NotifyOnSubmission:         &submission,
			NotifyOnModerationApproved: &approved,
		},
		UpdatedAt: &updated,
	}
}

// EmptySiteConfig is served when no configuration has been stored yet.
func EmptySiteConfig() SiteConfigResponse {
	return SiteConfigResponse{
		Practices:      PracticeTaxonomy{},
		DefaultColumns: []string{},
	}
}
