package models

import (
	"time"
)

type PlayerRecord struct {
	SteamID       string    `json:"steamID64" gorm:"primaryKey;type:text"`
	CustomData    string    `json:"customData" gorm:"type:jsonb;not null;default:'{}'"`
	Verdict       string    `json:"verdict" gorm:"type:text;not null;default:'Player';index"`
	PreviousNames string    `json:"previousNames" gorm:"type:jsonb;not null;default:'[]'"`
	CDate         time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
	MDate         time.Time `json:"mdate" gorm:"autoUpdateTime"`
}
