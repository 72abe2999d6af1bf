package model

import "time"

// Template is a named, replayable deck composition. It stores card
// references only, never card content, so catalog edits show up the next
// time the template is loaded.
type Template struct {
	ID        string `gorm:"primaryKey"`
	UserID    uint   `gorm:"index"`
	Name      string
	CreatedAt time.Time
	Cards     []TemplateCard `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE"`
}

// TemplateCard is one (card, category) reference inside a template.
type TemplateCard struct {
	ID             uint   `gorm:"primaryKey"`
	TemplateID     string `gorm:"index"`
	CardID         string
	SourceCategory string
	Position       int
}
