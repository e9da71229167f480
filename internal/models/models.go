package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BackgroundType discriminates the background descriptor.
type BackgroundType string

const (
	BackgroundColor    BackgroundType = "color"
	BackgroundGradient BackgroundType = "gradient"
	BackgroundImage    BackgroundType = "image"
)

// Valid reports whether t is one of the known background kinds.
func (t BackgroundType) Valid() bool {
	switch t {
	case BackgroundColor, BackgroundGradient, BackgroundImage:
		return true
	}
	return false
}

// Link is one entry of a profile's ordered link list.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Gradient describes a two-stop linear gradient.
type Gradient struct {
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Direction string `json:"direction,omitempty"`
}

// BackgroundValue holds the parameters for every background kind.
// Only the field matching Background.Type is rendered.
type BackgroundValue struct {
	Color    string    `json:"color,omitempty"`
	Gradient *Gradient `json:"gradient,omitempty"`
	Image    string    `json:"image,omitempty"`
}

// Background is the tagged union describing how a profile background renders.
type Background struct {
	Type  BackgroundType  `json:"type,omitempty"`
	Value BackgroundValue `json:"value"`
}

// Styles is the visual theme of a profile page.
type Styles struct {
	Font       string     `json:"font,omitempty"`
	Text       string     `json:"text,omitempty"`
	Border     string     `json:"border,omitempty"`
	Button     string     `json:"button,omitempty"`
	ButtonText string     `json:"buttonText,omitempty"`
	Background Background `json:"background"`
}

// User is a LinkCard account together with its public profile.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;"`
	Username  string    `gorm:"size:30;not null;uniqueIndex"`
	Email     string    `gorm:"size:255;not null;uniqueIndex"`
	Password  string    `gorm:"size:255;not null"`
	Avatar    string    `gorm:"size:1024;not null;default:''"`
	Bio       string    `gorm:"type:text;not null;default:''"`
	Links     []Link    `gorm:"type:jsonb;serializer:json"`
	Styles    Styles    `gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Links == nil {
		user.Links = []Link{}
	}
	return
}

// BackgroundImage returns the stored background image URL. It stays set when
// the background switches to another type, so switching back keeps working.
func (user *User) BackgroundImage() string {
	return user.Styles.Background.Value.Image
}
