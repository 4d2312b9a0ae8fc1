package models

import "time"

// MovieUpdate is a stored, classified post. Rows are append-only; the
// (platform, content_id) pair is the only dedup key.
type MovieUpdate struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	Platform  Platform `gorm:"size:16;not null;uniqueIndex:ux_update_platform_content,priority:1;index" json:"platform"`
	ContentID string   `gorm:"size:255;not null;uniqueIndex:ux_update_platform_content,priority:2" json:"content_id"`

	AccountName string `gorm:"size:255" json:"account_name"`
	Title       string `json:"title"`
	Body        string `json:"content"`
	URL         string `json:"url"`

	// Classification
	Language        Language   `gorm:"size:16;index" json:"language"`
	MovieName       string     `json:"movie_name,omitempty"`
	ActorName       string     `json:"actor_name,omitempty"`
	DirectorName    string     `json:"director_name,omitempty"`
	ProductionHouse string     `json:"production_house,omitempty"`
	UpdateType      UpdateType `gorm:"size:16;index" json:"update_type"`

	EngagementCount int64 `json:"engagement_count"` // likes or views at first sight, never refreshed
	Relayed         bool  `json:"relayed"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName pins the table name independent of gorm's pluralizer
func (MovieUpdate) TableName() string {
	return "movie_updates"
}

// RawItem is a post as returned by a platform client, before classification
type RawItem struct {
	ContentID   string
	Headline    string // video or article title; empty for tweets and captions
	Text        string
	URL         string
	PublishedAt time.Time
	Engagement  int64
	MediaURL    string
	MediaKind   MediaKind

	AccountName     string
	AccountLanguage Language
}

// ClassificationText is the text fed to the classifier
func (r RawItem) ClassificationText() string {
	switch {
	case r.Headline == "":
		return r.Text
	case r.Text == "":
		return r.Headline
	default:
		return r.Headline + " " + r.Text
	}
}

// Notification is a rendered relay message
type Notification struct {
	Text     string // Telegram HTML
	MediaURL string // photo attached to the message, if any
}
