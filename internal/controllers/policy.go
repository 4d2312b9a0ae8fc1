package controllers

import (
	"fmt"
	"html"
	"strings"

	"github.com/amaumene/reelwatch/internal/classifier"
	"github.com/amaumene/reelwatch/internal/config"
	"github.com/amaumene/reelwatch/internal/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// alwaysRelay lists update types relayed regardless of engagement
var alwaysRelay = map[models.UpdateType]bool{
	models.UpdateTypeTrailer: true,
	models.UpdateTypeTeaser:  true,
	models.UpdateTypePoster:  true,
}

type platformStyle struct {
	emoji     string
	linkLabel string
	engage    string // engagement line template
	withMedia bool   // photo attachments supported
}

var styles = map[models.Platform]platformStyle{
	models.PlatformTwitter:   {emoji: "🎬", linkLabel: "View Tweet", engage: "❤️ %s likes"},
	models.PlatformInstagram: {emoji: "📸", linkLabel: "View Post", engage: "❤️ %s likes", withMedia: true},
	models.PlatformYouTube:   {emoji: "🎥", linkLabel: "Watch Video", engage: "👀 %s views"},
	models.PlatformNews:      {emoji: "📰", linkLabel: "Read Article", engage: "👀 %s reads"},
}

// NotificationPolicy decides which fresh updates are relayed and renders them
type NotificationPolicy struct {
	platforms map[models.Platform]config.PlatformConfig
}

// NewNotificationPolicy creates a policy from per-platform thresholds and excerpt budgets
func NewNotificationPolicy(cfg *config.Config) *NotificationPolicy {
	return &NotificationPolicy{platforms: cfg.Platforms}
}

// ShouldNotify reports whether a freshly stored update is worth relaying
func (p *NotificationPolicy) ShouldNotify(a classifier.Annotation, engagement int64, platform models.Platform) bool {
	if alwaysRelay[a.UpdateType] {
		return true
	}
	threshold := p.platforms[platform].EngagementThreshold
	return threshold > 0 && engagement > threshold
}

// Render builds the Telegram HTML message for a stored update
func (p *NotificationPolicy) Render(a classifier.Annotation, u *models.MovieUpdate, mediaURL string) models.Notification {
	style, ok := styles[u.Platform]
	if !ok {
		style = styles[models.PlatformNews]
	}

	header := fmt.Sprintf("%s <b>%s</b>", style.emoji, html.EscapeString(u.AccountName))
	if a.MovieName != "" {
		header += " - " + html.EscapeString(a.MovieName)
	}
	if a.ActorName != "" {
		header += " (" + html.EscapeString(a.ActorName) + ")"
	}
	parts := []string{header}

	source := u.Body
	if u.Platform == models.PlatformYouTube || u.Platform == models.PlatformNews || source == "" {
		source = u.Title
	}
	if excerpt := truncate(source, p.excerptLimit(u.Platform)); excerpt != "" {
		parts = append(parts, html.EscapeString(excerpt))
	}

	if u.EngagementCount > 0 {
		printer := message.NewPrinter(language.English)
		parts = append(parts, fmt.Sprintf(style.engage, printer.Sprintf("%d", u.EngagementCount)))
	}

	parts = append(parts, fmt.Sprintf("🔗 <a href='%s'>%s</a>", html.EscapeString(u.URL), style.linkLabel))

	n := models.Notification{Text: strings.Join(parts, "\n\n")}
	if style.withMedia && mediaURL != "" {
		n.MediaURL = mediaURL
	}
	return n
}

func (p *NotificationPolicy) excerptLimit(platform models.Platform) int {
	if limit := p.platforms[platform].ExcerptLimit; limit > 0 {
		return limit
	}
	return 250
}

// truncate cuts s to limit runes and marks the cut with an ellipsis
func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit])) + "..."
}
