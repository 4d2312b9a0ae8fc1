package controllers

import (
	"strings"
	"testing"

	"github.com/amaumene/reelwatch/internal/classifier"
	"github.com/amaumene/reelwatch/internal/config"
	"github.com/amaumene/reelwatch/internal/models"
)

func testPolicy() *NotificationPolicy {
	return NewNotificationPolicy(&config.Config{
		Platforms: map[models.Platform]config.PlatformConfig{
			models.PlatformTwitter:   {EngagementThreshold: 500, ExcerptLimit: 300},
			models.PlatformInstagram: {EngagementThreshold: 1000, ExcerptLimit: 250},
			models.PlatformYouTube:   {EngagementThreshold: 0, ExcerptLimit: 200},
			models.PlatformNews:      {ExcerptLimit: 10},
		},
	})
}

func TestShouldNotify(t *testing.T) {
	p := testPolicy()

	tests := []struct {
		name       string
		updateType models.UpdateType
		engagement int64
		platform   models.Platform
		want       bool
	}{
		{"news below threshold", models.UpdateTypeNews, 499, models.PlatformTwitter, false},
		{"news at threshold", models.UpdateTypeNews, 500, models.PlatformTwitter, false},
		{"news above threshold", models.UpdateTypeNews, 501, models.PlatformTwitter, true},
		{"instagram uses its own threshold", models.UpdateTypeNews, 900, models.PlatformInstagram, false},
		{"trailer with no engagement", models.UpdateTypeTrailer, 0, models.PlatformTwitter, true},
		{"teaser", models.UpdateTypeTeaser, 0, models.PlatformNews, true},
		{"poster", models.UpdateTypePoster, 0, models.PlatformInstagram, true},
		{"review never crosses a disabled threshold", models.UpdateTypeReview, 1_000_000, models.PlatformYouTube, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ShouldNotify(classifier.Annotation{UpdateType: tt.updateType}, tt.engagement, tt.platform)
			if got != tt.want {
				t.Errorf("ShouldNotify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderTwitter(t *testing.T) {
	p := testPolicy()
	a := classifier.Annotation{MovieName: "Pushpa", ActorName: "Allu Arjun", UpdateType: models.UpdateTypeTrailer}
	u := &models.MovieUpdate{
		Platform:        models.PlatformTwitter,
		AccountName:     "Mythri <Movies>",
		Title:           "Tweet by Mythri",
		Body:            "Trailer out now & trending",
		URL:             "https://twitter.com/i/web/status/1",
		EngagementCount: 1234,
	}

	n := p.Render(a, u, "https://cdn.example/p.jpg")

	want := strings.Join([]string{
		"🎬 <b>Mythri &lt;Movies&gt;</b> - Pushpa (Allu Arjun)",
		"Trailer out now &amp; trending",
		"❤️ 1,234 likes",
		"🔗 <a href='https://twitter.com/i/web/status/1'>View Tweet</a>",
	}, "\n\n")
	if n.Text != want {
		t.Errorf("Unexpected text:\n%s\nwant:\n%s", n.Text, want)
	}
	if n.MediaURL != "" {
		t.Errorf("Expected no media for twitter, got %q", n.MediaURL)
	}
}

func TestRenderInstagramAttachesMedia(t *testing.T) {
	p := testPolicy()
	u := &models.MovieUpdate{Platform: models.PlatformInstagram, AccountName: "Geetha Arts", Body: "First look", URL: "https://instagram.com/p/x"}

	n := p.Render(classifier.Annotation{}, u, "https://cdn.example/p.jpg")

	if n.MediaURL != "https://cdn.example/p.jpg" {
		t.Errorf("Expected media url to be attached, got %q", n.MediaURL)
	}
	if strings.Contains(n.Text, "likes") {
		t.Errorf("Expected no engagement line for zero likes, got %s", n.Text)
	}
	if !strings.HasPrefix(n.Text, "📸 <b>Geetha Arts</b>\n\n") {
		t.Errorf("Unexpected header: %s", n.Text)
	}
}

func TestRenderYouTubeUsesTitle(t *testing.T) {
	p := testPolicy()
	u := &models.MovieUpdate{
		Platform:        models.PlatformYouTube,
		AccountName:     "T-Series Telugu",
		Title:           "Game Changer Teaser",
		Body:            "long description",
		URL:             "https://www.youtube.com/watch?v=abc",
		EngagementCount: 2500000,
	}

	n := p.Render(classifier.Annotation{}, u, "")

	if !strings.Contains(n.Text, "\n\nGame Changer Teaser\n\n") {
		t.Errorf("Expected title as excerpt, got %s", n.Text)
	}
	if !strings.Contains(n.Text, "👀 2,500,000 views") {
		t.Errorf("Expected formatted view count, got %s", n.Text)
	}
	if !strings.HasSuffix(n.Text, "<a href='https://www.youtube.com/watch?v=abc'>Watch Video</a>") {
		t.Errorf("Expected video link, got %s", n.Text)
	}
}

func TestRenderTruncatesByRune(t *testing.T) {
	p := testPolicy()
	u := &models.MovieUpdate{Platform: models.PlatformNews, AccountName: "123telugu", Title: "తెలుగు సినిమా వార్తలు ఇక్కడ", URL: "https://example.com/a"}

	n := p.Render(classifier.Annotation{}, u, "")

	parts := strings.Split(n.Text, "\n\n")
	if len(parts) != 3 {
		t.Fatalf("Expected 3 parts, got %d: %q", len(parts), parts)
	}
	excerpt := parts[1]
	if !strings.HasSuffix(excerpt, "...") {
		t.Errorf("Expected ellipsis on truncated excerpt, got %q", excerpt)
	}
	if got := len([]rune(strings.TrimSuffix(excerpt, "..."))); got > 10 {
		t.Errorf("Expected at most 10 runes before the ellipsis, got %d", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"hello world again", 5, "hello..."},
		{"hello world", 6, "hello..."},
		{"  padded  ", 10, "padded"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}
