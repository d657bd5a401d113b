package dispatch

import (
	"fmt"
	"strings"

	"animehub/internal/release"
	"animehub/internal/subscription"
	"animehub/pkg/models"
)

// releaseIdentity is the value redelivered announcements share: the linked
// anime (or the normalized title), the variant, and the primary download.
func releaseIdentity(sub models.Subscription, ann release.Announcement) string {
	base := sub.AnimeID
	if base == "" {
		base = subscription.Normalize(ann.Title)
	}
	return base + "|" + ann.Variant.Key() + "|" + ann.PrimaryDownloadRef()
}

// formatNotification renders the message posted to a channel:
//
//	One Piece [Ep 1071]
//	1080p · [SubsPlease] One Piece - 1071 (1080p).mkv · <https://nyaa.si/....torrent>
//
// When metadata is present its canonical title and image enrich the text;
// absence never blocks formatting.
func formatNotification(ann release.Announcement, anime *models.Anime) string {
	title := ann.Title
	if anime != nil && anime.CanonicalTitle != "" {
		title = anime.CanonicalTitle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", title, ann.Variant)

	for _, d := range ann.Downloads {
		var parts []string
		if d.Resolution > 0 {
			parts = append(parts, fmt.Sprintf("%dp", d.Resolution))
		}
		if d.FileName != "" {
			parts = append(parts, d.FileName)
		}
		switch {
		case d.Torrent != "":
			parts = append(parts, fmt.Sprintf("<%s>", d.Torrent))
		case d.Comments != "":
			parts = append(parts, fmt.Sprintf("<%s>", d.Comments))
		}
		if len(parts) > 0 {
			b.WriteString("\n")
			b.WriteString(strings.Join(parts, " · "))
		}
	}

	if anime != nil && anime.ImageURL != "" {
		b.WriteString("\n")
		b.WriteString(anime.ImageURL)
	}
	return b.String()
}
