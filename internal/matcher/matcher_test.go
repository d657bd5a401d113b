package matcher_test

import (
	"testing"

	"animehub/internal/matcher"
	"animehub/internal/release"
	"animehub/internal/subscription"
	"animehub/pkg/models"
)

func announcement(title string) release.Announcement {
	return release.Announcement{
		Title:   title,
		Variant: release.NewEpisode(release.Episode{Number: 1}),
	}
}

func TestMatchReturnsAllChannels(t *testing.T) {
	ix := subscription.NewIndex()
	for _, s := range []models.Subscription{
		{ID: "s1", GuildID: "g1", ChannelID: "c1", Substring: "one piece"},
		{ID: "s2", GuildID: "g1", ChannelID: "c2", Substring: "one piece"},
		{ID: "s3", GuildID: "g2", ChannelID: "c9", Substring: "bleach"},
	} {
		if err := ix.Insert(s); err != nil {
			t.Fatal(err)
		}
	}

	m := matcher.New(ix)
	got := m.Match(announcement("One Piece Episode 1071"))

	// Two channels subscribed to the same substring each get exactly one
	// independent match; the bleach subscription gets none.
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d: %+v", len(got), got)
	}
	channels := map[string]bool{}
	for _, match := range got {
		channels[match.Subscription.ChannelID] = true
		if match.Announcement.Title != "One Piece Episode 1071" {
			t.Fatalf("announcement not carried through: %+v", match)
		}
	}
	if !channels["c1"] || !channels["c2"] {
		t.Fatalf("expected channels c1 and c2, got %v", channels)
	}
}

func TestMatchDeduplicatesPerDestination(t *testing.T) {
	ix := subscription.NewIndex()
	// Two overlapping substrings registered by the same channel.
	for _, s := range []models.Subscription{
		{ID: "s1", GuildID: "g1", ChannelID: "c1", Substring: "one piece"},
		{ID: "s2", GuildID: "g1", ChannelID: "c1", Substring: "piece"},
	} {
		if err := ix.Insert(s); err != nil {
			t.Fatal(err)
		}
	}

	m := matcher.New(ix)
	got := m.Match(announcement("One Piece Episode 1071"))
	if len(got) != 1 {
		t.Fatalf("one channel must receive one match, got %d: %+v", len(got), got)
	}
}

func TestMatchEmptyIndex(t *testing.T) {
	m := matcher.New(subscription.NewIndex())
	if got := m.Match(announcement("Anything")); len(got) != 0 {
		t.Fatalf("expected no matches, got %+v", got)
	}
}

func TestMatchIsPure(t *testing.T) {
	ix := subscription.NewIndex()
	if err := ix.Insert(models.Subscription{ID: "s1", GuildID: "g1", ChannelID: "c1", Substring: "frieren"}); err != nil {
		t.Fatal(err)
	}

	m := matcher.New(ix)
	first := m.Match(announcement("Frieren - 28"))
	second := m.Match(announcement("Frieren - 28"))
	if len(first) != 1 || len(second) != 1 || first[0].Subscription.ID != second[0].Subscription.ID {
		t.Fatalf("matching must be deterministic: %+v vs %+v", first, second)
	}
}
