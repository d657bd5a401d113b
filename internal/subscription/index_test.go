package subscription_test

import (
	"errors"
	"fmt"
	"testing"

	"animehub/internal/subscription"
	"animehub/pkg/models"
)

func sub(id, channel, substring string) models.Subscription {
	return models.Subscription{
		ID:        id,
		GuildID:   "g1",
		ChannelID: channel,
		Substring: substring,
	}
}

func TestPartitionKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"One Piece", "one piec"},
		{"  Bleach  ", "bleach"},
		{"ok", "ok"},
		{"Attack   on\tTitan", "attack o"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range tests {
		if got := subscription.PartitionKey(tc.in); got != tc.want {
			t.Errorf("PartitionKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := subscription.Normalize(" One   PIECE\tEpisode "); got != "one piece episode" {
		t.Fatalf("Normalize = %q", got)
	}
}

func TestInsertRejectsEmptySubstring(t *testing.T) {
	ix := subscription.NewIndex()
	err := ix.Insert(sub("s1", "c1", "   "))
	if !errors.Is(err, subscription.ErrInvalidSubscription) {
		t.Fatalf("expected ErrInvalidSubscription, got %v", err)
	}
	if ix.Len() != 0 {
		t.Fatalf("index should stay empty, len=%d", ix.Len())
	}
}

func TestLookupMatchesContainedSubstring(t *testing.T) {
	ix := subscription.NewIndex()
	if err := ix.Insert(sub("s1", "c1", "one piece")); err != nil {
		t.Fatal(err)
	}

	got := ix.Lookup("One Piece Episode 1071")
	if len(got) != 1 || got[0].ID != "s1" {
		t.Fatalf("expected s1 to match, got %+v", got)
	}
}

func TestLookupNoMatch(t *testing.T) {
	ix := subscription.NewIndex()
	if err := ix.Insert(sub("s1", "c1", "bleach")); err != nil {
		t.Fatal(err)
	}

	if got := ix.Lookup("Attack on Titan"); len(got) != 0 {
		t.Fatalf("expected no match, got %+v", got)
	}
}

func TestLookupSubstringLongerThanPartitionWidth(t *testing.T) {
	ix := subscription.NewIndex()
	// Partition key covers only "attack o"; the confirmation step must still
	// check the full substring.
	if err := ix.Insert(sub("s1", "c1", "attack on titan")); err != nil {
		t.Fatal(err)
	}

	if got := ix.Lookup("Attack on Titan S4"); len(got) != 1 {
		t.Fatalf("expected match, got %+v", got)
	}
	// Same partition key, different tail: must not match.
	if got := ix.Lookup("attack on goblins"); len(got) != 0 {
		t.Fatalf("partition key collision must be filtered out, got %+v", got)
	}
}

func TestLookupShortTitle(t *testing.T) {
	ix := subscription.NewIndex()
	if err := ix.Insert(sub("s1", "c1", "ok")); err != nil {
		t.Fatal(err)
	}

	// Title shorter than the partition width must not trip the windowing.
	if got := ix.Lookup("ok"); len(got) != 1 {
		t.Fatalf("expected match on short title, got %+v", got)
	}
}

func TestLookupShortSubstringInLongerTitle(t *testing.T) {
	ix := subscription.NewIndex()
	if err := ix.Insert(sub("s1", "c1", "mob")); err != nil {
		t.Fatal(err)
	}

	if got := ix.Lookup("Mob Psycho 100 III"); len(got) != 1 {
		t.Fatalf("short substring must match inside a longer title, got %+v", got)
	}
}

func TestLookupCaseAndWhitespaceFolding(t *testing.T) {
	ix := subscription.NewIndex()
	if err := ix.Insert(sub("s1", "c1", "  ONE   piece ")); err != nil {
		t.Fatal(err)
	}

	if got := ix.Lookup("one piece film red"); len(got) != 1 {
		t.Fatalf("expected normalized match, got %+v", got)
	}
}

func TestInsertRemoveRoundTrip(t *testing.T) {
	ix := subscription.NewIndex()
	s := sub("s1", "c1", "one piece")

	if err := ix.Insert(s); err != nil {
		t.Fatal(err)
	}
	ix.Remove(s)

	if got := ix.Lookup("One Piece Episode 1071"); len(got) != 0 {
		t.Fatalf("removed subscription must not match, got %+v", got)
	}
	if ix.Len() != 0 {
		t.Fatalf("len = %d after round trip", ix.Len())
	}

	// Removing again is a no-op.
	ix.Remove(s)
}

func TestLookupDeduplicatesOverlappingBuckets(t *testing.T) {
	ix := subscription.NewIndex()
	if err := ix.Insert(sub("s1", "c1", "piece")); err != nil {
		t.Fatal(err)
	}

	// "piece piece" reaches the "piece" bucket via two windows; the result
	// still carries the subscription once.
	if got := ix.Lookup("piece piece"); len(got) != 1 {
		t.Fatalf("expected one result, got %+v", got)
	}
}

func TestLookupManySubscriptions(t *testing.T) {
	ix := subscription.NewIndex()
	for i := 0; i < 500; i++ {
		if err := ix.Insert(sub(fmt.Sprintf("s%d", i), "c1", fmt.Sprintf("series number %d", i))); err != nil {
			t.Fatal(err)
		}
	}
	if err := ix.Insert(sub("target", "c1", "one piece")); err != nil {
		t.Fatal(err)
	}

	got := ix.Lookup("[SubsPlease] One Piece - 1071 (1080p)")
	if len(got) != 1 || got[0].ID != "target" {
		t.Fatalf("expected only the target subscription, got %+v", got)
	}
}
