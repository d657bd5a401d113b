// Package matcher joins catalog announcements with the subscription index.
package matcher

import (
	"animehub/internal/release"
	"animehub/internal/subscription"
	"animehub/pkg/models"
)

// Match pairs a subscription with the announcement that triggered it.
type Match struct {
	Subscription models.Subscription
	Announcement release.Announcement
}

// Matcher is pure with respect to a fixed index state: the same title against
// the same index always yields the same matches.
type Matcher struct {
	index *subscription.Index
}

func New(index *subscription.Index) *Matcher {
	return &Matcher{index: index}
}

// Match returns one pair per destination (guild, channel) whose substring
// occurs in the announcement title. When several overlapping subscriptions of
// one channel match the same announcement, only the first is kept so the
// channel is notified once.
func (m *Matcher) Match(ann release.Announcement) []Match {
	subs := m.index.Lookup(ann.Title)
	if len(subs) == 0 {
		return nil
	}

	type destination struct{ guildID, channelID string }
	seen := make(map[destination]struct{}, len(subs))

	out := make([]Match, 0, len(subs))
	for _, sub := range subs {
		dest := destination{sub.GuildID, sub.ChannelID}
		if _, dup := seen[dest]; dup {
			continue
		}
		seen[dest] = struct{}{}
		out = append(out, Match{Subscription: sub, Announcement: ann})
	}
	return out
}
