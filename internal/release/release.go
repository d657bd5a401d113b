package release

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Download is one downloadable artifact attached to an announcement.
type Download struct {
	PublishedDate time.Time `json:"published_date"`
	Resolution    int       `json:"resolution"`
	Comments      string    `json:"comments,omitempty"`
	Torrent       string    `json:"torrent"`
	FileName      string    `json:"file_name"`
}

// Episode carries the variant fields of a single-episode release. Decimal
// supports sub-numbered episodes (12.5), Version re-releases (v2), Extra is
// free-form text appended by the upstream parser.
type Episode struct {
	Number  int    `json:"number"`
	Decimal int    `json:"decimal,omitempty"`
	Version int    `json:"version,omitempty"`
	Extra   string `json:"extra,omitempty"`
}

// Batch is an inclusive episode range.
type Batch struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type Kind int

const (
	KindBatch Kind = iota + 1
	KindEpisode
	KindMovie
)

// Variant is the release shape: exactly one of batch, episode, or movie.
// On the wire it is a tagged object, e.g. {"episode":{"number":12}} or
// {"movie":{}}.
type Variant struct {
	Kind    Kind
	Batch   Batch
	Episode Episode
}

func NewBatch(start, end int) Variant {
	return Variant{Kind: KindBatch, Batch: Batch{Start: start, End: end}}
}

func NewEpisode(ep Episode) Variant {
	return Variant{Kind: KindEpisode, Episode: ep}
}

func NewMovie() Variant {
	return Variant{Kind: KindMovie}
}

type variantJSON struct {
	Batch   *Batch    `json:"batch,omitempty"`
	Episode *Episode  `json:"episode,omitempty"`
	Movie   *struct{} `json:"movie,omitempty"`
}

func (v Variant) MarshalJSON() ([]byte, error) {
	var out variantJSON
	switch v.Kind {
	case KindBatch:
		b := v.Batch
		out.Batch = &b
	case KindEpisode:
		e := v.Episode
		out.Episode = &e
	case KindMovie:
		out.Movie = &struct{}{}
	default:
		return nil, fmt.Errorf("marshal variant: unknown kind %d", v.Kind)
	}
	return json.Marshal(out)
}

func (v *Variant) UnmarshalJSON(data []byte) error {
	var in variantJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch {
	case in.Batch != nil:
		*v = Variant{Kind: KindBatch, Batch: *in.Batch}
	case in.Episode != nil:
		*v = Variant{Kind: KindEpisode, Episode: *in.Episode}
	case in.Movie != nil:
		*v = Variant{Kind: KindMovie}
	default:
		return fmt.Errorf("unmarshal variant: none of batch/episode/movie present")
	}
	return nil
}

// String renders the variant marker used in notifications:
// "[Batch (1-24)]", "[Ep 12.5v2]", "[Movie]".
func (v Variant) String() string {
	switch v.Kind {
	case KindBatch:
		return fmt.Sprintf("[Batch (%d-%d)]", v.Batch.Start, v.Batch.End)
	case KindEpisode:
		var b strings.Builder
		fmt.Fprintf(&b, "[Ep %d", v.Episode.Number)
		if v.Episode.Decimal > 0 {
			fmt.Fprintf(&b, ".%d", v.Episode.Decimal)
		}
		if v.Episode.Version > 0 {
			fmt.Fprintf(&b, "v%d", v.Episode.Version)
		}
		if v.Episode.Extra != "" {
			b.WriteString(v.Episode.Extra)
		}
		b.WriteString("]")
		return b.String()
	case KindMovie:
		return "[Movie]"
	}
	return "[?]"
}

// Key is the stable variant component of a release identity.
func (v Variant) Key() string {
	switch v.Kind {
	case KindBatch:
		return fmt.Sprintf("batch:%d-%d", v.Batch.Start, v.Batch.End)
	case KindEpisode:
		var b strings.Builder
		fmt.Fprintf(&b, "ep:%d", v.Episode.Number)
		if v.Episode.Decimal > 0 {
			fmt.Fprintf(&b, ".%d", v.Episode.Decimal)
		}
		if v.Episode.Version > 0 {
			fmt.Fprintf(&b, "v%d", v.Episode.Version)
		}
		return b.String()
	case KindMovie:
		return "movie"
	}
	return "unknown"
}

// Announcement is one catalog stream item. It only lives for the duration of
// processing: the core never persists announcements.
type Announcement struct {
	Title     string     `json:"title"`
	Variant   Variant    `json:"variant"`
	Downloads []Download `json:"downloads"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PrimaryDownloadRef identifies the first download entry, preferring the
// torrent URL over the file name. Empty when the announcement carries no
// downloads.
func (a Announcement) PrimaryDownloadRef() string {
	if len(a.Downloads) == 0 {
		return ""
	}
	d := a.Downloads[0]
	if d.Torrent != "" {
		return d.Torrent
	}
	return d.FileName
}
