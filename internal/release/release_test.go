package release_test

import (
	"encoding/json"
	"testing"
	"time"

	"animehub/internal/release"
)

func TestVariantDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want release.Variant
	}{
		{
			name: "batch",
			in:   `{"batch":{"start":1,"end":24}}`,
			want: release.NewBatch(1, 24),
		},
		{
			name: "episode with decimal and version",
			in:   `{"episode":{"number":12,"decimal":5,"version":2}}`,
			want: release.NewEpisode(release.Episode{Number: 12, Decimal: 5, Version: 2}),
		},
		{
			name: "movie",
			in:   `{"movie":{}}`,
			want: release.NewMovie(),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got release.Variant
			if err := json.Unmarshal([]byte(tc.in), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestVariantDecodeRejectsEmpty(t *testing.T) {
	var v release.Variant
	if err := json.Unmarshal([]byte(`{}`), &v); err == nil {
		t.Fatal("expected error for variant without a tag")
	}
}

func TestVariantString(t *testing.T) {
	tests := []struct {
		v    release.Variant
		want string
	}{
		{release.NewBatch(1, 24), "[Batch (1-24)]"},
		{release.NewEpisode(release.Episode{Number: 1071}), "[Ep 1071]"},
		{release.NewEpisode(release.Episode{Number: 12, Decimal: 5, Version: 2}), "[Ep 12.5v2]"},
		{release.NewEpisode(release.Episode{Number: 3, Extra: " (uncut)"}), "[Ep 3 (uncut)]"},
		{release.NewMovie(), "[Movie]"},
	}

	for _, tc := range tests {
		if got := tc.v.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestVariantKeyIgnoresExtra(t *testing.T) {
	a := release.NewEpisode(release.Episode{Number: 12, Extra: "foo"})
	b := release.NewEpisode(release.Episode{Number: 12, Extra: "bar"})
	if a.Key() != b.Key() {
		t.Fatalf("extra text must not change the identity key: %q vs %q", a.Key(), b.Key())
	}
}

func TestPrimaryDownloadRef(t *testing.T) {
	now := time.Now()

	ann := release.Announcement{Title: "One Piece", Variant: release.NewMovie()}
	if got := ann.PrimaryDownloadRef(); got != "" {
		t.Fatalf("no downloads should give empty ref, got %q", got)
	}

	ann.Downloads = []release.Download{
		{PublishedDate: now, Resolution: 1080, Torrent: "https://example.org/a.torrent", FileName: "a.mkv"},
		{PublishedDate: now, Resolution: 720, Torrent: "https://example.org/b.torrent", FileName: "b.mkv"},
	}
	if got := ann.PrimaryDownloadRef(); got != "https://example.org/a.torrent" {
		t.Fatalf("expected first torrent, got %q", got)
	}

	ann.Downloads[0].Torrent = ""
	if got := ann.PrimaryDownloadRef(); got != "a.mkv" {
		t.Fatalf("expected file name fallback, got %q", got)
	}
}

func TestAnnouncementRoundTrip(t *testing.T) {
	in := `{
		"title": "One Piece",
		"variant": {"episode": {"number": 1071}},
		"downloads": [{"published_date":"2026-08-01T12:00:00Z","resolution":1080,"torrent":"t","file_name":"f"}],
		"created_at": "2026-08-01T12:00:00Z",
		"updated_at": "2026-08-01T12:00:00Z"
	}`

	var ann release.Announcement
	if err := json.Unmarshal([]byte(in), &ann); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ann.Title != "One Piece" || ann.Variant.Kind != release.KindEpisode || ann.Variant.Episode.Number != 1071 {
		t.Fatalf("unexpected announcement: %+v", ann)
	}
	if len(ann.Downloads) != 1 || ann.Downloads[0].Resolution != 1080 {
		t.Fatalf("unexpected downloads: %+v", ann.Downloads)
	}
}
