// Package static provides an in-memory, read-only TrackCatalog.
// The built-in dataset ships embedded as YAML; alternative datasets can be
// loaded from a file or assembled from scanned tracks.
package static

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tejashwikalptaru/wavepulse/internal/domain"
	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

//go:embed catalog.yaml
var builtin []byte

// document is the on-disk catalog layout. Track durations are whole seconds.
type document struct {
	Artists []struct {
		ID     string   `yaml:"id"`
		Name   string   `yaml:"name"`
		Image  string   `yaml:"image"`
		Genres []string `yaml:"genres"`
		Bio    string   `yaml:"bio"`
	} `yaml:"artists"`

	Albums []struct {
		ID          string `yaml:"id"`
		Title       string `yaml:"title"`
		Artist      string `yaml:"artist"`
		ArtistID    string `yaml:"artist_id"`
		CoverImage  string `yaml:"cover_image"`
		ReleaseYear int    `yaml:"release_year"`
		Genre       string `yaml:"genre"`
	} `yaml:"albums"`

	Tracks []struct {
		ID         string `yaml:"id"`
		Title      string `yaml:"title"`
		Artist     string `yaml:"artist"`
		ArtistID   string `yaml:"artist_id"`
		Album      string `yaml:"album"`
		AlbumID    string `yaml:"album_id"`
		CoverImage string `yaml:"cover_image"`
		Media      string `yaml:"media"`
		Duration   int    `yaml:"duration"`
		Genre      string `yaml:"genre"`
	} `yaml:"tracks"`

	Genres []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"genres"`

	Playlists []struct {
		ID          string   `yaml:"id"`
		Title       string   `yaml:"title"`
		CoverImage  string   `yaml:"cover_image"`
		Description string   `yaml:"description"`
		Tracks      []string `yaml:"tracks"`
	} `yaml:"playlists"`
}

// Catalog is an immutable TrackCatalog. It is safe for concurrent use.
type Catalog struct {
	tracks    []domain.Track
	index     map[string]int
	artists   []domain.Artist
	albums    []domain.Album
	playlists []domain.Playlist
	genres    []domain.Genre
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(builtin))
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()

	return Load(f)
}

// Load decodes a YAML catalog. Track IDs must be unique and non-empty.
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	tracks := make([]domain.Track, 0, len(doc.Tracks))
	for _, t := range doc.Tracks {
		tracks = append(tracks, domain.Track{
			ID:            t.ID,
			Title:         t.Title,
			Artist:        t.Artist,
			ArtistID:      t.ArtistID,
			Album:         t.Album,
			AlbumID:       t.AlbumID,
			CoverImageRef: t.CoverImage,
			MediaRef:      t.Media,
			Duration:      time.Duration(t.Duration) * time.Second,
			Genre:         t.Genre,
		})
	}

	c, err := newCatalog(tracks)
	if err != nil {
		return nil, err
	}

	for _, a := range doc.Artists {
		c.artists = append(c.artists, domain.Artist{ID: a.ID, Name: a.Name, Image: a.Image, Genres: a.Genres, Bio: a.Bio})
	}
	for _, a := range doc.Albums {
		c.albums = append(c.albums, domain.Album{
			ID:          a.ID,
			Title:       a.Title,
			Artist:      a.Artist,
			ArtistID:    a.ArtistID,
			CoverImage:  a.CoverImage,
			ReleaseYear: a.ReleaseYear,
			Genre:       a.Genre,
		})
	}
	for _, g := range doc.Genres {
		c.genres = append(c.genres, domain.Genre{ID: g.ID, Name: g.Name})
	}
	for _, p := range doc.Playlists {
		c.playlists = append(c.playlists, domain.Playlist{
			ID:          p.ID,
			Title:       p.Title,
			CoverImage:  p.CoverImage,
			Description: p.Description,
			TrackIDs:    p.Tracks,
		})
	}

	return c, nil
}

// FromTracks builds a catalog holding only tracks, in the given order.
func FromTracks(tracks []domain.Track) (*Catalog, error) {
	return newCatalog(slices.Clone(tracks))
}

func newCatalog(tracks []domain.Track) (*Catalog, error) {
	c := &Catalog{
		tracks: tracks,
		index:  make(map[string]int, len(tracks)),
	}
	for i, t := range tracks {
		if t.ID == "" {
			return nil, fmt.Errorf("catalog track %d has no id", i)
		}
		if _, dup := c.index[t.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog track id %q", t.ID)
		}
		c.index[t.ID] = i
	}
	return c, nil
}

// Tracks returns all tracks in catalog order.
func (c *Catalog) Tracks() []domain.Track {
	return slices.Clone(c.tracks)
}

// TrackByID returns the track with id.
func (c *Catalog) TrackByID(id string) (domain.Track, error) {
	i, ok := c.index[id]
	if !ok {
		return domain.Track{}, fmt.Errorf("%w: %s", domain.ErrTrackNotFound, id)
	}
	return c.tracks[i], nil
}

// IndexOf returns the catalog position of id, or -1.
func (c *Catalog) IndexOf(id string) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return -1
}

// TracksByArtist filters by artist ID.
func (c *Catalog) TracksByArtist(artistID string) []domain.Track {
	return c.filter(func(t domain.Track) bool { return t.ArtistID == artistID })
}

// TracksByAlbum filters by album ID.
func (c *Catalog) TracksByAlbum(albumID string) []domain.Track {
	return c.filter(func(t domain.Track) bool { return t.AlbumID == albumID })
}

// TracksByPlaylist returns the playlist's tracks in catalog order, not playlist order.
func (c *Catalog) TracksByPlaylist(playlistID string) []domain.Track {
	i := slices.IndexFunc(c.playlists, func(p domain.Playlist) bool { return p.ID == playlistID })
	if i < 0 {
		return []domain.Track{}
	}
	ids := c.playlists[i].TrackIDs
	return c.filter(func(t domain.Track) bool { return slices.Contains(ids, t.ID) })
}

// TracksByGenre filters by genre name, ignoring case.
func (c *Catalog) TracksByGenre(genre string) []domain.Track {
	return c.filter(func(t domain.Track) bool { return strings.EqualFold(t.Genre, genre) })
}

// AlbumsByArtist filters albums by artist ID.
func (c *Catalog) AlbumsByArtist(artistID string) []domain.Album {
	out := []domain.Album{}
	for _, a := range c.albums {
		if a.ArtistID == artistID {
			out = append(out, a)
		}
	}
	return out
}

// Artists returns all artists.
func (c *Catalog) Artists() []domain.Artist { return slices.Clone(c.artists) }

// Albums returns all albums.
func (c *Catalog) Albums() []domain.Album { return slices.Clone(c.albums) }

// Playlists returns all playlists.
func (c *Catalog) Playlists() []domain.Playlist { return slices.Clone(c.playlists) }

// Genres returns all genres.
func (c *Catalog) Genres() []domain.Genre { return slices.Clone(c.genres) }

func (c *Catalog) filter(keep func(domain.Track) bool) []domain.Track {
	out := []domain.Track{}
	for _, t := range c.tracks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

var _ ports.TrackCatalog = (*Catalog)(nil)
