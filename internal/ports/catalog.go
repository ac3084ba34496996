package ports

import (
	"github.com/tejashwikalptaru/wavepulse/internal/domain"
)

// TrackCatalog is the read-only track dataset.
// Tracks() defines catalog order, which the queue scheduler follows when the
// play-next queue is empty. Every lookup returns tracks in catalog order.
type TrackCatalog interface {
	// Tracks returns all tracks in catalog order.
	Tracks() []domain.Track

	// TrackByID returns the track with id, or domain.ErrTrackNotFound.
	TrackByID(id string) (domain.Track, error)

	// IndexOf returns the catalog position of the track with id, or -1.
	IndexOf(id string) int

	// TracksByArtist returns the tracks whose ArtistID matches.
	TracksByArtist(artistID string) []domain.Track

	// TracksByAlbum returns the tracks whose AlbumID matches.
	TracksByAlbum(albumID string) []domain.Track

	// TracksByPlaylist returns the playlist's tracks, empty for an unknown playlist.
	TracksByPlaylist(playlistID string) []domain.Track

	// TracksByGenre matches the genre name case-insensitively.
	TracksByGenre(genre string) []domain.Track

	// AlbumsByArtist returns the albums whose ArtistID matches.
	AlbumsByArtist(artistID string) []domain.Album

	Artists() []domain.Artist
	Albums() []domain.Album
	Playlists() []domain.Playlist
	Genres() []domain.Genre
}
