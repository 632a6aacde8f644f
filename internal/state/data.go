// package state implements the daemon's thread-safe in-process state store.
package state

import (
	"image"
	"time"

	"spotd/internal/cache"
	"spotd/internal/models"
)

// LyricResult is the outcome of a lyric lookup, cached per track/artists query.
type LyricResult struct {
	Found bool
	Lyric string
}

// Caches holds the daemon's bounded in-memory caches.
type Caches struct {
	Context *cache.Cache[*models.Context]
	Search  *cache.Cache[*models.SearchResults]
	Tracks  *cache.Cache[[]models.Track]
	Lyrics  *cache.Cache[LyricResult]
	Images  *cache.Cache[image.Image]
}

// NewCaches creates the cache set with the configured per-entry TTL.
func NewCaches(ttl time.Duration) Caches {
	return Caches{
		Context: cache.New[*models.Context](cache.DefaultCapacity, ttl),
		Search:  cache.New[*models.SearchResults](cache.DefaultCapacity, ttl),
		Tracks:  cache.New[[]models.Track](cache.DefaultCapacity, ttl),
		Lyrics:  cache.New[LyricResult](cache.DefaultCapacity, ttl),
		Images:  cache.New[image.Image](cache.DefaultCapacity, ttl),
	}
}

// Browse holds browse-page data.
type Browse struct {
	Categories        []models.Category
	CategoryPlaylists map[string][]models.Playlist
}

// AppData aggregates the user's library, browse data and the caches.
type AppData struct {
	UserData models.UserData
	Browse   Browse
	Caches   Caches
}
