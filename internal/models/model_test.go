package models

import (
	"testing"
	"time"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri      URI
		wantKind Kind
		wantID   string
		wantErr  bool
	}{
		{uri: "spotify:track:6rqhFgbbKwnb9MLmUQDhG6", wantKind: KindTrack, wantID: "6rqhFgbbKwnb9MLmUQDhG6"},
		{uri: "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M", wantKind: KindPlaylist, wantID: "37i9dQZF1DXcBWIGoYBM5M"},
		{uri: "spotify:show:abc", wantKind: KindShow, wantID: "abc"},
		{uri: "tracks:user-liked-tracks", wantErr: true},
		{uri: "spotify:track", wantErr: true},
		{uri: "", wantErr: true},
	}

	for _, tt := range tests {
		kind, id, err := ParseURI(tt.uri)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseURI(%q) expected error", tt.uri)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseURI(%q) error = %v", tt.uri, err)
			continue
		}
		if kind != tt.wantKind || id != tt.wantID {
			t.Errorf("ParseURI(%q) = (%s, %s)", tt.uri, kind, id)
		}
	}
}

func TestTypedURIs(t *testing.T) {
	if got := TrackID("t1").URI(); got != "spotify:track:t1" {
		t.Errorf("TrackID.URI() = %s", got)
	}
	if got := PlaylistID("p1").URI(); got != "spotify:playlist:p1" {
		t.Errorf("PlaylistID.URI() = %s", got)
	}
	if got := LikedTracksID.URI(); got != "tracks:user-liked-tracks" {
		t.Errorf("LikedTracksID.URI() = %s", got)
	}
	if got := RadioTracksID("spotify:artist:a1", "Artist").URI(); got != "radio:spotify:artist:a1" {
		t.Errorf("radio URI = %s", got)
	}
}

func TestContextIDFromURI(t *testing.T) {
	id, err := ContextIDFromURI("spotify:playlist:pl1")
	if err != nil {
		t.Fatalf("ContextIDFromURI() error = %v", err)
	}
	if _, ok := id.(PlaylistID); !ok {
		t.Errorf("id type = %T", id)
	}

	if _, err := ContextIDFromURI("spotify:track:t1"); err == nil {
		t.Error("a track URI must not resolve to a context id")
	}
}

func TestTrackString(t *testing.T) {
	track := Track{
		Name:    "Song",
		Artists: []Artist{{Name: "A"}, {Name: "B"}},
		Album:   &Album{Name: "Record"},
	}
	if got := track.String(); got != "Song • A, B • Record" {
		t.Errorf("String() = %q", got)
	}

	bidi := track.BidiString()
	if bidi == track.String() {
		t.Error("BidiString() must wrap the display form in isolation characters")
	}
	if got := len([]rune(bidi)); got != len([]rune(track.String()))+2 {
		t.Errorf("BidiString() adds %d runes, want 2", got-len([]rune(track.String())))
	}
}

func TestRepeatStateCycle(t *testing.T) {
	if RepeatOff.Next() != RepeatTrack || RepeatTrack.Next() != RepeatContext || RepeatContext.Next() != RepeatOff {
		t.Error("repeat cycle broken")
	}
}

func TestContextDescription(t *testing.T) {
	fetched := &Context{
		Kind:     KindPlaylist,
		Playlist: &Playlist{Name: "Mix", Owner: PlaylistOwner{DisplayName: "User"}},
		Tracks: []Track{
			{Duration: 3 * time.Minute},
			{Duration: 2 * time.Minute},
		},
	}
	want := "Mix | User | 2 songs | 5m0s"
	if got := fetched.Description(); got != want {
		t.Errorf("Description() = %q, want %q", got, want)
	}
}

func TestPlaylistsCreatedByUser(t *testing.T) {
	data := UserData{
		User: &User{ID: "u1"},
		Playlists: []Playlist{
			{ID: "p1", Owner: PlaylistOwner{ID: "u1"}},
			{ID: "p2", Owner: PlaylistOwner{ID: "other"}},
			{ID: "p3", Owner: PlaylistOwner{ID: "u1"}},
		},
	}
	owned := data.PlaylistsCreatedByUser()
	if len(owned) != 2 || owned[0].ID != "p1" || owned[1].ID != "p3" {
		t.Errorf("PlaylistsCreatedByUser() = %+v", owned)
	}
}
