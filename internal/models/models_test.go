package models

import (
	"testing"
	"time"
)

func TestParseCategory(t *testing.T) {
	tc := []struct {
		input   string
		want    Category
		wantErr bool
	}{
		{input: "", want: CategoryLiked},
		{input: "liked", want: CategoryLiked},
		{input: "saved", want: CategorySaved},
		{input: "watch_later", want: CategorySaved},
		{input: "history", want: CategoryHistory},
		{input: "favorites", wantErr: true},
	}

	for _, tt := range tc {
		t.Run("input "+tt.input, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseCategory(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCategory(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseCategory(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCategoryString(t *testing.T) {
	if CategoryLiked.String() != "liked" || CategorySaved.String() != "saved" || CategoryHistory.String() != "history" {
		t.Error("expected category labels liked/saved/history")
	}
}

func TestCredential(t *testing.T) {
	t.Run("ExpiresWithin", func(t *testing.T) {
		cred := NewCredential("user1", "token", "refresh", time.Now().Add(3*time.Minute))

		if !cred.ExpiresWithin(5 * time.Minute) {
			t.Error("expected credential to expire within five minutes")
		}
		if cred.ExpiresWithin(time.Minute) {
			t.Error("expected credential to outlive one minute")
		}
	})

	t.Run("IsExpired", func(t *testing.T) {
		expired := NewCredential("user1", "token", "refresh", time.Now().Add(-time.Minute))
		if !expired.IsExpired() {
			t.Error("expected expired credential")
		}

		fresh := NewCredential("user1", "token", "refresh", time.Now().Add(time.Hour))
		if fresh.IsExpired() {
			t.Error("expected fresh credential")
		}
	})

	t.Run("SetTokens keeps refresh token when omitted", func(t *testing.T) {
		cred := NewCredential("user1", "old-access", "old-refresh", time.Now().Add(time.Hour))

		cred.SetTokens("new-access", "", time.Now().Add(2*time.Hour))

		if cred.AccessToken() != "new-access" {
			t.Errorf("expected new access token, got %s", cred.AccessToken())
		}
		if cred.RefreshToken() != "old-refresh" {
			t.Errorf("expected refresh token to survive, got %s", cred.RefreshToken())
		}
	})

	t.Run("Validate", func(t *testing.T) {
		if err := NewCredential("", "token", "", time.Now()).Validate(); err == nil {
			t.Error("expected error for missing user")
		}
		if err := NewCredential("user1", "", "", time.Now()).Validate(); err == nil {
			t.Error("expected error for missing access token")
		}
	})
}

func TestVideoFlags(t *testing.T) {
	video := NewVideo("user1", "vid1")

	video.SetFlag(CategoryLiked, true)
	video.SetFlag(CategorySaved, true)

	if !video.Flag(CategoryLiked) || !video.Flag(CategorySaved) {
		t.Error("expected both flags set")
	}
	if video.Flag(CategoryHistory) {
		t.Error("expected history flag unset")
	}

	video.SetFlag(CategoryLiked, false)

	if video.Flag(CategoryLiked) {
		t.Error("expected liked flag cleared")
	}
	if !video.Flag(CategorySaved) {
		t.Error("expected saved flag untouched")
	}
}

func TestPlaylistDisplayTitle(t *testing.T) {
	watchLater := NewPlaylist("user1", WatchLaterPlaylistID)
	watchLater.SetTitle("wl")
	if watchLater.DisplayTitle() != "Watch Later" {
		t.Errorf("expected Watch Later, got %s", watchLater.DisplayTitle())
	}

	liked := NewPlaylist("user1", LikedVideosPlaylistID)
	if liked.DisplayTitle() != "Liked Videos" {
		t.Errorf("expected Liked Videos, got %s", liked.DisplayTitle())
	}

	regular := NewPlaylist("user1", "PL1")
	regular.SetTitle("Cooking")
	if regular.DisplayTitle() != "Cooking" {
		t.Errorf("expected playlist title, got %s", regular.DisplayTitle())
	}
}
