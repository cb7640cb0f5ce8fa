package domain

import (
	"testing"
	"time"
)

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	live := Session{ExpiresAt: now.Add(time.Minute)}
	if live.Expired(now) {
		t.Fatal("expected live session")
	}
	stale := Session{ExpiresAt: now.Add(-time.Minute)}
	if !stale.Expired(now) {
		t.Fatal("expected expired session")
	}
	// sessions without an expiry never expire
	var open Session
	if open.Expired(now) {
		t.Fatal("expected open-ended session to stay valid")
	}
}

func TestUserActor(t *testing.T) {
	user := User{ID: "u-1", Name: "山田", Email: "y@example.jp", PasswordHash: "secret"}
	actor := user.Actor()
	if actor.ID != "u-1" || actor.Name != "山田" || actor.Email != "y@example.jp" {
		t.Fatalf("unexpected actor %+v", actor)
	}
}
