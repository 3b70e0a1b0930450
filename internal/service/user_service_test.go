package service

import (
	"testing"

	"github.com/Dylan-Floyd/effe81/internal/apperr"
	"github.com/Dylan-Floyd/effe81/internal/models"
)

func TestGetUserByID(t *testing.T) {
	userRepo := NewMockUserRepository()
	userService := NewUserService(userRepo, NewMockPresence())
	userRepo.Create(&models.User{Username: "alice", Email: "alice@example.com"})

	user, err := userService.GetUserByID(1)
	if err != nil {
		t.Fatalf("GetUserByID error = %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want %q", user.Username, "alice")
	}

	if _, err := userService.GetUserByID(99); !apperr.Is(err, apperr.CodeNotFound) {
		t.Errorf("GetUserByID(99) error = %v, want not found", err)
	}
}

func TestGetProfileReflectsPresence(t *testing.T) {
	userRepo := NewMockUserRepository()
	registry := NewMockPresence()
	userService := NewUserService(userRepo, registry)
	userRepo.Create(&models.User{Username: "alice", Email: "alice@example.com"})

	profile, err := userService.GetProfile(1)
	if err != nil {
		t.Fatalf("GetProfile error = %v", err)
	}
	if profile.Online {
		t.Errorf("Online = true while disconnected")
	}

	registry.online[1] = true
	profile, err = userService.GetProfile(1)
	if err != nil {
		t.Fatalf("GetProfile error = %v", err)
	}
	if !profile.Online {
		t.Errorf("Online = false while connected")
	}

	if _, err := userService.GetProfile(99); !apperr.Is(err, apperr.CodeNotFound) {
		t.Errorf("GetProfile(99) error = %v, want not found", err)
	}
}

func TestSearchUsers(t *testing.T) {
	userRepo := NewMockUserRepository()
	registry := NewMockPresence(2)
	userService := NewUserService(userRepo, registry)
	userRepo.Create(&models.User{Username: "alice", Email: "alice@example.com"})
	userRepo.Create(&models.User{Username: "bob", Email: "bob@example.com"})

	results, err := userService.SearchUsers("b", 1, 20)
	if err != nil {
		t.Fatalf("SearchUsers error = %v", err)
	}
	for _, user := range results {
		if user.ID == 1 {
			t.Errorf("search results include the caller")
		}
		if user.ID == 2 && !user.Online {
			t.Errorf("online flag missing for connected user")
		}
	}

	empty, err := userService.SearchUsers("   ", 1, 20)
	if err != nil {
		t.Fatalf("SearchUsers error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("blank query returned %d results, want 0", len(empty))
	}
}
