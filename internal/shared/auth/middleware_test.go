package auth

import (
	"context"
	"testing"
)

func TestHasAnyRole(t *testing.T) {
	cases := []struct {
		name     string
		user     []string
		required []string
		want     bool
	}{
		{"match", []string{"nurse", "physician"}, []string{"physician"}, true},
		{"no match", []string{"nurse"}, []string{"physician"}, false},
		{"empty required", []string{"nurse"}, nil, false},
		{"empty user", nil, []string{"physician"}, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := hasAnyRole(c.user, c.required); got != c.want {
				t.Errorf("hasAnyRole(%v, %v) = %v, want %v", c.user, c.required, got, c.want)
			}
		})
	}
}

func TestUserHasRole(t *testing.T) {
	u := &User{Roles: []string{"physician"}}
	if !u.HasRole("physician") {
		t.Error("expected HasRole to find a role the user carries")
	}
	if u.HasRole("admin") {
		t.Error("expected HasRole to report false for a role the user does not carry")
	}
}

func TestGetUserReturnsNilWithoutContextValue(t *testing.T) {
	if GetUser(context.Background()) != nil {
		t.Error("expected GetUser to return nil when no user is set on the context")
	}
}

func TestGetUserReturnsUserSetOnContext(t *testing.T) {
	want := &User{PerformerRole: "physician"}
	ctx := context.WithValue(context.Background(), UserContextKey, want)
	got := GetUser(ctx)
	if got != want {
		t.Fatal("expected GetUser to return the user stored under UserContextKey")
	}
}
