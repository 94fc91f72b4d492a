package authsrv_test

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/poacpm/api/pkg/auth/authsrv"
	"github.com/poacpm/api/pkg/user"
)

func TestRedirectEncoder_RoundTrip(t *testing.T) {
	encoder := authsrv.RedirectEncoder{Base: "https://poac.pm/api/auth"}
	u := &user.User{
		ID: 42, Name: "Alice", UserName: "alice", AvatarURL: "a.png",
		Email: "alice@x.com", Status: user.StatusActive,
	}

	location, err := encoder.Encode(u, "tok1")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(location, "https://poac.pm/api/auth?") {
		t.Fatalf("unexpected redirect base: %s", location)
	}

	parsed, err := url.Parse(location)
	if err != nil {
		t.Fatal(err)
	}
	query := parsed.Query()

	if got := query.Get("access_token"); got != "tok1" {
		t.Errorf("expected raw access token, got %q", got)
	}

	payload, err := base64.StdEncoding.DecodeString(query.Get("user_metadata"))
	if err != nil {
		t.Fatalf("user_metadata is not valid base64: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("user_metadata is not valid JSON: %v", err)
	}

	if decoded["id"] != float64(42) || decoded["name"] != "Alice" ||
		decoded["user_name"] != "alice" || decoded["avatar_url"] != "a.png" {
		t.Errorf("unexpected payload fields: %v", decoded)
	}

	// Email and status must never reach the frontend in the payload.
	if _, ok := decoded["email"]; ok {
		t.Error("payload leaks email")
	}
	if _, ok := decoded["status"]; ok {
		t.Error("payload leaks status")
	}
	if len(decoded) != 4 {
		t.Errorf("payload must carry exactly id/name/user_name/avatar_url, got %v", decoded)
	}
}
