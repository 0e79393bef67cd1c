package model

import (
	"encoding/json"
	"testing"
)

func TestUserViewOmitsSecrets(t *testing.T) {
	u := User{
		ID:           "u1",
		Username:     "annlee",
		Email:        "ann@x.com",
		PasswordHash: "$2a$10$hash",
		RefreshToken: "refresh-token",
	}

	raw, err := json.Marshal(u.View())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"password", "passwordHash", "refreshToken"} {
		if _, ok := fields[key]; ok {
			t.Fatalf("view must not expose %q", key)
		}
	}
	if history, ok := fields["watchHistory"].([]any); !ok || len(history) != 0 {
		t.Fatalf("expected empty watchHistory array, got %v", fields["watchHistory"])
	}
}

func TestNewAPIResponseSuccessFlag(t *testing.T) {
	if !NewAPIResponse(201, nil, "created").Success {
		t.Fatalf("expected success for 201")
	}
	if NewAPIResponse(409, nil, "conflict").Success {
		t.Fatalf("expected failure for 409")
	}
}
