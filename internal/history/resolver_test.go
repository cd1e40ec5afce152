package history

import (
	"strings"
	"testing"
)

// seedStore creates three conversations with known titles, oldest first
func seedStore(t *testing.T) (*Store, []*Conversation) {
	t.Helper()
	store := newTestStore(t)

	titles := []string{"Planning a trip to Japan", "Go error handling", "Trip budget"}
	var conversations []*Conversation
	for _, title := range titles {
		conv, err := store.Create("fast")
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if err := store.Rename(conv.ID, title); err != nil {
			t.Fatalf("Rename() failed: %v", err)
		}
		conversations = append(conversations, conv)
	}
	return store, conversations
}

func TestResolverAliases(t *testing.T) {
	store, conversations := seedStore(t)
	resolver := NewResolver(store)

	t.Run("@last is the newest", func(t *testing.T) {
		id, err := resolver.Resolve("@last")
		if err != nil {
			t.Fatalf("Resolve(@last) failed: %v", err)
		}
		if id != conversations[2].ID {
			t.Errorf("Resolve(@last) = %s, want %s", id, conversations[2].ID)
		}
	})

	t.Run("@first is the oldest", func(t *testing.T) {
		id, err := resolver.Resolve("@first")
		if err != nil {
			t.Fatalf("Resolve(@first) failed: %v", err)
		}
		if id != conversations[0].ID {
			t.Errorf("Resolve(@first) = %s, want %s", id, conversations[0].ID)
		}
	})
}

func TestResolverIndex(t *testing.T) {
	store, conversations := seedStore(t)
	resolver := NewResolver(store)

	id, err := resolver.Resolve("1")
	if err != nil {
		t.Fatalf("Resolve(1) failed: %v", err)
	}
	if id != conversations[2].ID {
		t.Errorf("Resolve(1) = %s, want newest %s", id, conversations[2].ID)
	}

	for _, ref := range []string{"0", "4", "-1"} {
		if _, err := resolver.Resolve(ref); err == nil {
			t.Errorf("Resolve(%q) expected out of range error", ref)
		}
	}
}

func TestResolverByID(t *testing.T) {
	store, conversations := seedStore(t)
	resolver := NewResolver(store)

	t.Run("full id", func(t *testing.T) {
		id, err := resolver.Resolve(conversations[1].ID)
		if err != nil {
			t.Fatalf("Resolve() failed: %v", err)
		}
		if id != conversations[1].ID {
			t.Errorf("Resolve() = %s, want %s", id, conversations[1].ID)
		}
	})

	t.Run("unique prefix", func(t *testing.T) {
		full := conversations[1].ID
		prefix := full[:len(full)-2]

		id, err := resolver.Resolve(prefix)
		if err != nil {
			// Prefix may collide with siblings created in the same second;
			// ambiguity is a legitimate answer then.
			if !strings.Contains(err.Error(), "ambiguous") {
				t.Fatalf("Resolve(%q) failed: %v", prefix, err)
			}
			return
		}
		if id != full {
			t.Errorf("Resolve(%q) = %s, want %s", prefix, id, full)
		}
	})

	t.Run("ambiguous prefix", func(t *testing.T) {
		_, err := resolver.Resolve("conv-")
		if err == nil {
			t.Fatal("Resolve(conv-) expected ambiguity error")
		}
		if !strings.Contains(err.Error(), "ambiguous") {
			t.Errorf("error = %v, want ambiguity message", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := resolver.Resolve("conv-zzzz-unknown"); err == nil {
			t.Error("Resolve() expected error for unknown id")
		}
	})
}

func TestResolverByTitle(t *testing.T) {
	store, conversations := seedStore(t)
	resolver := NewResolver(store)

	t.Run("unique substring", func(t *testing.T) {
		id, err := resolver.Resolve("error handling")
		if err != nil {
			t.Fatalf("Resolve() failed: %v", err)
		}
		if id != conversations[1].ID {
			t.Errorf("Resolve() = %s, want %s", id, conversations[1].ID)
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		id, err := resolver.Resolve("JAPAN")
		if err != nil {
			t.Fatalf("Resolve() failed: %v", err)
		}
		if id != conversations[0].ID {
			t.Errorf("Resolve() = %s, want %s", id, conversations[0].ID)
		}
	})

	t.Run("multiple matches", func(t *testing.T) {
		_, err := resolver.Resolve("trip")
		if err == nil {
			t.Fatal("Resolve(trip) expected error for multiple matches")
		}
		if !strings.Contains(err.Error(), "multiple") {
			t.Errorf("error = %v, want multiple-matches message", err)
		}
	})

	t.Run("no match", func(t *testing.T) {
		if _, err := resolver.Resolve("nonexistent topic"); err == nil {
			t.Error("Resolve() expected error for no matches")
		}
	})
}

func TestResolverEmptyStore(t *testing.T) {
	resolver := NewResolver(newTestStore(t))
	if _, err := resolver.Resolve("@last"); err == nil {
		t.Error("Resolve() expected error on empty store")
	}
}

func TestResolveConversation(t *testing.T) {
	store, conversations := seedStore(t)
	resolver := NewResolver(store)

	conv, err := resolver.ResolveConversation("@last")
	if err != nil {
		t.Fatalf("ResolveConversation() failed: %v", err)
	}
	if conv.ID != conversations[2].ID {
		t.Errorf("ResolveConversation().ID = %s, want %s", conv.ID, conversations[2].ID)
	}
	if conv.Title != "Trip budget" {
		t.Errorf("Title = %q, want Trip budget", conv.Title)
	}
}
