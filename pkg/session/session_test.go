package session

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { sq.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sq,
	}
}

func TestManagerGet(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			m := NewManager(store, WithLogger(quiet), WithTTL(time.Hour))

			st, err := m.Get(ctx, "")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !st.Fresh || st.ID == "" {
				t.Fatalf("new state = %+v, want fresh with id", st)
			}

			st.Data["user"] = "ada"
			st.Fresh = false
			if err := m.Update(ctx, st); err != nil {
				t.Fatalf("Update: %v", err)
			}

			got, err := m.Get(ctx, st.ID)
			if err != nil {
				t.Fatalf("Get(%s): %v", st.ID, err)
			}
			if got.Fresh {
				t.Error("loaded state should not be fresh")
			}
			if got.Data["user"] != "ada" {
				t.Errorf("Data[user] = %v, want ada", got.Data["user"])
			}

			unknown, err := m.Get(ctx, "nope")
			if err != nil {
				t.Fatalf("Get(nope): %v", err)
			}
			if !unknown.Fresh || unknown.ID == "nope" {
				t.Errorf("unknown id should yield a new state, got %+v", unknown)
			}
		})
	}
}

func TestManagerExpired(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			m := NewManager(store, WithLogger(quiet), WithTTL(time.Minute))
			now := time.Now()
			m.now = func() time.Time { return now }

			st, err := m.Get(ctx, "")
			if err != nil {
				t.Fatal(err)
			}

			now = now.Add(2 * time.Minute)
			got, err := m.Get(ctx, st.ID)
			if err != nil {
				t.Fatal(err)
			}
			if got.ID == st.ID || !got.Fresh {
				t.Errorf("expired session was reused: %+v", got)
			}
			old, err := store.Read(ctx, st.ID)
			if err != nil {
				t.Fatal(err)
			}
			if old != nil {
				t.Error("expired session should be deleted")
			}
		})
	}
}

func TestUpdateNil(t *testing.T) {
	m := NewManager(NewMemoryStore(), WithLogger(quiet))
	if err := m.Update(context.Background(), nil); err != ErrNoState {
		t.Errorf("Update(nil) = %v, want ErrNoState", err)
	}
}

func TestSQLitePrune(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	now := time.Now()
	for id, exp := range map[string]time.Time{
		"old": now.Add(-time.Hour),
		"new": now.Add(time.Hour),
	} {
		if err := store.Write(ctx, &State{ID: id, ExpiresAt: exp}); err != nil {
			t.Fatal(err)
		}
	}

	n, err := store.Prune(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Prune removed %d, want 1", n)
	}
	if st, _ := store.Read(ctx, "new"); st == nil {
		t.Error("unexpired session was pruned")
	}
}

func TestMiddleware(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, WithLogger(quiet))

	var seen *State
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == nil {
		t.Fatal("no state in request context")
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != CookieName || c.Value != seen.ID {
		t.Errorf("cookie = %s=%s, want %s=%s", c.Name, c.Value, CookieName, seen.ID)
	}
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteStrictMode {
		t.Errorf("cookie flags = %+v", c)
	}

	// second request carries the cookie and gets no new one
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: c.Value})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if len(rec.Result().Cookies()) != 0 {
		t.Error("cookie sent again for a known session")
	}
	if seen.ID != c.Value {
		t.Errorf("session id = %s, want %s", seen.ID, c.Value)
	}
	if store.Len() != 1 {
		t.Errorf("store has %d sessions, want 1", store.Len())
	}
}

func TestFromContextEmpty(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Error("FromContext on empty context should be nil")
	}
}
