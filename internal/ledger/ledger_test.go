package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/PancyStudios/PancyGuard/pkg/clock"
	"github.com/PancyStudios/PancyGuard/pkg/database"
	"github.com/PancyStudios/PancyGuard/pkg/models"
)

func newTestLedger(t *testing.T) (*Ledger, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	docs := database.NewDataManager[models.CaseLedger](Collection, database.NewMemoryStore(), nil)
	return New(docs, clk), clk
}

func warn(guild, user string) NewCase {
	return NewCase{
		GuildID:   guild,
		Target:    Party{ID: user, Tag: user + "#0"},
		Moderator: Party{ID: "mod", Tag: "mod#0"},
		Action:    models.ActionWarn,
		Reason:    "spam",
	}
}

func TestWarnCountMatchesCreations(t *testing.T) {
	l, clk := newTestLedger(t)
	ctx := context.Background()

	const n = 7
	for i := 0; i < n; i++ {
		clk.Advance(time.Second)
		if _, err := l.CreateCase(ctx, warn("g1", "u1")); err != nil {
			t.Fatalf("CreateCase() error = %v", err)
		}
	}

	counts, err := l.CountByAction(ctx, "g1", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if counts[models.ActionWarn] != n {
		t.Errorf("warn count = %d, want %d", counts[models.ActionWarn], n)
	}

	cases, err := l.UserCases(ctx, "g1", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) != n {
		t.Fatalf("UserCases() returned %d cases, want %d", len(cases), n)
	}
	for i := 1; i < len(cases); i++ {
		if cases[i].ID <= cases[i-1].ID || !cases[i].CreatedAt.After(cases[i-1].CreatedAt) {
			t.Errorf("cases out of creation order at %d: %+v then %+v", i, cases[i-1], cases[i])
		}
	}
}

func TestCaseIDsArePerGuild(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	var gotA, gotB []int
	for i := 0; i < 3; i++ {
		a, err := l.CreateCase(ctx, warn("guildA", "u"))
		if err != nil {
			t.Fatal(err)
		}
		b, err := l.CreateCase(ctx, warn("guildB", "u"))
		if err != nil {
			t.Fatal(err)
		}
		gotA = append(gotA, a.ID)
		gotB = append(gotB, b.ID)
	}

	for i, want := range []int{1, 2, 3} {
		if gotA[i] != want || gotB[i] != want {
			t.Errorf("case %d: guildA=%d guildB=%d, want %d", i, gotA[i], gotB[i], want)
		}
	}
}

func TestConcurrentCreatesKeepIDsUnique(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	const workers = 40
	ids := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := l.CreateCase(ctx, warn("g1", "u1"))
			if err != nil {
				t.Error(err)
				return
			}
			ids <- c.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("case id %d assigned twice", id)
		}
		seen[id] = true
	}
	for id := 1; id <= workers; id++ {
		if !seen[id] {
			t.Errorf("case id %d missing", id)
		}
	}

	counts, err := l.CountByAction(ctx, "g1", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if counts[models.ActionWarn] != workers {
		t.Errorf("warn count = %d, want %d", counts[models.ActionWarn], workers)
	}
}

func TestCreateCaseRejectsMalformedInput(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	bad := []NewCase{
		{Target: Party{ID: "u"}, Action: models.ActionWarn},
		{GuildID: "g", Action: models.ActionWarn},
		{GuildID: "g", Target: Party{ID: "u"}, Action: "mute"},
		{GuildID: "g", Target: Party{ID: "u"}, Action: models.ActionTimeout, DurationSeconds: -1},
	}
	for _, nc := range bad {
		if _, err := l.CreateCase(ctx, nc); !errors.Is(err, ErrInvalidCase) {
			t.Errorf("CreateCase(%+v) error = %v, want ErrInvalidCase", nc, err)
		}
	}

	// Nothing may have been written
	if recent, _ := l.RecentCases(ctx, "g", 10); len(recent) != 0 {
		t.Errorf("RecentCases() = %v, want none", recent)
	}
}

func TestDurationKeptOnlyForTimeouts(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	nc := warn("g1", "u1")
	nc.Action = models.ActionTimeout
	nc.DurationSeconds = 3600
	timeout, err := l.CreateCase(ctx, nc)
	if err != nil {
		t.Fatal(err)
	}
	if timeout.DurationSeconds != 3600 {
		t.Errorf("timeout duration = %d, want 3600", timeout.DurationSeconds)
	}

	nc.Action = models.ActionKick
	kick, err := l.CreateCase(ctx, nc)
	if err != nil {
		t.Fatal(err)
	}
	if kick.DurationSeconds != 0 {
		t.Errorf("kick duration = %d, want 0", kick.DurationSeconds)
	}
}

func TestCaseLookupAndRecent(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	for _, user := range []string{"u1", "u2", "u1"} {
		if _, err := l.CreateCase(ctx, warn("g1", user)); err != nil {
			t.Fatal(err)
		}
	}

	c, err := l.Case(ctx, "g1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if c.TargetUserID != "u2" {
		t.Errorf("Case(2).TargetUserID = %q, want u2", c.TargetUserID)
	}

	if _, err := l.Case(ctx, "g1", 99); !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("Case(99) error = %v, want ErrCaseNotFound", err)
	}

	recent, err := l.RecentCases(ctx, "g1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].ID != 3 || recent[1].ID != 2 {
		t.Errorf("RecentCases() ids = %v, want [3 2]", recent)
	}
}

func TestRecordCaseCountsPerUserAndAction(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	steps := []struct {
		nc   NewCase
		want int
	}{
		{warn("g1", "u1"), 1},
		{warn("g1", "u2"), 1},
		{warn("g1", "u1"), 2},
		{NewCase{GuildID: "g1", Target: Party{ID: "u1"}, Action: models.ActionKick}, 1},
		{warn("g1", "u1"), 3},
		{warn("g2", "u1"), 1},
	}
	for i, s := range steps {
		rec, err := l.RecordCase(ctx, s.nc)
		if err != nil {
			t.Fatalf("step %d: RecordCase() error = %v", i, err)
		}
		if rec.ActionCount != s.want {
			t.Errorf("step %d: ActionCount = %d, want %d", i, rec.ActionCount, s.want)
		}
	}
}
