package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/abrezinsky/gacharank/internal/gacha"
	"github.com/abrezinsky/gacharank/internal/models"
)

// newTestRepo creates a new in-memory repository for testing.
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func character(id string, tier gacha.Tier, rate float64) models.Character {
	return models.Character{ID: id, Rank: tier, Name: "Char " + id, Image: id + ".png", Rate: rate}
}

// ==================== Lifecycle Tests ====================

func TestNew_RunsMigrations(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, table := range []string{"settings", "characters", "cooldowns", "ledger", "draws", "archives", "panels"} {
		var name string
		err := repo.DB().QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("expected table %s to exist: %v", table, err)
		}
	}
	if err := repo.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNew_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent-dir/sub/gacha.db")
	if err == nil {
		t.Fatal("expected error for unwritable database path")
	}
}

func TestClose_NilDB(t *testing.T) {
	repo := &Repository{}
	if err := repo.Close(); err != nil {
		t.Errorf("expected nil error closing empty repository, got %v", err)
	}
}

// ==================== Settings Tests ====================

func TestSettings_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetSetting(ctx, "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := repo.SetSetting(ctx, SettingRankMessageID, "m-1"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if err := repo.SetSetting(ctx, SettingRankMessageID, "m-2"); err != nil {
		t.Fatalf("SetSetting overwrite failed: %v", err)
	}

	got, err := repo.GetSetting(ctx, SettingRankMessageID)
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if got != "m-2" {
		t.Errorf("expected m-2, got %q", got)
	}
}

// ==================== Catalog Tests ====================

func TestCatalogTitle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	title, err := repo.GetCatalogTitle(ctx)
	if err != nil {
		t.Fatalf("GetCatalogTitle failed: %v", err)
	}
	if title != "" {
		t.Errorf("expected empty title on fresh catalog, got %q", title)
	}

	if err := repo.SetCatalogTitle(ctx, "Summer Gacha"); err != nil {
		t.Fatalf("SetCatalogTitle failed: %v", err)
	}
	title, _ = repo.GetCatalogTitle(ctx)
	if title != "Summer Gacha" {
		t.Errorf("expected Summer Gacha, got %q", title)
	}
}

func TestCharacters_CreateListPreservesOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, c := range []models.Character{
		character("zeta", gacha.TierUZ, 1),
		character("alpha", gacha.TierS, 50.5),
		character("mid", gacha.TierA, 0),
	} {
		if err := repo.CreateCharacter(ctx, c); err != nil {
			t.Fatalf("CreateCharacter(%s) failed: %v", c.ID, err)
		}
	}

	list, err := repo.ListCharacters(ctx)
	if err != nil {
		t.Fatalf("ListCharacters failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 characters, got %d", len(list))
	}

	wantOrder := []string{"zeta", "alpha", "mid"}
	for i, id := range wantOrder {
		if list[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, list[i].ID)
		}
	}
	if list[1].Rank != gacha.TierS || list[1].Rate != 50.5 || list[1].Image != "alpha.png" {
		t.Errorf("unexpected stored fields: %+v", list[1])
	}
	if list[0].Position >= list[1].Position {
		t.Errorf("expected increasing positions, got %d then %d", list[0].Position, list[1].Position)
	}
}

func TestCharacters_ListEmpty(t *testing.T) {
	repo := newTestRepo(t)

	list, err := repo.ListCharacters(context.Background())
	if err != nil {
		t.Fatalf("ListCharacters failed: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", list)
	}
}

func TestCreateCharacter_Duplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.CreateCharacter(ctx, character("c1", gacha.TierS, 1)); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	err := repo.CreateCharacter(ctx, character("c1", gacha.TierA, 2))
	if err != ErrDuplicate {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	list, _ := repo.ListCharacters(ctx)
	if len(list) != 1 || list[0].Rank != gacha.TierS {
		t.Errorf("duplicate insert must not mutate catalog, got %+v", list)
	}
}

func TestGetCharacter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetCharacter(ctx, "nope"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	repo.CreateCharacter(ctx, character("c1", gacha.TierZZZ, 3))
	c, err := repo.GetCharacter(ctx, "c1")
	if err != nil {
		t.Fatalf("GetCharacter failed: %v", err)
	}
	if c.Rank != gacha.TierZZZ || c.Rate != 3 {
		t.Errorf("unexpected character %+v", c)
	}
}

func TestRenameCharacter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.CreateCharacter(ctx, character("c1", gacha.TierS, 1))
	if err := repo.RenameCharacter(ctx, "c1", "New Name"); err != nil {
		t.Fatalf("RenameCharacter failed: %v", err)
	}
	c, _ := repo.GetCharacter(ctx, "c1")
	if c.Name != "New Name" {
		t.Errorf("expected New Name, got %q", c.Name)
	}

	if err := repo.RenameCharacter(ctx, "ghost", "x"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteCharacter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.CreateCharacter(ctx, character("c1", gacha.TierS, 1))
	repo.CreateCharacter(ctx, character("c2", gacha.TierS, 1))

	if err := repo.DeleteCharacter(ctx, "c1"); err != nil {
		t.Fatalf("DeleteCharacter failed: %v", err)
	}
	if err := repo.DeleteCharacter(ctx, "c1"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	list, _ := repo.ListCharacters(ctx)
	if len(list) != 1 || list[0].ID != "c2" {
		t.Errorf("expected only c2 to remain, got %+v", list)
	}
}

// ==================== Cooldown Tests ====================

func TestCooldown_MarkAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, ok, err := repo.GetLastDraw(ctx, "u1")
	if err != nil {
		t.Fatalf("GetLastDraw failed: %v", err)
	}
	if ok {
		t.Error("expected no entry for new user")
	}

	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(90 * time.Minute)

	if err := repo.MarkDrawn(ctx, "u1", first); err != nil {
		t.Fatalf("MarkDrawn failed: %v", err)
	}
	if err := repo.MarkDrawn(ctx, "u1", second); err != nil {
		t.Fatalf("MarkDrawn overwrite failed: %v", err)
	}

	got, ok, err := repo.GetLastDraw(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("expected entry, got ok=%v err=%v", ok, err)
	}
	if !got.Equal(second) {
		t.Errorf("expected %v, got %v", second, got)
	}
}

// ==================== Ledger Tests ====================

func TestAddPoints_CreatesAndAccumulates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	total, err := repo.AddPoints(ctx, "u", "Alice", 5)
	if err != nil {
		t.Fatalf("AddPoints failed: %v", err)
	}
	if total != 5 {
		t.Errorf("expected 5, got %d", total)
	}

	total, _ = repo.AddPoints(ctx, "u", "Alice B.", 3)
	if total != 8 {
		t.Errorf("expected 8, got %d", total)
	}

	e, err := repo.GetLedgerEntry(ctx, "u")
	if err != nil {
		t.Fatalf("GetLedgerEntry failed: %v", err)
	}
	if e.Points != 8 || e.DisplayName != "Alice B." {
		t.Errorf("unexpected entry %+v", e)
	}
}

func TestAddPoints_ClampsAtZero(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	total, err := repo.AddPoints(ctx, "u", "Alice", -5)
	if err != nil {
		t.Fatalf("AddPoints failed: %v", err)
	}
	if total != 0 {
		t.Errorf("expected new entry clamped to 0, got %d", total)
	}

	repo.AddPoints(ctx, "u", "Alice", 4)
	total, _ = repo.AddPoints(ctx, "u", "Alice", -10)
	if total != 0 {
		t.Errorf("expected clamp to 0, got %d", total)
	}
}

func TestGetLedgerEntry_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	if _, err := repo.GetLedgerEntry(context.Background(), "ghost"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListLedger_OrdersByPointsThenInsertion(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.AddPoints(ctx, "A", "A", 10)
	repo.AddPoints(ctx, "B", "B", 30)
	repo.AddPoints(ctx, "C", "C", 30)
	repo.AddPoints(ctx, "D", "D", 5)

	list, err := repo.ListLedger(ctx)
	if err != nil {
		t.Fatalf("ListLedger failed: %v", err)
	}

	want := []string{"B", "C", "A", "D"}
	for i, id := range want {
		if list[i].UserID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, list[i].UserID)
		}
	}

	// A later update does not change a user's tie-break position
	repo.AddPoints(ctx, "B", "B", 0)
	list, _ = repo.ListLedger(ctx)
	if list[0].UserID != "B" || list[1].UserID != "C" {
		t.Errorf("expected B before C after refresh, got %s, %s", list[0].UserID, list[1].UserID)
	}
}

func TestResetLedger(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.AddPoints(ctx, "u1", "Alice", 12)
	repo.AddPoints(ctx, "u2", "Bob", 7)

	n, err := repo.ResetLedger(ctx)
	if err != nil {
		t.Fatalf("ResetLedger failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows reset, got %d", n)
	}

	e, _ := repo.GetLedgerEntry(ctx, "u1")
	if e.Points != 0 || e.DisplayName != "Alice" {
		t.Errorf("expected zero points with name kept, got %+v", e)
	}

	list, _ := repo.ListLedger(ctx)
	if len(list) != 2 || list[0].UserID != "u1" {
		t.Errorf("expected entries kept in insertion order, got %+v", list)
	}
}

func TestSnapshotAndResetLedger(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.AddPoints(ctx, "u1", "Alice", 3)
	repo.AddPoints(ctx, "u2", "Bob", 7)

	snapshot, err := repo.SnapshotAndResetLedger(ctx)
	if err != nil {
		t.Fatalf("SnapshotAndResetLedger failed: %v", err)
	}
	if len(snapshot) != 2 || snapshot[0].UserID != "u2" || snapshot[0].Points != 7 {
		t.Errorf("expected pre-reset entries in rank order, got %+v", snapshot)
	}

	list, _ := repo.ListLedger(ctx)
	for _, e := range list {
		if e.Points != 0 {
			t.Errorf("expected zeroed entry, got %+v", e)
		}
	}

	empty := newTestRepo(t)
	snapshot, err = empty.SnapshotAndResetLedger(ctx)
	if err != nil || len(snapshot) != 0 {
		t.Errorf("expected empty snapshot, got %+v, %v", snapshot, err)
	}
}

func TestAddPoints_EmptyNameKeepsStoredName(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.AddPoints(ctx, "u1", "Alice", 3)
	if _, err := repo.AddPoints(ctx, "u1", "", 2); err != nil {
		t.Fatalf("AddPoints failed: %v", err)
	}
	e, _ := repo.GetLedgerEntry(ctx, "u1")
	if e.DisplayName != "Alice" || e.Points != 5 {
		t.Errorf("expected Alice with 5, got %+v", e)
	}

	repo.AddPoints(ctx, "u2", "", 1)
	e, _ = repo.GetLedgerEntry(ctx, "u2")
	if e.DisplayName != "u2" {
		t.Errorf("expected new entry named after its id, got %q", e.DisplayName)
	}
}

func TestAddPoints_ConcurrentNoLostUpdates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.AddPoints(ctx, "shared", "Shared", 1); err != nil {
				t.Errorf("AddPoints failed: %v", err)
			}
		}()
	}
	wg.Wait()

	e, _ := repo.GetLedgerEntry(ctx, "shared")
	if e.Points != workers {
		t.Errorf("expected %d points, got %d", workers, e.Points)
	}
}

// ==================== Draw Tests ====================

func TestCommitDraw(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

	repo.AddPoints(ctx, "u1", "Old Name", 4)

	total, err := repo.CommitDraw(ctx, models.DrawRecord{
		ID:          "draw-1",
		UserID:      "u1",
		DisplayName: "Alice",
		Points:      10,
		Characters:  []string{"c1", "c1", "c2"},
		CreatedAt:   at,
	})
	if err != nil {
		t.Fatalf("CommitDraw failed: %v", err)
	}
	if total != 14 {
		t.Errorf("expected total 14, got %d", total)
	}

	last, ok, _ := repo.GetLastDraw(ctx, "u1")
	if !ok || !last.Equal(at) {
		t.Errorf("expected cooldown mark at %v, got %v (ok=%v)", at, last, ok)
	}

	e, _ := repo.GetLedgerEntry(ctx, "u1")
	if e.DisplayName != "Alice" {
		t.Errorf("expected display name refresh, got %q", e.DisplayName)
	}

	draws, err := repo.ListDraws(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ListDraws failed: %v", err)
	}
	if len(draws) != 1 || len(draws[0].Characters) != 3 || !draws[0].CreatedAt.Equal(at) {
		t.Errorf("unexpected draw log %+v", draws)
	}
}

func TestCommitDraw_DuplicateIDRollsBack(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Now()

	rec := models.DrawRecord{ID: "same", UserID: "u1", DisplayName: "A", Points: 5, CreatedAt: at}
	if _, err := repo.CommitDraw(ctx, rec); err != nil {
		t.Fatalf("first CommitDraw failed: %v", err)
	}

	rec.CreatedAt = at.Add(time.Hour)
	if _, err := repo.CommitDraw(ctx, rec); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	e, _ := repo.GetLedgerEntry(ctx, "u1")
	if e.Points != 5 {
		t.Errorf("expected points to stay at 5 after rejected replay, got %d", e.Points)
	}
	last, _, _ := repo.GetLastDraw(ctx, "u1")
	if last.UnixMilli() != at.UnixMilli() {
		t.Errorf("expected cooldown untouched by rejected replay")
	}
}

func TestListDraws_NewestFirstWithLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"d1", "d2", "d3"} {
		repo.CommitDraw(ctx, models.DrawRecord{
			ID: id, UserID: "u1", Points: 1, CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	draws, err := repo.ListDraws(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("ListDraws failed: %v", err)
	}
	if len(draws) != 2 || draws[0].ID != "d3" || draws[1].ID != "d2" {
		t.Errorf("unexpected draws %+v", draws)
	}
}

// ==================== Archive Tests ====================

func TestArchives_SaveListGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	winner := models.RankedEntry{Rank: 1, UserID: "u2", DisplayName: "Bob", Points: 30}
	first := models.ArchiveRecord{
		ID:        "a1",
		Title:     "Spring",
		Entries:   []models.RankedEntry{winner, {Rank: 2, UserID: "u1", DisplayName: "Alice", Points: 10}},
		Winner:    &winner,
		CreatedAt: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	second := models.ArchiveRecord{
		ID:        "a2",
		Title:     "Summer",
		Entries:   []models.RankedEntry{},
		CreatedAt: first.CreatedAt.Add(24 * time.Hour),
	}

	for _, rec := range []models.ArchiveRecord{first, second} {
		if err := repo.SaveArchive(ctx, rec); err != nil {
			t.Fatalf("SaveArchive(%s) failed: %v", rec.ID, err)
		}
	}
	if err := repo.SaveArchive(ctx, first); err != ErrDuplicate {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	list, err := repo.ListArchives(ctx)
	if err != nil {
		t.Fatalf("ListArchives failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != "a2" {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if list[0].Winner != nil {
		t.Errorf("expected no winner on a2")
	}

	got, err := repo.GetArchive(ctx, "a1")
	if err != nil {
		t.Fatalf("GetArchive failed: %v", err)
	}
	if got.Winner == nil || *got.Winner != winner || len(got.Entries) != 2 {
		t.Errorf("unexpected archive %+v", got)
	}

	if _, err := repo.GetArchive(ctx, "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// ==================== Panel Tests ====================

func TestPanels(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetPanel(ctx, "ch1"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	p := models.Panel{ChannelID: "ch1", MessageID: "m1", CreatedAt: time.Now()}
	if err := repo.SavePanel(ctx, p); err != nil {
		t.Fatalf("SavePanel failed: %v", err)
	}
	if err := repo.SavePanel(ctx, p); err != ErrDuplicate {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	got, err := repo.GetPanel(ctx, "ch1")
	if err != nil {
		t.Fatalf("GetPanel failed: %v", err)
	}
	if got.MessageID != "m1" {
		t.Errorf("expected m1, got %q", got.MessageID)
	}

	list, err := repo.ListPanels(ctx)
	if err != nil || len(list) != 1 {
		t.Errorf("expected one panel, got %v (err=%v)", list, err)
	}
}
