package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/flyingdarts/x01/internal/match/domain"
	"github.com/flyingdarts/x01/internal/match/engine"
	apperrors "github.com/flyingdarts/x01/internal/platform/errors"
	"github.com/flyingdarts/x01/internal/storage"
)

type fakeStore struct {
	matches map[string]domain.Match
	players map[string][]domain.Player
	throws  map[string][]domain.Throw
	users   map[string]storage.DisplayInfo

	// conflicts makes the next n AppendThrow calls lose the append race,
	// injecting rival into the log before the caller reloads.
	conflicts int
	rival     *domain.Throw
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		matches: make(map[string]domain.Match),
		players: make(map[string][]domain.Player),
		throws:  make(map[string][]domain.Throw),
		users:   make(map[string]storage.DisplayInfo),
	}
}

func (f *fakeStore) CreateMatch(_ context.Context, match domain.Match) error {
	f.matches[match.ID] = match
	return nil
}

func (f *fakeStore) GetMatch(_ context.Context, matchID string) (domain.Match, error) {
	match, ok := f.matches[matchID]
	if !ok {
		return domain.Match{}, storage.ErrNotFound
	}
	return match, nil
}

func (f *fakeStore) UpdateMatchStatus(_ context.Context, matchID string, status domain.Status, updatedAt time.Time) error {
	match, ok := f.matches[matchID]
	if !ok {
		return storage.ErrNotFound
	}
	match.Status = status
	match.UpdatedAt = updatedAt
	f.matches[matchID] = match
	return nil
}

func (f *fakeStore) AddPlayer(_ context.Context, player domain.Player) error {
	f.players[player.MatchID] = append(f.players[player.MatchID], player)
	return nil
}

func (f *fakeStore) ListPlayers(_ context.Context, matchID string) ([]domain.Player, error) {
	return append([]domain.Player(nil), f.players[matchID]...), nil
}

func (f *fakeStore) ListThrows(_ context.Context, matchID string) ([]domain.Throw, error) {
	return append([]domain.Throw(nil), f.throws[matchID]...), nil
}

func (f *fakeStore) AppendThrow(_ context.Context, thr domain.Throw, expectedCount int) error {
	if f.conflicts > 0 {
		f.conflicts--
		if f.rival != nil {
			f.throws[thr.MatchID] = append(f.throws[thr.MatchID], *f.rival)
			f.rival = nil
		}
		return storage.ErrAppendConflict
	}
	if expectedCount != len(f.throws[thr.MatchID]) {
		return storage.ErrAppendConflict
	}
	f.throws[thr.MatchID] = append(f.throws[thr.MatchID], thr)
	return nil
}

func (f *fakeStore) PutDisplayInfo(_ context.Context, userID string, info storage.DisplayInfo) error {
	f.users[userID] = info
	return nil
}

func (f *fakeStore) GetDisplayInfo(_ context.Context, userIDs []string) (map[string]storage.DisplayInfo, error) {
	result := make(map[string]storage.DisplayInfo, len(userIDs))
	for _, userID := range userIDs {
		if info, ok := f.users[userID]; ok {
			result[userID] = info
		}
	}
	return result, nil
}

type captureNotifier struct {
	playerIDs  []string
	projection engine.MatchProjection
	calls      int
}

func (c *captureNotifier) Broadcast(_ context.Context, playerIDs []string, projection engine.MatchProjection) {
	c.playerIDs = playerIDs
	c.projection = projection
	c.calls++
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func sequentialIDs(prefix string) func() (string, error) {
	next := 0
	return func() (string, error) {
		next++
		return fmt.Sprintf("%s-%d", prefix, next), nil
	}
}

var testStart = time.Date(2026, time.March, 14, 19, 0, 0, 0, time.UTC)

func seedStartedMatch(store *fakeStore, rules domain.MatchRules) domain.Match {
	match := domain.Match{
		ID:        "m1",
		Rules:     rules,
		Status:    domain.StatusStarted,
		CreatedAt: testStart,
		UpdatedAt: testStart,
	}
	store.matches[match.ID] = match
	store.players[match.ID] = []domain.Player{
		{ID: "alice", MatchID: "m1", DisplayName: "Alice", JoinOrder: 0},
		{ID: "bob", MatchID: "m1", DisplayName: "Bob", JoinOrder: 1},
	}
	return match
}

func defaultRules() domain.MatchRules {
	return domain.MatchRules{StartingScore: 301, LegsPerSet: 3, SetsToWinMatch: 1, DoubleOut: true}
}

func TestCreateMatchRequiresTwoSeats(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeStore(), nil, fixedClock(testStart), sequentialIDs("id"))
	_, err := svc.CreateMatch(context.Background(), CreateMatchInput{
		Rules:   defaultRules(),
		Players: []SeatInput{{PlayerID: "alice"}},
	})
	if apperrors.CodeOf(err) != apperrors.CodeMatchInvalidRules {
		t.Fatalf("expected invalid rules error, got %v", err)
	}
}

func TestCreateMatchRejectsDuplicatePlayer(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeStore(), nil, fixedClock(testStart), sequentialIDs("id"))
	_, err := svc.CreateMatch(context.Background(), CreateMatchInput{
		Rules:   defaultRules(),
		Players: []SeatInput{{PlayerID: "alice"}, {PlayerID: "alice"}},
	})
	if apperrors.CodeOf(err) != apperrors.CodePlayerDuplicateSeat {
		t.Fatalf("expected duplicate seat error, got %v", err)
	}
}

func TestCreateMatchSeatsPlayersInInputOrder(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewService(store, nil, fixedClock(testStart), sequentialIDs("id"))

	match, err := svc.CreateMatch(context.Background(), CreateMatchInput{
		Rules: defaultRules(),
		Players: []SeatInput{
			{PlayerID: "alice", DisplayName: "Alice", CountryCode: "gb"},
			{PlayerID: "bob", DisplayName: "Bob", CountryCode: "de"},
		},
	})
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	if match.Status != domain.StatusPending {
		t.Fatalf("status = %v, want pending", match.Status)
	}
	players := store.players[match.ID]
	if len(players) != 2 {
		t.Fatalf("expected 2 seats, got %d", len(players))
	}
	if players[0].ID != "alice" || players[0].JoinOrder != 0 {
		t.Fatalf("first seat = %+v", players[0])
	}
	if players[1].ID != "bob" || players[1].JoinOrder != 1 {
		t.Fatalf("second seat = %+v", players[1])
	}
	if store.users["alice"].DisplayName != "Alice" {
		t.Fatalf("display info not stored: %+v", store.users)
	}
}

func TestStartMatchTransitions(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.matches["m1"] = domain.Match{ID: "m1", Rules: defaultRules(), Status: domain.StatusPending}
	svc := NewService(store, nil, fixedClock(testStart), sequentialIDs("id"))

	match, err := svc.StartMatch(context.Background(), "m1")
	if err != nil {
		t.Fatalf("start match: %v", err)
	}
	if match.Status != domain.StatusStarted {
		t.Fatalf("status = %v, want started", match.Status)
	}

	// Starting again is a no-op.
	if _, err := svc.StartMatch(context.Background(), "m1"); err != nil {
		t.Fatalf("restart: %v", err)
	}

	store.matches["m2"] = domain.Match{ID: "m2", Rules: defaultRules(), Status: domain.StatusFinished}
	_, err = svc.StartMatch(context.Background(), "m2")
	if apperrors.CodeOf(err) != apperrors.CodeMatchAlreadyFinished {
		t.Fatalf("expected already finished error, got %v", err)
	}
}

func TestSubmitRecordsThrowAndBroadcasts(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedStartedMatch(store, defaultRules())
	notifier := &captureNotifier{}
	svc := NewService(store, notifier, fixedClock(testStart.Add(time.Minute)), sequentialIDs("throw"))

	projection, err := svc.Submit(context.Background(), SubmitInput{MatchID: "m1", PlayerID: "alice", Score: 60})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	log := store.throws["m1"]
	if len(log) != 1 {
		t.Fatalf("expected 1 throw, got %d", len(log))
	}
	thr := log[0]
	if thr.PlayerID != "alice" || thr.Set != 1 || thr.Leg != 1 {
		t.Fatalf("throw = %+v", thr)
	}
	if thr.ScoredValue != 60 || thr.RemainingAfter != 241 {
		t.Fatalf("scored %d remaining %d, want 60 and 241", thr.ScoredValue, thr.RemainingAfter)
	}

	if projection.Players[0].Remaining != 241 {
		t.Fatalf("alice remaining = %d, want 241", projection.Players[0].Remaining)
	}
	if projection.NextToThrow != "bob" {
		t.Fatalf("next to throw = %q, want bob", projection.NextToThrow)
	}
	if notifier.calls != 1 {
		t.Fatalf("expected 1 broadcast, got %d", notifier.calls)
	}
	if len(notifier.playerIDs) != 2 {
		t.Fatalf("broadcast targets = %v", notifier.playerIDs)
	}
	if notifier.projection.MatchID != "m1" {
		t.Fatalf("broadcast projection = %+v", notifier.projection)
	}
}

func TestSubmitValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status domain.Status
		player string
		score  int
		want   apperrors.Code
	}{
		{name: "score above 180", status: domain.StatusStarted, player: "alice", score: 181, want: apperrors.CodeThrowInvalidInput},
		{name: "negative score", status: domain.StatusStarted, player: "alice", score: -1, want: apperrors.CodeThrowInvalidInput},
		{name: "pending match", status: domain.StatusPending, player: "alice", score: 60, want: apperrors.CodeMatchNotActive},
		{name: "finished match", status: domain.StatusFinished, player: "alice", score: 60, want: apperrors.CodeMatchAlreadyFinished},
		{name: "unseated player", status: domain.StatusStarted, player: "mallory", score: 60, want: apperrors.CodePlayerNotInMatch},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeStore()
			match := seedStartedMatch(store, defaultRules())
			match.Status = tc.status
			store.matches[match.ID] = match
			svc := NewService(store, nil, fixedClock(testStart), sequentialIDs("throw"))

			_, err := svc.Submit(context.Background(), SubmitInput{MatchID: "m1", PlayerID: tc.player, Score: tc.score})
			if apperrors.CodeOf(err) != tc.want {
				t.Fatalf("error code = %v (%v), want %v", apperrors.CodeOf(err), err, tc.want)
			}
		})
	}
}

func TestSubmitUnknownMatch(t *testing.T) {
	t.Parallel()

	svc := NewService(newFakeStore(), nil, fixedClock(testStart), sequentialIDs("throw"))
	_, err := svc.Submit(context.Background(), SubmitInput{MatchID: "missing", PlayerID: "alice", Score: 60})
	if apperrors.CodeOf(err) != apperrors.CodeMatchNotFound {
		t.Fatalf("expected match not found, got %v", err)
	}
}

func TestSubmitRetriesLostAppendRace(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedStartedMatch(store, defaultRules())
	store.conflicts = 1
	store.rival = &domain.Throw{
		ID: "rival", MatchID: "m1", PlayerID: "bob",
		Set: 1, Leg: 1, RawInput: 45, ScoredValue: 45, RemainingAfter: 256,
		CreatedAt: testStart.Add(30 * time.Second),
	}
	svc := NewService(store, nil, fixedClock(testStart.Add(time.Minute)), sequentialIDs("throw"))

	projection, err := svc.Submit(context.Background(), SubmitInput{MatchID: "m1", PlayerID: "alice", Score: 60})
	if err != nil {
		t.Fatalf("submit after race: %v", err)
	}

	log := store.throws["m1"]
	if len(log) != 2 {
		t.Fatalf("expected rival and retried throw, got %d throws", len(log))
	}
	if log[0].ID != "rival" || log[1].PlayerID != "alice" {
		t.Fatalf("log = %+v", log)
	}
	if got := projection.History["bob"]; len(got) != 1 {
		t.Fatalf("rival throw missing from projection: %+v", projection.History)
	}
}

func TestSubmitSurfacesRepeatedConflict(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedStartedMatch(store, defaultRules())
	store.conflicts = 2
	svc := NewService(store, nil, fixedClock(testStart), sequentialIDs("throw"))

	_, err := svc.Submit(context.Background(), SubmitInput{MatchID: "m1", PlayerID: "alice", Score: 60})
	if !errors.Is(err, storage.ErrAppendConflict) {
		t.Fatalf("expected append conflict, got %v", err)
	}
}

func TestSubmitCheckoutFinishesMatch(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	rules := domain.MatchRules{StartingScore: 301, LegsPerSet: 1, SetsToWinMatch: 1, DoubleOut: true}
	seedStartedMatch(store, rules)
	store.throws["m1"] = []domain.Throw{
		{ID: "t1", MatchID: "m1", PlayerID: "alice", Set: 1, Leg: 1, RawInput: 180, ScoredValue: 180, RemainingAfter: 121, CreatedAt: testStart},
		{ID: "t2", MatchID: "m1", PlayerID: "bob", Set: 1, Leg: 1, RawInput: 60, ScoredValue: 60, RemainingAfter: 241, CreatedAt: testStart.Add(time.Second)},
		{ID: "t3", MatchID: "m1", PlayerID: "alice", Set: 1, Leg: 1, RawInput: 81, ScoredValue: 81, RemainingAfter: 40, CreatedAt: testStart.Add(2 * time.Second)},
		{ID: "t4", MatchID: "m1", PlayerID: "bob", Set: 1, Leg: 1, RawInput: 60, ScoredValue: 60, RemainingAfter: 181, CreatedAt: testStart.Add(3 * time.Second)},
	}
	notifier := &captureNotifier{}
	finishedAt := testStart.Add(time.Minute)
	svc := NewService(store, notifier, fixedClock(finishedAt), sequentialIDs("throw"))

	projection, err := svc.Submit(context.Background(), SubmitInput{MatchID: "m1", PlayerID: "alice", Score: 40})
	if err != nil {
		t.Fatalf("submit checkout: %v", err)
	}
	if !projection.Finished || projection.Winner != "alice" {
		t.Fatalf("finished = %v winner = %q", projection.Finished, projection.Winner)
	}
	if projection.NextToThrow != "" {
		t.Fatalf("next to throw = %q, want empty", projection.NextToThrow)
	}

	match := store.matches["m1"]
	if match.Status != domain.StatusFinished {
		t.Fatalf("stored status = %v, want finished", match.Status)
	}
	if !match.UpdatedAt.Equal(finishedAt) {
		t.Fatalf("updated at = %v, want %v", match.UpdatedAt, finishedAt)
	}
	if notifier.calls != 1 {
		t.Fatalf("expected 1 broadcast, got %d", notifier.calls)
	}
}

func TestSubmitRejectedWhenLogAlreadyDecided(t *testing.T) {
	t.Parallel()

	// Stored status lags behind: the log holds a match-deciding checkout but
	// the row still says started.
	store := newFakeStore()
	rules := domain.MatchRules{StartingScore: 301, LegsPerSet: 1, SetsToWinMatch: 1, DoubleOut: true}
	seedStartedMatch(store, rules)
	store.throws["m1"] = []domain.Throw{
		{ID: "t1", MatchID: "m1", PlayerID: "alice", Set: 1, Leg: 1, RawInput: 180, ScoredValue: 180, RemainingAfter: 121, CreatedAt: testStart},
		{ID: "t2", MatchID: "m1", PlayerID: "alice", Set: 1, Leg: 1, RawInput: 81, ScoredValue: 81, RemainingAfter: 40, CreatedAt: testStart.Add(time.Second)},
		{ID: "t3", MatchID: "m1", PlayerID: "alice", Set: 1, Leg: 1, RawInput: 40, ScoredValue: 40, RemainingAfter: 0, CreatedAt: testStart.Add(2 * time.Second)},
	}
	svc := NewService(store, nil, fixedClock(testStart.Add(time.Minute)), sequentialIDs("throw"))

	_, err := svc.Submit(context.Background(), SubmitInput{MatchID: "m1", PlayerID: "bob", Score: 60})
	if apperrors.CodeOf(err) != apperrors.CodeMatchAlreadyFinished {
		t.Fatalf("expected already finished, got %v", err)
	}
}

func TestSnapshotDecoratesWithDirectoryIdentity(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	seedStartedMatch(store, defaultRules())
	store.users["alice"] = storage.DisplayInfo{DisplayName: "Alice M", CountryCode: "gb"}
	svc := NewService(store, nil, fixedClock(testStart), sequentialIDs("id"))

	projection, err := svc.Snapshot(context.Background(), "m1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if projection.Players[0].DisplayName != "Alice M" || projection.Players[0].CountryCode != "gb" {
		t.Fatalf("player view = %+v", projection.Players[0])
	}
	// No directory entry keeps the seat's own display name.
	if projection.Players[1].DisplayName != "Bob" {
		t.Fatalf("player view = %+v", projection.Players[1])
	}
	if projection.Players[0].Remaining != 301 {
		t.Fatalf("remaining = %d, want starting score", projection.Players[0].Remaining)
	}
}
