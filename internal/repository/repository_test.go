package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"partystream/internal/database"
	"partystream/internal/domain"
)

func testDB(t *testing.T) *gorm.DB {
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func seedBooking(t *testing.T, repo *BookingRepository, djProfileID int64, start, end time.Time, status domain.BookingStatus) *domain.Booking {
	b := &domain.Booking{
		HostID:        7,
		DJProfileID:   djProfileID,
		StartTime:     start,
		EndTime:       end,
		DurationHours: end.Sub(start).Hours(),
		Status:        status,
		PaymentStatus: domain.BookingPaymentPending,
	}
	require.NoError(t, repo.Create(context.Background(), b))
	return b
}

func TestBookingRepository_HasConfirmedOverlap(t *testing.T) {
	repo := NewBookingRepository(testDB(t))
	ctx := context.Background()

	base := time.Date(2026, 6, 2, 20, 0, 0, 0, time.UTC)
	confirmed := seedBooking(t, repo, 5, base, base.Add(2*time.Hour), domain.BookingConfirmed)
	seedBooking(t, repo, 5, base.Add(3*time.Hour), base.Add(4*time.Hour), domain.BookingPending)

	cases := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"inside", base.Add(30 * time.Minute), base.Add(time.Hour), true},
		{"straddles start", base.Add(-time.Hour), base.Add(time.Hour), true},
		{"touches end boundary", base.Add(2 * time.Hour), base.Add(3 * time.Hour), true},
		{"touches start boundary", base.Add(-time.Hour), base, true},
		{"clear before", base.Add(-2 * time.Hour), base.Add(-time.Hour), false},
		{"clear after", base.Add(5 * time.Hour), base.Add(6 * time.Hour), false},
		{"over pending hold only", base.Add(3 * time.Hour), base.Add(4 * time.Hour), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.HasConfirmedOverlap(ctx, 5, tc.start, tc.end, 0)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("other profile unaffected", func(t *testing.T) {
		got, err := repo.HasConfirmedOverlap(ctx, 6, base, base.Add(time.Hour), 0)
		require.NoError(t, err)
		assert.False(t, got)
	})

	t.Run("exclude own id", func(t *testing.T) {
		got, err := repo.HasConfirmedOverlap(ctx, 5, base, base.Add(2*time.Hour), confirmed.ID)
		require.NoError(t, err)
		assert.False(t, got)
	})
}

func TestBookingRepository_UpdateStatusStampsCancelledAt(t *testing.T) {
	repo := NewBookingRepository(testDB(t))
	ctx := context.Background()

	base := time.Date(2026, 6, 2, 20, 0, 0, 0, time.UTC)
	b := seedBooking(t, repo, 5, base, base.Add(time.Hour), domain.BookingPending)

	require.NoError(t, repo.UpdateStatus(ctx, b.ID, domain.BookingCancelled))

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)
	assert.NotNil(t, got.CancelledAt)
}

func TestPaymentRepository_MarkSucceededIdempotent(t *testing.T) {
	repo := NewPaymentRepository(testDB(t))
	ctx := context.Background()

	p := &domain.Payment{BookingID: 3, Amount: 100, TotalCharged: 110, Status: domain.PaymentPending, IntentID: "pi_1"}
	require.NoError(t, repo.Create(ctx, p))

	paidAt := time.Date(2026, 6, 2, 22, 0, 0, 0, time.UTC)

	changed, err := repo.MarkSucceededIdempotent(ctx, "pi_1", paidAt)
	require.NoError(t, err)
	assert.True(t, changed)

	// Replay: the row is already succeeded, nothing changes.
	changed, err = repo.MarkSucceededIdempotent(ctx, "pi_1", paidAt.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := repo.GetByIntentID(ctx, "pi_1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSucceeded, got.Status)
	require.NotNil(t, got.PaidAt)
	assert.Equal(t, paidAt.Unix(), got.PaidAt.Unix())

	has, err := repo.HasSucceededForBooking(ctx, 3)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestStreamRepository_LiveAndPeak(t *testing.T) {
	repo := NewStreamRepository(testDB(t))
	ctx := context.Background()

	st := &domain.Stream{BookingID: 3, DJProfileID: 5, HostID: 7, Status: domain.StreamCreated, ChannelID: "ch_1"}
	require.NoError(t, repo.Create(ctx, st))

	live, err := repo.HasLiveForBooking(ctx, 3)
	require.NoError(t, err)
	assert.True(t, live)

	require.NoError(t, repo.UpdateViewersPeak(ctx, st.ID, 25))
	// A lower reading never lowers the high-water mark.
	require.NoError(t, repo.UpdateViewersPeak(ctx, st.ID, 10))

	got, err := repo.GetByID(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.ViewersPeak)

	endedAt := time.Date(2026, 6, 2, 23, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateStatus(ctx, st.ID, domain.StreamEnded, nil, &endedAt))

	live, err = repo.HasLiveForBooking(ctx, 3)
	require.NoError(t, err)
	assert.False(t, live)
}

func TestChatRepository_OrderedHistory(t *testing.T) {
	repo := NewChatRepository(testDB(t))
	ctx := context.Background()

	base := time.Date(2026, 6, 2, 21, 0, 0, 0, time.UTC)
	for i, content := range []string{"first", "second", "third"} {
		msg := &domain.ChatMessage{BookingID: 3, SenderID: 7, Content: content, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.CreateMessage(ctx, msg))
	}

	msgs, err := repo.ListByBooking(ctx, 3, 50, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "third", msgs[2].Content)

	page, err := repo.ListByBooking(ctx, 3, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "second", page[0].Content)
}

func TestDJProfileRepository_SearchFilters(t *testing.T) {
	db := testDB(t)
	repo := NewDJProfileRepository(db)
	ctx := context.Background()

	nova := &domain.DJProfile{UserID: 42, StageName: "DJ Nova", HourlyRate: 75, Genres: []string{"house", "techno"}, Languages: []string{"English"}}
	vega := &domain.DJProfile{UserID: 43, StageName: "DJ Vega", HourlyRate: 150, Genres: []string{"hiphop"}, Languages: []string{"Spanish"}}
	require.NoError(t, repo.Create(ctx, nova))
	require.NoError(t, repo.Create(ctx, vega))

	byGenre, err := repo.Search(ctx, SearchFilter{Genre: "house"}, 20, 0)
	require.NoError(t, err)
	require.Len(t, byGenre, 1)
	assert.Equal(t, "DJ Nova", byGenre[0].StageName)

	byRate, err := repo.Search(ctx, SearchFilter{MinRate: 100}, 20, 0)
	require.NoError(t, err)
	require.Len(t, byRate, 1)
	assert.Equal(t, "DJ Vega", byRate[0].StageName)

	byLanguage, err := repo.Search(ctx, SearchFilter{Language: "Spanish"}, 20, 0)
	require.NoError(t, err)
	require.Len(t, byLanguage, 1)
	assert.Equal(t, "DJ Vega", byLanguage[0].StageName)

	none, err := repo.Search(ctx, SearchFilter{Genre: "jazz"}, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUserRepository_EmailLookup(t *testing.T) {
	repo := NewUserRepository(testDB(t))
	ctx := context.Background()

	u := &domain.User{Email: "host@example.com", PasswordHash: "hash", Name: "Host", Role: domain.RoleHost}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)

	exists, err := repo.EmailExists(ctx, "host@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.EmailExists(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	got, err := repo.GetByEmail(ctx, "host@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}
