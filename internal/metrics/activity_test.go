package metrics

import (
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeedEvictsOldestFirst(t *testing.T) {
	f := NewFeed(3)
	for i := 0; i < 3; i++ {
		_, dropped := f.Push(ActivityEvent{ID: strconv.Itoa(i)})
		require.False(t, dropped)
	}

	evicted, dropped := f.Push(ActivityEvent{ID: "3"})
	require.True(t, dropped)
	require.Equal(t, "0", evicted.ID)

	items := f.Items()
	require.Len(t, items, 3)
	require.Equal(t, "1", items[0].ID)
	require.Equal(t, "3", items[2].ID)
}

func TestActivityGeneratorTemplates(t *testing.T) {
	g := NewActivityGenerator(rand.New(rand.NewSource(5)), nil, nil)
	seen := map[string]bool{}
	for i := 0; i < 300; i++ {
		ev := g.Next("run-1", epoch)
		seen[ev.Kind] = true
		require.NotEmpty(t, ev.ID)
		require.Equal(t, "run-1", ev.RunID)
		require.GreaterOrEqual(t, ev.MinutesAgo, 1)

		switch ev.Kind {
		case KindSignup:
			require.LessOrEqual(t, ev.MinutesAgo, 10)
			require.Contains(t, DefaultCompanies, ev.Company)
			require.True(t, strings.HasSuffix(ev.Description, "Plan Pro"))
		case KindPayment:
			require.LessOrEqual(t, ev.MinutesAgo, 15)
			require.GreaterOrEqual(t, ev.Amount, 99)
			require.LessOrEqual(t, ev.Amount, 598)
			require.True(t, strings.HasPrefix(ev.Description, "€"))
		case KindTicketResolved:
			require.LessOrEqual(t, ev.MinutesAgo, 30)
			require.GreaterOrEqual(t, ev.Ticket, 1000)
			require.LessOrEqual(t, ev.Ticket, 9999)
		default:
			t.Fatalf("unexpected kind %q", ev.Kind)
		}
	}
	require.Len(t, seen, 3)
}

func TestActivityAgeLabel(t *testing.T) {
	require.Equal(t, "1 minute ago", ActivityEvent{MinutesAgo: 1}.Age())
	require.Equal(t, "7 minutes ago", ActivityEvent{MinutesAgo: 7}.Age())
}
