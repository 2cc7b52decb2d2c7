package metrics

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Activity event kinds.
const (
	KindSignup         = "signup"
	KindPayment        = "payment"
	KindTicketResolved = "ticket_resolved"
)

// ActivityKinds lists the event catalog in selection order.
var ActivityKinds = []string{KindSignup, KindPayment, KindTicketResolved}

// DefaultCompanies is the company catalog used for activity events.
var DefaultCompanies = []string{
	"TechCorp", "StartupXYZ", "InnovateLab", "DataPro",
	"CloudTech", "DevStudio", "SmartSoft", "NextGen",
}

// DefaultIssues is the ticket subject catalog.
var DefaultIssues = []string{
	"authentication bug", "sync problem", "API error",
	"user interface", "slow performance", "payment problem",
}

// ActivityEvent is one ephemeral feed notification.
type ActivityEvent struct {
	ID          string    `json:"id"`
	RunID       string    `json:"run_id"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Company     string    `json:"company,omitempty"`
	Amount      int       `json:"amount,omitempty"`
	Ticket      int       `json:"ticket,omitempty"`
	MinutesAgo  int       `json:"minutes_ago"`
	Timestamp   time.Time `json:"ts"`
}

// TableName is the GreptimeDB table for activity rows.
func (ActivityEvent) TableName() string { return "saas_activity" }

// Age renders the elapsed-minutes label shown beside the event.
func (e ActivityEvent) Age() string {
	if e.MinutesAgo == 1 {
		return "1 minute ago"
	}
	return fmt.Sprintf("%d minutes ago", e.MinutesAgo)
}

// ActivityGenerator fills event templates from a catalog.
type ActivityGenerator struct {
	rand      RandSource
	companies []string
	issues    []string
	newID     func() string
}

// NewActivityGenerator returns a generator over the given catalogs. Empty
// catalogs fall back to the defaults.
func NewActivityGenerator(r RandSource, companies, issues []string) *ActivityGenerator {
	if len(companies) == 0 {
		companies = DefaultCompanies
	}
	if len(issues) == 0 {
		issues = DefaultIssues
	}
	return &ActivityGenerator{
		rand:      r,
		companies: companies,
		issues:    issues,
		newID:     func() string { return uuid.NewString() },
	}
}

func (g *ActivityGenerator) pick(n int) int {
	i := int(math.Floor(g.rand.Float64() * float64(n)))
	if i >= n {
		i = n - 1
	}
	return i
}

// minutes returns a value in [1, max].
func (g *ActivityGenerator) minutes(max int) int {
	return g.pick(max) + 1
}

// Next builds a random event stamped at now.
func (g *ActivityGenerator) Next(runID string, now time.Time) ActivityEvent {
	ev := ActivityEvent{
		ID:        g.newID(),
		RunID:     runID,
		Kind:      ActivityKinds[g.pick(len(ActivityKinds))],
		Timestamp: now,
	}
	switch ev.Kind {
	case KindSignup:
		ev.Company = g.companies[g.pick(len(g.companies))]
		ev.Title = "New customer"
		ev.Description = ev.Company + " signed up for Plan Pro"
		ev.MinutesAgo = g.minutes(10)
	case KindPayment:
		ev.Amount = int(math.Floor(g.rand.Float64()*500)) + 99
		ev.Company = g.companies[g.pick(len(g.companies))]
		ev.Title = "Payment received"
		ev.Description = fmt.Sprintf("%s from %s", FormatCurrency(float64(ev.Amount)), ev.Company)
		ev.MinutesAgo = g.minutes(15)
	case KindTicketResolved:
		ev.Ticket = int(math.Floor(g.rand.Float64()*9000)) + 1000
		issue := g.issues[g.pick(len(g.issues))]
		ev.Title = "Ticket resolved"
		ev.Description = fmt.Sprintf("#%d - %s", ev.Ticket, issue)
		ev.MinutesAgo = g.minutes(30)
	}
	return ev
}

// Feed is a bounded FIFO of activity events.
type Feed struct {
	capacity int
	items    []ActivityEvent
}

// NewFeed returns a feed holding at most capacity events.
func NewFeed(capacity int) *Feed {
	if capacity < 1 {
		capacity = 1
	}
	return &Feed{capacity: capacity}
}

// Push appends ev and returns the evicted event, if any.
func (f *Feed) Push(ev ActivityEvent) (ActivityEvent, bool) {
	var (
		evicted ActivityEvent
		dropped bool
	)
	if len(f.items) == f.capacity {
		evicted, dropped = f.items[0], true
		f.items = append(f.items[:0], f.items[1:]...)
	}
	f.items = append(f.items, ev)
	return evicted, dropped
}

// Items returns the events oldest first.
func (f *Feed) Items() []ActivityEvent {
	out := make([]ActivityEvent, len(f.items))
	copy(out, f.items)
	return out
}

// Len returns the number of held events.
func (f *Feed) Len() int { return len(f.items) }

// Capacity returns the feed bound.
func (f *Feed) Capacity() int { return f.capacity }
