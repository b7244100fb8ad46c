package justcall

import (
	"sort"
	"strings"
	"time"
)

// User is a JustCall agent
type User struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
	Status string `json:"status,omitempty"`
}

// CallInfo describes the direction and outcome of a call
type CallInfo struct {
	Direction   string `json:"direction"`
	Type        string `json:"type"`
	Disposition string `json:"disposition,omitempty"`
}

// CallDuration holds call timings in seconds
type CallDuration struct {
	TotalDuration    int64 `json:"total_duration"`
	ConversationTime int64 `json:"conversation_time"`
}

// Call is a call record
type Call struct {
	ID            int64        `json:"id"`
	AgentID       int64        `json:"agent_id"`
	AgentEmail    string       `json:"agent_email"`
	ContactNumber string       `json:"contact_number"`
	CallDate      string       `json:"call_date"` // YYYY-MM-DD
	CallTime      string       `json:"call_time"`
	Info          CallInfo     `json:"call_info"`
	Duration      CallDuration `json:"call_duration"`
}

// Inbound reports whether the customer called in
func (c Call) Inbound() bool {
	return strings.EqualFold(c.Info.Direction, "Incoming")
}

// Outbound reports whether the agent placed the call
func (c Call) Outbound() bool {
	return strings.EqualFold(c.Info.Direction, "Outgoing")
}

// CallMetrics summarizes a set of calls
type CallMetrics struct {
	TotalCalls      int            `json:"totalCalls"`
	InboundCalls    int            `json:"inboundCalls"`
	OutboundCalls   int            `json:"outboundCalls"`
	CompletedCalls  int            `json:"completedCalls"`
	MissedCalls     int            `json:"missedCalls"`
	TotalDuration   int64          `json:"totalDuration"`
	AverageDuration int64          `json:"averageDuration"`
	CallsByDay      map[string]int `json:"callsByDay"`
	CallsByStatus   map[string]int `json:"callsByStatus"`
}

// Metrics aggregates call records. A call counts as completed when its type
// mentions "answered" and as missed when it mentions "missed" or "unanswered".
func Metrics(calls []Call) CallMetrics {
	m := CallMetrics{
		TotalCalls:    len(calls),
		CallsByDay:    make(map[string]int),
		CallsByStatus: make(map[string]int),
	}
	for _, c := range calls {
		if c.Inbound() {
			m.InboundCalls++
		}
		if c.Outbound() {
			m.OutboundCalls++
		}

		callType := c.Info.Type
		if callType == "" {
			callType = "Unknown"
		}
		lower := strings.ToLower(callType)
		switch {
		case strings.Contains(lower, "unanswered"), strings.Contains(lower, "missed"):
			m.MissedCalls++
		case strings.Contains(lower, "answered"):
			m.CompletedCalls++
		}
		m.CallsByStatus[callType]++

		m.TotalDuration += c.Duration.TotalDuration
		if c.CallDate != "" {
			m.CallsByDay[c.CallDate]++
		}
	}
	if m.TotalCalls > 0 {
		// round half up
		m.AverageDuration = (2*m.TotalDuration + int64(m.TotalCalls)) / (2 * int64(m.TotalCalls))
	}
	return m
}

// DailyCount is the number of calls on one day
type DailyCount struct {
	Date  string `json:"date"`
	Calls int    `json:"calls"`
}

// PeriodMetrics rolls per-day call counts into a period total for the
// effort bucket.
type PeriodMetrics struct {
	Start      time.Time    `json:"start"`
	End        time.Time    `json:"end"`
	TotalCalls int          `json:"totalCalls"`
	ActiveDays int          `json:"activeDays"`
	Days       []DailyCount `json:"days"`
}

// RollUp keeps the days of m that fall inside [start, end] and totals them
func RollUp(m CallMetrics, start, end time.Time) PeriodMetrics {
	from := start.Format(time.DateOnly)
	to := end.Format(time.DateOnly)

	p := PeriodMetrics{Start: start, End: end}
	for day, n := range m.CallsByDay {
		if day < from || day > to {
			continue
		}
		p.Days = append(p.Days, DailyCount{Date: day, Calls: n})
		p.TotalCalls += n
		if n > 0 {
			p.ActiveDays++
		}
	}
	sort.Slice(p.Days, func(i, j int) bool { return p.Days[i].Date < p.Days[j].Date })
	return p
}
