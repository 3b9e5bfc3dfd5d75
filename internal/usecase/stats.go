package usecase

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/xavierca1/coach-outreach/internal/entity"
)

type OutreachStats struct {
	TotalEmailsSent  int     `json:"total_emails_sent"`
	UniqueCoaches    int     `json:"unique_coaches_contacted"`
	InitialEmails    int     `json:"initial_emails"`
	FollowupEmails   int     `json:"followup_emails"`
	TotalResponses   int     `json:"total_responses"`
	UniqueResponders int     `json:"unique_responders"`
	ResponseRate     float64 `json:"response_rate"`
	TotalDMsSent     int     `json:"total_dms_sent"`
}

type DivisionStats struct {
	Coaches    int     `json:"coaches"`
	Responders int     `json:"responders"`
	Rate       float64 `json:"rate"`
}

type HotLead struct {
	CoachEmail     string    `json:"coach_email"`
	CoachName      string    `json:"coach_name"`
	School         string    `json:"school"`
	Division       string    `json:"division"`
	TimesContacted int       `json:"times_contacted"`
	LastContact    time.Time `json:"last_contact"`
	Score          int       `json:"score"`
}

type StatsOutput struct {
	Summary         OutreachStats            `json:"summary"`
	ByDivision      map[string]DivisionStats `json:"by_division"`
	RecentResponses []entity.Response        `json:"recent_responses"`
	HotLeads        []HotLead                `json:"hot_leads"`
}

type SheetStats struct {
	Total   int `json:"total"`
	RC      int `json:"rc"`
	OL      int `json:"ol"`
	Review  int `json:"review"`
	Emails  int `json:"emails"`
	Twitter int `json:"twitter"`
}

var divisionScores = map[string]int{
	"NAIA": 30,
	"JUCO": 30,
	"D3":   25,
	"D2":   20,
	"FCS":  15,
	"FBS":  10,
}

const (
	defaultDivisionScore = 5
	recentListLimit      = 10
	hotLeadLimit         = 10
)

type StatsUseCase struct {
	History OutreachLogReader
	Sheet   SheetStore
	Now     func() time.Time
}

func NewStatsUseCase(history OutreachLogReader, sheet SheetStore) *StatsUseCase {
	return &StatsUseCase{History: history, Sheet: sheet, Now: time.Now}
}

func (uc *StatsUseCase) Execute(ctx context.Context) (*StatsOutput, error) {
	sent, err := uc.History.ListSent(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: CodeLogStore, Message: "failed to read sent log", Err: err}
	}
	responses, err := uc.History.ListResponses(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: CodeLogStore, Message: "failed to read response log", Err: err}
	}
	dms, err := uc.History.ListDMs(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: CodeLogStore, Message: "failed to read dm log", Err: err}
	}

	out := &StatsOutput{
		Summary:         Summarize(sent, responses),
		ByDivision:      ByDivision(sent, responses),
		RecentResponses: RecentResponses(responses, recentListLimit),
		HotLeads:        HotLeads(sent, responses, uc.Now(), hotLeadLimit),
	}
	out.Summary.TotalDMsSent = len(dms)
	return out, nil
}

func Summarize(sent []entity.SentEmail, responses []entity.Response) OutreachStats {
	coaches := make(map[string]bool)
	responders := make(map[string]bool)
	var st OutreachStats

	for _, s := range sent {
		coaches[strings.ToLower(s.CoachEmail)] = true
		if s.FollowupNumber == 0 {
			st.InitialEmails++
		} else {
			st.FollowupEmails++
		}
	}
	for _, r := range responses {
		responders[strings.ToLower(r.CoachEmail)] = true
	}

	st.TotalEmailsSent = len(sent)
	st.UniqueCoaches = len(coaches)
	st.TotalResponses = len(responses)
	st.UniqueResponders = len(responders)
	st.ResponseRate = percent(len(responders), len(coaches))
	return st
}

func ByDivision(sent []entity.SentEmail, responses []entity.Response) map[string]DivisionStats {
	type sets struct{ coaches, responders map[string]bool }
	divs := make(map[string]*sets)
	divOf := make(map[string]string)

	for _, s := range sent {
		div := s.Division
		if div == "" {
			div = "Unknown"
		}
		email := strings.ToLower(s.CoachEmail)
		if _, ok := divs[div]; !ok {
			divs[div] = &sets{coaches: map[string]bool{}, responders: map[string]bool{}}
		}
		divs[div].coaches[email] = true
		if _, ok := divOf[email]; !ok {
			divOf[email] = div
		}
	}
	for _, r := range responses {
		email := strings.ToLower(r.CoachEmail)
		if div, ok := divOf[email]; ok {
			divs[div].responders[email] = true
		}
	}

	out := make(map[string]DivisionStats, len(divs))
	for div, s := range divs {
		out[div] = DivisionStats{
			Coaches:    len(s.coaches),
			Responders: len(s.responders),
			Rate:       percent(len(s.responders), len(s.coaches)),
		}
	}
	return out
}

func RecentResponses(responses []entity.Response, limit int) []entity.Response {
	out := append([]entity.Response(nil), responses...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReceivedAt.After(out[j].ReceivedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// HotLeads ranks coaches who have not replied: repeated contact, smaller
// divisions and recent contact score higher.
func HotLeads(sent []entity.SentEmail, responses []entity.Response, now time.Time, limit int) []HotLead {
	responded := make(map[string]bool)
	for _, r := range responses {
		responded[strings.ToLower(r.CoachEmail)] = true
	}

	byEmail := make(map[string]*HotLead)
	var order []string
	for _, s := range sent {
		email := strings.ToLower(s.CoachEmail)
		if responded[email] {
			continue
		}
		lead, ok := byEmail[email]
		if !ok {
			lead = &HotLead{CoachEmail: s.CoachEmail, CoachName: s.CoachName, School: s.School, Division: s.Division, LastContact: s.SentAt}
			byEmail[email] = lead
			order = append(order, email)
		}
		lead.TimesContacted++
		if s.SentAt.After(lead.LastContact) {
			lead.LastContact = s.SentAt
		}
	}

	leads := make([]HotLead, 0, len(order))
	for _, email := range order {
		lead := byEmail[email]
		lead.Score = leadScore(*lead, now)
		leads = append(leads, *lead)
	}
	sort.SliceStable(leads, func(i, j int) bool { return leads[i].Score > leads[j].Score })
	if len(leads) > limit {
		leads = leads[:limit]
	}
	return leads
}

func leadScore(l HotLead, now time.Time) int {
	score := min(l.TimesContacted, 3) * 10

	if s, ok := divisionScores[l.Division]; ok {
		score += s
	} else {
		score += defaultDivisionScore
	}

	if !l.LastContact.IsZero() {
		days := int(now.Sub(l.LastContact).Hours() / 24)
		switch {
		case days <= 7:
			score += 20
		case days <= 14:
			score += 10
		}
	}
	return score
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}

// SheetStats counts what the scraper has filled in so far.
func (uc *StatsUseCase) SheetStats(ctx context.Context) (*SheetStats, error) {
	snap, err := uc.Sheet.Snapshot(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: CodeSheetUnavailable, Message: "failed to read sheet", Err: err}
	}
	cols := entity.ResolveColumns(snap.Headers)

	st := &SheetStats{Total: len(snap.Rows)}
	for _, row := range snap.Rows {
		for _, f := range []entity.Field{entity.FieldRCName, entity.FieldOLName} {
			v := strings.TrimSpace(cols.Value(row, f))
			switch {
			case v == "":
			case strings.HasPrefix(v, "REVIEW:"):
				st.Review++
			case f == entity.FieldRCName:
				st.RC++
			default:
				st.OL++
			}
		}
		for _, f := range []entity.Field{entity.FieldRCEmail, entity.FieldOLEmail} {
			if strings.TrimSpace(cols.Value(row, f)) != "" {
				st.Emails++
			}
		}
		for _, f := range []entity.Field{entity.FieldRCTwitter, entity.FieldOLTwitter} {
			if strings.TrimSpace(cols.Value(row, f)) != "" {
				st.Twitter++
			}
		}
	}
	return st, nil
}
