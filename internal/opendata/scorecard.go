package opendata

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/hecopilot/copilot-backend/internal/apperr"
)

var scorecardFields = []string{
	"id",
	"school.name",
	"school.city",
	"school.state",
	"school.school_url",
	"latest.admissions.admission_rate.overall",
	"latest.completion.rate_suppressed.overall",
	"latest.cost.tuition.in_state",
	"latest.cost.tuition.out_of_state",
	"latest.student.size",
}

type ScorecardQuery struct {
	Name  string
	State string
	Limit int
}

type School struct {
	ID                  int      `json:"id"`
	Name                string   `json:"name"`
	City                string   `json:"city"`
	State               string   `json:"state"`
	URL                 string   `json:"url"`
	AdmissionRate       *float64 `json:"admission_rate"`
	CompletionRate      *float64 `json:"completion_rate"`
	TuitionInState      *float64 `json:"tuition_in_state"`
	TuitionOutOfState   *float64 `json:"tuition_out_of_state"`
	UndergradEnrollment *float64 `json:"undergrad_enrollment"`
}

type ScorecardResult struct {
	Total   int      `json:"total"`
	Results []School `json:"results"`
}

// The API returns the requested fields as flat dotted keys.
type scorecardResponse struct {
	Metadata struct {
		Total int `json:"total"`
	} `json:"metadata"`
	Results []struct {
		ID             int      `json:"id"`
		Name           string   `json:"school.name"`
		City           string   `json:"school.city"`
		State          string   `json:"school.state"`
		URL            string   `json:"school.school_url"`
		AdmissionRate  *float64 `json:"latest.admissions.admission_rate.overall"`
		CompletionRate *float64 `json:"latest.completion.rate_suppressed.overall"`
		TuitionIn      *float64 `json:"latest.cost.tuition.in_state"`
		TuitionOut     *float64 `json:"latest.cost.tuition.out_of_state"`
		Size           *float64 `json:"latest.student.size"`
	} `json:"results"`
}

// Scorecard looks up schools in the College Scorecard by name and/or state.
func (s *Service) Scorecard(ctx context.Context, q ScorecardQuery) (*ScorecardResult, error) {
	name := strings.TrimSpace(q.Name)
	state := strings.ToUpper(strings.TrimSpace(q.State))
	if name == "" && state == "" {
		return nil, apperr.InvalidInput("Missing query parameter 'name' or 'state'")
	}
	if state != "" && len(state) != 2 {
		return nil, apperr.InvalidInput("Invalid state %q", q.State)
	}
	if s.keys.ScorecardAPIKey == "" {
		return nil, apperr.MissingSetting("SCORECARD_API_KEY")
	}

	v := url.Values{}
	v.Set("api_key", s.keys.ScorecardAPIKey)
	if name != "" {
		v.Set("school.name", name)
	}
	if state != "" {
		v.Set("school.state", state)
	}
	v.Set("per_page", strconv.Itoa(q.Limit))
	v.Set("fields", strings.Join(scorecardFields, ","))

	var raw scorecardResponse
	if err := s.client.GetJSON(ctx, "scorecard", s.endpoints.Scorecard+"/schools?"+v.Encode(), nil, &raw); err != nil {
		return nil, err
	}

	schools := make([]School, 0, len(raw.Results))
	for _, r := range raw.Results {
		schools = append(schools, School{
			ID:                  r.ID,
			Name:                r.Name,
			City:                r.City,
			State:               r.State,
			URL:                 r.URL,
			AdmissionRate:       r.AdmissionRate,
			CompletionRate:      r.CompletionRate,
			TuitionInState:      r.TuitionIn,
			TuitionOutOfState:   r.TuitionOut,
			UndergradEnrollment: r.Size,
		})
	}
	return &ScorecardResult{Total: raw.Metadata.Total, Results: schools}, nil
}
