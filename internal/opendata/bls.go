package opendata

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hecopilot/copilot-backend/internal/apperr"
)

const maxBLSSeries = 25

var blsSeriesID = regexp.MustCompile(`^[A-Za-z0-9]{4,30}$`)

type BLSQuery struct {
	SeriesIDs []string
	StartYear string
	EndYear   string
}

type BLSObservation struct {
	Year       string `json:"year"`
	Period     string `json:"period"`
	PeriodName string `json:"period_name"`
	Value      string `json:"value"`
}

type BLSSeries struct {
	SeriesID string           `json:"series_id"`
	Data     []BLSObservation `json:"data"`
}

type BLSResult struct {
	Series []BLSSeries `json:"series"`
}

type blsRequest struct {
	SeriesID        []string `json:"seriesid"`
	StartYear       string   `json:"startyear,omitempty"`
	EndYear         string   `json:"endyear,omitempty"`
	RegistrationKey string   `json:"registrationkey"`
}

type blsResponse struct {
	Status  string   `json:"status"`
	Message []string `json:"message"`
	Results struct {
		Series []struct {
			SeriesID string `json:"seriesID"`
			Data     []struct {
				Year       string `json:"year"`
				Period     string `json:"period"`
				PeriodName string `json:"periodName"`
				Value      string `json:"value"`
			} `json:"data"`
		} `json:"series"`
	} `json:"Results"`
}

// ParseSeries splits a comma separated series list, dropping blanks.
func ParseSeries(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}

// BLS fetches Bureau of Labor Statistics timeseries.
func (s *Service) BLS(ctx context.Context, q BLSQuery) (*BLSResult, error) {
	if len(q.SeriesIDs) == 0 {
		return nil, apperr.InvalidInput("Missing query parameter 'series'")
	}
	if len(q.SeriesIDs) > maxBLSSeries {
		return nil, apperr.InvalidInput("At most %d series per request", maxBLSSeries)
	}
	for _, id := range q.SeriesIDs {
		if !blsSeriesID.MatchString(id) {
			return nil, apperr.InvalidInput("Invalid series id %q", id)
		}
	}
	if err := validYears(q.StartYear, q.EndYear); err != nil {
		return nil, err
	}
	if s.keys.BLSAPIKey == "" {
		return nil, apperr.MissingSetting("BLS_API_KEY")
	}

	var raw blsResponse
	err := s.client.PostJSON(ctx, "bls", s.endpoints.BLS+"/timeseries/data/", blsRequest{
		SeriesID:        q.SeriesIDs,
		StartYear:       q.StartYear,
		EndYear:         q.EndYear,
		RegistrationKey: s.keys.BLSAPIKey,
	}, &raw)
	if err != nil {
		return nil, err
	}
	if raw.Status != "REQUEST_SUCCEEDED" {
		msg := strings.Join(raw.Message, "; ")
		if msg == "" {
			msg = raw.Status
		}
		return nil, apperr.Upstream("BLS error: "+msg, nil)
	}

	out := &BLSResult{Series: make([]BLSSeries, 0, len(raw.Results.Series))}
	for _, rs := range raw.Results.Series {
		series := BLSSeries{SeriesID: rs.SeriesID, Data: make([]BLSObservation, 0, len(rs.Data))}
		for _, d := range rs.Data {
			series.Data = append(series.Data, BLSObservation{
				Year:       d.Year,
				Period:     d.Period,
				PeriodName: d.PeriodName,
				Value:      d.Value,
			})
		}
		out.Series = append(out.Series, series)
	}
	return out, nil
}

func validYears(start, end string) error {
	var sy, ey int
	var err error
	if start != "" {
		if sy, err = parseYear(start); err != nil {
			return apperr.InvalidInput("Invalid start year")
		}
	}
	if end != "" {
		if ey, err = parseYear(end); err != nil {
			return apperr.InvalidInput("Invalid end year")
		}
	}
	if sy != 0 && ey != 0 && sy > ey {
		return apperr.InvalidInput("start year is after end year")
	}
	return nil
}

func parseYear(s string) (int, error) {
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if y < 1900 || y > time.Now().Year()+1 {
		return 0, strconv.ErrRange
	}
	return y, nil
}
