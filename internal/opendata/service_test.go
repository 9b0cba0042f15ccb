package opendata

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hecopilot/copilot-backend/config"
	"github.com/hecopilot/copilot-backend/internal/apperr"
)

func fakeUpstream(t *testing.T, handler http.HandlerFunc) (*Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ep := Endpoints{BLS: srv.URL, FederalRegister: srv.URL, Scorecard: srv.URL, Regulations: srv.URL}
	keys := config.OpenDataConfig{BLSAPIKey: "bls-key", ScorecardAPIKey: "sc-key", RegulationsAPIKey: "reg-key"}
	return NewService(NewClient(ClientOptions{RequestsPerSecond: 100}), ep, keys, NewAllowList(nil)), srv
}

func TestBLS(t *testing.T) {
	svc, _ := fakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/timeseries/data/", r.URL.Path)

		var body blsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"CES6561000001"}, body.SeriesID)
		assert.Equal(t, "bls-key", body.RegistrationKey)

		_, _ = io.WriteString(w, `{"status":"REQUEST_SUCCEEDED","message":[],"Results":{"series":[
			{"seriesID":"CES6561000001","data":[{"year":"2024","period":"M12","periodName":"December","value":"3912.4"}]}]}}`)
	})

	res, err := svc.BLS(context.Background(), BLSQuery{SeriesIDs: ParseSeries(" ces6561000001 ,"), StartYear: "2023", EndYear: "2024"})
	require.NoError(t, err)
	require.Len(t, res.Series, 1)
	assert.Equal(t, "3912.4", res.Series[0].Data[0].Value)
	assert.Equal(t, "December", res.Series[0].Data[0].PeriodName)
}

func TestBLS_RequestNotProcessed(t *testing.T) {
	svc, _ := fakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"REQUEST_NOT_PROCESSED","message":["Daily threshold reached"],"Results":{}}`)
	})

	_, err := svc.BLS(context.Background(), BLSQuery{SeriesIDs: []string{"LNS14000000"}})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	assert.Contains(t, err.Error(), "Daily threshold reached")
}

func TestBLS_Validation(t *testing.T) {
	svc, _ := fakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called")
	})
	ctx := context.Background()

	_, err := svc.BLS(ctx, BLSQuery{})
	assert.EqualError(t, err, "Missing query parameter 'series'")

	_, err = svc.BLS(ctx, BLSQuery{SeriesIDs: []string{"bad id!"}})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	_, err = svc.BLS(ctx, BLSQuery{SeriesIDs: []string{"LNS14000000"}, StartYear: "2024", EndYear: "2020"})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	svc.keys.BLSAPIKey = ""
	_, err = svc.BLS(ctx, BLSQuery{SeriesIDs: []string{"LNS14000000"}})
	assert.EqualError(t, err, "Missing BLS_API_KEY in server env")
}

func TestFederalRegister(t *testing.T) {
	svc, _ := fakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/documents.json", r.URL.Path)
		assert.Equal(t, "title IX", r.URL.Query().Get("conditions[term]"))
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))
		_, _ = io.WriteString(w, `{"count":41,"results":[{
			"document_number":"2024-07915","title":"Nondiscrimination on the Basis of Sex",
			"type":"Rule","abstract":"Amends regulations.",
			"excerpts":"... <span class=\"match\">Title</span> <span class=\"match\">IX</span> of the Education Amendments &amp; ...",
			"publication_date":"2024-04-29","html_url":"https://www.federalregister.gov/d/2024-07915",
			"agencies":[{"name":"Education Department"}]}]}`)
	})

	res, err := svc.FederalRegister(context.Background(), " title IX ", 2)
	require.NoError(t, err)
	assert.Equal(t, 41, res.Count)
	require.Len(t, res.Results, 1)
	doc := res.Results[0]
	assert.Equal(t, "... Title IX of the Education Amendments & ...", doc.Excerpt)
	assert.Equal(t, []string{"Education Department"}, doc.Agencies)
}

func TestFederalRegister_MissingQuery(t *testing.T) {
	svc, _ := fakeUpstream(t, nil)
	_, err := svc.FederalRegister(context.Background(), "", 5)
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
}

func TestScorecard(t *testing.T) {
	svc, _ := fakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/schools", r.URL.Path)
		assert.Equal(t, "sc-key", q.Get("api_key"))
		assert.Equal(t, "OH", q.Get("school.state"))
		assert.Contains(t, q.Get("fields"), "latest.student.size")
		_, _ = io.WriteString(w, `{"metadata":{"total":1,"page":0,"per_page":5},"results":[{
			"id":204796,"school.name":"Ohio State University-Main Campus","school.city":"Columbus","school.state":"OH",
			"latest.admissions.admission_rate.overall":0.5274,"latest.completion.rate_suppressed.overall":null,
			"latest.cost.tuition.in_state":12485,"latest.student.size":46123}]}`)
	})

	res, err := svc.Scorecard(context.Background(), ScorecardQuery{Name: "ohio state", State: "oh", Limit: 5})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	s := res.Results[0]
	assert.Equal(t, 204796, s.ID)
	require.NotNil(t, s.AdmissionRate)
	assert.InDelta(t, 0.5274, *s.AdmissionRate, 1e-9)
	assert.Nil(t, s.CompletionRate)
	assert.Nil(t, s.TuitionOutOfState)
}

func TestScorecard_Validation(t *testing.T) {
	svc, _ := fakeUpstream(t, nil)
	ctx := context.Background()

	_, err := svc.Scorecard(ctx, ScorecardQuery{})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	_, err = svc.Scorecard(ctx, ScorecardQuery{State: "Ohio"})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	svc.keys.ScorecardAPIKey = ""
	_, err = svc.Scorecard(ctx, ScorecardQuery{Name: "x"})
	assert.True(t, apperr.Is(err, apperr.KindConfiguration))
}

func TestRegulations(t *testing.T) {
	svc, _ := fakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "reg-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "5", r.URL.Query().Get("page[size]"))
		_, _ = io.WriteString(w, `{"data":[
			{"id":"ED-2023-OPE-0123-0001","attributes":{"title":"Financial Value Transparency","documentType":"Rule","agencyId":"ED","docketId":"ED-2023-OPE-0123","postedDate":"2023-10-10T04:00:00Z"}},
			{"id":"ED-2023-OPE-0123-0002","attributes":{"title":"Second"}},
			{"id":"ED-2023-OPE-0123-0003","attributes":{"title":"Third"}}],
			"meta":{"totalElements":3}}`)
	})

	res, err := svc.Regulations(context.Background(), "gainful employment", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "https://www.regulations.gov/document/ED-2023-OPE-0123-0001", res.Results[0].URL)
	assert.Equal(t, "ED", res.Results[0].AgencyID)
}

func TestRegulations_UpstreamErrorBodyVerbatim(t *testing.T) {
	svc, _ := fakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":"API_KEY_INVALID"}}`)
	})

	_, err := svc.Regulations(context.Background(), "x", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `regulations error 403: {"error":{"code":"API_KEY_INVALID"}}`)
}
