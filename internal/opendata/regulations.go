package opendata

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hecopilot/copilot-backend/internal/apperr"
)

// Regulations.gov rejects page sizes below 5.
const regulationsMinPage = 5

type RegulationDocument struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	DocumentType   string `json:"document_type"`
	AgencyID       string `json:"agency_id"`
	DocketID       string `json:"docket_id"`
	PostedDate     string `json:"posted_date"`
	CommentEndDate string `json:"comment_end_date,omitempty"`
	URL            string `json:"url"`
}

type RegulationsResult struct {
	Query   string               `json:"query"`
	Total   int                  `json:"total"`
	Results []RegulationDocument `json:"results"`
}

type regulationsResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Title          string `json:"title"`
			DocumentType   string `json:"documentType"`
			AgencyID       string `json:"agencyId"`
			DocketID       string `json:"docketId"`
			PostedDate     string `json:"postedDate"`
			CommentEndDate string `json:"commentEndDate"`
		} `json:"attributes"`
	} `json:"data"`
	Meta struct {
		TotalElements int `json:"totalElements"`
	} `json:"meta"`
}

// Regulations searches Regulations.gov documents.
func (s *Service) Regulations(ctx context.Context, query string, limit int) (*RegulationsResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.InvalidInput("Missing query parameter 'q'")
	}
	if s.keys.RegulationsAPIKey == "" {
		return nil, apperr.MissingSetting("REGULATIONS_API_KEY")
	}

	page := limit
	if page < regulationsMinPage {
		page = regulationsMinPage
	}
	v := url.Values{}
	v.Set("filter[searchTerm]", query)
	v.Set("page[size]", strconv.Itoa(page))
	v.Set("sort", "-postedDate")

	header := http.Header{}
	header.Set("X-Api-Key", s.keys.RegulationsAPIKey)

	var raw regulationsResponse
	if err := s.client.GetJSON(ctx, "regulations", s.endpoints.Regulations+"/documents?"+v.Encode(), header, &raw); err != nil {
		return nil, err
	}

	docs := make([]RegulationDocument, 0, len(raw.Data))
	for _, d := range raw.Data {
		docs = append(docs, RegulationDocument{
			ID:             d.ID,
			Title:          d.Attributes.Title,
			DocumentType:   d.Attributes.DocumentType,
			AgencyID:       d.Attributes.AgencyID,
			DocketID:       d.Attributes.DocketID,
			PostedDate:     d.Attributes.PostedDate,
			CommentEndDate: d.Attributes.CommentEndDate,
			URL:            "https://www.regulations.gov/document/" + url.PathEscape(d.ID),
		})
	}
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return &RegulationsResult{Query: query, Total: raw.Meta.TotalElements, Results: docs}, nil
}
