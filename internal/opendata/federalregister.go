package opendata

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hecopilot/copilot-backend/internal/apperr"
)

type FederalRegisterDocument struct {
	DocumentNumber  string   `json:"document_number"`
	Title           string   `json:"title"`
	Type            string   `json:"type"`
	Abstract        string   `json:"abstract"`
	Excerpt         string   `json:"excerpt"`
	Agencies        []string `json:"agencies"`
	PublicationDate string   `json:"publication_date"`
	HTMLURL         string   `json:"html_url"`
	PDFURL          string   `json:"pdf_url"`
}

type FederalRegisterResult struct {
	Query   string                    `json:"query"`
	Count   int                       `json:"count"`
	Results []FederalRegisterDocument `json:"results"`
}

type federalRegisterResponse struct {
	Count   int `json:"count"`
	Results []struct {
		DocumentNumber  string `json:"document_number"`
		Title           string `json:"title"`
		Type            string `json:"type"`
		Abstract        string `json:"abstract"`
		Excerpts        string `json:"excerpts"`
		PublicationDate string `json:"publication_date"`
		HTMLURL         string `json:"html_url"`
		PDFURL          string `json:"pdf_url"`
		Agencies        []struct {
			Name string `json:"name"`
		} `json:"agencies"`
	} `json:"results"`
}

// FederalRegister searches Federal Register documents by relevance.
func (s *Service) FederalRegister(ctx context.Context, query string, limit int) (*FederalRegisterResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.InvalidInput("Missing query parameter 'q'")
	}

	v := url.Values{}
	v.Set("conditions[term]", query)
	v.Set("per_page", strconv.Itoa(limit))
	v.Set("order", "relevance")

	var raw federalRegisterResponse
	if err := s.client.GetJSON(ctx, "federal_register", s.endpoints.FederalRegister+"/documents.json?"+v.Encode(), nil, &raw); err != nil {
		return nil, err
	}

	docs := make([]FederalRegisterDocument, 0, len(raw.Results))
	for _, r := range raw.Results {
		agencies := make([]string, 0, len(r.Agencies))
		for _, a := range r.Agencies {
			if a.Name != "" {
				agencies = append(agencies, a.Name)
			}
		}
		docs = append(docs, FederalRegisterDocument{
			DocumentNumber:  r.DocumentNumber,
			Title:           r.Title,
			Type:            r.Type,
			Abstract:        r.Abstract,
			Excerpt:         htmlToText(r.Excerpts),
			Agencies:        agencies,
			PublicationDate: r.PublicationDate,
			HTMLURL:         r.HTMLURL,
			PDFURL:          r.PDFURL,
		})
	}
	if len(docs) > limit {
		docs = docs[:limit]
	}

	return &FederalRegisterResult{Query: query, Count: raw.Count, Results: docs}, nil
}

// htmlToText flattens an HTML fragment (search highlights, entities) to
// single-spaced text.
func htmlToText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
