package opendata

import (
	"github.com/hecopilot/copilot-backend/config"
)

// Endpoints are the upstream base URLs.
type Endpoints struct {
	BLS             string
	FederalRegister string
	Scorecard       string
	Regulations     string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		BLS:             "https://api.bls.gov/publicAPI/v2",
		FederalRegister: "https://www.federalregister.gov/api/v1",
		Scorecard:       "https://api.data.gov/ed/collegescorecard/v1",
		Regulations:     "https://api.regulations.gov/v4",
	}
}

// Service exposes the open-data lookups over one shared Client.
type Service struct {
	client    *Client
	endpoints Endpoints
	keys      config.OpenDataConfig
	allow     *AllowList
}

func NewService(client *Client, endpoints Endpoints, keys config.OpenDataConfig, allow *AllowList) *Service {
	return &Service{
		client:    client,
		endpoints: endpoints,
		keys:      keys,
		allow:     allow,
	}
}
