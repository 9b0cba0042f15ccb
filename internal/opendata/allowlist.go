package opendata

import (
	"context"
	"database/sql"
	"strings"
	"sync"
)

// HostLoader returns the hosts the proxy may reach.
type HostLoader interface {
	LoadAllowedHosts(ctx context.Context) ([]string, error)
}

// AllowList memoizes the proxy allow-list for the life of the process. It
// loads on first use and keeps reloading while the list is unset or empty;
// a failed or empty load denies the request.
type AllowList struct {
	loader HostLoader

	mu    sync.Mutex
	hosts map[string]struct{}
}

func NewAllowList(loader HostLoader) *AllowList {
	return &AllowList{loader: loader}
}

func (a *AllowList) Allowed(ctx context.Context, host string) (bool, error) {
	host = normalizeHost(host)
	if host == "" {
		return false, nil
	}

	hosts, err := a.get(ctx)
	if err != nil {
		return false, err
	}
	_, ok := hosts[host]
	return ok, nil
}

// Reset drops the memoized list so the next call reloads it.
func (a *AllowList) Reset() {
	a.mu.Lock()
	a.hosts = nil
	a.mu.Unlock()
}

func (a *AllowList) get(ctx context.Context) (map[string]struct{}, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.hosts) > 0 {
		return a.hosts, nil
	}
	if a.loader == nil {
		return nil, nil
	}

	list, err := a.loader.LoadAllowedHosts(ctx)
	if err != nil {
		return nil, err
	}
	hosts := make(map[string]struct{}, len(list))
	for _, h := range list {
		if h = normalizeHost(h); h != "" {
			hosts[h] = struct{}{}
		}
	}
	if len(hosts) > 0 {
		a.hosts = hosts
	}
	return hosts, nil
}

func normalizeHost(h string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(h)), ".")
}

// AllowListRepository reads proxy_allowed_hosts.
type AllowListRepository struct {
	db *sql.DB
}

func NewAllowListRepository(db *sql.DB) *AllowListRepository {
	return &AllowListRepository{db: db}
}

func (r *AllowListRepository) LoadAllowedHosts(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `select host from proxy_allowed_hosts where enabled order by host`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hosts []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hosts = append(hosts, h)
	}
	return hosts, rows.Err()
}
