package realtime

import (
	"log/slog"
	"sync"
)

// Scope is the subscription filter for one connection: every account, or a
// single one. The zero value is the global scope.
type Scope struct {
	accountID string
}

// GlobalScope subscribes to events for every account.
func GlobalScope() Scope { return Scope{} }

// AccountScope subscribes to events for one account only.
func AccountScope(accountID string) Scope { return Scope{accountID: accountID} }

func (s Scope) IsGlobal() bool    { return s.accountID == "" }
func (s Scope) AccountID() string { return s.accountID }

// Stats describes the live connection population. Field names are part of
// the wire contract of GET /ws/stats and the stats frame.
type Stats struct {
	TotalConnections        int `json:"total_connections"`
	GlobalConnections       int `json:"global_connections"`
	AccountConnections      int `json:"account_connections"`
	AccountsWithConnections int `json:"accounts_with_connections"`
}

// Registry tracks live subscriber connections keyed by scope. It is safe
// for concurrent use by connection handlers (subscribe/unsubscribe) and the
// dispatcher (matching).
type Registry struct {
	logger *slog.Logger

	mu        sync.RWMutex
	clients   map[*Client]Scope
	globals   map[*Client]struct{}
	byAccount map[string]map[*Client]struct{}
}

// NewRegistry creates an empty subscription registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		clients:   make(map[*Client]Scope),
		globals:   make(map[*Client]struct{}),
		byAccount: make(map[string]map[*Client]struct{}),
	}
}

// Subscribe registers a connection under its scope.
func (r *Registry) Subscribe(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients[client] = client.scope
	if client.scope.IsGlobal() {
		r.globals[client] = struct{}{}
		r.logger.Info("Subscriber connected to global transaction stream", slog.String("client_id", client.id))
		return
	}

	accountID := client.scope.AccountID()
	set, ok := r.byAccount[accountID]
	if !ok {
		set = make(map[*Client]struct{})
		r.byAccount[accountID] = set
	}
	set[client] = struct{}{}
	r.logger.Info("Subscriber connected to account transaction stream",
		slog.String("client_id", client.id), slog.String("account_id", accountID))
}

// Unsubscribe removes a connection. Safe to call more than once.
func (r *Registry) Unsubscribe(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	scope, ok := r.clients[client]
	if !ok {
		return
	}
	delete(r.clients, client)

	if scope.IsGlobal() {
		delete(r.globals, client)
		r.logger.Info("Subscriber disconnected from global transaction stream", slog.String("client_id", client.id))
		return
	}

	accountID := scope.AccountID()
	if set, ok := r.byAccount[accountID]; ok {
		delete(set, client)
		if len(set) == 0 {
			delete(r.byAccount, accountID)
		}
	}
	r.logger.Info("Subscriber disconnected from account transaction stream",
		slog.String("client_id", client.id), slog.String("account_id", accountID))
}

// Matching returns every global subscriber plus every subscriber scoped to
// accountID.
func (r *Registry) Matching(accountID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*Client, 0, len(r.globals)+len(r.byAccount[accountID]))
	for client := range r.globals {
		matched = append(matched, client)
	}
	for client := range r.byAccount[accountID] {
		matched = append(matched, client)
	}
	return matched
}

// Stats reports the current connection counts.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accountConns := 0
	for _, set := range r.byAccount {
		accountConns += len(set)
	}
	return Stats{
		TotalConnections:        len(r.clients),
		GlobalConnections:       len(r.globals),
		AccountConnections:      accountConns,
		AccountsWithConnections: len(r.byAccount),
	}
}
