// Package resolver answers adns queries from a static zone.
package resolver

import (
	"context"
	"fmt"
	"net"

	"github.com/haukened/adns/internal/dns/common/log"
	"github.com/haukened/adns/internal/dns/domain"
)

const (
	// DefaultVersion is the answer to a TEXT "version" query.
	DefaultVersion = "adns v1.0"
	// VersionQuery is the only TEXT query with an answer.
	VersionQuery = "version"
)

type Resolver struct {
	logger  log.Logger
	version string
	zone    ZoneStore
}

type ResolverOptions struct {
	Logger  log.Logger
	Version string
	Zone    ZoneStore
}

func NewResolver(opts ResolverOptions) *Resolver {
	version := opts.Version
	if version == "" {
		version = DefaultVersion
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Resolver{
		logger:  logger,
		version: version,
		zone:    opts.Zone,
	}
}

// Resolve answers a single query. It never fails: unsupported query types
// produce a FORMERR result and misses produce NXDOMAIN.
func (r *Resolver) Resolve(qtype domain.QueryType, value string) domain.Result {
	if !qtype.IsValid() {
		return domain.Failed(domain.FORMERR)
	}
	switch qtype {
	case domain.QueryTypeAddress:
		if addr, ok := r.zone.Lookup(value); ok {
			return domain.Found(addr)
		}
	case domain.QueryTypeReverse:
		if name, ok := r.zone.ReverseLookup(value); ok {
			return domain.Found(name)
		}
	case domain.QueryTypeText:
		if value == VersionQuery {
			return domain.Found(r.version)
		}
	}
	return domain.Failed(domain.NXDOMAIN)
}

// HandleQuery resolves query and addresses the result back to its id.
func (r *Resolver) HandleQuery(ctx context.Context, query domain.Query, clientAddr net.Addr) (domain.Response, error) {
	res := r.Resolve(query.Type, query.Value)
	resp := domain.NewResponse(query.ID, res)

	r.logger.Debug(map[string]any{
		"id":      fmt.Sprintf("0x%08x", query.ID),
		"client":  addrString(clientAddr),
		"type":    query.Type.String(),
		"query":   query.Value,
		"rcode":   resp.RCode.String(),
		"payload": resp.Payload,
	}, "Resolved query")

	return resp, nil
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}
