package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/haukened/ttl-dns/internal/dns/common/log"
	"github.com/haukened/ttl-dns/internal/dns/domain"
)

// ErrInvalidRecordType is returned when an operator names a record type that
// cannot be created.
var ErrInvalidRecordType = errors.New("invalid record type")

type Resolver struct {
	logger    log.Logger
	store     Store
	transport ServerTransport
}

type ResolverOptions struct {
	Logger    log.Logger
	Store     Store
	Transport ServerTransport
}

func NewResolver(opts ResolverOptions) *Resolver {
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	return &Resolver{
		logger:    opts.Logger,
		store:     opts.Store,
		transport: opts.Transport,
	}
}

// Start binds the transport and begins serving queries.
func (r *Resolver) Start(ctx context.Context) error {
	if r.transport == nil {
		return errors.New("resolver has no transport")
	}
	return r.transport.Start(ctx, r)
}

// Stop shuts the transport down.
func (r *Resolver) Stop() error {
	if r.transport == nil {
		return nil
	}
	return r.transport.Stop()
}

// HandleQuery answers q from the store. There is no NXDOMAIN: a name or type
// with nothing stored gets a NOERROR response with zero answers.
func (r *Resolver) HandleQuery(ctx context.Context, q domain.Question, clientAddr net.Addr) (domain.DNSResponse, error) {
	if err := ctx.Err(); err != nil {
		return domain.DNSResponse{}, err
	}

	resp := domain.DNSResponse{
		ID:       q.ID,
		Question: q,
		Answers:  r.store.Lookup(q.Name, q.Type),
	}

	fields := map[string]any{
		"id":      q.ID,
		"name":    q.Name,
		"type":    q.Type.String(),
		"answers": len(resp.Answers),
	}
	if clientAddr != nil {
		fields["client"] = clientAddr.String()
	}
	if !resp.HasAnswers() {
		r.logger.Debug(fields, "No records for query")
		return resp, nil
	}
	r.logger.Debug(fields, "Query answered")
	return resp, nil
}

// AddRecord validates operator input and stores the record. The store is not
// touched when validation fails.
func (r *Resolver) AddRecord(name, typeStr string, ttl uint32, data string) error {
	rrtype, err := parseType(typeStr)
	if err != nil {
		return err
	}
	rdata, err := domain.ParseRData(rrtype, data)
	if err != nil {
		return err
	}
	if err := r.store.Add(name, rrtype, ttl, rdata); err != nil {
		return err
	}
	r.logger.Info(map[string]any{
		"name": name,
		"type": rrtype.String(),
		"ttl":  ttl,
		"data": rdata.String(),
	}, "Record added")
	return nil
}

// GetRecords returns the unexpired records of the named type.
func (r *Resolver) GetRecords(name, typeStr string) ([]domain.Record, error) {
	rrtype, err := parseType(typeStr)
	if err != nil {
		return nil, err
	}
	return r.store.Lookup(name, rrtype), nil
}

func parseType(typeStr string) (domain.RRType, error) {
	rrtype := domain.RRTypeFromString(typeStr)
	if !rrtype.IsSupported() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRecordType, typeStr)
	}
	return rrtype, nil
}

// Ensure Resolver implements DNSResponder at compile time
var _ DNSResponder = (*Resolver)(nil)
