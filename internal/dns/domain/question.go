package domain

import (
	"fmt"

	"github.com/haukened/ttl-dns/internal/dns/common/utils"
)

// Question is the single question of an inbound query together with the
// transaction ID it arrived under.
type Question struct {
	ID    uint16
	Name  string
	Type  RRType
	Class RRClass
}

// NewQuestion constructs a Question and validates its fields.
func NewQuestion(id uint16, name string, rrtype RRType, class RRClass) (Question, error) {
	q := Question{
		ID:    id,
		Name:  name,
		Type:  rrtype,
		Class: class,
	}
	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	return q, nil
}

// Validate checks that the question can be answered.
func (q Question) Validate() error {
	if utils.CanonicalDNSName(q.Name) == "" {
		return fmt.Errorf("query name must not be empty")
	}
	if q.Type == 0 {
		return fmt.Errorf("query type must not be zero")
	}
	return nil
}
