// Package memory is an in-process StatementWriter used when no spreadsheet
// is configured and in tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"finledger/internal/core"
	ports "finledger/internal/sheets"
)

var _ ports.StatementWriter = (*Store)(nil)

type Store struct {
	mu         sync.Mutex
	statements []core.Statement
	failNext   error
}

func New() *Store {
	return &Store{}
}

// WriteStatement stores the statement and returns a synthetic reference.
func (s *Store) WriteStatement(_ context.Context, st core.Statement) (string, error) {
	if st.Bill.ID == "" {
		return "", errors.New("statement has no bill")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failNext; err != nil {
		s.failNext = nil
		return "", err
	}
	s.statements = append(s.statements, st)
	return fmt.Sprintf("mem:%d", len(s.statements)), nil
}

// FailNext makes the next write return err.
func (s *Store) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// Statements returns a copy of the written statements in order.
func (s *Store) Statements() []core.Statement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Statement(nil), s.statements...)
}
