package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestMessage() {
	s.Equal("fiche not found", New(CodeNotFound, "fiche not found").Error())
	s.Equal("empty_archive", (&Error{Code: CodeEmptyArchive}).Error())
	s.Equal(`unknown activity "bitcoin"`, Newf(CodeBadRequest, "unknown activity %q", "bitcoin").Error())
}

func (s *DomainErrorsSuite) TestWrapKeepsInnerCode() {
	cause := errors.New("sql: no rows in result set")
	notFound := Wrap(cause, CodeNotFound, "operator 7 not found")

	wrapped := Wrap(notFound, CodeInternal, "failed to load operator")

	s.Equal(CodeNotFound, CodeOf(wrapped))
	s.Equal("failed to load operator", wrapped.Error())
	s.ErrorIs(wrapped, cause)
	s.ErrorIs(wrapped, &Error{Code: CodeNotFound})
}

func (s *DomainErrorsSuite) TestCodeOf() {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"domain error", New(CodeNoMatches, "Aucune fiche"), CodeNoMatches},
		{"fmt wrapped", fmt.Errorf("export: %w", New(CodeEmptyArchive, "")), CodeEmptyArchive},
		{"plain error", errors.New("disk full"), CodeInternal},
		{"nil", nil, CodeInternal},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.Equal(tt.want, CodeOf(tt.err))
		})
	}
}

func (s *DomainErrorsSuite) TestHasCode() {
	err := fmt.Errorf("lot 3: %w", New(CodeBadRequest, "batch must be between 1 and 2"))

	s.True(HasCode(err, CodeBadRequest))
	s.False(HasCode(err, CodeValidation))
	s.False(HasCode(errors.New("plain"), CodeInternal))
	s.False(HasCode(nil, CodeNotFound))
}

func (s *DomainErrorsSuite) TestExportOutcomesAreDistinct() {
	noMatches := New(CodeNoMatches, "Aucune fiche ne correspond aux critères.")

	s.False(errors.Is(noMatches, &Error{Code: CodeEmptyArchive}))
	s.True(errors.Is(noMatches, &Error{Code: CodeNoMatches}))
}
