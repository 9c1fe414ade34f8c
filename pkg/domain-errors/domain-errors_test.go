package domainerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests the domain error primitives.
//
// Justification: These are core error primitives used at every trust boundary.
// Unit tests ensure invariants like "wrapped domain errors preserve original code"
// and "errors.Is matches by code" are maintained.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeNotFound, Message: "property not found"}
		s.Equal("property not found", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodeQuotaExceeded}
		s.Equal("quota_exceeded", err.Error())
	})
}

func (s *DomainErrorsSuite) TestUnwrap() {
	s.Run("returns wrapped error", func() {
		inner := errors.New("record store unavailable")
		err := &Error{Code: CodeInternal, Message: "service error", Err: inner}
		s.Equal(inner, err.Unwrap())
	})

	s.Run("returns nil when no wrapped error", func() {
		err := &Error{Code: CodeNotFound, Message: "not found"}
		s.Nil(err.Unwrap())
	})
}

func (s *DomainErrorsSuite) TestIsMatching() {
	s.Run("matches by code only", func() {
		err1 := &Error{Code: CodeForbidden, Message: "cross-tenant access"}
		err2 := &Error{Code: CodeForbidden, Message: "role not permitted"}
		s.True(err1.Is(err2))
	})

	s.Run("does not match different codes", func() {
		err1 := &Error{Code: CodeNotFound}
		err2 := &Error{Code: CodeInvalidStateTransition}
		s.False(err1.Is(err2))
	})
}

func (s *DomainErrorsSuite) TestWrapPreservesCode() {
	inner := New(CodeQuotaExceeded, "maxProperties reached")
	wrapped := Wrap(inner, CodeInternal, "create aborted")

	s.True(HasCode(wrapped, CodeQuotaExceeded))
	s.False(HasCode(wrapped, CodeInternal))
	s.Equal("create aborted", wrapped.Error())
}

func (s *DomainErrorsSuite) TestHasCode() {
	s.Run("plain errors carry no code", func() {
		s.False(HasCode(errors.New("boom"), CodeInternal))
	})

	s.Run("nil error carries no code", func() {
		s.False(HasCode(nil, CodeNotFound))
	})
}

func (s *DomainErrorsSuite) TestCodeOf() {
	s.Equal(CodeValidation, CodeOf(New(CodeValidation, "missing reason")))
	s.Equal(CodeInternal, CodeOf(errors.New("uncoded")))
}
