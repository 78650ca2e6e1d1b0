package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeSizeMismatch, "size mismatch")
	suite.NotNil(err)
	suite.Equal(ErrCodeSizeMismatch, err.Code)
	suite.Equal("size mismatch", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeOutOfRange, "lag %d exceeds window", 3)
	suite.Equal(ErrCodeOutOfRange, err.Code)
	suite.Equal("lag 3 exceeds window", err.Message)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeQueryFailed, "query failed", cause)
	suite.Equal(ErrCodeQueryFailed, err.Code)
	suite.Equal(cause, err.Cause)
	suite.Equal(cause, err.Unwrap())
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("underlying error")
	err := Wrapf(ErrCodeDataFetchFailed, cause, "fetch failed for %s", "AAPL")
	suite.Equal("fetch failed for AAPL", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal("[100] invalid parameter", err.Error())

	wrapped := Wrap(ErrCodeDataUnavailable, "no data", errors.New("empty"))
	suite.Equal("[400] no data: empty", wrapped.Error())
}

func (suite *ErrorTestSuite) TestGetCode() {
	suite.Equal(ErrCodeUnsortedTarget, GetCode(New(ErrCodeUnsortedTarget, "unsorted")))
	suite.Equal(ErrCodeUnknown, GetCode(errors.New("standard error")))

	// The outermost code wins
	err := Wrap(ErrCodeResampleFailed, "resample", New(ErrCodeInvalidStrategy, "bad strategy"))
	suite.Equal(ErrCodeResampleFailed, GetCode(err))
}

func (suite *ErrorTestSuite) TestHasCode() {
	err := New(ErrCodeEmptySeries, "empty")
	suite.True(HasCode(err, ErrCodeEmptySeries))
	suite.False(HasCode(err, ErrCodeOutOfRange))
}

func (suite *ErrorTestSuite) TestIsAndAs() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataParseFailed, "parse", cause)
	suite.True(Is(err, cause))

	var target *Error
	suite.True(As(err, &target))
	suite.Equal(ErrCodeDataParseFailed, target.Code)
}

func (suite *ErrorTestSuite) TestLengthMismatchError() {
	err := NewLengthMismatchError(2, 3)
	suite.Equal(ErrCodeLengthMismatch, err.Code)
	suite.Equal(-1, err.Position)
	suite.Contains(err.Error(), "size mismatch")
	suite.True(IsAlignmentError(err))
	suite.True(HasCode(err, ErrCodeLengthMismatch))
}

func (suite *ErrorTestSuite) TestTimestampMismatchError() {
	err := NewTimestampMismatchError(2, 1, 200, 201)
	suite.Equal(ErrCodeTimestampMismatch, err.Code)
	suite.Equal(1, err.Position)
	suite.Contains(err.Error(), "timestamp mismatch")

	wrapped := fmt.Errorf("add: %w", err)
	suite.True(IsAlignmentError(wrapped))
	suite.Equal(ErrCodeTimestampMismatch, GetCode(wrapped))
	suite.False(IsAlignmentError(New(ErrCodeOutOfRange, "range")))
}

func (suite *ErrorTestSuite) TestErrorCodeValues() {
	suite.Equal(ErrorCode(1), ErrCodeUnknown)
	suite.Equal(ErrorCode(100), ErrCodeInvalidParameter)
	suite.Equal(ErrorCode(200), ErrCodeLengthMismatch)
	suite.Equal(ErrorCode(300), ErrCodeResampleFailed)
	suite.Equal(ErrorCode(400), ErrCodeDataUnavailable)
}
