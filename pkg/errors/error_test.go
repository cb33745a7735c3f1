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
	err := New(ErrCodeInvalidTimeframe, "invalid timeframe")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidTimeframe, err.Code)
	suite.Equal("invalid timeframe", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeInvalidTimeframe, "'%s' is not a valid timeframe", "2h")
	suite.Equal("'2h' is not a valid timeframe", err.Message)
	suite.Equal("[120] '2h' is not a valid timeframe", err.Error())
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("no such file")
	err := Wrap(ErrCodeDataFormat, "failed to open market data", cause)
	suite.Equal(ErrCodeDataFormat, err.Code)
	suite.Equal(cause, err.Unwrap())
	suite.Equal("[206] failed to open market data: no such file", err.Error())
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("bad value")
	err := Wrapf(ErrCodeDataFormat, cause, "row %d", 3)
	suite.Equal("row 3", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestUnwrapNil() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Nil(err.Unwrap())
}

func (suite *ErrorTestSuite) TestGetCode() {
	suite.Equal(ErrCodeInvalidParameter, GetCode(New(ErrCodeInvalidParameter, "x")))
	suite.Equal(ErrCodeUnknown, GetCode(errors.New("standard error")))

	// GetCode returns the outermost code
	err := Wrap(ErrCodeBacktestInitFailed, "init", New(ErrCodeDataFormat, "bad csv"))
	suite.Equal(ErrCodeBacktestInitFailed, GetCode(err))
}

func (suite *ErrorTestSuite) TestHasCodeWalksChain() {
	inner := New(ErrCodeDataFormat, "bad csv")
	err := fmt.Errorf("failed to load: %w", Wrap(ErrCodeBacktestInitFailed, "init", fmt.Errorf("ctx: %w", inner)))

	suite.True(HasCode(err, ErrCodeDataFormat))
	suite.True(HasCode(err, ErrCodeBacktestInitFailed))
	suite.False(HasCode(err, ErrCodeInvalidTimeframe))
	suite.False(HasCode(nil, ErrCodeDataFormat))
	suite.False(HasCode(errors.New("plain"), ErrCodeDataFormat))
}

func (suite *ErrorTestSuite) TestIsMatchesByCode() {
	err := fmt.Errorf("wrapped: %w", Newf(ErrCodeInvalidTimeframe, "'%s' is not a valid timeframe", "2h"))

	suite.True(errors.Is(err, New(ErrCodeInvalidTimeframe, "")))
	suite.False(errors.Is(err, New(ErrCodeDataFormat, "")))
}

func (suite *ErrorTestSuite) TestIsInvalidArgument() {
	suite.True(ErrCodeInvalidTimeframe.IsInvalidArgument())
	suite.True(ErrCodeInvalidParameter.IsInvalidArgument())
	suite.False(ErrCodeDataFormat.IsInvalidArgument())
	suite.False(ErrCodeUnknown.IsInvalidArgument())
}

func (suite *ErrorTestSuite) TestIsInvalidArgumentInChain() {
	timeframe := Newf(ErrCodeInvalidTimeframe, "'%s' is not a valid timeframe", "2h")

	suite.True(IsInvalidArgument(timeframe))
	suite.True(IsInvalidArgument(fmt.Errorf("backtest failed: %w", timeframe)))
	suite.True(IsInvalidArgument(Wrap(ErrCodeBacktestInitFailed, "failed to initialize", timeframe)))
	suite.False(IsInvalidArgument(Wrap(ErrCodeDataFormat, "failed to load", errors.New("eof"))))
	suite.False(IsInvalidArgument(errors.New("plain")))
	suite.False(IsInvalidArgument(nil))
}

func (suite *ErrorTestSuite) TestErrorCodeValues() {
	suite.Equal(ErrorCode(1), ErrCodeUnknown)
	suite.Equal(ErrorCode(100), ErrCodeInvalidParameter)
	suite.Equal(ErrorCode(200), ErrCodeDataNotFound)
	suite.Equal(ErrorCode(400), ErrCodeStrategyNotLoaded)
	suite.Equal(ErrorCode(500), ErrCodeOrderFailed)
	suite.Equal(ErrorCode(600), ErrCodeBacktestStateNil)
}

func (suite *ErrorTestSuite) TestNewInsufficientDataError() {
	err := NewInsufficientDataError(20, 5, "MICROBTCUSDT")
	suite.Equal(20, err.Required)
	suite.Equal(5, err.Actual)
	suite.Equal("MICROBTCUSDT", err.Symbol)
	suite.Equal("insufficient data for MICROBTCUSDT: need 20 observations, have 5", err.Error())
}

func (suite *ErrorTestSuite) TestIsInsufficientDataError() {
	suite.True(IsInsufficientDataError(NewInsufficientDataError(20, 10, "")))
	suite.True(IsInsufficientDataError(fmt.Errorf("wrapped: %w", NewInsufficientDataError(20, 10, ""))))
	suite.False(IsInsufficientDataError(errors.New("standard error")))
	suite.False(IsInsufficientDataError(New(ErrCodeInvalidParameter, "invalid parameter")))
	suite.False(IsInsufficientDataError(nil))
}
