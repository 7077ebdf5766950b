package config

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ContextTestSuite struct {
	suite.Suite
}

func TestContextSuite(t *testing.T) {
	suite.Run(t, new(ContextTestSuite))
}

func (suite *ContextTestSuite) TestGettersWithDefaults() {
	ctx := NewContext(map[string]any{
		"entry_period":    55,
		"score_threshold": 2.0,
		"use_atr_stop":    true,
		"note":            "swing",
	})

	suite.Equal(55, ctx.Int("entry_period", 20))
	suite.Equal(10, ctx.Int("exit_period", 10))
	suite.Equal(2.0, ctx.Float("score_threshold", 1.0))
	suite.Equal(2.0, ctx.Float("stop_loss_atr", 2.0))
	suite.True(ctx.Bool("use_atr_stop", false))
	suite.False(ctx.Bool("size_rounding", false))
	suite.Equal("swing", ctx.String("note", ""))
}

func (suite *ContextTestSuite) TestNumericCoercion() {
	ctx := NewContext(map[string]any{
		"entry_period": float64(30),
		"rs_weight":    int(1),
		"atr_period":   int64(25),
	})

	suite.Equal(30, ctx.Int("entry_period", 20))
	suite.Equal(1.0, ctx.Float("rs_weight", 0))
	suite.Equal(25, ctx.Int("atr_period", 20))
}

func (suite *ContextTestSuite) TestWithDoesNotMutateOriginal() {
	ctx := NewContext(map[string]any{"entry_period": 20})
	derived := ctx.With("entry_period", 55)

	suite.Equal(20, ctx.Int("entry_period", 0))
	suite.Equal(55, derived.Int("entry_period", 0))
}

func (suite *ContextTestSuite) TestNewContextCopiesInput() {
	params := map[string]any{"entry_period": 20}
	ctx := NewContext(params)
	params["entry_period"] = 99

	suite.Equal(20, ctx.Int("entry_period", 0))
}

func (suite *ContextTestSuite) TestKeysSorted() {
	ctx := NewContext(map[string]any{"b": 1, "a": 2, "c": 3})
	suite.Equal([]string{"a", "b", "c"}, ctx.Keys())
}
