// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package tinyorm_test

import (
	. "gopkg.in/check.v1"

	"github.com/canonical/tinyorm"
)

type NullableSuite struct{}

var _ = Suite(&NullableSuite{})

func (s *NullableSuite) TestZeroValueIsEmpty(c *C) {
	var n tinyorm.Nullable[int]
	c.Check(n.HasValue(), Equals, false)
	c.Check(n.IsNull(), Equals, true)
	c.Check(n.ValueOr(4), Equals, 4)
	c.Check(n.String(), Equals, "null")
	c.Check(n, Equals, tinyorm.Null[int]())
	c.Check(func() { n.Value() }, PanicMatches, "tinyorm: Value called on empty Nullable")
}

func (s *NullableSuite) TestSetAndClear(c *C) {
	n := tinyorm.NewNullable("a")
	c.Check(n.HasValue(), Equals, true)
	c.Check(n.Value(), Equals, "a")
	c.Check(n.String(), Equals, "a")

	n.Set("")
	c.Check(n.HasValue(), Equals, true)
	c.Check(n.Value(), Equals, "")

	n.Clear()
	c.Check(n.IsNull(), Equals, true)
	c.Check(n.ValueOr("b"), Equals, "b")
}

func (s *NullableSuite) TestValueSemantics(c *C) {
	n := tinyorm.NewNullable(1)
	m := n
	m.Set(2)
	c.Check(n.Value(), Equals, 1)
	m.Clear()
	c.Check(n.HasValue(), Equals, true)
}

func (s *NullableSuite) TestEquality(c *C) {
	values := []tinyorm.Nullable[float64]{
		tinyorm.Null[float64](),
		{},
		tinyorm.NewNullable(0.0),
		tinyorm.NewNullable(0.0),
		tinyorm.NewNullable(1.5),
	}
	for _, a := range values {
		c.Check(a.Equal(a), Equals, true)
		for _, b := range values {
			c.Check(a.Equal(b), Equals, b.Equal(a))
			same := a.IsNull() && b.IsNull() || a.HasValue() && b.HasValue() && a.Value() == b.Value()
			c.Check(a.Equal(b), Equals, same)
		}
	}

	c.Check(tinyorm.NewNullable(3).EqualValue(3), Equals, true)
	c.Check(tinyorm.NewNullable(3).EqualValue(4), Equals, false)
	c.Check(tinyorm.Null[int]().EqualValue(0), Equals, false)
	c.Check(tinyorm.Null[int]().Equal(tinyorm.Null[int]()), Equals, true)
}
