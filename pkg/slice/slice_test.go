// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slice_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RolldeoDev/Helixio-sub007/pkg/slice"
)

func TestMap(t *testing.T) {
	assert.Equal(t, []string{"SAGA", "PAPER GIRLS"}, slice.Map([]string{"saga", "paper girls"}, strings.ToUpper))
	assert.Nil(t, slice.Map[string, string](nil, strings.ToUpper))
}

func TestFilter(t *testing.T) {
	years := []int{1986, 2012, 1999, 2016}
	assert.Equal(t, []int{2012, 2016}, slice.Filter(years, func(year int) bool { return year >= 2000 }))
	assert.Empty(t, slice.Filter(years, func(int) bool { return false }))
}

func TestReduce(t *testing.T) {
	issues := []int{50, 12, 1}
	assert.Equal(t, 63, slice.Reduce(issues, 0, func(total, count int) int { return total + count }))
}
