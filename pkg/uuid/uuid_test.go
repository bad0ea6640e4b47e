// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package uuid_test

import (
	"testing"

	googleuuid "github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RolldeoDev/Helixio-sub007/pkg/uuid"
)

func TestNew(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	assert.NotEqual(t, first, second)

	parsed, err := googleuuid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, googleuuid.Version(7), parsed.Version())
	assert.Equal(t, parsed.String(), first)
}
