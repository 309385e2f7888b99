// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package uuid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/yomira-studio/pkg/uuid"
)

func TestNew_TimeOrdered(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	assert.True(t, uuid.Valid(first))
	assert.Equal(t, byte('7'), first[14])
	assert.LessOrEqual(t, first[:13], second[:13])
}

func TestValid(t *testing.T) {
	assert.True(t, uuid.Valid("0190f5a2-7c3e-7b1a-9d2e-5a1c00000002"))
	assert.False(t, uuid.Valid("0190f5a27c3e7b1a9d2e5a1c00000002"))
	assert.False(t, uuid.Valid("u-alice"))
	assert.False(t, uuid.Valid(""))
}
