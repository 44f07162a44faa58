// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: MPL-2.0

package strutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrListContains(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	registered := []string{"https://rp.example.com/cb", "http://localhost:8080/login"}
	assert.True(StrListContains(registered, "http://localhost:8080/login"))
	assert.False(StrListContains(registered, "https://rp.example.com/cb/"))
	assert.False(StrListContains(nil, ""))
}

func TestRemoveDuplicatesStable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name            string
		items           []string
		caseInsensitive bool
		want            []string
	}{
		{name: "empty", items: []string{}, want: []string{}},
		{name: "nil", items: nil, caseInsensitive: true, want: []string{}},
		{name: "scopes", items: []string{"openid", "email", "openid", "profile"}, want: []string{"openid", "email", "profile"}},
		{name: "case-sensitive", items: []string{"Email", "email"}, want: []string{"Email", "email"}},
		{name: "case-insensitive", items: []string{"Email", "email"}, caseInsensitive: true, want: []string{"Email"}},
		{name: "blank", items: []string{" ", "openid", ""}, want: []string{"openid"}},
		{name: "trimmed", items: []string{"openid ", " openid", "email"}, want: []string{"openid ", "email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, RemoveDuplicatesStable(tt.items, tt.caseInsensitive))
		})
	}
}
