package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_HasProduct(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		id   string
		want bool
	}{
		{name: "present", ids: []string{"p1", "p2"}, id: "p2", want: true},
		{name: "absent", ids: []string{"p1"}, id: "p3"},
		{name: "no products", id: "p1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{ProductIDs: tt.ids}
			assert.Equal(t, tt.want, u.HasProduct(tt.id))
		})
	}
}
