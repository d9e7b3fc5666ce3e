package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{LoadStatusPending, LoadStatusAssigned, true},
		{LoadStatusPending, LoadStatusCancelled, true},
		{LoadStatusPending, LoadStatusDelivered, false},
		{LoadStatusAssigned, LoadStatusEnRoutePickup, true},
		{LoadStatusEnRoutePickup, LoadStatusAtPickup, true},
		{LoadStatusAtPickup, LoadStatusLoaded, true},
		{LoadStatusLoaded, LoadStatusEnRouteDelivery, true},
		{LoadStatusEnRouteDelivery, LoadStatusAtDelivery, true},
		{LoadStatusAtDelivery, LoadStatusDelivered, true},
		{LoadStatusDelivered, LoadStatusCompleted, true},
		{LoadStatusAssigned, LoadStatusLoaded, false},
		{LoadStatusLoaded, LoadStatusAtPickup, false},
		{LoadStatusDelivered, LoadStatusCancelled, false},
		{LoadStatusCompleted, LoadStatusCancelled, false},
		{LoadStatusCancelled, LoadStatusPending, false},
		{LoadStatusEnRouteDelivery, LoadStatusCancelled, true},
		{"bogus", LoadStatusAssigned, false},
		{LoadStatusPending, "bogus", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestCanTransition_NoTerminalEscapes(t *testing.T) {
	all := []string{
		LoadStatusPending, LoadStatusAssigned, LoadStatusEnRoutePickup,
		LoadStatusAtPickup, LoadStatusLoaded, LoadStatusEnRouteDelivery,
		LoadStatusAtDelivery, LoadStatusDelivered, LoadStatusCompleted,
		LoadStatusCancelled,
	}
	for _, to := range all {
		assert.False(t, CanTransition(LoadStatusCompleted, to), "completed must be terminal")
		assert.False(t, CanTransition(LoadStatusCancelled, to), "cancelled must be terminal")
	}
}
