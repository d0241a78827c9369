package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "SAO PAULO", Fold("  São   Paulo "))
	assert.Equal(t, "POCOS DE CALDAS", Fold("Poços de Caldas"))
	assert.Equal(t, "", Fold("   "))
}
