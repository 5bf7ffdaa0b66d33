package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "assembly", Key("  Assembly "))
	assert.Equal(t, "", Key("   "))
}

func TestDenotation(t *testing.T) {
	assert.Equal(t, "AAAA.111111.001", Denotation(" AAAA.111111.001\t"))
	assert.Equal(t, "Bolt M6x20 GOST 7798", Denotation("Bolt  M6x20\n GOST 7798"))
}
