package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "araes", Key("  Araés "))
	assert.Equal(t, "jardim das americas", Key("Jardim   das Américas"))
	assert.Equal(t, "bosque da saude", Key("BOSQUE DA SAÚDE"))
	assert.Equal(t, "", Key("   "))
}

func TestRepairMojibake(t *testing.T) {
	assert.Equal(t, "Araés", RepairMojibake("AraÃ©s"))
	assert.Equal(t, "Araés", RepairMojibake("Araés"))
	assert.Equal(t, "Centro", RepairMojibake("Centro"))
	assert.Equal(t, "araes", Key("AraÃ©s"))
}
