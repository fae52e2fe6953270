package target

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vk/mortar/internal/label"
)

func TestNew_CopiesLabelLists(t *testing.T) {
	inputs := []label.Label{label.MustResolve(":in", "r", "p")}
	outputs := []label.Label{label.MustResolve(":out", "r", "p")}

	tgt := New(inputs, outputs)
	inputs[0] = label.MustResolve(":changed", "r", "p")

	assert.Equal(t, "in", tgt.Inputs[0].Target)
	assert.Equal(t, outputs, tgt.Outputs)
	assert.False(t, tgt.HasAction())
}

func TestTarget_ID(t *testing.T) {
	out := label.MustResolve(":lib.a", "r", "lib")
	tgt := New(nil, []label.Label{out})
	tgt.Label = label.MustResolve(":lib", "r", "lib")
	tgt.Command = []string{"ar", "rcs", "lib.a"}

	assert.True(t, tgt.HasAction())
	assert.Equal(t, "@r//lib:lib", tgt.ID())
}
