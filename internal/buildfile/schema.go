package buildfile

import (
	"github.com/hashicorp/hcl/v2"
)

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "target", LabelNames: []string{"name"}},
	},
}

// targetBody is the decoded body of a target block. Attributes stay
// expressions so they are evaluated with the package's EvalContext and
// keep their source ranges for error reporting.
type targetBody struct {
	Inputs  hcl.Expression `hcl:"inputs,optional"`
	Outputs hcl.Expression `hcl:"outputs,optional"`
	Deps    hcl.Expression `hcl:"deps,optional"`
	Command hcl.Expression `hcl:"command,optional"`
}
