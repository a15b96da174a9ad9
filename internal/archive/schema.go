package archive

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/keepsake/internal/record"
)

// recordSchema is the import-boundary contract for candidate items.
// Imported data is untrusted: it may come from an older client, a foreign
// device, or a hand-edited file. An asset without a remote reference or a
// file name is unusable, so those fields are required; the legacy checksum
// and timestamp stay optional since older exports may not carry them.
const recordSchema = `
#Asset: {
	id:                  string & !=""
	primary_hash:        string & !=""
	secondary_checksum?: string
	degraded_hash?:      bool
	remote_ref:          string & !=""
	size:                int & >=0
	file_name:           string & !=""
	annotation?:         string
	created_at?:         string
}

#HistoryItem: {
	id:         string & !=""
	kind:       "upload" | "query"
	payload: {
		link?:     string
		query_id?: string
		ext:       string
		ts:        string
	}
	created_at: string
}
`

// validator checks candidate import items against the record schema.
type validator struct {
	ctx     *cue.Context
	asset   cue.Value
	history cue.Value
}

func newValidator() (*validator, error) {
	cctx := cuecontext.New()

	schema := cctx.CompileString(recordSchema)
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	asset := schema.LookupPath(cue.ParsePath("#Asset"))
	if err := asset.Err(); err != nil {
		return nil, fmt.Errorf("lookup #Asset: %w", err)
	}
	history := schema.LookupPath(cue.ParsePath("#HistoryItem"))
	if err := history.Err(); err != nil {
		return nil, fmt.Errorf("lookup #HistoryItem: %w", err)
	}

	return &validator{ctx: cctx, asset: asset, history: history}, nil
}

// validate checks one candidate item (raw JSON) against the schema for its
// kind. A non-nil error means the item must be dropped from the merge.
func (v *validator) validate(kind record.Kind, itemJSON []byte) error {
	val := v.ctx.CompileBytes(itemJSON)
	if err := val.Err(); err != nil {
		return fmt.Errorf("parse item: %w", err)
	}

	schema := v.asset
	if kind == record.KindHistory {
		schema = v.history
	}

	unified := schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return fmt.Errorf("item does not satisfy %s schema: %w", kind, err)
	}
	return nil
}
