package projection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/store"
)

// Payload reads node back into the payload shape accepted by create and
// update.
func (b *Builder) Payload(ctx context.Context, node store.Node) (common.Payload, error) {
	switch node.Label {
	case common.LabelWork:
		return b.workPayload(ctx, node)
	case common.LabelStaging:
		return b.stagingPayload(ctx, node)
	case common.LabelVenue:
		return b.venuePayload(ctx, node)
	case common.LabelPerson:
		return &common.PersonPayload{Name: node.Name, Differentiator: node.Differentiator}, nil
	case common.LabelCompany:
		return &common.CompanyPayload{Name: node.Name, Differentiator: node.Differentiator}, nil
	case common.LabelCharacter:
		return &common.CharacterPayload{Name: node.Name, Differentiator: node.Differentiator}, nil
	case common.LabelAward:
		return &common.AwardPayload{Name: node.Name, Differentiator: node.Differentiator}, nil
	case common.LabelAwardCeremony:
		return b.ceremonyPayload(ctx, node)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedLabel, node.Label)
}

// EditView is a payload tagged with the record it belongs to. It encodes as
// the payload fields plus model and id.
type EditView struct {
	Model   common.Label
	ID      string
	Payload common.Payload
}

func EditShape(label common.Label, id string, payload common.Payload) EditView {
	return EditView{Model: label, ID: id, Payload: payload}
}

func (v EditView) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(v.Payload)
	if err != nil {
		return nil, err
	}
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out["model"], err = json.Marshal(v.Model); err != nil {
		return nil, err
	}
	if out["id"], err = json.Marshal(v.ID); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}
