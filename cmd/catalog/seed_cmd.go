package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/OFFIS-RIT/dramatis/pkg/catalog"
	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/logger"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// seedFile is the fixture format:
//
//	records:
//	  - kind: work
//	    payload:
//	      name: Hamlet
//	      writingCredits:
//	        - entities: [{model: PERSON, name: William Shakespeare}]
type seedFile struct {
	Records []seedRecord `yaml:"records"`
}

type seedRecord struct {
	Kind    string         `yaml:"kind"`
	Payload map[string]any `yaml:"payload"`
}

// loadSeed decodes a fixture into typed payloads. Payload keys follow the
// JSON field names of the API.
func loadSeed(r io.Reader) ([]common.Payload, error) {
	var f seedFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	out := make([]common.Payload, 0, len(f.Records))
	for i, rec := range f.Records {
		kind, err := parseKind(rec.Kind)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		p, err := common.NewPayload(kind)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		raw, err := json.Marshal(rec.Payload)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if err := json.Unmarshal(raw, p); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// applySeed creates the payloads in file order and stops at the first
// rejected record.
func applySeed(ctx context.Context, svc *catalog.Service, payloads []common.Payload) ([]string, error) {
	ids := make([]string, 0, len(payloads))
	for i, p := range payloads {
		view, err := svc.Create(ctx, p.Kind(), p)
		if err != nil {
			return ids, fmt.Errorf("record %d (%s): %w", i, p.Kind(), describe(err))
		}
		logger.Info("[Seed] Created", "kind", p.Kind(), "id", view.ID)
		ids = append(ids, view.ID)
	}
	return ids, nil
}

func newSeedCmd(flags *storeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Create the records listed in a YAML fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			payloads, err := loadSeed(f)
			if err != nil {
				return err
			}
			gs, svc, err := flags.open(cmd)
			if err != nil {
				return err
			}
			defer gs.Close()

			ids, err := applySeed(cmd.Context(), svc, payloads)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"created": len(ids), "ids": ids})
		},
	}
}
