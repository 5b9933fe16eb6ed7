package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/OFFIS-RIT/dramatis/pkg/catalog"
	"github.com/OFFIS-RIT/dramatis/pkg/common"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseKind(s string) (common.Kind, error) {
	kind, ok := common.ParseKind(s)
	if !ok {
		return "", fmt.Errorf("unknown kind %q", s)
	}
	return kind, nil
}

// describe turns validation errors into a readable multi-line error.
func describe(err error) error {
	var verr *catalog.ValidationError
	if errors.As(err, &verr) {
		return fmt.Errorf("validation failed:\n%s", verr.Errors.String())
	}
	return err
}
