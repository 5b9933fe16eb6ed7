package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/dramatis/pkg/catalog"
	"github.com/OFFIS-RIT/dramatis/pkg/common"
	"github.com/OFFIS-RIT/dramatis/pkg/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `
records:
  - kind: work
    payload:
      name: Hamlet
      year: 1600
      writingCredits:
        - entities:
            - {model: PERSON, name: William Shakespeare}
  - kind: venues
    payload:
      name: Globe
      subVenues:
        - name: Studio
  - kind: awardCeremony
    payload:
      name: "2020"
      award: {name: Prize}
      categories:
        - name: Best Play
          nominations:
            - isWinner: true
              works: [{name: Hamlet}]
`

func TestLoadSeed(t *testing.T) {
	payloads, err := loadSeed(strings.NewReader(fixture))
	require.NoError(t, err)
	require.Len(t, payloads, 3)

	w := payloads[0].(*common.WorkPayload)
	assert.Equal(t, common.IntOf(1600), w.Year)
	assert.Equal(t, "William Shakespeare", w.WritingCredits[0].Entities[0].Name)
	assert.Equal(t, common.KindVenue, payloads[1].Kind())
	c := payloads[2].(*common.AwardCeremonyPayload)
	assert.True(t, c.Categories[0].Nominations[0].IsWinner)

	_, err = loadSeed(strings.NewReader("records:\n  - kind: play\n    payload: {name: x}\n"))
	assert.ErrorContains(t, err, "unknown kind")
}

func TestApplySeedStopsAtRejectedRecord(t *testing.T) {
	svc := catalog.New(storetest.Open(t, nil))
	payloads, err := loadSeed(strings.NewReader(fixture + `
  - kind: person
    payload: {name: ""}
`))
	require.NoError(t, err)

	ids, err := applySeed(context.Background(), svc, payloads)
	assert.Len(t, ids, 3)
	assert.ErrorContains(t, err, "record 3 (person)")
	assert.ErrorContains(t, err, "Value is too short")
}

func TestSeedAndListCommands(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte(fixture), 0o600))
	dbFlags := []string{"--store", "sqlite", "--sqlite-path", filepath.Join(dir, "graph.db")}

	run := func(args ...string) []byte {
		t.Helper()
		cmd := newRootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(append(args, dbFlags...))
		require.NoError(t, cmd.ExecuteContext(context.Background()))
		return out.Bytes()
	}

	var seeded struct {
		Created int      `json:"created"`
		IDs     []string `json:"ids"`
	}
	require.NoError(t, json.Unmarshal(run("seed", seedPath), &seeded))
	assert.Equal(t, 3, seeded.Created)

	var venues []map[string]any
	require.NoError(t, json.Unmarshal(run("list", "venues"), &venues))
	assert.Len(t, venues, 2)

	var show map[string]any
	require.NoError(t, json.Unmarshal(run("show", "work", seeded.IDs[0]), &show))
	assert.Equal(t, "Hamlet", show["name"])

	var won []map[string]any
	require.NoError(t, json.Unmarshal(run("awards", "work", seeded.IDs[0], "--view", "direct"), &won))
	require.Len(t, won, 1)
	assert.Equal(t, "Prize", won[0]["name"])
}
