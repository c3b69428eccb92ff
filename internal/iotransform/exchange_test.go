package iotransform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/assaykit/assaydb/pkg/tabular"
)

func TestExchangeCreateRunInfoArtifact(t *testing.T) {
	dir := t.TempDir()
	ex := NewExchange()

	rows := tabular.New(
		tabular.Column{Name: "SpecimenID"},
		tabular.Column{Name: "Titer", Kind: tabular.Numeric},
	)
	rows.Append(tabular.Row{"SP-1", "42"})

	run := &assay.Run{
		Name:       "plate-7",
		OutputData: []*assay.Data{{Name: "results", Rows: rows}},
	}
	params := assay.ScriptParams{
		WorkDir:       dir,
		BaseServerURL: "http://localhost:8080",
		SessionID:     "session-1",
		Container:     "/assays",
	}

	infoPath, related, err := ex.CreateRunInfoArtifact(
		dir, run,
		assay.PropertyMap{"Lab": "CPL"},
		assay.PropertyMap{"Operator": "jdoe"},
		params)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, runInfoFile), infoPath)

	info, err := readProps(infoPath)
	require.NoError(t, err)
	assert.Equal(t, "plate-7", info["runName"])
	assert.Equal(t, "/assays", info["containerPath"])
	assert.Equal(t, "session-1", info["sessionId"])
	assert.Equal(t, "jdoe", info["Operator"],
		"run properties belong in the run info file")
	assert.Equal(t, filepath.Join(dir, runDataFile), info["runDataFile"])

	batch, err := readProps(filepath.Join(dir, batchInfoFile))
	require.NoError(t, err)
	assert.Equal(t, "CPL", batch["Lab"])

	// Data and batch files are reported as related artifacts.
	assert.Contains(t, related, filepath.Join(dir, runDataFile))
	assert.Contains(t, related, filepath.Join(dir, batchInfoFile))

	raw, err := os.ReadFile(filepath.Join(dir, runDataFile))
	require.NoError(t, err)
	assert.Equal(t, "SpecimenID\tTiter\nSP-1\t42\n", string(raw))
}

func TestExchangeProcessScriptOutput(t *testing.T) {
	ex := NewExchange()
	run := &assay.Run{Name: "r"}

	t.Run("no files means no overrides", func(t *testing.T) {
		res, err := ex.ProcessScriptOutput(t.TempDir(), run)
		require.NoError(t, err)
		assert.True(t, res.Empty())
		assert.Nil(t, res.BatchProperties)
		assert.Nil(t, res.RunProperties)
	})

	t.Run("transformed properties are read back", func(t *testing.T) {
		dir := t.TempDir()
		content := "QCStatus\tpassed\n  Operator \t jdoe \n"
		require.NoError(t, os.WriteFile(
			filepath.Join(dir, transformedRun), []byte(content), 0644))

		res, err := ex.ProcessScriptOutput(dir, run)
		require.NoError(t, err)
		assert.Equal(t, assay.PropertyMap{
			"QCStatus": "passed",
			"Operator": "jdoe",
		}, res.RunProperties)
	})

	t.Run("transformed rows replace run data", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(
			filepath.Join(dir, transformedTab),
			[]byte("SpecimenID\tTiter\nSP-9\t7\n"), 0644))

		res, err := ex.ProcessScriptOutput(dir, run)
		require.NoError(t, err)
		require.NotNil(t, res.Rows)
		require.Len(t, res.Rows.Rows, 1)
		assert.Equal(t, "SP-9", res.Rows.CellString(0, "SpecimenID"))
	})

	t.Run("relative output files resolve against the work dir",
		func(t *testing.T) {
			dir := t.TempDir()
			list := "qc-report.pdf\n\n/tmp/absolute.txt\n"
			require.NoError(t, os.WriteFile(
				filepath.Join(dir, outputListFile), []byte(list), 0644))

			res, err := ex.ProcessScriptOutput(dir, run)
			require.NoError(t, err)
			assert.Equal(t, []string{
				filepath.Join(dir, "qc-report.pdf"),
				"/tmp/absolute.txt",
			}, res.OutputFiles)
		})

	t.Run("property line without a tab is an error", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(
			filepath.Join(dir, transformedRun),
			[]byte("QCStatus passed\n"), 0644))

		_, err := ex.ProcessScriptOutput(dir, run)
		require.Error(t, err)
	})
}
