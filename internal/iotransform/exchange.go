package iotransform

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/assaykit/assaydb/internal/iotabular"
	"github.com/assaykit/assaydb/pkg/assay"
	"github.com/assaykit/assaydb/pkg/tabular"
)

// Well-known file names of the script data exchange. The pipeline
// writes the first group into the working directory before execution;
// scripts leave any of the second group behind for read-back.
const (
	runInfoFile    = "runProperties.tsv"
	batchInfoFile  = "batchProperties.tsv"
	runDataFile    = "runData.tsv"
	transformedRun = "transformedRunProperties.tsv"
	transformedBch = "transformedBatchProperties.tsv"
	transformedTab = "transformedRunData.tsv"
	outputListFile = "transformedOutputFiles.txt"
)

// exchange is the default TSV-based data exchange handler.
type exchange struct{}

// NewExchange creates the default data exchange handler.
func NewExchange() assay.DataExchangeHandler {
	return exchange{}
}

// CreateRunInfoArtifact writes the run info file plus related property
// and data files into dir and returns the run info path and the related
// files.
func (exchange) CreateRunInfoArtifact(
	dir string,
	run *assay.Run,
	batchProps, runProps assay.PropertyMap,
	params assay.ScriptParams,
) (string, []string, error) {
	var related []string

	// Standard parameters plus run properties go into the run info
	// file.
	info := assay.PropertyMap{
		"runName":       run.Name,
		"containerPath": params.Container,
		"baseUrl":       params.BaseServerURL,
		"sessionId":     params.SessionID,
		"workingDir":    params.WorkDir,
	}
	for k, v := range runProps {
		info[k] = v
	}

	dataPath := filepath.Join(dir, runDataFile)
	for _, d := range run.OutputData {
		if d.Rows != nil {
			if err := writeTable(dataPath, d.Rows); err != nil {
				return "", nil, ExchangeWriteError(dataPath, err)
			}
			info["runDataFile"] = dataPath
			related = append(related, dataPath)
			break
		}
	}

	infoPath := filepath.Join(dir, runInfoFile)
	if err := writeProps(infoPath, info); err != nil {
		return "", nil, ExchangeWriteError(infoPath, err)
	}

	batchPath := filepath.Join(dir, batchInfoFile)
	if err := writeProps(batchPath, batchProps); err != nil {
		return "", nil, ExchangeWriteError(batchPath, err)
	}
	related = append(related, batchPath)

	return infoPath, related, nil
}

// ProcessScriptOutput reads back transformed properties and data the
// script left in dir. Absent files mean "unchanged"; the result is
// empty, never nil.
func (exchange) ProcessScriptOutput(
	dir string,
	run *assay.Run,
) (*assay.TransformResult, error) {
	res := &assay.TransformResult{}

	var err error
	res.RunProperties, err = readProps(filepath.Join(dir, transformedRun))
	if err != nil {
		return nil, err
	}
	res.BatchProperties, err = readProps(filepath.Join(dir, transformedBch))
	if err != nil {
		return nil, err
	}

	tabPath := filepath.Join(dir, transformedTab)
	if _, statErr := os.Stat(tabPath); statErr == nil {
		res.Rows, err = iotabular.ReadFile(tabPath, nil)
		if err != nil {
			return nil, err
		}
	}

	listPath := filepath.Join(dir, outputListFile)
	if f, openErr := os.Open(listPath); openErr == nil {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if !filepath.IsAbs(line) {
				line = filepath.Join(dir, line)
			}
			res.OutputFiles = append(res.OutputFiles, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, ExchangeReadError(listPath, err)
		}
	}

	return res, nil
}

func writeProps(path string, props assay.PropertyMap) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for k, v := range props {
		fmt.Fprintf(w, "%s\t%s\n", k, tabular.AsString(v))
	}
	return w.Flush()
}

// readProps reads a name<TAB>value file. A missing file yields a nil
// map, meaning "no override".
func readProps(path string) (assay.PropertyMap, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ExchangeReadError(path, err)
	}
	defer f.Close()

	props := assay.PropertyMap{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, value, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, ExchangeReadError(path,
				fmt.Errorf("line without tab separator: %q", line))
		}
		props[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, ExchangeReadError(path, err)
	}
	return props, nil
}

func writeTable(path string, t *tabular.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	fmt.Fprintln(w, strings.Join(names, "\t"))
	for i := range t.Rows {
		cells := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			cells[j] = t.CellString(i, c.Name)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return w.Flush()
}
