package cli

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/pipeline"
	"github.com/matzehuels/flowmap/pkg/scene"
)

func testInputs(t *testing.T) (data, topology string) {
	t.Helper()
	data, err := filepath.Abs("../../testdata/migration.csv")
	if err != nil {
		t.Fatal(err)
	}
	topology, err = filepath.Abs("../../testdata/states.json")
	if err != nil {
		t.Fatal(err)
	}
	return data, topology
}

func testDataset(t *testing.T) (*pipeline.Runner, *pipeline.Dataset, pipeline.Options) {
	t.Helper()
	data, topology := testInputs(t)
	runner := pipeline.NewRunner(nil, nil, newLogger(io.Discard, LogInfo))
	opts := pipeline.Options{
		DataPath:     data,
		TopologyPath: topology,
		Simplify:     1,
		Selection:    flow.DefaultSelection(),
	}
	if err := opts.ValidateForLoad(); err != nil {
		t.Fatal(err)
	}
	ds, err := runner.Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return runner, ds, opts
}

func testScene(t *testing.T, sel flow.Selection) *scene.Scene {
	t.Helper()
	runner, ds, opts := testDataset(t)
	opts.Selection = sel
	s, err := runner.Compose(context.Background(), ds, opts)
	if err != nil {
		t.Fatalf("Compose() error: %v", err)
	}
	return s
}
