package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"cardiai/artifacts"
	"cardiai/db"
	"cardiai/logging"
	"cardiai/ml"
	"cardiai/monitoring"
	"cardiai/pipeline"
	"cardiai/predictor"
)

func main() {
	dir := flag.String("dir", "./models", "artifact directory")
	registryPath := flag.String("registry", "", "SQLite artifact registry path")
	importFiles := flag.Bool("import", false, "copy the artifact files from -dir into -registry")
	version := flag.String("version", "", "version recorded on import (default: model metadata version)")
	flag.Parse()

	logger, err := logging.New(logging.Config{Level: "warn", Format: "console"})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	var registry *db.Registry
	if *registryPath != "" {
		registry, err = db.OpenRegistry(*registryPath)
		if err != nil {
			log.Fatalf("failed to open registry: %v", err)
		}
		defer registry.Close()
	}

	dirSource := artifacts.NewDirSource(*dir, artifacts.Files{})
	var source artifacts.Source = dirSource
	if *importFiles {
		if registry == nil {
			log.Fatal("-import requires -registry")
		}
		if err := importArtifacts(registry, dirSource, *version); err != nil {
			log.Fatalf("import failed: %v", err)
		}
	}
	if registry != nil {
		source = artifacts.NewRegistrySource(registry, *registryPath)
	}

	set, err := artifacts.Load(source, logger)
	if err != nil {
		log.Fatalf("failed to load artifacts: %v", err)
	}

	printJSON("artifacts", set.Describe())

	if registry != nil {
		records, err := registry.ListArtifacts()
		if err != nil {
			log.Fatalf("failed to list registry: %v", err)
		}
		for _, rec := range records {
			fmt.Printf("registry: %-8s version=%-10s size=%-8d created=%s\n",
				rec.Name, rec.Version, rec.Size, rec.CreatedAt.Format("2006-01-02 15:04:05"))
		}
	}

	assembler, err := pipeline.NewAssembler(set.Schema())
	if err != nil {
		log.Fatalf("failed to build assembler: %v", err)
	}
	if err := assembler.Check(); err != nil {
		log.Printf("artifacts are inconsistent: %v", err)
	}

	service := predictor.NewService(set, assembler, logger, monitoring.NewPredictionMetrics())
	debug, err := service.PredictDebug(context.Background(), sampleInput())
	if err != nil {
		log.Fatalf("sample prediction failed: %v", err)
	}
	printJSON("sample prediction", debug)
}

func importArtifacts(registry *db.Registry, src *artifacts.DirSource, version string) error {
	if version == "" {
		payload, err := src.Read(artifacts.NameModel)
		if err != nil {
			return err
		}
		bundle, _, err := ml.DecodeModelBundle(payload)
		if err != nil {
			return fmt.Errorf("decode %s: %w", src.Describe(artifacts.NameModel), err)
		}
		version = bundle.Metadata.VersionOrUnknown()
	}

	for _, name := range artifacts.Names() {
		payload, err := src.Read(name)
		if err != nil {
			return err
		}
		if err := registry.SaveArtifact(name, version, payload); err != nil {
			return err
		}
		fmt.Printf("imported %s from %s as version %s\n", name, src.Describe(name), version)
	}
	return nil
}

func sampleInput() pipeline.RawInput {
	return pipeline.RawInput{
		pipeline.FieldAlcohol:           "Low",
		pipeline.FieldAge:               45,
		pipeline.FieldBloodPressure:     120.0,
		pipeline.FieldCholesterol:       180.0,
		pipeline.FieldBMI:               24.5,
		pipeline.FieldSleepHours:        7.0,
		pipeline.FieldTriglyceride:      140.0,
		pipeline.FieldFastingBloodSugar: 95.0,
		pipeline.FieldCRP:               2.0,
		pipeline.FieldHomocysteine:      10.0,
	}
}

func printJSON(title string, v interface{}) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("failed to encode %s: %v", title, err)
	}
	fmt.Printf("== %s ==\n%s\n", title, payload)
}
