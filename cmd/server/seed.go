package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sakif/cert-tracker/internal/cache"
	"github.com/sakif/cert-tracker/internal/model"
	sqliteRepo "github.com/sakif/cert-tracker/internal/repository/sqlite"
	"github.com/sakif/cert-tracker/internal/service"
)

// catalogFile is the layout of a seed file:
//
//	certifications:
//	  - id: aws-saa
//	    name: AWS Certified Solutions Architect - Associate
//	    estimated_period: 90
//	    is_active: true
//
// is_active defaults to true when an entry leaves it out.
type catalogFile struct {
	Certifications []model.Certification `yaml:"certifications"`
}

// activeFlags reads only is_active, to tell an explicit false from a missing key.
type activeFlags struct {
	Certifications []struct {
		IsActive *bool `yaml:"is_active"`
	} `yaml:"certifications"`
}

func newSeedCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the certification catalog from a YAML file",
		Long: `seed upserts every certification in the file by id. Existing rows are
updated in place, so the command can be re-run after editing the file.
The catalog cache is invalidated when Redis is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return a.fail("opening catalog file", err)
			}
			defer f.Close()

			certs, err := loadCatalog(f)
			if err != nil {
				return a.fail("reading catalog file", err)
			}

			db, err := sqliteRepo.New(a.cfg.Database.Path)
			if err != nil {
				return a.fail("opening database", err)
			}
			defer db.Close()

			c := cache.New(cmd.Context(), cache.Options{
				Addr:     a.cfg.Redis.Addr,
				Password: a.cfg.Redis.Password,
				DB:       a.cfg.Redis.DB,
			}, a.logger)
			if closer, ok := c.(io.Closer); ok {
				defer closer.Close()
			}

			n, err := service.NewCatalogService(db, c, a.logger).Seed(cmd.Context(), certs)
			if err != nil {
				return a.fail("seeding catalog", err)
			}
			a.logger.Info("catalog loaded", slog.String("file", file), slog.Int("certifications", n))
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d certifications\n", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "configs/catalog.yaml", "catalog YAML file")
	return cmd
}

// loadCatalog decodes a seed file. Unknown keys are rejected so a typo such as
// estimated_periods is not silently dropped.
func loadCatalog(r io.Reader) ([]model.Certification, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file catalogFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catalog file is empty")
		}
		return nil, fmt.Errorf("decoding YAML: %w", err)
	}
	if len(file.Certifications) == 0 {
		return nil, errors.New("catalog file lists no certifications")
	}

	var flags activeFlags
	if err := yaml.Unmarshal(data, &flags); err != nil {
		return nil, fmt.Errorf("decoding YAML: %w", err)
	}
	for i, f := range flags.Certifications {
		if f.IsActive == nil {
			file.Certifications[i].IsActive = true
		}
	}
	return file.Certifications, nil
}
