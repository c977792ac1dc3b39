package main

import (
	"fmt"
	"os"

	auditmodels "store_audit/internal/api/audit/models"

	"gopkg.in/yaml.v3"
)

// kpiFile is the YAML layout of a KPI tree fixture.
type kpiFile struct {
	Kpis []auditmodels.KpiDefinition `yaml:"kpis"`
}

// catalogFile is the YAML layout of a SKU catalog fixture.
type catalogFile struct {
	Skus []auditmodels.Sku `yaml:"skus"`
}

func readYAML(path string, out interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadKpis(path string) ([]auditmodels.KpiDefinition, error) {
	var f kpiFile
	if err := readYAML(path, &f); err != nil {
		return nil, err
	}
	if len(f.Kpis) == 0 {
		return nil, fmt.Errorf("%s: no kpis defined", path)
	}
	return f.Kpis, nil
}

func loadSurvey(path string) (*auditmodels.Survey, error) {
	var s auditmodels.Survey
	if err := readYAML(path, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func loadCatalog(path string) ([]auditmodels.Sku, error) {
	var f catalogFile
	if err := readYAML(path, &f); err != nil {
		return nil, err
	}
	return f.Skus, nil
}
