package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	yaml "go.yaml.in/yaml/v4"

	"leadtrack/internal/domain/tracking"
)

type seedFile struct {
	Employees []tracking.Employee `yaml:"employees"`
}

// EmployeeRegistrar is the part of the tracking service seeding needs.
type EmployeeRegistrar interface {
	RegisterEmployee(ctx context.Context, emp tracking.Employee) (tracking.Employee, error)
}

// LoadSeed reads an employees YAML document:
//
//	employees:
//	  - {id: emp-1, name: Ada, email: ada@example.com, role: EMPLOYEE}
func LoadSeed(path string) ([]tracking.Employee, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var doc seedFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return doc.Employees, nil
}

// Seed registers every employee; existing ids are overwritten.
func Seed(ctx context.Context, registrar EmployeeRegistrar, employees []tracking.Employee) (int, error) {
	for i, emp := range employees {
		saved, err := registrar.RegisterEmployee(ctx, emp)
		if err != nil {
			return i, fmt.Errorf("seed employee %d (%s): %w", i, emp.ID, err)
		}
		slog.Info("employee seeded", "id", saved.ID, "role", saved.Role)
	}
	return len(employees), nil
}
