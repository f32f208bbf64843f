package devserver

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/wfh-portal/pkg/db"
)

//go:embed seed.yaml
var defaultSeed []byte

// SeedEmployee is one account in a seed file
type SeedEmployee struct {
	StaffID          int    `yaml:"staffId" validate:"required,gt=0"`
	Name             string `yaml:"name" validate:"required"`
	Email            string `yaml:"email" validate:"required,email"`
	Position         string `yaml:"position" validate:"required"`
	Department       string `yaml:"department" validate:"required"`
	ReportingManager int    `yaml:"reportingManager" validate:"min=0"`
	Password         string `yaml:"password" validate:"required"`
}

// SeedData is the content of a seed file
type SeedData struct {
	Employees []SeedEmployee `yaml:"employees" validate:"dive"`
}

// LoadSeed reads a seed file. An empty path returns the built-in accounts.
func LoadSeed(path string) (*SeedData, error) {
	data := defaultSeed
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
	}

	var seed SeedData
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &seed, nil
}

// Seed creates the seed accounts that do not exist yet. Existing employees are
// left alone so reassignments survive restarts.
func (h *Handler) Seed(ctx context.Context, seed *SeedData) (int, error) {
	if err := h.validate.Struct(seed); err != nil {
		return 0, fmt.Errorf("invalid seed data: %s", h.validationMessage(err))
	}

	var created []SeedEmployee
	for _, s := range seed.Employees {
		_, err := h.store.GetEmployee(ctx, s.StaffID)
		if err == nil {
			continue
		}
		if !errors.Is(err, db.ErrNotFound) {
			return 0, fmt.Errorf("failed to look up employee %d: %w", s.StaffID, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), bcrypt.DefaultCost)
		if err != nil {
			return 0, fmt.Errorf("failed to hash password for %d: %w", s.StaffID, err)
		}
		// Managers are linked in a second pass so file order does not matter
		if err := h.store.UpsertEmployee(ctx, &db.Employee{
			StaffID:      s.StaffID,
			Name:         s.Name,
			Email:        s.Email,
			Position:     s.Position,
			Department:   s.Department,
			PasswordHash: string(hash),
		}); err != nil {
			return 0, err
		}
		created = append(created, s)
	}

	for _, s := range created {
		if s.ReportingManager == 0 {
			continue
		}
		if err := h.store.SetReportingManager(ctx, s.StaffID, s.ReportingManager); err != nil {
			return 0, fmt.Errorf("failed to link %d to manager %d: %w", s.StaffID, s.ReportingManager, err)
		}
	}

	if len(created) > 0 {
		h.logger.Info("Seeded employees", zap.Int("count", len(created)))
	}
	return len(created), nil
}
