// Package seed loads fixture data from YAML. Re-running a file is a no-op
// for rows that already exist.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	authsvc "stablebricks-backend/internal/application/auth"
	projectsvc "stablebricks-backend/internal/application/projects"
	usersvc "stablebricks-backend/internal/application/user"
	"stablebricks-backend/internal/domain"
	"stablebricks-backend/internal/pkg/constants"
	"stablebricks-backend/internal/pkg/validation"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type File struct {
	Admin    *Admin    `yaml:"admin"`
	Projects []Project `yaml:"projects"`
}

type Admin struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type Project struct {
	Name               string          `yaml:"name"`
	Description        string          `yaml:"description"`
	Location           string          `yaml:"location"`
	ImageURL           string          `yaml:"image_url"`
	InvestmentRequired decimal.Decimal `yaml:"investment_required"`
	SharePrice         decimal.Decimal `yaml:"share_price"`
	ExpectedReturn     decimal.Decimal `yaml:"expected_return"`
	Status             string          `yaml:"status"`
}

// Result counts what a run created and what it skipped.
type Result struct {
	AdminCreated    bool
	ProjectsCreated int
	ProjectsSkipped int
}

func Parse(data []byte) (File, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return File{}, errors.New("seed: file is empty")
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("seed: decode: %w", err)
	}
	return f, nil
}

func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("seed: read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Apply creates the admin and projects that do not exist yet. Admins match on
// email, projects on name.
func Apply(ctx context.Context, db *gorm.DB, f File) (Result, error) {
	var res Result
	actor := authsvc.Principal{Role: constants.RoleAdmin}

	if f.Admin != nil {
		u, created, err := ensureAdmin(ctx, db, *f.Admin)
		if err != nil {
			return res, err
		}
		res.AdminCreated = created
		actor = authsvc.Principal{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
	}

	projects := &projectsvc.Service{DB: db}
	for _, p := range f.Projects {
		name := strings.TrimSpace(p.Name)
		var n int64
		if err := db.WithContext(ctx).Model(&domain.Project{}).Where("name = ?", name).Count(&n).Error; err != nil {
			return res, err
		}
		if n > 0 {
			res.ProjectsSkipped++
			continue
		}
		in := projectsvc.CreateInput{
			Name:               name,
			Description:        p.Description,
			Location:           p.Location,
			ImageURL:           p.ImageURL,
			InvestmentRequired: p.InvestmentRequired,
			SharePrice:         p.SharePrice,
			ExpectedReturn:     p.ExpectedReturn,
			Status:             p.Status,
		}
		if _, err := projects.Create(ctx, actor, in); err != nil {
			return res, fmt.Errorf("seed: project %q: %w", name, err)
		}
		res.ProjectsCreated++
	}
	log.Info().Bool("admin_created", res.AdminCreated).Int("projects_created", res.ProjectsCreated).
		Int("projects_skipped", res.ProjectsSkipped).Msg("seed applied")
	return res, nil
}

func ensureAdmin(ctx context.Context, db *gorm.DB, a Admin) (*domain.User, bool, error) {
	email := validation.NormalizeEmail(a.Email)
	var existing domain.User
	err := db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	users := &usersvc.Service{DB: db}
	u, err := users.Register(ctx, usersvc.RegisterInput{Name: a.Name, Email: email, Password: a.Password})
	if err != nil {
		return nil, false, fmt.Errorf("seed: admin: %w", err)
	}
	u, err = users.ChangeRole(ctx, authsvc.Principal{Role: constants.RoleAdmin}, u.ID, constants.RoleAdmin)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}
