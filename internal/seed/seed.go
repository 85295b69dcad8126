// Package seed loads demo data into the database for development and testing.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"codecrew/internal/models"
	"codecrew/internal/validation"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

//go:embed data.yml
var rawData []byte

const bcryptCost = 10

// Options configures a seed run.
type Options struct {
	// Clean deletes all rows before loading.
	Clean bool
	// FakeUsers and FakeProblems add generated content on top of the fixed data.
	FakeUsers    int
	FakeProblems int
}

// Summary reports what a run inserted. Rows that already existed are not counted.
type Summary struct {
	Users           int
	Classifications int
	Problems        int
	FakeUsers       int
	FakeProblems    int
}

// Data is the shape of the embedded seed file.
type Data struct {
	Users    []UserSeed    `yaml:"users"`
	Domains  []DomainSeed  `yaml:"domains"`
	Problems []ProblemSeed `yaml:"problems"`
}

type UserSeed struct {
	Name     string   `yaml:"name"`
	Email    string   `yaml:"email"`
	Password string   `yaml:"password"`
	Roles    []string `yaml:"roles"`
	Bio      string   `yaml:"bio"`
}

// Node is one named entry of the classification tree.
type Node struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

// SlugOrDefault returns the explicit slug or one derived from the name.
func (n Node) SlugOrDefault() string {
	if n.Slug != "" {
		return n.Slug
	}
	return validation.Slugify(n.Name)
}

type DomainSeed struct {
	Node        `yaml:",inline"`
	Description string          `yaml:"description"`
	Subdomains  []SubdomainSeed `yaml:"subdomains"`
}

type SubdomainSeed struct {
	Node       `yaml:",inline"`
	Categories []CategorySeed `yaml:"categories"`
}

type CategorySeed struct {
	Node       `yaml:",inline"`
	TechStacks []TechStackSeed `yaml:"techStacks"`
}

type TechStackSeed struct {
	Node      `yaml:",inline"`
	Languages []LanguageSeed `yaml:"languages"`
}

type LanguageSeed struct {
	Node   `yaml:",inline"`
	Topics []Node `yaml:"topics"`
}

// ProblemPath locates a problem in the tree by slugs, outermost first.
type ProblemPath struct {
	Domain    string `yaml:"domain"`
	Subdomain string `yaml:"subdomain"`
	Category  string `yaml:"category"`
	TechStack string `yaml:"techStack"`
	Language  string `yaml:"language"`
	Topic     string `yaml:"topic"`
}

type ProblemSeed struct {
	Title       string      `yaml:"title"`
	Author      string      `yaml:"author"`
	Description string      `yaml:"description"`
	Severity    string      `yaml:"severity"`
	Difficulty  string      `yaml:"difficulty"`
	Canonical   bool        `yaml:"canonical"`
	Solved      bool        `yaml:"solved"`
	Upvotes     int         `yaml:"upvotes"`
	Tags        []string    `yaml:"tags"`
	Path        ProblemPath `yaml:"path"`
}

// Load parses the embedded seed file.
func Load() (*Data, error) {
	var data Data
	if err := yaml.Unmarshal(rawData, &data); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	return &data, nil
}

// Run loads the fixed demo data and, when asked, generated content.
// Users are matched by email, tree nodes by slug and problems by title, so
// repeated runs do not duplicate rows.
func Run(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	data, err := Load()
	if err != nil {
		return nil, err
	}

	if opts.Clean {
		if err := Clean(ctx, db); err != nil {
			return nil, err
		}
	}

	summary := &Summary{}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users, err := seedUsers(tx, data.Users, summary)
		if err != nil {
			return err
		}
		tree, err := seedTree(tx, data.Domains, summary)
		if err != nil {
			return err
		}
		return seedProblems(tx, data.Problems, users, tree, summary)
	})
	if err != nil {
		return nil, err
	}

	if opts.FakeUsers > 0 || opts.FakeProblems > 0 {
		f := NewFactory(db.WithContext(ctx))
		fakeUsers, err := f.CreateUsers(opts.FakeUsers)
		if err != nil {
			return nil, fmt.Errorf("fake users: %w", err)
		}
		summary.FakeUsers = len(fakeUsers)

		authors := fakeUsers
		if len(authors) == 0 {
			if err := db.WithContext(ctx).Limit(50).Find(&authors).Error; err != nil {
				return nil, err
			}
		}
		problems, err := f.CreateProblems(authors, opts.FakeProblems)
		if err != nil {
			return nil, fmt.Errorf("fake problems: %w", err)
		}
		summary.FakeProblems = len(problems)
	}

	slog.InfoContext(ctx, "seed complete",
		slog.Int("users", summary.Users),
		slog.Int("classifications", summary.Classifications),
		slog.Int("problems", summary.Problems),
		slog.Int("fake_users", summary.FakeUsers),
		slog.Int("fake_problems", summary.FakeProblems),
	)
	return summary, nil
}

// Clean deletes every row, children first.
func Clean(ctx context.Context, db *gorm.DB) error {
	tables := []any{
		&models.Vote{}, &models.Bookmark{}, &models.Comment{}, &models.Answer{}, &models.Problem{},
		&models.Topic{}, &models.Language{}, &models.TechStack{}, &models.Category{},
		&models.Subdomain{}, &models.Domain{}, &models.User{},
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return fmt.Errorf("clean %T: %w", m, err)
			}
		}
		return nil
	})
}

func seedUsers(tx *gorm.DB, seeds []UserSeed, summary *Summary) (map[string]uint, error) {
	ids := make(map[string]uint, len(seeds))
	for _, us := range seeds {
		email := validation.NormalizeEmail(us.Email)
		var existing models.User
		err := tx.Where("email = ?", email).First(&existing).Error
		if err == nil {
			ids[email] = existing.ID
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(us.Password), bcryptCost)
		if err != nil {
			return nil, err
		}
		hashed := string(hash)
		roles := make(datatypes.JSONSlice[models.Role], 0, len(us.Roles))
		for _, r := range us.Roles {
			role := models.Role(strings.ToLower(r))
			if !role.Valid() {
				return nil, fmt.Errorf("seed user %s: unknown role %q", email, r)
			}
			roles = append(roles, role)
		}

		user := models.User{Name: us.Name, Email: email, PasswordHash: &hashed, Roles: roles, Bio: us.Bio}
		if err := tx.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("seed user %s: %w", email, err)
		}
		ids[email] = user.ID
		summary.Users++
	}
	return ids, nil
}

// firstOrCreate finds a row by where or inserts out, counting inserts.
func firstOrCreate(tx *gorm.DB, out any, where any, summary *Summary) error {
	res := tx.Where(where).FirstOrCreate(out)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		summary.Classifications++
	}
	return nil
}

// treeIndex maps slash-joined slug paths ("web-development/frontend") to ids.
type treeIndex map[string]uint

func seedTree(tx *gorm.DB, domains []DomainSeed, summary *Summary) (treeIndex, error) {
	idx := treeIndex{}
	for _, ds := range domains {
		d := models.Domain{Name: ds.Name, Slug: ds.SlugOrDefault(), Description: ds.Description}
		if err := firstOrCreate(tx, &d, models.Domain{Slug: d.Slug}, summary); err != nil {
			return nil, fmt.Errorf("seed domain %s: %w", d.Slug, err)
		}
		dPath := d.Slug
		idx[dPath] = d.ID

		for _, ss := range ds.Subdomains {
			s := models.Subdomain{DomainID: d.ID, Name: ss.Name, Slug: ss.SlugOrDefault()}
			if err := firstOrCreate(tx, &s, models.Subdomain{DomainID: d.ID, Slug: s.Slug}, summary); err != nil {
				return nil, fmt.Errorf("seed subdomain %s: %w", s.Slug, err)
			}
			sPath := dPath + "/" + s.Slug
			idx[sPath] = s.ID

			for _, cs := range ss.Categories {
				c := models.Category{SubdomainID: s.ID, Name: cs.Name, Slug: cs.SlugOrDefault()}
				if err := firstOrCreate(tx, &c, models.Category{SubdomainID: s.ID, Slug: c.Slug}, summary); err != nil {
					return nil, fmt.Errorf("seed category %s: %w", c.Slug, err)
				}
				cPath := sPath + "/" + c.Slug
				idx[cPath] = c.ID

				for _, ts := range cs.TechStacks {
					t := models.TechStack{CategoryID: c.ID, Name: ts.Name, Slug: ts.SlugOrDefault()}
					if err := firstOrCreate(tx, &t, models.TechStack{CategoryID: c.ID, Slug: t.Slug}, summary); err != nil {
						return nil, fmt.Errorf("seed tech stack %s: %w", t.Slug, err)
					}
					tPath := cPath + "/" + t.Slug
					idx[tPath] = t.ID

					for _, ls := range ts.Languages {
						l := models.Language{TechStackID: t.ID, Name: ls.Name, Slug: ls.SlugOrDefault()}
						if err := firstOrCreate(tx, &l, models.Language{TechStackID: t.ID, Slug: l.Slug}, summary); err != nil {
							return nil, fmt.Errorf("seed language %s: %w", l.Slug, err)
						}
						lPath := tPath + "/" + l.Slug
						idx[lPath] = l.ID

						for _, tn := range ls.Topics {
							topic := models.Topic{LanguageID: l.ID, Name: tn.Name, Slug: tn.SlugOrDefault()}
							if err := firstOrCreate(tx, &topic, models.Topic{LanguageID: l.ID, Slug: topic.Slug}, summary); err != nil {
								return nil, fmt.Errorf("seed topic %s: %w", topic.Slug, err)
							}
							idx[lPath+"/"+topic.Slug] = topic.ID
						}
					}
				}
			}
		}
	}
	return idx, nil
}

// resolve turns a slug path into classification ids. Every given level must
// exist under the level before it.
func (idx treeIndex) resolve(p ProblemPath) (models.ClassificationIDs, error) {
	var ids models.ClassificationIDs
	targets := []**uint{&ids.DomainID, &ids.SubdomainID, &ids.CategoryID, &ids.TechStackID, &ids.LanguageID, &ids.TopicID}
	path := ""
	for i, slug := range []string{p.Domain, p.Subdomain, p.Category, p.TechStack, p.Language, p.Topic} {
		if slug == "" {
			break
		}
		if path != "" {
			path += "/"
		}
		path += slug
		id, ok := idx[path]
		if !ok {
			return ids, fmt.Errorf("unknown classification path %q", path)
		}
		*targets[i] = &id
	}
	return ids, nil
}

func seedProblems(tx *gorm.DB, seeds []ProblemSeed, users map[string]uint, tree treeIndex, summary *Summary) error {
	for _, ps := range seeds {
		var count int64
		if err := tx.Model(&models.Problem{}).Where("title = ?", ps.Title).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		authorID, ok := users[validation.NormalizeEmail(ps.Author)]
		if !ok {
			return fmt.Errorf("seed problem %q: unknown author %s", ps.Title, ps.Author)
		}
		ids, err := tree.resolve(ps.Path)
		if err != nil {
			return fmt.Errorf("seed problem %q: %w", ps.Title, err)
		}

		p := models.Problem{
			Title:               ps.Title,
			DescriptionMarkdown: strings.TrimSpace(ps.Description),
			CreatedByID:         authorID,
			Severity:            models.Severity(ps.Severity),
			Difficulty:          models.Difficulty(ps.Difficulty),
			Canonical:           ps.Canonical,
			Solved:              ps.Solved,
			Upvotes:             ps.Upvotes,
			Tags:                datatypes.JSONSlice[string](ps.Tags),
			Resources:           datatypes.JSONSlice[models.Resource]{},
		}
		if !p.Severity.Valid() || !p.Difficulty.Valid() {
			return fmt.Errorf("seed problem %q: bad severity or difficulty", ps.Title)
		}
		ids.Apply(&p)
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("seed problem %q: %w", ps.Title, err)
		}
		summary.Problems++
	}
	return nil
}
