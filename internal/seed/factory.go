package seed

import (
	"fmt"
	"strings"

	"codecrew/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FakePassword is the password of every generated user.
const FakePassword = "password123"

var (
	severities   = []models.Severity{models.SeverityLow, models.SeverityMedium, models.SeverityHigh, models.SeverityCritical}
	difficulties = []models.Difficulty{models.DifficultyBeginner, models.DifficultyIntermediate, models.DifficultyAdvanced}
	fakeTags     = []string{"go", "react", "python", "sql", "docker", "kubernetes", "css", "typescript", "testing", "performance"}
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	hash  string
}

// NewFactory creates a Factory bound to db with a random seed.
func NewFactory(db *gorm.DB) *Factory {
	return NewFactoryWithSeed(db, 0)
}

// NewFactoryWithSeed makes generation reproducible. A zero seed is random.
func NewFactoryWithSeed(db *gorm.DB, seed int64) *Factory {
	return &Factory{db: db, faker: gofakeit.New(seed)}
}

func (f *Factory) passwordHash() (string, error) {
	if f.hash != "" {
		return f.hash, nil
	}
	// One hash is shared by every generated user.
	h, err := bcrypt.GenerateFromPassword([]byte(FakePassword), bcrypt.MinCost)
	if err != nil {
		return "", err
	}
	f.hash = string(h)
	return f.hash, nil
}

// BuildUser returns an unsaved user with fake profile data.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, err
	}
	first, last := f.faker.FirstName(), f.faker.LastName()
	u := &models.User{
		Name:         first + " " + last,
		Email:        strings.ToLower(fmt.Sprintf("%s.%s.%s@example.com", first, last, f.faker.LetterN(5))),
		AvatarURL:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		PasswordHash: &hash,
		Bio:          f.faker.Sentence(10),
	}
	for _, o := range overrides {
		o(u)
	}
	return u, nil
}

// CreateUsers inserts n fake users in one batch.
func (f *Factory) CreateUsers(n int) ([]models.User, error) {
	if n <= 0 {
		return nil, nil
	}
	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		u, err := f.BuildUser()
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := f.db.CreateInBatches(&users, 100).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// BuildProblem returns an unsaved problem by authorID.
func (f *Factory) BuildProblem(authorID uint, overrides ...func(*models.Problem)) *models.Problem {
	tags := make(datatypes.JSONSlice[string], 0, 3)
	seen := map[string]bool{}
	for len(tags) < 3 {
		t := fakeTags[f.faker.Number(0, len(fakeTags)-1)]
		if !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}
	p := &models.Problem{
		Title:               strings.TrimSuffix(f.faker.Sentence(f.faker.Number(4, 9)), "."),
		DescriptionMarkdown: "# Problem\n" + f.faker.Paragraph(2, 3, 12, "\n\n"),
		CreatedByID:         authorID,
		Severity:            severities[f.faker.Number(0, len(severities)-1)],
		Difficulty:          difficulties[f.faker.Number(0, len(difficulties)-1)],
		Upvotes:             f.faker.Number(0, 120),
		ViewCount:           f.faker.Number(0, 2000),
		Tags:                tags,
		Resources: datatypes.JSONSlice[models.Resource]{
			{Type: models.ResourceLink, URL: f.faker.URL(), Title: f.faker.HipsterWord()},
		},
	}
	for _, o := range overrides {
		o(p)
	}
	return p
}

// CreateProblems inserts n problems spread across authors, each with a fake answer.
func (f *Factory) CreateProblems(authors []models.User, n int) ([]models.Problem, error) {
	if n <= 0 || len(authors) == 0 {
		return nil, nil
	}
	problems := make([]models.Problem, 0, n)
	for i := 0; i < n; i++ {
		author := authors[i%len(authors)]
		problems = append(problems, *f.BuildProblem(author.ID))
	}
	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(&problems, 100).Error; err != nil {
			return err
		}
		answers := make([]models.Answer, 0, len(problems))
		for i, p := range problems {
			answerer := authors[(i+1)%len(authors)]
			answers = append(answers, models.Answer{
				ProblemID:       p.ID,
				CreatedByID:     answerer.ID,
				ContentMarkdown: f.faker.Paragraph(1, 3, 10, "\n\n"),
				Upvotes:         f.faker.Number(0, 40),
			})
		}
		return tx.CreateInBatches(&answers, 100).Error
	})
	if err != nil {
		return nil, err
	}
	return problems, nil
}
