package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"codecrew/internal/cache"
	"codecrew/internal/featureflags"
	"codecrew/internal/models"
	"codecrew/internal/notifications"
	"codecrew/internal/observability"
	"codecrew/internal/repository"
	"codecrew/internal/validation"

	"github.com/ecodeclub/ekit/slice"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const (
	maxTitleLen       = 200
	defaultPageLimit  = 20
	maxPageLimit      = 100
	defaultMajorLimit = 100
)

type ProblemService struct {
	problems     repository.ProblemRepository
	answers      repository.AnswerRepository
	comments     repository.CommentRepository
	interactions repository.InteractionRepository
	users        repository.UserRepository
	tree         repository.ClassificationRepository
	rdb          *redis.Client
	flags        *featureflags.Manager
	events       *Realtime
}

func NewProblemService(
	problems repository.ProblemRepository,
	answers repository.AnswerRepository,
	comments repository.CommentRepository,
	interactions repository.InteractionRepository,
	users repository.UserRepository,
	tree repository.ClassificationRepository,
	rdb *redis.Client,
	flags *featureflags.Manager,
	events *Realtime,
) *ProblemService {
	return &ProblemService{
		problems:     problems,
		answers:      answers,
		comments:     comments,
		interactions: interactions,
		users:        users,
		tree:         tree,
		rdb:          rdb,
		flags:        flags,
		events:       events,
	}
}

// ListProblemsInput carries the query string of a listing.
type ListProblemsInput struct {
	Classification models.ClassificationIDs
	Severity       string
	Difficulty     string
	Canonical      string
	Solved         string
	Search         string
	Sort           string
	Page           int
	Limit          int
}

type CreateProblemInput struct {
	UserID              uint              `json:"-"`
	Title               string            `json:"title"`
	DescriptionMarkdown string            `json:"descriptionMarkdown"`
	Severity            models.Severity   `json:"severity"`
	Difficulty          models.Difficulty `json:"difficulty"`
	Tags                []string          `json:"tags"`
	Resources           []models.Resource `json:"resources"`
	models.ClassificationIDs
}

// UpdateProblemInput holds a partial update. Nil fields are left unchanged.
type UpdateProblemInput struct {
	Actor               *models.User       `json:"-"`
	ProblemID           uint               `json:"-"`
	Title               *string            `json:"title"`
	DescriptionMarkdown *string            `json:"descriptionMarkdown"`
	Severity            *models.Severity   `json:"severity"`
	Difficulty          *models.Difficulty `json:"difficulty"`
	Tags                *[]string          `json:"tags"`
	Resources           *[]models.Resource `json:"resources"`
	Solved              *bool              `json:"solved"`
	Canonical           *bool              `json:"canonical"`
	DomainID            *uint              `json:"domainId"`
	SubdomainID         *uint              `json:"subdomainId"`
	CategoryID          *uint              `json:"categoryId"`
	TechStackID         *uint              `json:"techStackId"`
	LanguageID          *uint              `json:"languageId"`
	TopicID             *uint              `json:"topicId"`
}

// MajorProblems is the canonical listing grouped by severity.
type MajorProblems struct {
	Problems []models.Problem      `json:"problems"`
	Grouped  models.SeverityGroups `json:"grouped"`
}

// problemThread is the cached part of a problem detail.
type problemThread struct {
	Answers  []models.Answer  `json:"answers"`
	Comments []models.Comment `json:"comments"`
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func (in ListProblemsInput) filter() (repository.ProblemFilter, error) {
	f := repository.ProblemFilter{
		Classification: in.Classification,
		Search:         in.Search,
		Sort:           repository.ProblemSort(in.Sort),
		CanonicalOnly:  in.Canonical == "true",
	}
	if in.Severity != "" {
		f.Severity = models.Severity(strings.ToUpper(in.Severity))
		if !f.Severity.Valid() {
			return f, models.NewValidationError("Invalid severity")
		}
	}
	if in.Difficulty != "" {
		f.Difficulty = models.Difficulty(strings.ToUpper(in.Difficulty))
		if !f.Difficulty.Valid() {
			return f, models.NewValidationError("Invalid difficulty")
		}
	}
	switch in.Solved {
	case "true":
		f.Solved = ptr(true)
	case "false":
		f.Solved = ptr(false)
	}
	page, limit := normalizePage(in.Page, in.Limit)
	f.Limit, f.Offset = limit, (page-1)*limit
	return f, nil
}

func ptr[T any](v T) *T { return &v }

func (s *ProblemService) page(ctx context.Context, in ListProblemsInput, f repository.ProblemFilter) (*models.ProblemPage, error) {
	problems, total, err := s.problems.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := s.attachProblemAuthors(ctx, problems, false); err != nil {
		return nil, err
	}
	page, limit := normalizePage(in.Page, in.Limit)
	return &models.ProblemPage{Problems: problems, Pagination: models.NewPagination(page, limit, total)}, nil
}

func (s *ProblemService) List(ctx context.Context, in ListProblemsInput) (*models.ProblemPage, error) {
	f, err := in.filter()
	if err != nil {
		return nil, err
	}
	return s.page(ctx, in, f)
}

// ByClassification lists problems under one node of the tree, canonical first.
func (s *ProblemService) ByClassification(ctx context.Context, level string, id uint, in ListProblemsInput) (*models.ProblemPage, error) {
	ids, ok := classificationFilter(models.ClassLevel(strings.ToLower(level)), id)
	if !ok {
		return nil, models.NewValidationError("Invalid classification type")
	}
	in.Classification = ids
	in.Solved, in.Search = "", ""
	f, err := in.filter()
	if err != nil {
		return nil, err
	}
	f.Sort = repository.SortCanonical
	return s.page(ctx, in, f)
}

func classificationFilter(level models.ClassLevel, id uint) (models.ClassificationIDs, bool) {
	var ids models.ClassificationIDs
	switch level {
	case models.LevelDomain:
		ids.DomainID = &id
	case models.LevelSubdomain:
		ids.SubdomainID = &id
	case models.LevelCategory:
		ids.CategoryID = &id
	case models.LevelTechStack:
		ids.TechStackID = &id
	case models.LevelLanguage:
		ids.LanguageID = &id
	case models.LevelTopic:
		ids.TopicID = &id
	default:
		return ids, false
	}
	return ids, true
}

func (s *ProblemService) Major(ctx context.Context, limit int) (*MajorProblems, error) {
	if limit < 1 {
		limit = defaultMajorLimit
	}
	problems, err := s.problems.Major(ctx, limit)
	if err != nil {
		return nil, err
	}
	if err := s.attachProblemAuthors(ctx, problems, false); err != nil {
		return nil, err
	}

	out := &MajorProblems{
		Problems: problems,
		Grouped: models.SeverityGroups{
			Critical: []models.Problem{},
			High:     []models.Problem{},
			Medium:   []models.Problem{},
			Low:      []models.Problem{},
		},
	}
	for _, p := range problems {
		switch p.Severity {
		case models.SeverityCritical:
			out.Grouped.Critical = append(out.Grouped.Critical, p)
		case models.SeverityHigh:
			out.Grouped.High = append(out.Grouped.High, p)
		case models.SeverityMedium:
			out.Grouped.Medium = append(out.Grouped.Medium, p)
		default:
			out.Grouped.Low = append(out.Grouped.Low, p)
		}
	}
	return out, nil
}

// Get counts a view and returns the problem with its thread. viewerID 0 is anonymous.
func (s *ProblemService) Get(ctx context.Context, id, viewerID uint) (*models.ProblemDetail, error) {
	ctx, span := observability.GetTraceLayer().TraceService(ctx, "ProblemService", "Get")
	defer span.End()

	problem, err := s.problems.IncrementViews(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachAuthor(ctx, problem); err != nil {
		return nil, err
	}

	detail := &models.ProblemDetail{Problem: *problem}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		thread, err := s.thread(gctx, id)
		if err != nil {
			return err
		}
		detail.Answers, detail.Comments = thread.Answers, thread.Comments
		return nil
	})
	if viewerID != 0 {
		g.Go(func() (err error) {
			detail.UserVote, err = s.interactions.UserVote(gctx, viewerID, models.TargetProblem, id)
			return err
		})
		g.Go(func() (err error) {
			detail.Bookmarked, err = s.interactions.IsBookmarked(gctx, viewerID, models.TargetProblem, id)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *ProblemService) thread(ctx context.Context, problemID uint) (problemThread, error) {
	load := func(ctx context.Context) (problemThread, error) {
		var t problemThread
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			t.Answers, err = s.answers.ListByProblem(gctx, problemID)
			return err
		})
		g.Go(func() (err error) {
			t.Comments, err = s.comments.ListForThread(gctx, problemID)
			return err
		})
		if err := g.Wait(); err != nil {
			return t, err
		}

		ids := append(
			slice.Map(t.Answers, func(_ int, a models.Answer) uint { return a.CreatedByID }),
			slice.Map(t.Comments, func(_ int, c models.Comment) uint { return c.CreatedByID })...,
		)
		authors, err := s.users.Summaries(ctx, ids, false)
		if err != nil {
			return t, err
		}
		for i := range t.Answers {
			t.Answers[i].CreatedBy = authors[t.Answers[i].CreatedByID]
		}
		for i := range t.Comments {
			t.Comments[i].CreatedBy = authors[t.Comments[i].CreatedByID]
		}
		return t, nil
	}

	if !s.flags.On(featureflags.ProblemCache) {
		return load(ctx)
	}
	return cache.Aside(ctx, s.rdb, "problem_thread", cache.ProblemKey(problemID), cache.ProblemTTL, load)
}

// attachProblemAuthors fills CreatedBy on every problem in place.
func (s *ProblemService) attachProblemAuthors(ctx context.Context, problems []models.Problem, withEmail bool) error {
	if len(problems) == 0 {
		return nil
	}
	ids := slice.Map(problems, func(_ int, p models.Problem) uint { return p.CreatedByID })
	authors, err := s.users.Summaries(ctx, ids, withEmail)
	if err != nil {
		return err
	}
	for i := range problems {
		problems[i].CreatedBy = authors[problems[i].CreatedByID]
	}
	return nil
}

func (s *ProblemService) attachAuthor(ctx context.Context, p *models.Problem) error {
	authors, err := s.users.Summaries(ctx, []uint{p.CreatedByID}, false)
	if err != nil {
		return err
	}
	p.CreatedBy = authors[p.CreatedByID]
	return nil
}

func validateResources(resources []models.Resource) error {
	for _, r := range resources {
		if !r.Type.Valid() {
			return models.NewValidationError("Invalid resource type")
		}
		if validation.ValidateHTTPURL(r.URL) != nil {
			return models.NewValidationError("Resource URL must be a valid URL")
		}
	}
	return nil
}

func cleanTags(tags []string) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && !slice.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *ProblemService) Create(ctx context.Context, in CreateProblemInput) (*models.Problem, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return nil, models.NewValidationError("Title must be at most 200 characters")
	}
	if strings.TrimSpace(in.DescriptionMarkdown) == "" {
		return nil, models.NewValidationError("Description is required")
	}
	if !in.Severity.Valid() {
		return nil, models.NewValidationError("Invalid severity")
	}
	if !in.Difficulty.Valid() {
		return nil, models.NewValidationError("Invalid difficulty")
	}
	if err := validateResources(in.Resources); err != nil {
		return nil, err
	}
	if err := s.checkClassification(ctx, in.ClassificationIDs); err != nil {
		return nil, err
	}

	problem := &models.Problem{
		Title:               title,
		DescriptionMarkdown: in.DescriptionMarkdown,
		CreatedByID:         in.UserID,
		Severity:            in.Severity,
		Difficulty:          in.Difficulty,
		Tags:                cleanTags(in.Tags),
		Resources:           datatypes.JSONSlice[models.Resource](append([]models.Resource{}, in.Resources...)),
	}
	in.ClassificationIDs.Apply(problem)

	if err := s.problems.Create(ctx, problem); err != nil {
		return nil, err
	}
	observability.ContentCreated.WithLabelValues("problem").Inc()

	if err := s.attachAuthor(ctx, problem); err != nil {
		return nil, err
	}
	s.events.Emit(ctx, notifications.EventProblemCreated, map[string]any{
		"problemId": problem.ID,
		"title":     problem.Title,
		"severity":  problem.Severity,
	})
	return problem, nil
}

func (s *ProblemService) Update(ctx context.Context, in UpdateProblemInput) (*models.Problem, error) {
	problem, err := s.problems.GetByID(ctx, in.ProblemID)
	if err != nil {
		return nil, err
	}
	isCreator := in.Actor != nil && in.Actor.ID == problem.CreatedByID
	isAdmin := in.Actor != nil && in.Actor.HasRole(models.RoleAdmin)
	if !isCreator && !isAdmin {
		return nil, models.NewForbiddenError("Not authorized to update this problem")
	}

	updates := map[string]any{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" || utf8.RuneCountInString(title) > maxTitleLen {
			return nil, models.NewValidationError("Title must be 1-200 characters")
		}
		updates["title"] = title
	}
	if in.DescriptionMarkdown != nil {
		if strings.TrimSpace(*in.DescriptionMarkdown) == "" {
			return nil, models.NewValidationError("Description is required")
		}
		updates["description_markdown"] = *in.DescriptionMarkdown
	}
	if in.Severity != nil {
		if !in.Severity.Valid() {
			return nil, models.NewValidationError("Invalid severity")
		}
		updates["severity"] = *in.Severity
	}
	if in.Difficulty != nil {
		if !in.Difficulty.Valid() {
			return nil, models.NewValidationError("Invalid difficulty")
		}
		updates["difficulty"] = *in.Difficulty
	}
	if in.Tags != nil {
		updates["tags"] = cleanTags(*in.Tags)
	}
	if in.Resources != nil {
		if err := validateResources(*in.Resources); err != nil {
			return nil, err
		}
		updates["resources"] = datatypes.JSONSlice[models.Resource](*in.Resources)
	}
	if in.Solved != nil && isCreator {
		updates["solved"] = *in.Solved
	}
	// Canonical is a moderation decision; other callers are ignored.
	if in.Canonical != nil && in.Actor.HasRole(models.RoleAdmin) {
		updates["canonical"] = *in.Canonical
	}
	refs := models.ClassificationIDs{
		DomainID:    in.DomainID,
		SubdomainID: in.SubdomainID,
		CategoryID:  in.CategoryID,
		TechStackID: in.TechStackID,
		LanguageID:  in.LanguageID,
		TopicID:     in.TopicID,
	}
	if err := s.checkClassification(ctx, refs); err != nil {
		return nil, err
	}
	for _, ref := range refs.Refs() {
		column, _ := ref.Level.Column()
		updates[column] = ref.ID
	}

	updated, err := s.problems.Update(ctx, in.ProblemID, updates)
	if err != nil {
		return nil, err
	}
	if err := s.attachAuthor(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// checkClassification rejects references to tree nodes that do not exist.
func (s *ProblemService) checkClassification(ctx context.Context, ids models.ClassificationIDs) error {
	for _, ref := range ids.Refs() {
		ok, err := s.tree.Exists(ctx, ref.Level, ref.ID)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewValidationError("Unknown " + string(ref.Level))
		}
	}
	return nil
}

// Delete removes a problem and its thread. Only the creator or an admin may delete.
func (s *ProblemService) Delete(ctx context.Context, actor *models.User, problemID uint) error {
	problem, err := s.problems.GetByID(ctx, problemID)
	if err != nil {
		return err
	}
	if actor == nil || (actor.ID != problem.CreatedByID && !actor.HasRole(models.RoleAdmin)) {
		return models.NewForbiddenError("Not authorized to delete this problem")
	}
	return s.deleteCascade(ctx, problemID)
}

func (s *ProblemService) deleteCascade(ctx context.Context, problemID uint) error {
	if err := s.problems.DeleteCascade(ctx, problemID); err != nil {
		return err
	}
	cache.InvalidateProblem(ctx, problemID)
	s.events.Emit(ctx, notifications.EventProblemDeleted, map[string]any{"problemId": problemID})
	return nil
}

func (s *ProblemService) MarkSolved(ctx context.Context, actorID, problemID uint) (*models.Problem, error) {
	problem, err := s.problems.GetByID(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if problem.CreatedByID != actorID {
		return nil, models.NewForbiddenError("Only the creator can mark problem as solved")
	}
	updated, err := s.problems.Update(ctx, problemID, map[string]any{"solved": true})
	if err != nil {
		return nil, err
	}
	if err := s.attachAuthor(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}
