package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/libs/pagination"
	"github.com/genzone/backend/services/learn-service/internal/models"
	"github.com/genzone/backend/services/learn-service/internal/policy"
)

// maxDimensionLength bounds the width and height of a content block
const maxDimensionLength = 10

// CourseLookup is the interface that wraps the course lookup needed to resolve a tree path
type CourseLookup interface {
	// GetByID retrieves a course by ID
	//
	// If course with such ID does not exist, a NotFound error will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Course, error)
}

// ModuleRepository is the interface that wraps methods for Module table data access
type ModuleRepository interface {
	// Get retrieves the module numbered "num" of a course, or NotFound
	Get(ctx context.Context, courseID, num int) (*models.Module, error)
	// Create appends a module to its course in one transaction and fills in its ID and number
	Create(ctx context.Context, module *models.Module) error
	// Update applies the set fields of "req" to the module with the given ID
	Update(ctx context.Context, id int, req *models.ModuleRequest) error
	// Delete removes the module with the given ID with everything below it and renumbers the following modules
	Delete(ctx context.Context, courseID, id int) error
}

// LessonRepository is the interface that wraps methods for Lesson table data access
type LessonRepository interface {
	// Get retrieves a lesson by its path, or NotFound
	Get(ctx context.Context, courseID, moduleNum, lessonNum int) (*models.Lesson, error)
	// ListOutline retrieves the lessons of a module ordered by number
	ListOutline(ctx context.Context, moduleID int) ([]models.LessonOutline, error)
	// Create appends a lesson to its module in one transaction and fills in its ID and number
	Create(ctx context.Context, lesson *models.Lesson) error
	// Update applies the set fields of "req" to the lesson with the given ID
	Update(ctx context.Context, id int, req *models.LessonRequest) error
	// Delete removes the lesson with the given ID with its steps and contents and renumbers the following lessons
	Delete(ctx context.Context, moduleID, id int) error
}

// StepRepository is the interface that wraps methods for Step table data access
type StepRepository interface {
	// Get retrieves a step by its path without its contents, or NotFound
	Get(ctx context.Context, path models.Path) (*models.Step, error)
	// ListByLesson retrieves a page of a lesson's steps together with the total count
	ListByLesson(ctx context.Context, lessonID, offset, limit int) ([]models.Step, int, error)
	// Create appends a step to its lesson in one transaction and fills in its ID and number
	Create(ctx context.Context, step *models.Step) error
	// Delete removes the step with the given ID with its contents and renumbers the following steps
	Delete(ctx context.Context, lessonID, id int) error
}

// ContentRepository is the interface that wraps methods for Content table data access
type ContentRepository interface {
	// Get retrieves a content block by its path, or NotFound
	Get(ctx context.Context, path models.Path) (*models.Content, error)
	// ListBySteps retrieves the contents of several steps keyed by step ID, ordered by number
	ListBySteps(ctx context.Context, stepIDs []int) (map[int][]models.Content, error)
	// Create appends a content block to its step and fills in its ID and number
	Create(ctx context.Context, content *models.Content) error
	// Update applies the set fields of "req" to the content block with the given ID
	Update(ctx context.Context, id int, req *models.UpdateContentRequest) error
	// Delete removes the content block with the given ID and renumbers the following ones
	Delete(ctx context.Context, stepID, id int) error
	// Replace makes the contents of a step equal to "target" in one transaction and returns them ordered by number
	Replace(ctx context.Context, stepID int, target []models.Content) ([]models.Content, error)
}

type treeService struct {
	courseRepo  CourseLookup
	moduleRepo  ModuleRepository
	lessonRepo  LessonRepository
	stepRepo    StepRepository
	contentRepo ContentRepository
	authorizer  Authorizer
}

// NewTreeService creates a new content tree service
func NewTreeService(
	courseRepo CourseLookup,
	moduleRepo ModuleRepository,
	lessonRepo LessonRepository,
	stepRepo StepRepository,
	contentRepo ContentRepository,
	authorizer Authorizer,
) *treeService {
	return &treeService{
		courseRepo:  courseRepo,
		moduleRepo:  moduleRepo,
		lessonRepo:  lessonRepo,
		stepRepo:    stepRepo,
		contentRepo: contentRepo,
		authorizer:  authorizer,
	}
}

// CreateModule appends a module to a course
func (s *treeService) CreateModule(ctx context.Context, actorID, courseID int, req *models.ModuleRequest) (*models.Module, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.Authorize(ctx, actorID, course, policy.OpWrite); err != nil {
		return nil, err
	}

	title, description, err := requireTitled(req.Title, req.Description)
	if err != nil {
		return nil, err
	}

	module := &models.Module{CourseID: courseID, Title: title, Description: description}
	if err := s.moduleRepo.Create(ctx, module); err != nil {
		return nil, err
	}
	module.Lessons = []models.LessonOutline{}
	return module, nil
}

// GetModule retrieves a module with its lesson outline
func (s *treeService) GetModule(ctx context.Context, path models.Path) (*models.Module, error) {
	module, err := s.moduleRepo.Get(ctx, path.CourseID, path.ModuleNum)
	if err != nil {
		return nil, err
	}

	module.Lessons, err = s.lessonRepo.ListOutline(ctx, module.ID)
	if err != nil {
		return nil, err
	}
	return module, nil
}

// UpdateModule applies a partial update to a module
func (s *treeService) UpdateModule(ctx context.Context, actorID int, path models.Path, req *models.ModuleRequest) (*models.Module, error) {
	module, err := s.moduleRepo.Get(ctx, path.CourseID, path.ModuleNum)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.Authorize(ctx, actorID, module, policy.OpWrite); err != nil {
		return nil, err
	}
	if err := validateTitledUpdate(req.Title, req.Description); err != nil {
		return nil, err
	}

	if err := s.moduleRepo.Update(ctx, module.ID, req); err != nil {
		return nil, err
	}
	return s.GetModule(ctx, path)
}

// DeleteModule removes a module and closes the gap in the module numbers
func (s *treeService) DeleteModule(ctx context.Context, actorID int, path models.Path) error {
	module, err := s.moduleRepo.Get(ctx, path.CourseID, path.ModuleNum)
	if err != nil {
		return err
	}
	if err := s.authorizer.Authorize(ctx, actorID, module, policy.OpWrite); err != nil {
		return err
	}

	return s.moduleRepo.Delete(ctx, module.CourseID, module.ID)
}

// CreateLesson appends a lesson to a module
func (s *treeService) CreateLesson(ctx context.Context, actorID int, path models.Path, req *models.LessonRequest) (*models.Lesson, error) {
	module, err := s.moduleRepo.Get(ctx, path.CourseID, path.ModuleNum)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.Authorize(ctx, actorID, module, policy.OpWrite); err != nil {
		return nil, err
	}

	title, description, err := requireTitled(req.Title, req.Description)
	if err != nil {
		return nil, err
	}

	lesson := &models.Lesson{
		ModuleID:    module.ID,
		CourseID:    module.CourseID,
		ModuleNum:   module.ModuleNum,
		Title:       title,
		Description: description,
	}
	if err := s.lessonRepo.Create(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// GetLesson retrieves a lesson with one page of its steps, each carrying its contents
func (s *treeService) GetLesson(ctx context.Context, path models.Path, params pagination.Params) (*models.LessonDetailResponse, error) {
	lesson, err := s.lessonRepo.Get(ctx, path.CourseID, path.ModuleNum, path.LessonNum)
	if err != nil {
		return nil, err
	}

	steps, total, err := s.stepRepo.ListByLesson(ctx, lesson.ID, params.Offset(), params.PageSize)
	if err != nil {
		return nil, err
	}
	if err := s.attachContents(ctx, steps); err != nil {
		return nil, err
	}

	page, err := pagination.NewPage(steps, total, params)
	if err != nil {
		return nil, err
	}
	return &models.LessonDetailResponse{Lesson: *lesson, Steps: page}, nil
}

// UpdateLesson applies a partial update to a lesson
func (s *treeService) UpdateLesson(ctx context.Context, actorID int, path models.Path, req *models.LessonRequest) (*models.Lesson, error) {
	lesson, err := s.lessonRepo.Get(ctx, path.CourseID, path.ModuleNum, path.LessonNum)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.Authorize(ctx, actorID, lesson, policy.OpWrite); err != nil {
		return nil, err
	}
	if err := validateTitledUpdate(req.Title, req.Description); err != nil {
		return nil, err
	}

	if err := s.lessonRepo.Update(ctx, lesson.ID, req); err != nil {
		return nil, err
	}
	return s.lessonRepo.Get(ctx, path.CourseID, path.ModuleNum, path.LessonNum)
}

// DeleteLesson removes a lesson and closes the gap in the lesson numbers
func (s *treeService) DeleteLesson(ctx context.Context, actorID int, path models.Path) error {
	lesson, err := s.lessonRepo.Get(ctx, path.CourseID, path.ModuleNum, path.LessonNum)
	if err != nil {
		return err
	}
	if err := s.authorizer.Authorize(ctx, actorID, lesson, policy.OpWrite); err != nil {
		return err
	}

	return s.lessonRepo.Delete(ctx, lesson.ModuleID, lesson.ID)
}

// CreateStep appends an empty step to a lesson
func (s *treeService) CreateStep(ctx context.Context, actorID int, path models.Path) (*models.Step, error) {
	lesson, err := s.lessonRepo.Get(ctx, path.CourseID, path.ModuleNum, path.LessonNum)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.Authorize(ctx, actorID, lesson, policy.OpWrite); err != nil {
		return nil, err
	}

	step := &models.Step{LessonID: lesson.ID, CourseID: lesson.CourseID}
	if err := s.stepRepo.Create(ctx, step); err != nil {
		return nil, err
	}
	step.Contents = []models.Content{}
	return step, nil
}

// GetStep retrieves a step with its contents ordered by number
func (s *treeService) GetStep(ctx context.Context, path models.Path) (*models.Step, error) {
	step, err := s.stepRepo.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	steps := []models.Step{*step}
	if err := s.attachContents(ctx, steps); err != nil {
		return nil, err
	}
	return &steps[0], nil
}

// ReplaceContents makes the contents of a step equal to the request: numbers missing from it are
// deleted, present ones updated in place and new ones inserted
func (s *treeService) ReplaceContents(ctx context.Context, actorID int, path models.Path, req *models.ReplaceContentsRequest) (*models.Step, error) {
	step, err := s.stepRepo.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.Authorize(ctx, actorID, step, policy.OpWrite); err != nil {
		return nil, err
	}

	target := make([]models.Content, 0, len(req.Contents))
	seen := make(map[int]bool, len(req.Contents))
	for i, input := range req.Contents {
		field := fmt.Sprintf("contents[%d]", i)
		if input.ContentNum < 1 {
			return nil, apperrors.Validation(field+".contentNum", "content number must be a positive integer")
		}
		if seen[input.ContentNum] {
			return nil, apperrors.Validation(field+".contentNum", fmt.Sprintf("content number %d is repeated", input.ContentNum))
		}
		seen[input.ContentNum] = true

		content := contentFromInput(step.ID, input)
		content.ContentNum = input.ContentNum
		if err := validateContent(field+".", content); err != nil {
			return nil, err
		}
		target = append(target, *content)
	}

	contents, err := s.contentRepo.Replace(ctx, step.ID, target)
	if err != nil {
		return nil, err
	}
	step.Contents = contents
	return step, nil
}

// DeleteStep removes a step and closes the gap in the step numbers
func (s *treeService) DeleteStep(ctx context.Context, actorID int, path models.Path) error {
	step, err := s.stepRepo.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := s.authorizer.Authorize(ctx, actorID, step, policy.OpWrite); err != nil {
		return err
	}

	return s.stepRepo.Delete(ctx, step.LessonID, step.ID)
}

// CreateContent appends a content block to a step
func (s *treeService) CreateContent(ctx context.Context, actorID int, path models.Path, input *models.ContentInput) (*models.Content, error) {
	step, err := s.stepRepo.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.Authorize(ctx, actorID, step, policy.OpWrite); err != nil {
		return nil, err
	}

	content := contentFromInput(step.ID, *input)
	content.CourseID = step.CourseID
	if err := validateContent("", content); err != nil {
		return nil, err
	}

	if err := s.contentRepo.Create(ctx, content); err != nil {
		return nil, err
	}
	return content, nil
}

// GetContent retrieves a content block
func (s *treeService) GetContent(ctx context.Context, path models.Path) (*models.Content, error) {
	return s.contentRepo.Get(ctx, path)
}

// UpdateContent applies a partial update to a content block. The resulting block must still be well formed.
func (s *treeService) UpdateContent(ctx context.Context, actorID int, path models.Path, req *models.UpdateContentRequest) (*models.Content, error) {
	content, err := s.contentRepo.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.Authorize(ctx, actorID, content, policy.OpWrite); err != nil {
		return nil, err
	}

	if req.ContentType == nil && req.Text == nil && req.Media == nil && req.Width == nil && req.Height == nil {
		return nil, apperrors.Validation("body", "no fields to update")
	}

	merged := *content
	if req.ContentType != nil {
		merged.ContentType = *req.ContentType
	}
	if req.Text != nil {
		merged.Text = req.Text
	}
	if req.Media != nil {
		merged.Media = req.Media
	}
	if req.Width != nil {
		merged.Width = req.Width
	}
	if req.Height != nil {
		merged.Height = req.Height
	}
	if err := validateContent("", &merged); err != nil {
		return nil, err
	}

	if err := s.contentRepo.Update(ctx, content.ID, req); err != nil {
		return nil, err
	}
	return &merged, nil
}

// DeleteContent removes a content block and closes the gap in the content numbers
func (s *treeService) DeleteContent(ctx context.Context, actorID int, path models.Path) error {
	content, err := s.contentRepo.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := s.authorizer.Authorize(ctx, actorID, content, policy.OpWrite); err != nil {
		return err
	}

	return s.contentRepo.Delete(ctx, content.StepID, content.ID)
}

// attachContents loads the contents of all steps with one query
func (s *treeService) attachContents(ctx context.Context, steps []models.Step) error {
	if len(steps) == 0 {
		return nil
	}

	ids := make([]int, len(steps))
	for i, step := range steps {
		ids[i] = step.ID
	}

	byStep, err := s.contentRepo.ListBySteps(ctx, ids)
	if err != nil {
		return err
	}

	for i := range steps {
		steps[i].Contents = byStep[steps[i].ID]
		if steps[i].Contents == nil {
			steps[i].Contents = []models.Content{}
		}
	}
	return nil
}

func contentFromInput(stepID int, input models.ContentInput) *models.Content {
	return &models.Content{
		StepID:      stepID,
		ContentType: input.ContentType,
		Text:        input.Text,
		Media:       input.Media,
		Width:       input.Width,
		Height:      input.Height,
	}
}

// validateContent checks the payload shape for the content type:
// text blocks need text, image and video blocks need media
func validateContent(prefix string, content *models.Content) error {
	if !content.ContentType.Valid() {
		return apperrors.Validation(prefix+"contentType", "content type must be one of text, image, video")
	}

	switch content.ContentType {
	case models.ContentText:
		if content.Text == nil || strings.TrimSpace(*content.Text) == "" {
			return apperrors.Validation(prefix+"text", "text is required for text content")
		}
	default:
		if content.Media == nil || strings.TrimSpace(*content.Media) == "" {
			return apperrors.Validation(prefix+"media", fmt.Sprintf("media is required for %s content", content.ContentType))
		}
	}

	if content.Width != nil && utf8.RuneCountInString(*content.Width) > maxDimensionLength {
		return apperrors.Validation(prefix+"width", fmt.Sprintf("width must be at most %d characters", maxDimensionLength))
	}
	if content.Height != nil && utf8.RuneCountInString(*content.Height) > maxDimensionLength {
		return apperrors.Validation(prefix+"height", fmt.Sprintf("height must be at most %d characters", maxDimensionLength))
	}
	return nil
}

// requireTitled validates the fields of a new module or lesson
func requireTitled(title, description *string) (string, string, error) {
	if title == nil || strings.TrimSpace(*title) == "" {
		return "", "", apperrors.Validation("title", "title is required")
	}
	if description == nil || strings.TrimSpace(*description) == "" {
		return "", "", apperrors.Validation("description", "description is required")
	}
	return strings.TrimSpace(*title), strings.TrimSpace(*description), nil
}

func validateTitledUpdate(title, description *string) error {
	if title == nil && description == nil {
		return apperrors.Validation("body", "no fields to update")
	}
	if err := requireNonBlank("title", title); err != nil {
		return err
	}
	return requireNonBlank("description", description)
}
