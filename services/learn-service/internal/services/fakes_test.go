package services

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/services/learn-service/internal/models"
	"github.com/genzone/backend/services/learn-service/internal/policy"
)

// memStore is an in-memory content tree that keeps the same numbering rules as the database:
// new children are appended at count + 1 and deleting a child shifts later siblings down
type memStore struct {
	mu          sync.Mutex
	nextID      int
	courses     map[int]*models.Course
	modules     []*models.Module
	lessons     []*models.Lesson
	steps       []*models.Step
	contents    []*models.Content
	memberships map[memberKey]bool
}

type memberKey struct {
	userID   int
	courseID int
	kind     models.MembershipKind
}

func newMemStore() *memStore {
	return &memStore{
		courses:     make(map[int]*models.Course),
		memberships: make(map[memberKey]bool),
	}
}

func (m *memStore) id() int {
	m.nextID++
	return m.nextID
}

// newTestServices wires the services over one store with the real access policy
func newTestServices(store *memStore) (*courseService, *treeService, *membershipService) {
	courses := &fakeCourses{store}
	memberships := &fakeMemberships{store}
	authorizer := policy.New(courses, memberships)

	return NewCourseService(courses, authorizer),
		NewTreeService(courses, &fakeModules{store}, &fakeLessons{store}, &fakeSteps{store}, &fakeContents{store}, authorizer),
		NewMembershipService(courses, memberships)
}

type fakeCourses struct{ *memStore }

func (f *fakeCourses) sorted(filter func(*models.Course) bool) []models.Course {
	var out []models.Course
	for _, c := range f.courses {
		if filter(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	return items[offset:min(offset+limit, len(items))]
}

func (f *fakeCourses) List(ctx context.Context, search string, offset, limit int) ([]models.Course, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.sorted(func(c *models.Course) bool { return search == "" || containsFold(c.Title, search) })
	return page(all, offset, limit), len(all), nil
}

func (f *fakeCourses) ListByOwner(ctx context.Context, ownerID, offset, limit int) ([]models.Course, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.sorted(func(c *models.Course) bool { return c.OwnerID == ownerID })
	return page(all, offset, limit), len(all), nil
}

func (f *fakeCourses) GetByID(ctx context.Context, id int) (*models.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courses[id]
	if !ok {
		return nil, apperrors.NotFound("course not found")
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCourses) GetOwnerID(ctx context.Context, id int) (int, error) {
	c, err := f.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return c.OwnerID, nil
}

func (f *fakeCourses) Create(ctx context.Context, course *models.Course) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	course.ID = f.id()
	course.CreatedAt, course.UpdatedAt = time.Now(), time.Now()
	cp := *course
	f.courses[course.ID] = &cp
	return nil
}

func (f *fakeCourses) Update(ctx context.Context, id int, req *models.UpdateCourseRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courses[id]
	if !ok {
		return apperrors.NotFound("course not found")
	}
	if req.Title != nil {
		c.Title = *req.Title
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Price != nil {
		c.Price = *req.Price
	}
	if req.Preview != nil {
		c.Preview = *req.Preview
	}
	return nil
}

func (f *fakeCourses) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.courses[id]; !ok {
		return apperrors.NotFound("course not found")
	}
	for _, mod := range f.modules {
		if mod.CourseID == id {
			f.deleteModuleTree(mod.ID)
		}
	}
	f.modules = slices.DeleteFunc(f.modules, func(mod *models.Module) bool { return mod.CourseID == id })
	for key := range f.memberships {
		if key.courseID == id {
			delete(f.memberships, key)
		}
	}
	delete(f.courses, id)
	return nil
}

func (f *fakeCourses) Outline(ctx context.Context, courseID int) ([]models.ModuleOutline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	outline := []models.ModuleOutline{}
	for _, mod := range f.modulesOf(courseID) {
		entry := models.ModuleOutline{ModuleNum: mod.ModuleNum, Title: mod.Title, Description: mod.Description, Lessons: []models.LessonOutline{}}
		for _, l := range f.lessonsOf(mod.ID) {
			entry.Lessons = append(entry.Lessons, models.LessonOutline{LessonNum: l.LessonNum, Title: l.Title, Description: l.Description})
		}
		outline = append(outline, entry)
	}
	return outline, nil
}

func (m *memStore) modulesOf(courseID int) []*models.Module {
	var out []*models.Module
	for _, mod := range m.modules {
		if mod.CourseID == courseID {
			out = append(out, mod)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModuleNum < out[j].ModuleNum })
	return out
}

func (m *memStore) lessonsOf(moduleID int) []*models.Lesson {
	var out []*models.Lesson
	for _, l := range m.lessons {
		if l.ModuleID == moduleID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LessonNum < out[j].LessonNum })
	return out
}

func (m *memStore) stepsOf(lessonID int) []*models.Step {
	var out []*models.Step
	for _, s := range m.steps {
		if s.LessonID == lessonID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepNum < out[j].StepNum })
	return out
}

func (m *memStore) contentsOf(stepID int) []*models.Content {
	var out []*models.Content
	for _, c := range m.contents {
		if c.StepID == stepID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ContentNum < out[j].ContentNum })
	return out
}

func (m *memStore) deleteModuleTree(moduleID int) {
	for _, l := range m.lessonsOf(moduleID) {
		m.deleteLessonTree(l.ID)
	}
	m.lessons = slices.DeleteFunc(m.lessons, func(l *models.Lesson) bool { return l.ModuleID == moduleID })
}

func (m *memStore) deleteLessonTree(lessonID int) {
	for _, s := range m.stepsOf(lessonID) {
		m.contents = slices.DeleteFunc(m.contents, func(c *models.Content) bool { return c.StepID == s.ID })
	}
	m.steps = slices.DeleteFunc(m.steps, func(s *models.Step) bool { return s.LessonID == lessonID })
}

type fakeModules struct{ *memStore }

func (f *fakeModules) find(courseID, num int) *models.Module {
	for _, mod := range f.modules {
		if mod.CourseID == courseID && mod.ModuleNum == num {
			return mod
		}
	}
	return nil
}

func (f *fakeModules) Get(ctx context.Context, courseID, num int) (*models.Module, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mod := f.find(courseID, num)
	if mod == nil {
		return nil, apperrors.NotFound("module not found")
	}
	cp := *mod
	return &cp, nil
}

func (f *fakeModules) Create(ctx context.Context, module *models.Module) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.courses[module.CourseID]; !ok {
		return apperrors.NotFound("parent of module not found")
	}
	module.ID = f.id()
	module.ModuleNum = len(f.modulesOf(module.CourseID)) + 1
	cp := *module
	f.modules = append(f.modules, &cp)
	return nil
}

func (f *fakeModules) Update(ctx context.Context, id int, req *models.ModuleRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, mod := range f.modules {
		if mod.ID == id {
			if req.Title != nil {
				mod.Title = *req.Title
			}
			if req.Description != nil {
				mod.Description = *req.Description
			}
			return nil
		}
	}
	return apperrors.NotFound("module not found")
}

func (f *fakeModules) Delete(ctx context.Context, courseID, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var mod *models.Module
	for _, m := range f.modules {
		if m.CourseID == courseID && m.ID == id {
			mod = m
		}
	}
	if mod == nil {
		return apperrors.NotFound("module not found")
	}
	num := mod.ModuleNum
	f.deleteModuleTree(mod.ID)
	f.modules = slices.DeleteFunc(f.modules, func(m *models.Module) bool { return m.ID == mod.ID })
	for _, m := range f.modules {
		if m.CourseID == courseID && m.ModuleNum > num {
			m.ModuleNum--
		}
	}
	return nil
}

// racingModules runs afterGet once, right after the first successful Get, to
// emulate a request that commits between path resolution and the delete
type racingModules struct {
	*fakeModules
	afterGet func()
}

func (r *racingModules) Get(ctx context.Context, courseID, num int) (*models.Module, error) {
	mod, err := r.fakeModules.Get(ctx, courseID, num)
	if err == nil && r.afterGet != nil {
		hook := r.afterGet
		r.afterGet = nil
		hook()
	}
	return mod, err
}

type fakeLessons struct{ *memStore }

func (f *fakeLessons) find(courseID, moduleNum, lessonNum int) *models.Lesson {
	mod := (&fakeModules{f.memStore}).find(courseID, moduleNum)
	if mod == nil {
		return nil
	}
	for _, l := range f.lessons {
		if l.ModuleID == mod.ID && l.LessonNum == lessonNum {
			l.CourseID, l.ModuleNum = mod.CourseID, mod.ModuleNum
			return l
		}
	}
	return nil
}

func (f *fakeLessons) Get(ctx context.Context, courseID, moduleNum, lessonNum int) (*models.Lesson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := f.find(courseID, moduleNum, lessonNum)
	if l == nil {
		return nil, apperrors.NotFound("lesson not found")
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLessons) ListOutline(ctx context.Context, moduleID int) ([]models.LessonOutline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.LessonOutline{}
	for _, l := range f.lessonsOf(moduleID) {
		out = append(out, models.LessonOutline{LessonNum: l.LessonNum, Title: l.Title, Description: l.Description})
	}
	return out, nil
}

func (f *fakeLessons) Create(ctx context.Context, lesson *models.Lesson) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	lesson.ID = f.id()
	lesson.LessonNum = len(f.lessonsOf(lesson.ModuleID)) + 1
	cp := *lesson
	f.lessons = append(f.lessons, &cp)
	return nil
}

func (f *fakeLessons) Update(ctx context.Context, id int, req *models.LessonRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.lessons {
		if l.ID == id {
			if req.Title != nil {
				l.Title = *req.Title
			}
			if req.Description != nil {
				l.Description = *req.Description
			}
			return nil
		}
	}
	return apperrors.NotFound("lesson not found")
}

func (f *fakeLessons) Delete(ctx context.Context, moduleID, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var target *models.Lesson
	for _, l := range f.lessons {
		if l.ModuleID == moduleID && l.ID == id {
			target = l
		}
	}
	if target == nil {
		return apperrors.NotFound("lesson not found")
	}
	num := target.LessonNum
	f.deleteLessonTree(target.ID)
	f.lessons = slices.DeleteFunc(f.lessons, func(l *models.Lesson) bool { return l.ID == target.ID })
	for _, l := range f.lessons {
		if l.ModuleID == moduleID && l.LessonNum > num {
			l.LessonNum--
		}
	}
	return nil
}

type fakeSteps struct{ *memStore }

func (f *fakeSteps) find(path models.Path) *models.Step {
	lesson := (&fakeLessons{f.memStore}).find(path.CourseID, path.ModuleNum, path.LessonNum)
	if lesson == nil {
		return nil
	}
	for _, s := range f.steps {
		if s.LessonID == lesson.ID && s.StepNum == path.StepNum {
			s.CourseID = lesson.CourseID
			return s
		}
	}
	return nil
}

func (f *fakeSteps) Get(ctx context.Context, path models.Path) (*models.Step, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.find(path)
	if s == nil {
		return nil, apperrors.NotFound("step not found")
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSteps) ListByLesson(ctx context.Context, lessonID, offset, limit int) ([]models.Step, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []models.Step
	for _, s := range f.stepsOf(lessonID) {
		all = append(all, *s)
	}
	return page(all, offset, limit), len(all), nil
}

func (f *fakeSteps) Create(ctx context.Context, step *models.Step) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	step.ID = f.id()
	step.StepNum = len(f.stepsOf(step.LessonID)) + 1
	cp := *step
	f.steps = append(f.steps, &cp)
	return nil
}

func (f *fakeSteps) Delete(ctx context.Context, lessonID, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var target *models.Step
	for _, s := range f.steps {
		if s.LessonID == lessonID && s.ID == id {
			target = s
		}
	}
	if target == nil {
		return apperrors.NotFound("step not found")
	}
	num := target.StepNum
	f.contents = slices.DeleteFunc(f.contents, func(c *models.Content) bool { return c.StepID == target.ID })
	f.steps = slices.DeleteFunc(f.steps, func(s *models.Step) bool { return s.ID == target.ID })
	for _, s := range f.steps {
		if s.LessonID == lessonID && s.StepNum > num {
			s.StepNum--
		}
	}
	return nil
}

type fakeContents struct{ *memStore }

func (f *fakeContents) Get(ctx context.Context, path models.Path) (*models.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	step := (&fakeSteps{f.memStore}).find(path)
	if step != nil {
		for _, c := range f.contentsOf(step.ID) {
			if c.ContentNum == path.ContentNum {
				cp := *c
				cp.CourseID = step.CourseID
				return &cp, nil
			}
		}
	}
	return nil, apperrors.NotFound("content not found")
}

func (f *fakeContents) ListBySteps(ctx context.Context, stepIDs []int) (map[int][]models.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int][]models.Content)
	for _, id := range stepIDs {
		for _, c := range f.contentsOf(id) {
			out[id] = append(out[id], *c)
		}
	}
	return out, nil
}

func (f *fakeContents) Create(ctx context.Context, content *models.Content) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := 1
	for _, c := range f.contentsOf(content.StepID) {
		next = max(next, c.ContentNum+1)
	}
	content.ID = f.id()
	content.ContentNum = next
	cp := *content
	f.contents = append(f.contents, &cp)
	return nil
}

func (f *fakeContents) Update(ctx context.Context, id int, req *models.UpdateContentRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contents {
		if c.ID == id {
			if req.ContentType != nil {
				c.ContentType = *req.ContentType
			}
			if req.Text != nil {
				c.Text = req.Text
			}
			if req.Media != nil {
				c.Media = req.Media
			}
			if req.Width != nil {
				c.Width = req.Width
			}
			if req.Height != nil {
				c.Height = req.Height
			}
			return nil
		}
	}
	return apperrors.NotFound("content not found")
}

func (f *fakeContents) Delete(ctx context.Context, stepID, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	num := 0
	for _, c := range f.contents {
		if c.StepID == stepID && c.ID == id {
			num = c.ContentNum
		}
	}
	if num == 0 {
		return apperrors.NotFound("content not found")
	}
	f.contents = slices.DeleteFunc(f.contents, func(c *models.Content) bool { return c.ID == id })
	for _, c := range f.contents {
		if c.StepID == stepID && c.ContentNum > num {
			c.ContentNum--
		}
	}
	return nil
}

func (f *fakeContents) Replace(ctx context.Context, stepID int, target []models.Content) ([]models.Content, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contents = slices.DeleteFunc(f.contents, func(c *models.Content) bool { return c.StepID == stepID })
	out := []models.Content{}
	for _, c := range target {
		c.ID = f.id()
		c.StepID = stepID
		cp := c
		f.contents = append(f.contents, &cp)
	}
	for _, c := range f.contentsOf(stepID) {
		out = append(out, *c)
	}
	return out, nil
}

type fakeMemberships struct{ *memStore }

func (f *fakeMemberships) Add(ctx context.Context, userID, courseID int, kind models.MembershipKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := memberKey{userID, courseID, kind}
	if f.memberships[key] {
		return apperrors.Conflict("membership already exists")
	}
	f.memberships[key] = true
	return nil
}

func (f *fakeMemberships) Remove(ctx context.Context, userID, courseID int, kind models.MembershipKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := memberKey{userID, courseID, kind}
	if !f.memberships[key] {
		return apperrors.Conflict("membership does not exist")
	}
	delete(f.memberships, key)
	return nil
}

func (f *fakeMemberships) Exists(ctx context.Context, userID, courseID int, kind models.MembershipKind) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.memberships[memberKey{userID, courseID, kind}], nil
}

func (f *fakeMemberships) ListCourses(ctx context.Context, userID int, kind models.MembershipKind, offset, limit int) ([]models.Course, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := (&fakeCourses{f.memStore}).sorted(func(c *models.Course) bool {
		return f.memberships[memberKey{userID, c.ID, kind}]
	})
	return page(all, offset, limit), len(all), nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
