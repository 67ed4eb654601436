package performance

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory StoreAPI. Every method holds the lock for its
// whole body, which gives the same all-or-nothing behaviour as the pgx
// transactions.
type memStore struct {
	mu          sync.Mutex
	employees   map[string]memEmployee
	templates   map[string]Template
	cycles      map[string]Cycle
	assignments map[string]Assignment
	records     map[string]Record
	disputes    map[string]Dispute

	failAssignments bool
}

type memEmployee struct {
	userID string
	name   string
}

func newMemStore() *memStore {
	return &memStore{
		employees:   map[string]memEmployee{},
		templates:   map[string]Template{},
		cycles:      map[string]Cycle{},
		assignments: map[string]Assignment{},
		records:     map[string]Record{},
		disputes:    map[string]Dispute{},
	}
}

func (m *memStore) addEmployee(id, userID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[id] = memEmployee{userID: userID, name: name}
}

func (m *memStore) EmployeeIDByUserID(_ context.Context, _, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.employees {
		if e.userID == userID {
			return id, nil
		}
	}
	return "", ErrEmployeeNotFound
}

func (m *memStore) EmployeeUserID(_ context.Context, _, employeeID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[employeeID]
	if !ok {
		return "", ErrEmployeeNotFound
	}
	return e.userID, nil
}

func (m *memStore) EmployeeName(_ context.Context, _, employeeID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[employeeID]
	if !ok {
		return "", ErrEmployeeNotFound
	}
	return e.name, nil
}

func (m *memStore) CreateTemplate(_ context.Context, _ string, t Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.templates {
		if existing.Name == t.Name {
			return ErrTemplateNameTaken
		}
	}
	m.templates[t.ID] = t
	return nil
}

func (m *memStore) ListTemplates(_ context.Context, _ string) ([]Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Template, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) GetTemplate(_ context.Context, _, id string) (Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return Template{}, ErrTemplateNotFound
	}
	return t, nil
}

func (m *memStore) UpdateTemplate(_ context.Context, _ string, t Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[t.ID]; !ok {
		return ErrTemplateNotFound
	}
	m.templates[t.ID] = t
	return nil
}

func (m *memStore) DeleteTemplate(_ context.Context, _, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[id]; !ok {
		return ErrTemplateNotFound
	}
	for _, a := range m.assignments {
		if a.TemplateID == id {
			return ErrTemplateInUse
		}
	}
	delete(m.templates, id)
	return nil
}

func (m *memStore) CreateCycleWithAssignments(_ context.Context, _ string, c Cycle, assignments []Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAssignments {
		return errStoreDown
	}
	for _, a := range assignments {
		if _, ok := m.employees[a.EmployeeProfileID]; !ok {
			return ErrEmployeeNotFound
		}
	}
	m.cycles[c.ID] = c
	for _, a := range assignments {
		m.assignments[a.ID] = a
	}
	return nil
}

func (m *memStore) ListCycles(_ context.Context, _ string) ([]Cycle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Cycle, 0, len(m.cycles))
	for _, c := range m.cycles {
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) GetCycle(_ context.Context, _, id string) (Cycle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cycles[id]
	if !ok {
		return Cycle{}, ErrCycleNotFound
	}
	return c, nil
}

func (m *memStore) saveCycleLocked(c Cycle, from string) error {
	stored, ok := m.cycles[c.ID]
	if !ok || stored.Status != from {
		return ErrInvalidTransition
	}
	m.cycles[c.ID] = c
	return nil
}

func (m *memStore) UpdateCycleStatus(_ context.Context, _ string, c Cycle, from string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCycleLocked(c, from)
}

func (m *memStore) PublishCycle(_ context.Context, _ string, c Cycle, from string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stored, ok := m.cycles[c.ID]; !ok || stored.Status != from {
		return nil, ErrInvalidTransition
	}
	var employees []string
	for id, r := range m.records {
		if r.CycleID != c.ID || r.Status != RecordStatusManagerSubmitted {
			continue
		}
		r.Status = RecordStatusHRPublished
		r.HRPublishedAt = c.PublishedAt
		m.records[id] = r
		employees = append(employees, r.EmployeeProfileID)
	}
	m.cycles[c.ID] = c
	return employees, nil
}

func (m *memStore) ArchiveCycle(_ context.Context, _ string, c Cycle, from string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.saveCycleLocked(c, from); err != nil {
		return err
	}
	for id, r := range m.records {
		if r.CycleID == c.ID {
			r.ArchivedAt = c.ArchivedAt
			m.records[id] = r
		}
	}
	return nil
}

func (m *memStore) GetAssignment(_ context.Context, _, id string) (Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok {
		return Assignment{}, ErrAssignmentNotFound
	}
	return a, nil
}

func (m *memStore) viewLocked(a Assignment) AssignmentView {
	c := m.cycles[a.CycleID]
	return AssignmentView{
		Assignment:   a,
		EmployeeName: m.employees[a.EmployeeProfileID].name,
		TemplateName: m.templates[a.TemplateID].Name,
		CycleName:    c.Name,
		CycleStatus:  c.Status,
	}
}

func (m *memStore) ListAssignments(_ context.Context, _ string, f AssignmentFilter) ([]AssignmentView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []AssignmentView{}
	for _, a := range m.assignments {
		if f.ManagerID != "" && a.ManagerProfileID != f.ManagerID {
			continue
		}
		if f.EmployeeID != "" && a.EmployeeProfileID != f.EmployeeID {
			continue
		}
		if f.CycleID != "" && a.CycleID != f.CycleID {
			continue
		}
		out = append(out, m.viewLocked(a))
	}
	return out, nil
}

func (m *memStore) ListOverdueAssignments(_ context.Context, _ string, now time.Time) ([]AssignmentView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []AssignmentView{}
	for _, a := range m.assignments {
		if m.cycles[a.CycleID].Status != CycleStatusActive || a.Status == AssignmentStatusSubmitted || !a.DueDate.Before(now) {
			continue
		}
		out = append(out, m.viewLocked(a))
	}
	return out, nil
}

func (m *memStore) GetRecord(_ context.Context, _, id string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return r, nil
}

func (m *memStore) CreateRecord(_ context.Context, _ string, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[r.AssignmentID]
	if !ok {
		return ErrAssignmentNotFound
	}
	m.records[r.ID] = r
	id := r.ID
	a.LatestAppraisalID = &id
	a.Status = AssignmentStatusInProgress
	m.assignments[a.ID] = a
	return nil
}

func (m *memStore) UpdateRecordDraft(_ context.Context, _ string, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.records[r.ID]
	if !ok {
		return ErrRecordNotFound
	}
	if stored.Status == RecordStatusHRPublished {
		return ErrRecordPublished
	}
	m.records[r.ID] = r
	if a, ok := m.assignments[r.AssignmentID]; ok && a.Status == AssignmentStatusSubmitted {
		a.Status = AssignmentStatusInProgress
		a.SubmittedAt = nil
		m.assignments[a.ID] = a
	}
	return nil
}

func (m *memStore) SubmitRecord(_ context.Context, _ string, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[r.AssignmentID]
	if !ok {
		return ErrAssignmentNotFound
	}
	m.records[r.ID] = r
	a.Status = AssignmentStatusSubmitted
	a.SubmittedAt = r.ManagerSubmittedAt
	m.assignments[a.ID] = a
	return nil
}

func (m *memStore) ListPublishedRecords(_ context.Context, _, employeeID string) ([]RecordView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []RecordView{}
	for _, r := range m.records {
		if r.EmployeeProfileID != employeeID || r.Status != RecordStatusHRPublished {
			continue
		}
		out = append(out, RecordView{
			Record:       r,
			CycleName:    m.cycles[r.CycleID].Name,
			TemplateName: m.templates[r.TemplateID].Name,
			ManagerName:  m.employees[r.ManagerProfileID].name,
			EmployeeName: m.employees[r.EmployeeProfileID].name,
		})
	}
	return out, nil
}

func (m *memStore) CreateDispute(_ context.Context, _ string, d Dispute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disputes[d.ID] = d
	return nil
}

func (m *memStore) GetDispute(_ context.Context, _, id string) (Dispute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.disputes[id]
	if !ok {
		return Dispute{}, ErrDisputeNotFound
	}
	return d, nil
}

func (m *memStore) ResolveDispute(_ context.Context, _ string, d Dispute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.disputes[d.ID]; !ok {
		return ErrDisputeNotFound
	}
	m.disputes[d.ID] = d
	return nil
}

func (m *memStore) ListDisputes(_ context.Context, _ string, f DisputeFilter) ([]Dispute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Dispute{}
	for _, d := range m.disputes {
		if f.CycleID != "" && d.CycleID != f.CycleID {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *memStore) recordCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type sentNotice struct {
	userID string
	ntype  string
}

type memNotifier struct {
	mu   sync.Mutex
	sent []sentNotice
}

func (n *memNotifier) Create(_ context.Context, _, userID, ntype, _, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotice{userID: userID, ntype: ntype})
	return nil
}

func (n *memNotifier) byType(ntype string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, s := range n.sent {
		if s.ntype == ntype {
			out = append(out, s.userID)
		}
	}
	sort.Strings(out)
	return out
}
