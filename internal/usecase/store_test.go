package usecase_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"referral-backend/internal/domain"
)

// memStore is an in-memory backend with the same atomicity guarantees as the
// SQL repositories: every multi-step write happens under one lock.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	profiles map[string]*domain.Profile
	jobs     map[int64]*domain.Job
	apps     map[int64]*domain.Application
	proxies  map[int64]*domain.ProxyEmail
	forwards map[int64]*domain.EmailForward
	txns     map[string]*domain.Transaction
}

func newMemStore() *memStore {
	return &memStore{
		profiles: map[string]*domain.Profile{},
		jobs:     map[int64]*domain.Job{},
		apps:     map[int64]*domain.Application{},
		proxies:  map[int64]*domain.ProxyEmail{},
		forwards: map[int64]*domain.EmailForward{},
		txns:     map[string]*domain.Transaction{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) Profiles() *memProfiles         { return &memProfiles{s} }
func (s *memStore) Jobs() *memJobs                 { return &memJobs{s} }
func (s *memStore) Applications() *memApplications { return &memApplications{s} }
func (s *memStore) Proxies() *memProxies           { return &memProxies{s} }
func (s *memStore) Forwards() *memForwards         { return &memForwards{s} }
func (s *memStore) Transactions() *memTransactions { return &memTransactions{s} }

// Seed helpers

func (s *memStore) addJobSeeker(id, email string, balance int) *domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &domain.Profile{ID: id, Email: email, Role: domain.RoleJobSeeker, TokenBalance: &balance,
		VerificationStatus: domain.VerificationStatusUnverified}
	s.profiles[id] = p
	return p
}

func (s *memStore) addEmployee(id, email, company string, verified bool) *domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := domain.VerificationStatusUnverified
	if verified {
		status = domain.VerificationStatusVerified
	}
	p := &domain.Profile{ID: id, Email: email, Role: domain.RoleEmployee, Company: &company,
		IsVerified: verified, VerificationStatus: status}
	s.profiles[id] = p
	return p
}

func (s *memStore) addJob(employeeID string, active bool) *domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := &domain.Job{ID: s.id(), EmployeeID: employeeID, Company: "Acme", RoleTitle: "Backend Engineer",
		Location: "Bengaluru", JobType: "full-time", ExperienceLevel: "mid", Description: "Build APIs",
		ReferralFee: domain.DefaultReferralFee, IsActive: active}
	s.jobs[j.ID] = j
	return j
}

func (s *memStore) balance(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.profiles[id]; p != nil && p.TokenBalance != nil {
		return *p.TokenBalance
	}
	return 0
}

func (s *memStore) appStatus(id int64) domain.ApplicationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.apps[id]; a != nil {
		return a.Status
	}
	return ""
}

func (s *memStore) counts() (apps, proxies, forwards int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.apps), len(s.proxies), len(s.forwards)
}

func (s *memStore) proxyFor(appID int64) *domain.ProxyEmail {
	for _, p := range s.proxies {
		if p.ApplicationID == appID {
			return p
		}
	}
	return nil
}

// Profiles

type memProfiles struct{ *memStore }

func (r *memProfiles) Create(_ context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.ID]; ok {
		return domain.ErrAlreadyOnboarded
	}
	cp := *p
	r.profiles[p.ID] = &cp
	return nil
}

func (r *memProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	if p.TokenBalance != nil {
		b := *p.TokenBalance
		cp.TokenBalance = &b
	}
	return &cp, nil
}

func (r *memProfiles) AcceptTerms(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.HasAcceptedTerms = true
	if p.TermsAcceptedAt == nil {
		p.TermsAcceptedAt = &at
	}
	return nil
}

func (r *memProfiles) UpdateVerification(_ context.Context, id string, u domain.VerificationUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.VerificationStatus = u.Status
	p.IsVerified = u.IsVerified
	p.VerificationScore = &u.Score
	p.VerificationFeedback = &u.Feedback
	p.FullName = &u.FullName
	p.Company = &u.Company
	if u.DocumentURL != nil {
		p.VerificationDocumentURL = u.DocumentURL
	}
	return nil
}

func (r *memProfiles) SetVerificationDecision(_ context.Context, id string, status domain.VerificationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.VerificationStatus = status
	p.IsVerified = status == domain.VerificationStatusVerified
	return nil
}

func (r *memProfiles) ListByVerificationStatus(_ context.Context, status domain.VerificationStatus) ([]domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Profile{}
	for _, p := range r.profiles {
		if p.VerificationStatus == status {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memProfiles) Ban(_ context.Context, id, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.IsBanned = true
	p.BanReason = &reason
	return nil
}

// Jobs

type memJobs struct{ *memStore }

func (r *memJobs) Create(_ context.Context, j *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j.ID = r.id()
	cp := *j
	r.jobs[j.ID] = &cp
	return nil
}

func (r *memJobs) GetByID(_ context.Context, id int64) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (r *memJobs) ListActive(_ context.Context, limit, offset int) ([]domain.Job, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []domain.Job
	for _, j := range r.jobs {
		if j.IsActive {
			active = append(active, *j)
		}
	}
	sort.Slice(active, func(i, k int) bool { return active[i].ID > active[k].ID })
	total := int64(len(active))
	if offset >= len(active) {
		return []domain.Job{}, total, nil
	}
	end := min(offset+limit, len(active))
	return active[offset:end], total, nil
}

func (r *memJobs) ListByEmployee(_ context.Context, employeeID string) ([]domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Job{}
	for _, j := range r.jobs {
		if j.EmployeeID == employeeID {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (r *memJobs) SetActive(_ context.Context, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	j.IsActive = active
	return nil
}

// Applications

type memApplications struct{ *memStore }

func (r *memApplications) exists(jobID int64, seekerID string) bool {
	for _, a := range r.apps {
		if a.JobID == jobID && a.JobSeekerID == seekerID {
			return true
		}
	}
	return false
}

func (r *memApplications) CheckExists(_ context.Context, jobID int64, seekerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exists(jobID, seekerID), nil
}

func (r *memApplications) CreateWithTokenDebit(_ context.Context, app *domain.Application) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.profiles[app.JobSeekerID]
	if p == nil || p.Role != domain.RoleJobSeeker || p.TokenBalance == nil || *p.TokenBalance < 1 {
		return 0, domain.ErrInsufficientTokens
	}
	if r.exists(app.JobID, app.JobSeekerID) {
		return 0, domain.ErrDuplicateApplication
	}
	*p.TokenBalance--
	app.ID = r.id()
	cp := *app
	r.apps[app.ID] = &cp
	return *p.TokenBalance, nil
}

func (r *memApplications) GetByID(_ context.Context, id int64) (*domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memApplications) GetReviewTarget(_ context.Context, id int64) (*domain.ReviewTarget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	t := &domain.ReviewTarget{Application: *a}
	if j := r.jobs[a.JobID]; j != nil {
		t.JobEmployeeID = j.EmployeeID
		t.Application.JobRoleTitle = &j.RoleTitle
		t.Application.JobCompany = &j.Company
	}
	if p := r.profiles[a.JobSeekerID]; p != nil {
		email := p.Email
		t.SeekerEmail = &email
		t.Application.CandidateName = p.FullName
	}
	if px := r.proxyFor(id); px != nil {
		addr := px.ProxyAddress
		t.ProxyAddress = &addr
	}
	return t, nil
}

func (r *memApplications) AcceptWithProxy(_ context.Context, id int64, proxy *domain.ProxyEmail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok {
		return domain.ErrNotFound
	}
	if a.Status != domain.ApplicationStatusPending {
		return domain.ErrInvalidTransition
	}
	for _, p := range r.proxies {
		if p.ProxyAddress == proxy.ProxyAddress {
			return domain.ErrAliasTaken
		}
		if p.ApplicationID == id {
			return domain.ErrInvalidTransition
		}
	}
	a.Status = domain.ApplicationStatusAccepted
	proxy.ID = r.id()
	proxy.ApplicationID = id
	proxy.IsActive = true
	cp := *proxy
	r.proxies[proxy.ID] = &cp
	return nil
}

func (r *memApplications) UpdateStatusFrom(_ context.Context, id int64, from, to domain.ApplicationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	if !ok {
		return domain.ErrNotFound
	}
	if a.Status != from || !from.CanTransitionTo(to) {
		return domain.ErrInvalidTransition
	}
	a.Status = to
	return nil
}

func (r *memApplications) ListByJobSeeker(_ context.Context, seekerID string) ([]domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Application{}
	for _, a := range r.apps {
		if a.JobSeekerID == seekerID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memApplications) ListByJob(_ context.Context, jobID int64) ([]domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Application{}
	for _, a := range r.apps {
		if a.JobID == jobID {
			out = append(out, *a)
		}
	}
	return out, nil
}

// Proxy emails

type memProxies struct{ *memStore }

func (r *memProxies) GetActiveByAddress(_ context.Context, address string) (*domain.ProxyEmail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.proxies {
		if p.ProxyAddress == address && p.IsActive {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrProxyNotFound
}

func (r *memProxies) GetByApplicationID(_ context.Context, appID int64) (*domain.ProxyEmail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.proxyFor(appID); p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrProxyNotFound
}

func (r *memProxies) ConfirmReferral(_ context.Context, proxy *domain.ProxyEmail, fwd *domain.EmailForward) (domain.ConfirmationOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[proxy.ApplicationID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	switch a.Status {
	case domain.ApplicationStatusReferred:
		return domain.ConfirmationDuplicate, nil
	case domain.ApplicationStatusAccepted:
	default:
		return 0, domain.ErrInvalidTransition
	}
	a.Status = domain.ApplicationStatusReferred
	fwd.ID = r.id()
	fwd.ProxyEmailID = proxy.ID
	fwd.ApplicationID = proxy.ApplicationID
	fwd.Status = domain.ForwardStatusPending
	cp := *fwd
	r.forwards[fwd.ID] = &cp
	return domain.ConfirmationApplied, nil
}

// Forwards

type memForwards struct{ *memStore }

func (r *memForwards) mark(id int64, status domain.ForwardStatus, reason *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.forwards[id]
	if !ok {
		return domain.ErrNotFound
	}
	f.Status = status
	f.Attempts++
	f.LastError = reason
	return nil
}

func (r *memForwards) MarkSent(_ context.Context, id int64) error {
	return r.mark(id, domain.ForwardStatusSent, nil)
}

func (r *memForwards) MarkFailed(_ context.Context, id int64, reason string) error {
	return r.mark(id, domain.ForwardStatusFailed, &reason)
}

func (r *memForwards) ListRetryable(_ context.Context, maxAttempts, limit int) ([]domain.EmailForward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.EmailForward{}
	for _, f := range r.forwards {
		if f.Status == domain.ForwardStatusFailed && f.Attempts < maxAttempts && len(out) < limit {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *memForwards) get(id int64) domain.EmailForward {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.forwards[id]
}

// Transactions

type memTransactions struct{ *memStore }

func (r *memTransactions) Create(_ context.Context, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.id()
	cp := *t
	r.txns[t.ProviderOrderID] = &cp
	return nil
}

func (r *memTransactions) CompleteAndCredit(_ context.Context, orderID, paymentID string) (*domain.CreditResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.txns[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p := r.profiles[t.UserID]
	if p == nil {
		return nil, domain.ErrNotFound
	}
	res := &domain.CreditResult{UserID: t.UserID, TokensAdded: t.TokensAdded}
	if t.Status == domain.TransactionStatusSuccess {
		res.AlreadyProcessed = true
	} else {
		t.Status = domain.TransactionStatusSuccess
		t.ProviderPaymentID = &paymentID
		b := 0
		if p.TokenBalance != nil {
			b = *p.TokenBalance
		}
		b += t.TokensAdded
		p.TokenBalance = &b
	}
	bal := *p.TokenBalance
	res.TokenBalance = &bal
	return res, nil
}

func (r *memTransactions) List(_ context.Context) ([]domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Transaction{}
	for _, t := range r.txns {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memTransactions) status(orderID string) domain.TransactionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t := r.txns[orderID]; t != nil {
		return t.Status
	}
	return ""
}

var (
	_ domain.ProfileRepository      = (*memProfiles)(nil)
	_ domain.JobRepository          = (*memJobs)(nil)
	_ domain.ApplicationRepository  = (*memApplications)(nil)
	_ domain.ProxyEmailRepository   = (*memProxies)(nil)
	_ domain.EmailForwardRepository = (*memForwards)(nil)
	_ domain.TransactionRepository  = (*memTransactions)(nil)
)
