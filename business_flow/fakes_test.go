package businessflow_test

import (
	"context"
	"sync"
	"time"

	businessflow "github.com/StevenOng97/backend-saas/business_flow"
	"github.com/StevenOng97/backend-saas/models"
	"github.com/StevenOng97/backend-saas/repository"
)

// In-memory repository fakes. Each embeds the repository interface so only
// the methods the flows actually touch need an implementation; calling an
// unimplemented one panics, which is the failure we want in a test.

type memInviteRepo struct {
	repository.InviteRepository
	mu        sync.Mutex
	seq       uint
	invites   map[uint]*models.Invite
	saveErr   error
	existsErr error
}

func newMemInviteRepo() *memInviteRepo {
	return &memInviteRepo{invites: map[uint]*models.Invite{}}
}

func (r *memInviteRepo) add(invite *models.Invite) *models.Invite {
	r.mu.Lock()
	defer r.mu.Unlock()
	if invite.ID == 0 {
		r.seq++
		invite.ID = r.seq
	} else if invite.ID > r.seq {
		r.seq = invite.ID
	}
	r.invites[invite.ID] = invite
	return invite
}

func (r *memInviteRepo) ByID(ctx context.Context, id uint) (*models.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.invites[id], nil
}

func (r *memInviteRepo) ByShortID(ctx context.Context, shortID string) (*models.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, invite := range r.invites {
		if invite.ShortID == shortID {
			return invite, nil
		}
	}
	return nil, nil
}

func (r *memInviteRepo) ExistsByShortID(ctx context.Context, shortID string) (bool, error) {
	if r.existsErr != nil {
		return false, r.existsErr
	}
	invite, _ := r.ByShortID(ctx, shortID)
	return invite != nil, nil
}

func (r *memInviteRepo) Save(ctx context.Context, invite *models.Invite) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.add(invite)
	return nil
}

func (r *memInviteRepo) SaveBatch(ctx context.Context, invites []*models.Invite) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	for _, invite := range invites {
		r.add(invite)
	}
	return nil
}

func (r *memInviteRepo) Update(ctx context.Context, invite *models.Invite) error {
	r.add(invite)
	return nil
}

func (r *memInviteRepo) UpdateStatus(ctx context.Context, inviteID uint, status models.InviteStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if invite, ok := r.invites[inviteID]; ok {
		invite.Status = status
	}
	return nil
}

type memCustomerRepo struct {
	repository.CustomerRepository
	mu        sync.Mutex
	customers map[uint]*models.Customer
}

func newMemCustomerRepo() *memCustomerRepo {
	return &memCustomerRepo{customers: map[uint]*models.Customer{}}
}

func (r *memCustomerRepo) add(customer *models.Customer) *models.Customer {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[customer.ID] = customer
	return customer
}

func (r *memCustomerRepo) ByID(ctx context.Context, id uint) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.customers[id], nil
}

func (r *memCustomerRepo) ByIDForBusiness(ctx context.Context, customerID, businessID uint) (*models.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, ok := r.customers[customerID]
	if !ok || customer.BusinessID != businessID {
		return nil, nil
	}
	return customer, nil
}

func (r *memCustomerRepo) SetOptedOutByPhone(ctx context.Context, phone string, optedOut bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var updated int64
	for _, customer := range r.customers {
		if customer.Phone != nil && *customer.Phone == phone {
			value := optedOut
			customer.OptedOut = &value
			updated++
		}
	}
	return updated, nil
}

func (r *memCustomerRepo) UpdateStatus(ctx context.Context, customerID uint, status models.CustomerStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if customer, ok := r.customers[customerID]; ok {
		customer.Status = status
	}
	return nil
}

func (r *memCustomerRepo) Count(ctx context.Context, filter models.CustomerFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, customer := range r.customers {
		if filter.BusinessID != nil && customer.BusinessID != *filter.BusinessID {
			continue
		}
		count++
	}
	return count, nil
}

type memBusinessRepo struct {
	repository.BusinessRepository
	businesses map[uint]*models.Business
}

func newMemBusinessRepo() *memBusinessRepo {
	return &memBusinessRepo{businesses: map[uint]*models.Business{}}
}

func (r *memBusinessRepo) add(business *models.Business) *models.Business {
	r.businesses[business.ID] = business
	return business
}

func (r *memBusinessRepo) ByID(ctx context.Context, id uint) (*models.Business, error) {
	return r.businesses[id], nil
}

type memUserRepo struct {
	repository.UserRepository
	adminsByOrg map[uint][]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{adminsByOrg: map[uint][]*models.User{}}
}

func (r *memUserRepo) ListAdminsByOrganization(ctx context.Context, organizationID uint) ([]*models.User, error) {
	return r.adminsByOrg[organizationID], nil
}

type memTemplateRepo struct {
	repository.SmsTemplateRepository
	defaults map[uint]*models.SmsTemplate
	byID     map[uint]*models.SmsTemplate
	err      error
}

func newMemTemplateRepo() *memTemplateRepo {
	return &memTemplateRepo{
		defaults: map[uint]*models.SmsTemplate{},
		byID:     map[uint]*models.SmsTemplate{},
	}
}

func (r *memTemplateRepo) add(template *models.SmsTemplate) *models.SmsTemplate {
	r.byID[template.ID] = template
	return template
}

func (r *memTemplateRepo) ByID(ctx context.Context, id uint) (*models.SmsTemplate, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.byID[id], nil
}

func (r *memTemplateRepo) DefaultForBusiness(ctx context.Context, businessID uint) (*models.SmsTemplate, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.defaults[businessID], nil
}

type memSmsLogRepo struct {
	repository.SmsLogRepository
	mu   sync.Mutex
	seq  uint
	logs map[uint]*models.SmsLog
}

func newMemSmsLogRepo() *memSmsLogRepo {
	return &memSmsLogRepo{logs: map[uint]*models.SmsLog{}}
}

func (r *memSmsLogRepo) add(log *models.SmsLog) *models.SmsLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	if log.ID == 0 {
		r.seq++
		log.ID = r.seq
	}
	r.logs[log.ID] = log
	return log
}

func (r *memSmsLogRepo) Save(ctx context.Context, log *models.SmsLog) error {
	r.add(log)
	return nil
}

func (r *memSmsLogRepo) Update(ctx context.Context, log *models.SmsLog) error {
	r.add(log)
	return nil
}

func (r *memSmsLogRepo) ByProviderSID(ctx context.Context, sid string) (*models.SmsLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, log := range r.logs {
		if log.ProviderSID == sid {
			return log, nil
		}
	}
	return nil, nil
}

func (r *memSmsLogRepo) all() []*models.SmsLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.SmsLog, 0, len(r.logs))
	for _, log := range r.logs {
		out = append(out, log)
	}
	return out
}

type memRatingRepo struct {
	repository.RatingRepository
	mu      sync.Mutex
	seq     uint
	ratings map[uint]*models.Rating
}

func newMemRatingRepo() *memRatingRepo {
	return &memRatingRepo{ratings: map[uint]*models.Rating{}}
}

func (r *memRatingRepo) add(rating *models.Rating) *models.Rating {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rating.ID == 0 {
		r.seq++
		rating.ID = r.seq
	}
	r.ratings[rating.ID] = rating
	return rating
}

func (r *memRatingRepo) ByID(ctx context.Context, id uint) (*models.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ratings[id], nil
}

func (r *memRatingRepo) ByInviteID(ctx context.Context, inviteID uint) (*models.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rating := range r.ratings {
		if rating.InviteID == inviteID {
			return rating, nil
		}
	}
	return nil, nil
}

func (r *memRatingRepo) Save(ctx context.Context, rating *models.Rating) error {
	r.add(rating)
	return nil
}

type memFeedbackRepo struct {
	repository.FeedbackRepository
	mu         sync.Mutex
	seq        uint
	feedback   map[uint]*models.Feedback
	byBusiness map[uint][]*models.Feedback
}

func newMemFeedbackRepo() *memFeedbackRepo {
	return &memFeedbackRepo{
		feedback:   map[uint]*models.Feedback{},
		byBusiness: map[uint][]*models.Feedback{},
	}
}

func (r *memFeedbackRepo) addForBusiness(businessID uint, fb *models.Feedback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fb.ID == 0 {
		r.seq++
		fb.ID = r.seq
	}
	r.feedback[fb.ID] = fb
	r.byBusiness[businessID] = append(r.byBusiness[businessID], fb)
}

func (r *memFeedbackRepo) ListByBusiness(ctx context.Context, businessID uint, limit, offset int) ([]*models.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.byBusiness[businessID]
	if offset >= len(rows) {
		return nil, nil
	}
	rows = rows[offset:]
	if limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r *memFeedbackRepo) Save(ctx context.Context, fb *models.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fb.ID == 0 {
		r.seq++
		fb.ID = r.seq
	}
	r.feedback[fb.ID] = fb
	return nil
}

func (r *memFeedbackRepo) ByRatingID(ctx context.Context, ratingID uint) (*models.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, fb := range r.feedback {
		if fb.RatingID == ratingID {
			return fb, nil
		}
	}
	return nil, nil
}

// fakeTransactor runs the function inline without a database
type fakeTransactor struct {
	err error
}

func (t *fakeTransactor) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.err != nil {
		return t.err
	}
	return fn(ctx)
}

// fakeEnqueuer captures dispatch jobs instead of touching redis
type fakeEnqueuer struct {
	mu       sync.Mutex
	jobs     []businessflow.DispatchJob
	delays   []time.Duration
	interval time.Duration
	err      error
}

func (e *fakeEnqueuer) EnqueueDispatch(ctx context.Context, job businessflow.DispatchJob, delay time.Duration) error {
	if e.err != nil {
		return e.err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.jobs = append(e.jobs, job)
	e.delays = append(e.delays, delay)
	return nil
}

func (e *fakeEnqueuer) EnqueueDispatchBatch(ctx context.Context, jobs []businessflow.DispatchJob, baseDelay, interval time.Duration) error {
	if e.err != nil {
		return e.err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.jobs = append(e.jobs, jobs...)
	for i := range jobs {
		e.delays = append(e.delays, baseDelay+time.Duration(i)*interval)
	}
	e.interval = interval
	return nil
}

// fakeRegistrationEnqueuer captures onboarding check schedules
type fakeRegistrationEnqueuer struct {
	businessIDs []uint
	stages      []int
	delays      []time.Duration
}

func (e *fakeRegistrationEnqueuer) EnqueueRegistrationCheck(ctx context.Context, businessID uint, stage int, delay time.Duration) error {
	e.businessIDs = append(e.businessIDs, businessID)
	e.stages = append(e.stages, stage)
	e.delays = append(e.delays, delay)
	return nil
}

// fakeQuota rejects when err is set
type fakeQuota struct {
	err    error
	orgIDs []uint
	counts []int
}

func (q *fakeQuota) CheckInviteQuota(ctx context.Context, organizationID uint, count int) error {
	q.orgIDs = append(q.orgIDs, organizationID)
	q.counts = append(q.counts, count)
	return q.err
}

// fakeNotifier records negative-feedback alerts
type fakeNotifier struct {
	admins  []*models.User
	content string
	calls   int
}

func (n *fakeNotifier) NotifyNegativeFeedback(ctx context.Context, admins []*models.User, business *models.Business, customer *models.Customer, content string) []businessflow.NotifyResult {
	n.calls++
	n.admins = admins
	n.content = content
	results := make([]businessflow.NotifyResult, 0, len(admins))
	for _, admin := range admins {
		results = append(results, businessflow.NotifyResult{Email: admin.Email})
	}
	return results
}

// fakeReminderMailer records onboarding reminders
type fakeReminderMailer struct {
	emails []string
}

func (m *fakeReminderMailer) SendRegistrationReminder(ctx context.Context, admin *models.User, business *models.Business) error {
	m.emails = append(m.emails, admin.Email)
	return nil
}

// fakeSender is a scripted transport provider
type fakeSender struct {
	mu       sync.Mutex
	messages []businessflow.SMSMessage
	sid      string
	err      error
}

func (s *fakeSender) Send(ctx context.Context, msg businessflow.SMSMessage) (string, error) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	if s.sid != "" {
		return s.sid, nil
	}
	return "SM0123456789abcdef0123456789abcd", nil
}
