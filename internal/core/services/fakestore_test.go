package services_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"libralend/internal/adapters/persistence/models"
	"libralend/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// fakeStore is an in-memory Store for service tests. It reproduces the
// guarantees the services lean on: the exclusive per-user lock held until
// the transaction ends, the one-open-loan-per-copy uniqueness check
// (surfaced as gorm.ErrDuplicatedKey like the translated driver error),
// the compare-and-swap on the loan version, and rollback of writes when
// the transaction function errors.
type fakeStore struct {
	mu sync.Mutex

	users  map[uint]*models.User
	books  map[uint]*models.Book
	copies map[uint]*models.BookCopy
	loans  map[uint]*models.Loan

	nextUserID uint
	nextBookID uint
	nextCopyID uint
	nextLoanID uint

	userLocks map[uint]*sync.Mutex

	// beforeLoanCreate runs between the availability fast-path and the
	// loan insert, letting tests lose the allocation race on purpose.
	beforeLoanCreate func(s *fakeStore)
	// beforeFinishLoan runs between the loan read and the versioned save,
	// letting tests force the compare-and-swap to miss.
	beforeFinishLoan func(s *fakeStore)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[uint]*models.User),
		books:     make(map[uint]*models.Book),
		copies:    make(map[uint]*models.BookCopy),
		loans:     make(map[uint]*models.Loan),
		userLocks: make(map[uint]*sync.Mutex),
	}
}

// ---- seeding helpers ----

func (s *fakeStore) addUser(name, email string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUserID++
	u := &models.User{ID: s.nextUserID, Name: name, Email: email, Password: "x"}
	s.users[u.ID] = u
	return cloneUser(u)
}

func (s *fakeStore) addBook(title, author string) *models.Book {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextBookID++
	b := &models.Book{ID: s.nextBookID, Title: title, Author: author}
	s.books[b.ID] = b
	return cloneBook(b)
}

func (s *fakeStore) addCopy(bookID uint) *models.BookCopy {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCopyID++
	c := &models.BookCopy{ID: s.nextCopyID, BookID: bookID, AcquiredAt: time.Now()}
	s.copies[c.ID] = c
	return cloneCopy(c)
}

// addLoan seeds a loan directly, bypassing the service
func (s *fakeStore) addLoan(userID, copyID uint, loanedAt, dueTo time.Time, returnedAt *time.Time) *models.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextLoanID++
	l := &models.Loan{
		ID:       s.nextLoanID,
		UserID:   userID,
		CopyID:   copyID,
		LoanedAt: loanedAt,
		DueTo:    dueTo,
		Version:  1,
	}
	if returnedAt != nil {
		t := *returnedAt
		l.ReturnedAt = &t
	} else {
		l.Open = models.NewOpenMarker()
	}
	s.loans[l.ID] = l
	return cloneLoan(l)
}

func (s *fakeStore) loanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.loans)
}

func (s *fakeStore) bumpLoanVersion(loanID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.loans[loanID]; ok {
		l.Version++
	}
}

// ---- Store interface ----

func (s *fakeStore) Users() repositories.UserRepository      { return &fakeUserRepo{s: s} }
func (s *fakeStore) Books() repositories.BookRepository      { return &fakeBookRepo{s: s} }
func (s *fakeStore) Copies() repositories.BookCopyRepository { return &fakeCopyRepo{s: s} }
func (s *fakeStore) Loans() repositories.LoanRepository      { return &fakeLoanRepo{s: s} }

func (s *fakeStore) InTransaction(_ context.Context, fn func(tx repositories.Repos) error) error {
	t := &fakeTx{s: s}

	err := fn(t)
	if err != nil {
		t.rollback()
	}
	t.releaseLocks()
	return err
}

// fakeTx tracks the locks taken and the writes to undo on rollback
type fakeTx struct {
	s             *fakeStore
	lockedUsers   []*sync.Mutex
	insertedLoans []uint
	insertedUsers []uint
	finished      []models.Loan // pre-image of loans updated by FinishLoan
}

func (t *fakeTx) Users() repositories.UserRepository      { return &fakeUserRepo{s: t.s, tx: t} }
func (t *fakeTx) Books() repositories.BookRepository      { return &fakeBookRepo{s: t.s} }
func (t *fakeTx) Copies() repositories.BookCopyRepository { return &fakeCopyRepo{s: t.s, tx: t} }
func (t *fakeTx) Loans() repositories.LoanRepository      { return &fakeLoanRepo{s: t.s, tx: t} }

func (t *fakeTx) rollback() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for _, id := range t.insertedLoans {
		delete(t.s.loans, id)
	}
	for _, id := range t.insertedUsers {
		delete(t.s.users, id)
	}
	for i := range t.finished {
		prior := t.finished[i]
		t.s.loans[prior.ID] = cloneLoan(&prior)
	}
}

func (t *fakeTx) releaseLocks() {
	for _, m := range t.lockedUsers {
		m.Unlock()
	}
	t.lockedUsers = nil
}

// ---- repositories ----

type fakeUserRepo struct {
	s  *fakeStore
	tx *fakeTx
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}

	r.s.nextUserID++
	user.ID = r.s.nextUserID
	r.s.users[user.ID] = cloneUser(user)
	if r.tx != nil {
		r.tx.insertedUsers = append(r.tx.insertedUsers, user.ID)
	}
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneUser(u), nil
}

func (r *fakeUserRepo) GetByIDForUpdate(_ context.Context, id uint) (*models.User, error) {
	r.s.mu.Lock()
	u, ok := r.s.users[id]
	if !ok {
		r.s.mu.Unlock()
		return nil, gorm.ErrRecordNotFound
	}

	lock, exists := r.s.userLocks[id]
	if !exists {
		lock = &sync.Mutex{}
		r.s.userLocks[id] = lock
	}
	user := cloneUser(u)
	r.s.mu.Unlock()

	// Block like a row lock; released when the transaction ends.
	lock.Lock()
	if r.tx != nil {
		r.tx.lockedUsers = append(r.tx.lockedUsers, lock)
	} else {
		lock.Unlock()
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Exists(_ context.Context, id uint) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.users[id]
	return ok, nil
}

func (r *fakeUserRepo) List(_ context.Context, offset, limit int) ([]*models.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	users := make([]*models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	total := int64(len(users))
	return page(users, offset, limit), total, nil
}

type fakeBookRepo struct {
	s *fakeStore
}

func (r *fakeBookRepo) Create(_ context.Context, book *models.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextBookID++
	book.ID = r.s.nextBookID
	r.s.books[book.ID] = cloneBook(book)
	return nil
}

func (r *fakeBookRepo) GetByID(_ context.Context, id uint) (*models.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.books[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneBook(b), nil
}

func (r *fakeBookRepo) Exists(_ context.Context, id uint) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.books[id]
	return ok, nil
}

func (r *fakeBookRepo) List(_ context.Context, offset, limit int) ([]*models.Book, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	books := make([]*models.Book, 0, len(r.s.books))
	for _, b := range r.s.books {
		books = append(books, cloneBook(b))
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	total := int64(len(books))
	return page(books, offset, limit), total, nil
}

type fakeCopyRepo struct {
	s  *fakeStore
	tx *fakeTx
}

func (r *fakeCopyRepo) Create(_ context.Context, copy *models.BookCopy) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextCopyID++
	copy.ID = r.s.nextCopyID
	r.s.copies[copy.ID] = cloneCopy(copy)
	return nil
}

func (r *fakeCopyRepo) GetByID(_ context.Context, id uint) (*models.BookCopy, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.copies[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneCopy(c), nil
}

func (r *fakeCopyRepo) ListByBook(_ context.Context, bookID uint) ([]*models.BookCopy, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	copies := make([]*models.BookCopy, 0)
	for _, c := range r.s.copies {
		if c.BookID == bookID {
			copies = append(copies, cloneCopy(c))
		}
	}
	sort.Slice(copies, func(i, j int) bool { return copies[i].ID < copies[j].ID })
	return copies, nil
}

func (r *fakeCopyRepo) GetAvailableForBook(_ context.Context, bookID uint) (*models.BookCopy, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := make([]uint, 0)
	for _, c := range r.s.copies {
		if c.BookID == bookID && !r.s.copyHasOpenLoanLocked(c.ID) {
			ids = append(ids, c.ID)
		}
	}
	if len(ids) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return cloneCopy(r.s.copies[ids[0]]), nil
}

func (s *fakeStore) copyHasOpenLoanLocked(copyID uint) bool {
	for _, l := range s.loans {
		if l.CopyID == copyID && l.ReturnedAt == nil {
			return true
		}
	}
	return false
}

type fakeLoanRepo struct {
	s  *fakeStore
	tx *fakeTx
}

func (r *fakeLoanRepo) Create(_ context.Context, loan *models.Loan) error {
	if r.s.beforeLoanCreate != nil {
		r.s.beforeLoanCreate(r.s)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// The unique (copy_id, open) index in one check-and-insert step.
	if loan.Open != nil && r.s.copyHasOpenLoanLocked(loan.CopyID) {
		return gorm.ErrDuplicatedKey
	}

	r.s.nextLoanID++
	loan.ID = r.s.nextLoanID
	r.s.loans[loan.ID] = cloneLoan(loan)
	if r.tx != nil {
		r.tx.insertedLoans = append(r.tx.insertedLoans, loan.ID)
	}
	return nil
}

func (r *fakeLoanRepo) GetByID(_ context.Context, id uint) (*models.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.loans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneLoan(l), nil
}

func (r *fakeLoanRepo) CountActiveByUser(_ context.Context, userID uint) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var count int64
	for _, l := range r.s.loans {
		if l.UserID == userID && l.ReturnedAt == nil {
			count++
		}
	}
	return count, nil
}

func (r *fakeLoanRepo) ListByUser(_ context.Context, userID uint) ([]*models.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	loans := make([]*models.Loan, 0)
	for _, l := range r.s.loans {
		if l.UserID == userID {
			loans = append(loans, cloneLoan(l))
		}
	}
	sort.Slice(loans, func(i, j int) bool { return loans[i].ID < loans[j].ID })
	return loans, nil
}

func (r *fakeLoanRepo) ListActive(_ context.Context, offset, limit int) ([]*models.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return page(r.s.openLoansSortedLocked(func(*models.Loan) bool { return true }), offset, limit), nil
}

func (r *fakeLoanRepo) ListOverdue(_ context.Context, now time.Time, offset, limit int) ([]*models.Loan, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return page(r.s.openLoansSortedLocked(func(l *models.Loan) bool {
		return l.DueTo.Before(now)
	}), offset, limit), nil
}

func (s *fakeStore) openLoansSortedLocked(keep func(*models.Loan) bool) []*models.Loan {
	loans := make([]*models.Loan, 0)
	for _, l := range s.loans {
		if l.ReturnedAt == nil && keep(l) {
			loans = append(loans, cloneLoan(l))
		}
	}
	sort.Slice(loans, func(i, j int) bool {
		if !loans[i].DueTo.Equal(loans[j].DueTo) {
			return loans[i].DueTo.Before(loans[j].DueTo)
		}
		return loans[i].ID < loans[j].ID
	})
	return loans
}

func (r *fakeLoanRepo) FinishLoan(_ context.Context, loan *models.Loan) error {
	if r.s.beforeFinishLoan != nil {
		r.s.beforeFinishLoan(r.s)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.loans[loan.ID]
	if !ok || stored.Version != loan.Version {
		return repositories.ErrVersionMismatch
	}

	if r.tx != nil {
		r.tx.finished = append(r.tx.finished, *cloneLoan(stored))
	}

	stored.ReturnedAt = loan.ReturnedAt
	stored.FineCents = loan.FineCents
	stored.Open = nil
	stored.Version++

	loan.Version = stored.Version
	loan.Open = nil
	return nil
}

// ---- helpers ----

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func cloneUser(u *models.User) *models.User {
	c := *u
	return &c
}

func cloneBook(b *models.Book) *models.Book {
	c := *b
	return &c
}

func cloneCopy(bc *models.BookCopy) *models.BookCopy {
	c := *bc
	return &c
}

func cloneLoan(l *models.Loan) *models.Loan {
	c := *l
	if l.ReturnedAt != nil {
		t := *l.ReturnedAt
		c.ReturnedAt = &t
	}
	if l.Open != nil {
		o := *l.Open
		c.Open = &o
	}
	return &c
}
